package plans

import "errors"

var (
	ErrInvalidCatalog      = errors.New("invalid plan catalog")
	ErrFreePlanMissing     = errors.New("free plan is not defined in the catalog")
	ErrDuplicatePlan       = errors.New("duplicate plan name")
	ErrEmptyPlanName       = errors.New("plan name is empty")
	ErrMissingQuota        = errors.New("plan does not define a quota for every resource")
	ErrInvalidQuota        = errors.New("invalid plan quota")
	ErrNotSupersetOfFree   = errors.New("paid plan must include every free plan feature and quota")
	ErrUnknownFeature      = errors.New("unknown feature identifier")
	ErrUnknownResource     = errors.New("unknown resource identifier")
	ErrFailedToLoadCatalog = errors.New("failed to load plan catalog")
	ErrCatalogNotFound     = errors.New("plan catalog document not found")
	ErrNoPlans             = errors.New("plan catalog source returned no plans")
)
