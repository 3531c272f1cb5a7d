package entitlement

import "errors"

var (
	ErrUnauthenticated            = errors.New("entitlement: no authenticated user")
	ErrFailedToLoadSubscription   = errors.New("entitlement: failed to load subscription")
	ErrFailedToCountResourceUsage = errors.New("entitlement: failed to count resource usage")
	ErrNoCounterRegistered        = errors.New("entitlement: no usage counter registered for resource")
	ErrFeatureNotAvailable        = errors.New("entitlement: feature not available on current plan")
	ErrLimitExceeded              = errors.New("entitlement: plan limit reached")
	ErrDowngradeNotPossible       = errors.New("entitlement: current usage exceeds target plan limits")
	ErrPlanNotFound               = errors.New("entitlement: plan not found")
	ErrSchemaMissing              = errors.New("entitlement: database schema missing, run migrations")
)

// IsUnavailable reports whether err means the entitlement could not be
// determined (backend failure, cancellation) as opposed to a denial.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrFailedToLoadSubscription) ||
		errors.Is(err, ErrFailedToCountResourceUsage) ||
		errors.Is(err, ErrNoCounterRegistered)
}
