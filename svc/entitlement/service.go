package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bizkit-fr/entitlements/pkg/logger"
	"github.com/bizkit-fr/entitlements/pkg/plans"
)

// Service answers entitlement questions for a user.
//
// uuid.Nil stands for an unauthenticated caller: boolean checks answer false
// without touching any backend. A nil error with a false answer means "not
// entitled"; a non-nil error means the answer could not be determined.
type Service interface {
	ResolveEffectivePlan(ctx context.Context, userID uuid.UUID) (Resolution, error)
	HasAccess(ctx context.Context, userID uuid.UUID, feature string) (bool, error)
	CanUseResource(ctx context.Context, userID uuid.UUID, resource string) (bool, error)
	CheckResource(ctx context.Context, userID uuid.UUID, res plans.Resource) (UsageInfo, bool, error)

	Usage(ctx context.Context, userID uuid.UUID, res plans.Resource) (UsageInfo, error)
	AllUsage(ctx context.Context, userID uuid.UUID) (map[plans.Resource]UsageInfo, error)
	UsagePercentage(ctx context.Context, userID uuid.UUID, res plans.Resource) int
	CanDowngrade(ctx context.Context, userID uuid.UUID, targetPlan string) error
	Entitlements(ctx context.Context, userID uuid.UUID) (Snapshot, error)

	RequireFeature(ctx context.Context, userID uuid.UUID, feature plans.Feature) error
	RequireResource(ctx context.Context, userID uuid.UUID, res plans.Resource) error

	Catalog() *plans.Catalog
}

// Resolution is the outcome of plan resolution.
type Resolution struct {
	// Plan is the catalog row of the current subscription, or the free plan.
	Plan plans.Plan
	// Subscription is nil when the user falls back to the free tier.
	Subscription *Subscription
	// Active is false only when the current subscription is suspended.
	Active bool
}

// UsageInfo is the usage of one resource against its quota.
type UsageInfo struct {
	Current int64
	Limit   int64
}

// Unlimited reports whether the quota is unbounded.
func (u UsageInfo) Unlimited() bool { return u.Limit == plans.Unlimited }

// Remaining returns how many more rows may be created, or plans.Unlimited.
func (u UsageInfo) Remaining() int64 {
	if u.Unlimited() {
		return plans.Unlimited
	}
	return max(u.Limit-u.Current, 0)
}

// Snapshot is everything a client needs to render gated UI in one call.
type Snapshot struct {
	Plan     string
	Status   Status
	Active   bool
	Features []plans.Feature
	Limits   map[plans.Resource]int64
}

type service struct {
	catalog  *plans.Catalog
	store    SubscriptionStore
	counters map[plans.Resource]CounterFunc
	strict   bool
	log      *slog.Logger
}

// NewService builds the engine.
// Panics if catalog or store is nil.
func NewService(catalog *plans.Catalog, store SubscriptionStore, opts ...ServiceOption) Service {
	if catalog == nil {
		panic("entitlement: plan catalog is required")
	}
	if store == nil {
		panic("entitlement: subscription store is required")
	}

	s := &service{
		catalog:  catalog,
		store:    store,
		counters: make(map[plans.Resource]CounterFunc),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("entitlement"))
	return s
}

func (s *service) Catalog() *plans.Catalog { return s.catalog }

// ResolveEffectivePlan maps the user's current subscription to a catalog plan.
func (s *service) ResolveEffectivePlan(ctx context.Context, userID uuid.UUID) (Resolution, error) {
	free := Resolution{Plan: s.catalog.Free(), Active: true}
	if userID == uuid.Nil {
		return free, nil
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, errors.Join(ErrFailedToLoadSubscription, err)
	}

	subs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "subscription lookup failed", logger.UserID(userID), logger.Error(err))
		return Resolution{}, errors.Join(ErrFailedToLoadSubscription, err)
	}

	current := currentSubscription(subs)
	if current == nil {
		return free, nil
	}

	plan := s.catalog.Resolve(current.PlanName)
	if s.catalog.IsFree(plan.Name) && !s.catalog.IsFree(current.PlanName) {
		s.log.WarnContext(ctx, "subscription references unknown plan",
			logger.UserID(userID), logger.Plan(current.PlanName))
	}
	s.log.DebugContext(ctx, "plan resolved",
		logger.UserID(userID), logger.Plan(plan.Name), logger.Status(current.Status))
	return Resolution{Plan: plan, Subscription: current, Active: current.IsActive()}, nil
}

// featurePlan is the plan whose features apply: suspended billing falls back
// to the free tier.
func (s *service) featurePlan(r Resolution) plans.Plan {
	if !r.Active {
		return s.catalog.Free()
	}
	return r.Plan
}

// HasAccess reports whether feature is enabled for the user.
func (s *service) HasAccess(ctx context.Context, userID uuid.UUID, feature string) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	f, ok := plans.ParseFeature(feature)
	if !ok {
		s.log.DebugContext(ctx, "unknown feature denied", logger.UserID(userID), logger.Feature(feature))
		return false, nil
	}

	r, err := s.ResolveEffectivePlan(ctx, userID)
	if err != nil {
		return false, err
	}

	plan := s.featurePlan(r)
	allowed := plan.HasFeature(f)
	s.log.DebugContext(ctx, "feature check",
		logger.UserID(userID), logger.Plan(plan.Name), logger.Feature(f), slog.Bool("allowed", allowed))
	return allowed, nil
}

// CanUseResource reports whether the user may create one more resource.
func (s *service) CanUseResource(ctx context.Context, userID uuid.UUID, resource string) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	res, ok := plans.ParseResource(resource)
	if !ok {
		s.log.DebugContext(ctx, "unknown resource", logger.UserID(userID),
			logger.Resource(resource), slog.Bool("strict", s.strict))
		return !s.strict, nil
	}

	_, allowed, err := s.CheckResource(ctx, userID, res)
	return allowed, err
}

// CheckResource is CanUseResource for a known resource, returning the usage
// the decision was made on. Unlimited quotas are not counted, so Current is
// zero for them.
func (s *service) CheckResource(ctx context.Context, userID uuid.UUID, res plans.Resource) (UsageInfo, bool, error) {
	if userID == uuid.Nil {
		return UsageInfo{}, false, nil
	}
	if _, ok := plans.ParseResource(string(res)); !ok {
		return UsageInfo{}, false, fmt.Errorf("%w: %q", plans.ErrUnknownResource, res)
	}

	u, err := s.usage(ctx, userID, res, true)
	if err != nil {
		return UsageInfo{}, false, err
	}

	allowed := u.Current < u.Limit
	s.log.DebugContext(ctx, "usage check", logger.UserID(userID), logger.Resource(res),
		logger.Count(u.Current, u.Limit), slog.Bool("allowed", allowed))
	return u, allowed, nil
}

// usage resolves the quota of res and counts the current rows. When
// skipUnlimited is set the counter is not called for unbounded quotas.
func (s *service) usage(ctx context.Context, userID uuid.UUID, res plans.Resource, skipUnlimited bool) (UsageInfo, error) {
	r, err := s.ResolveEffectivePlan(ctx, userID)
	if err != nil {
		return UsageInfo{}, err
	}
	return s.count(ctx, userID, r.Plan, res, skipUnlimited)
}

func (s *service) count(ctx context.Context, userID uuid.UUID, plan plans.Plan, res plans.Resource, skipUnlimited bool) (UsageInfo, error) {
	limit, ok := plan.Limit(res)
	if !ok {
		// Catalog validation guarantees a quota for every known resource.
		return UsageInfo{}, fmt.Errorf("%w: %s has no quota for %s", plans.ErrMissingQuota, plan.Name, res)
	}
	if limit == plans.Unlimited && skipUnlimited {
		return UsageInfo{Limit: limit}, nil
	}

	counter, ok := s.counters[res]
	if !ok {
		return UsageInfo{}, fmt.Errorf("%w: %s", ErrNoCounterRegistered, res)
	}
	current, err := counter(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "usage count failed", logger.UserID(userID), logger.Resource(res), logger.Error(err))
		return UsageInfo{}, errors.Join(ErrFailedToCountResourceUsage, err)
	}
	return UsageInfo{Current: current, Limit: limit}, nil
}

// Usage returns the current count and quota of res.
func (s *service) Usage(ctx context.Context, userID uuid.UUID, res plans.Resource) (UsageInfo, error) {
	if userID == uuid.Nil {
		return UsageInfo{}, ErrUnauthenticated
	}
	if _, ok := plans.ParseResource(string(res)); !ok {
		return UsageInfo{}, fmt.Errorf("%w: %q", plans.ErrUnknownResource, res)
	}
	return s.usage(ctx, userID, res, false)
}

// AllUsage returns the usage of every resource of the user's plan.
// Any counter failure fails the whole call.
func (s *service) AllUsage(ctx context.Context, userID uuid.UUID) (map[plans.Resource]UsageInfo, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	r, err := s.ResolveEffectivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[plans.Resource]UsageInfo, len(plans.Resources))
	for _, res := range plans.Resources {
		u, err := s.count(ctx, userID, r.Plan, res, false)
		if err != nil {
			return nil, err
		}
		out[res] = u
	}
	return out, nil
}

// UsagePercentage returns usage as a percentage capped at 100, -1 for
// unlimited quotas and 0 on error. Intended for progress bars.
func (s *service) UsagePercentage(ctx context.Context, userID uuid.UUID, res plans.Resource) int {
	u, err := s.Usage(ctx, userID, res)
	if err != nil {
		return 0
	}
	if u.Unlimited() {
		return -1
	}
	if u.Limit == 0 {
		return 100
	}
	return int(min(u.Current*100/u.Limit, 100))
}

// CanDowngrade returns ErrDowngradeNotPossible when the user's current usage
// of some resource exceeds the target plan's quota.
func (s *service) CanDowngrade(ctx context.Context, userID uuid.UUID, targetPlan string) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}
	target, ok := s.catalog.Lookup(targetPlan)
	if !ok {
		return fmt.Errorf("%w: %q", ErrPlanNotFound, targetPlan)
	}
	r, err := s.ResolveEffectivePlan(ctx, userID)
	if err != nil {
		return err
	}

	// Only shrinking quotas can block the change.
	decreased := plans.ComparePlans(&r.Plan, &target).DecreasedLimits
	for _, res := range plans.Resources {
		change, ok := decreased[res]
		if !ok {
			continue
		}
		u, err := s.count(ctx, userID, r.Plan, res, false)
		if err != nil {
			return err
		}
		if u.Current > change.To {
			return fmt.Errorf("%w: %s uses %d, %s allows %d",
				ErrDowngradeNotPossible, res, u.Current, target.Name, change.To)
		}
	}
	return nil
}

// Entitlements returns the features and quotas in force for the user.
// Features follow HasAccess (suspended billing grants free features only)
// while limits follow CanUseResource.
func (s *service) Entitlements(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	if userID == uuid.Nil {
		return Snapshot{}, ErrUnauthenticated
	}
	r, err := s.ResolveEffectivePlan(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	fp := s.featurePlan(r)
	snap := Snapshot{
		Plan:     r.Plan.Name,
		Active:   r.Active,
		Features: make([]plans.Feature, 0, len(fp.Features)),
		Limits:   make(map[plans.Resource]int64, len(r.Plan.Limits)),
	}
	if r.Subscription != nil {
		snap.Status = r.Subscription.Status
	}
	for _, f := range plans.Features {
		if fp.HasFeature(f) {
			snap.Features = append(snap.Features, f)
		}
	}
	for res, limit := range r.Plan.Limits {
		snap.Limits[res] = limit
	}
	return snap, nil
}

// RequireFeature is HasAccess for server-side guards.
func (s *service) RequireFeature(ctx context.Context, userID uuid.UUID, feature plans.Feature) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}
	ok, err := s.HasAccess(ctx, userID, string(feature))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrFeatureNotAvailable, feature)
	}
	return nil
}

// RequireResource is CanUseResource for server-side guards.
func (s *service) RequireResource(ctx context.Context, userID uuid.UUID, res plans.Resource) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}
	ok, err := s.CanUseResource(ctx, userID, string(res))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLimitExceeded, res)
	}
	return nil
}
