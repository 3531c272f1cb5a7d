package plans

import (
	"maps"
	"slices"
)

// Plan describes a subscription tier: the features it unlocks and the quota
// of every countable resource.
type Plan struct {
	Name        string
	Rank        int // display ordering, free tier first
	Description string
	Price       Money
	Interval    BillingInterval
	Features    []Feature
	Limits      map[Resource]int64
}

// HasFeature reports whether the plan unlocks f. FeatureUnknown is never unlocked.
func (p Plan) HasFeature(f Feature) bool {
	if f == FeatureUnknown {
		return false
	}
	return slices.Contains(p.Features, f)
}

// Limit returns the quota for res and whether the plan defines one.
func (p Plan) Limit(res Resource) (int64, bool) {
	limit, ok := p.Limits[res]
	return limit, ok
}

// Clone returns a deep copy so callers cannot mutate catalog state.
func (p Plan) Clone() Plan {
	p.Features = slices.Clone(p.Features)
	p.Limits = maps.Clone(p.Limits)
	return p
}

// PlanComparison contains the differences between two plans.
// Used to validate downgrades and to describe an upgrade to the user.
type PlanComparison struct {
	NewFeatures     []Feature
	LostFeatures    []Feature
	IncreasedLimits map[Resource]ResourceChange
	DecreasedLimits map[Resource]ResourceChange
}

// ResourceChange represents a change in resource quota.
type ResourceChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// HasResourceDecreases returns true if any quota shrinks.
func (c *PlanComparison) HasResourceDecreases() bool {
	return len(c.DecreasedLimits) > 0
}

// ComparePlans returns the differences between current and target plans.
// Resources missing from one side are compared against a zero quota.
func ComparePlans(current, target *Plan) *PlanComparison {
	if current == nil || target == nil {
		return nil
	}

	comparison := &PlanComparison{
		NewFeatures:     make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[Resource]ResourceChange),
		DecreasedLimits: make(map[Resource]ResourceChange),
	}

	for _, feature := range target.Features {
		if !slices.Contains(current.Features, feature) {
			comparison.NewFeatures = append(comparison.NewFeatures, feature)
		}
	}

	for _, feature := range current.Features {
		if !slices.Contains(target.Features, feature) {
			comparison.LostFeatures = append(comparison.LostFeatures, feature)
		}
	}

	seen := make(map[Resource]struct{}, len(current.Limits)+len(target.Limits))
	for res := range current.Limits {
		seen[res] = struct{}{}
	}
	for res := range target.Limits {
		seen[res] = struct{}{}
	}

	for res := range seen {
		from := current.Limits[res]
		to := target.Limits[res]
		switch {
		case to > from:
			comparison.IncreasedLimits[res] = ResourceChange{From: from, To: to}
		case to < from:
			comparison.DecreasedLimits[res] = ResourceChange{From: from, To: to}
		}
	}

	return comparison
}
