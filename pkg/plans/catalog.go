package plans

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the lookup key of a plan name: surrounding whitespace
// trimmed, NFC-normalized and Unicode case-folded, so "premium standard",
// " Premium Standard " and "PREMIUM STANDARD" all address the same plan.
func NormalizeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	// A Caser keeps state between calls and must not be shared across goroutines.
	return cases.Fold().String(name)
}

// Catalog is the static capability table: normalized plan name to Plan.
// It is immutable after NewCatalog and safe for concurrent reads.
type Catalog struct {
	plans   map[string]Plan
	ordered []string
	free    string
}

// NewCatalog validates plans and builds a Catalog whose fallback tier is the
// plan named freePlan.
func NewCatalog(freePlan string, plans ...Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.Join(ErrInvalidCatalog, ErrNoPlans)
	}

	c := &Catalog{
		plans: make(map[string]Plan, len(plans)),
		free:  NormalizeName(freePlan),
	}

	for _, p := range plans {
		key := NormalizeName(p.Name)
		if key == "" {
			return nil, errors.Join(ErrInvalidCatalog, ErrEmptyPlanName)
		}
		if _, exists := c.plans[key]; exists {
			return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("%w: %q", ErrDuplicatePlan, p.Name))
		}
		c.plans[key] = p.Clone()
		c.ordered = append(c.ordered, key)
	}

	freeTier, ok := c.plans[c.free]
	if !ok {
		return nil, errors.Join(ErrInvalidCatalog, fmt.Errorf("%w: %q", ErrFreePlanMissing, freePlan))
	}

	for _, key := range c.ordered {
		if err := validatePlan(c.plans[key], freeTier, key == c.free); err != nil {
			return nil, errors.Join(ErrInvalidCatalog, err)
		}
	}

	slices.SortStableFunc(c.ordered, func(a, b string) int {
		return c.plans[a].Rank - c.plans[b].Rank
	})

	return c, nil
}

// MustCatalog is like NewCatalog but panics on an invalid table.
// Intended for compiled-in catalogs.
func MustCatalog(freePlan string, plans ...Plan) *Catalog {
	c, err := NewCatalog(freePlan, plans...)
	if err != nil {
		panic(err)
	}
	return c
}

func validatePlan(p, free Plan, isFree bool) error {
	for _, f := range p.Features {
		if f == FeatureUnknown {
			return fmt.Errorf("%w: plan %q lists an empty feature", ErrUnknownFeature, p.Name)
		}
	}

	for _, res := range Resources {
		limit, ok := p.Limits[res]
		if !ok {
			return fmt.Errorf("%w: plan %q, resource %q", ErrMissingQuota, p.Name, res)
		}
		if limit < 0 {
			return fmt.Errorf("%w: plan %q, resource %q: %d", ErrInvalidQuota, p.Name, res, limit)
		}
	}

	if isFree {
		return nil
	}

	for _, f := range free.Features {
		if !slices.Contains(p.Features, f) {
			return fmt.Errorf("%w: plan %q lacks feature %q", ErrNotSupersetOfFree, p.Name, f)
		}
	}
	for _, res := range Resources {
		if p.Limits[res] < free.Limits[res] {
			return fmt.Errorf("%w: plan %q has a smaller %q quota", ErrNotSupersetOfFree, p.Name, res)
		}
	}

	return nil
}

// Lookup returns the plan registered under name, if any.
func (c *Catalog) Lookup(name string) (Plan, bool) {
	p, ok := c.plans[NormalizeName(name)]
	if !ok {
		return Plan{}, false
	}
	return p.Clone(), true
}

// Resolve returns the plan registered under name, or the free plan when the
// name is unknown. It never returns an empty capability set and never grants
// more than the free tier for a name it does not recognize.
func (c *Catalog) Resolve(name string) Plan {
	if p, ok := c.Lookup(name); ok {
		return p
	}
	return c.Free()
}

// Free returns the baseline plan.
func (c *Catalog) Free() Plan {
	return c.plans[c.free].Clone()
}

// IsFree reports whether name resolves to the baseline plan.
func (c *Catalog) IsFree(name string) bool {
	return NormalizeName(name) == c.free
}

// Plans returns every plan ordered by rank.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.ordered))
	for _, key := range c.ordered {
		out = append(out, c.plans[key].Clone())
	}
	return out
}
