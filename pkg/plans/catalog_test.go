package plans_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizkit-fr/entitlements/pkg/plans"
)

// expectedFeatures is the feature matrix the rest of the application relies on.
var expectedFeatures = map[string][]plans.Feature{
	plans.PlanFreemium: {
		plans.FeatureClients, plans.FeatureDevis, plans.FeatureFactures, plans.FeaturePlanning,
	},
	plans.PlanPremiumStandard: {
		plans.FeatureClients, plans.FeatureDevis, plans.FeatureFactures, plans.FeaturePlanning,
		plans.FeatureMissions, plans.FeatureActualites, plans.FeatureStatistiques,
	},
	plans.PlanPremiumPackPro: {
		plans.FeatureClients, plans.FeatureDevis, plans.FeatureFactures, plans.FeaturePlanning,
		plans.FeatureMissions, plans.FeatureActualites, plans.FeatureStatistiques,
		plans.FeatureExportComptable, plans.FeatureRelancesAutomatique,
	},
	plans.PlanPremiumSiteVitrine: {
		plans.FeatureClients, plans.FeatureDevis, plans.FeatureFactures, plans.FeaturePlanning,
		plans.FeatureMissions, plans.FeatureActualites, plans.FeatureStatistiques,
		plans.FeatureSitesVitrines,
	},
}

var expectedLimits = map[string]map[plans.Resource]int64{
	plans.PlanFreemium: {
		plans.ResourceClients:       10,
		plans.ResourceQuotes:        3,
		plans.ResourceInvoices:      3,
		plans.ResourceShowcaseSites: 0,
		plans.ResourceStorageMB:     100,
	},
	plans.PlanPremiumStandard: {
		plans.ResourceClients:       plans.Unlimited,
		plans.ResourceQuotes:        plans.Unlimited,
		plans.ResourceInvoices:      plans.Unlimited,
		plans.ResourceShowcaseSites: 1,
		plans.ResourceStorageMB:     1024,
	},
	plans.PlanPremiumPackPro: {
		plans.ResourceClients:       plans.Unlimited,
		plans.ResourceQuotes:        plans.Unlimited,
		plans.ResourceInvoices:      plans.Unlimited,
		plans.ResourceShowcaseSites: 1,
		plans.ResourceStorageMB:     5120,
	},
	plans.PlanPremiumSiteVitrine: {
		plans.ResourceClients:       plans.Unlimited,
		plans.ResourceQuotes:        plans.Unlimited,
		plans.ResourceInvoices:      plans.Unlimited,
		plans.ResourceShowcaseSites: 3,
		plans.ResourceStorageMB:     2048,
	},
}

func TestDefaultCatalog_FeatureMatrix(t *testing.T) {
	t.Parallel()

	catalog := plans.DefaultCatalog()

	for name, granted := range expectedFeatures {
		p, ok := catalog.Lookup(name)
		require.True(t, ok, name)

		for _, f := range plans.Features {
			want := false
			for _, g := range granted {
				if g == f {
					want = true
				}
			}
			assert.Equal(t, want, p.HasFeature(f), "plan %q feature %q", name, f)
		}
		assert.False(t, p.HasFeature(plans.FeatureUnknown), name)
	}
}

func TestDefaultCatalog_LimitMatrix(t *testing.T) {
	t.Parallel()

	catalog := plans.DefaultCatalog()

	for name, limits := range expectedLimits {
		p, ok := catalog.Lookup(name)
		require.True(t, ok, name)

		for _, res := range plans.Resources {
			got, defined := p.Limit(res)
			require.True(t, defined, "plan %q resource %q", name, res)
			assert.Equal(t, limits[res], got, "plan %q resource %q", name, res)
		}
		_, defined := p.Limit(plans.ResourceUnknown)
		assert.False(t, defined)
	}
}

func TestDefaultCatalog_Ordering(t *testing.T) {
	t.Parallel()

	all := plans.DefaultCatalog().Plans()
	require.Len(t, all, 4)
	assert.Equal(t, plans.PlanFreemium, all[0].Name)
	assert.Equal(t, plans.PlanPremiumStandard, all[1].Name)
	assert.Equal(t, plans.PlanPremiumPackPro, all[2].Name)
	assert.Equal(t, plans.PlanPremiumSiteVitrine, all[3].Name)
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
	}{
		{"Premium Standard", "premium standard"},
		{"  Premium Standard\t", "PREMIUM STANDARD"},
		{"Premium + Site Vitrine", "premium + site vitrine"},
		{"Freemium", "freemium"},
		// precomposed vs combining acute accent
		{"Premium \u00c9t\u00e9", "premium e\u0301te\u0301"},
	}

	for _, tt := range tests {
		assert.Equal(t, plans.NormalizeName(tt.a), plans.NormalizeName(tt.b), "%q vs %q", tt.a, tt.b)
	}
	assert.NotEqual(t, plans.NormalizeName("Premium Standard"), plans.NormalizeName("PremiumStandard"))
}

func TestCatalog_Lookup(t *testing.T) {
	t.Parallel()

	catalog := plans.DefaultCatalog()

	t.Run("case-insensitive with surrounding whitespace", func(t *testing.T) {
		t.Parallel()
		p, ok := catalog.Lookup("  premium + SITE vitrine ")
		require.True(t, ok)
		assert.Equal(t, plans.PlanPremiumSiteVitrine, p.Name)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		_, ok := catalog.Lookup("Enterprise")
		assert.False(t, ok)
	})

	t.Run("returned plan is a copy", func(t *testing.T) {
		t.Parallel()
		p, ok := catalog.Lookup(plans.PlanFreemium)
		require.True(t, ok)
		p.Features = append(p.Features, plans.FeatureSitesVitrines)
		p.Limits[plans.ResourceQuotes] = 1000

		again, _ := catalog.Lookup(plans.PlanFreemium)
		assert.False(t, again.HasFeature(plans.FeatureSitesVitrines))
		assert.Equal(t, int64(3), again.Limits[plans.ResourceQuotes])
	})
}

func TestCatalog_ResolveUnknownFallsBackToFree(t *testing.T) {
	t.Parallel()

	catalog := plans.DefaultCatalog()
	free := catalog.Free()

	for _, name := range []string{"", "Enterprise", "premium-standard", "corrupted\x00"} {
		p := catalog.Resolve(name)
		assert.Equal(t, free.Name, p.Name, name)
		assert.ElementsMatch(t, free.Features, p.Features, name)
		assert.Equal(t, free.Limits, p.Limits, name)
	}

	// Resolving twice gives the same answer.
	assert.Equal(t, catalog.Resolve("nope"), catalog.Resolve("nope"))
	assert.True(t, catalog.IsFree(" freemium "))
	assert.False(t, catalog.IsFree(plans.PlanPremiumStandard))
}

func TestNewCatalog_Validation(t *testing.T) {
	t.Parallel()

	fullLimits := func(v int64) map[plans.Resource]int64 {
		m := make(map[plans.Resource]int64, len(plans.Resources))
		for _, r := range plans.Resources {
			m[r] = v
		}
		return m
	}
	free := plans.Plan{Name: "Free", Features: []plans.Feature{plans.FeatureClients}, Limits: fullLimits(1)}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		paid := plans.Plan{Name: "Paid", Rank: 1, Features: []plans.Feature{plans.FeatureClients, plans.FeatureMissions}, Limits: fullLimits(5)}
		c, err := plans.NewCatalog("free", free, paid)
		require.NoError(t, err)
		assert.Len(t, c.Plans(), 2)
	})

	t.Run("no plans", func(t *testing.T) {
		t.Parallel()
		_, err := plans.NewCatalog("free")
		assert.ErrorIs(t, err, plans.ErrInvalidCatalog)
		assert.ErrorIs(t, err, plans.ErrNoPlans)
	})

	t.Run("free plan missing", func(t *testing.T) {
		t.Parallel()
		_, err := plans.NewCatalog("Gratuit", free)
		assert.ErrorIs(t, err, plans.ErrFreePlanMissing)
	})

	t.Run("duplicate after normalization", func(t *testing.T) {
		t.Parallel()
		dup := free
		dup.Name = " FREE "
		_, err := plans.NewCatalog("Free", free, dup)
		assert.ErrorIs(t, err, plans.ErrDuplicatePlan)
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		empty := free
		empty.Name = "   "
		_, err := plans.NewCatalog("Free", free, empty)
		assert.ErrorIs(t, err, plans.ErrEmptyPlanName)
	})

	t.Run("missing quota", func(t *testing.T) {
		t.Parallel()
		partial := plans.Plan{Name: "Free", Limits: map[plans.Resource]int64{plans.ResourceClients: 1}}
		_, err := plans.NewCatalog("Free", partial)
		assert.ErrorIs(t, err, plans.ErrMissingQuota)
	})

	t.Run("negative quota", func(t *testing.T) {
		t.Parallel()
		neg := plans.Plan{Name: "Free", Limits: fullLimits(-1)}
		_, err := plans.NewCatalog("Free", neg)
		assert.ErrorIs(t, err, plans.ErrInvalidQuota)
	})

	t.Run("paid plan lacks a free feature", func(t *testing.T) {
		t.Parallel()
		paid := plans.Plan{Name: "Paid", Features: []plans.Feature{plans.FeatureMissions}, Limits: fullLimits(5)}
		_, err := plans.NewCatalog("Free", free, paid)
		assert.ErrorIs(t, err, plans.ErrNotSupersetOfFree)
	})

	t.Run("paid plan has smaller quota", func(t *testing.T) {
		t.Parallel()
		paid := plans.Plan{Name: "Paid", Features: []plans.Feature{plans.FeatureClients}, Limits: fullLimits(0)}
		_, err := plans.NewCatalog("Free", free, paid)
		assert.ErrorIs(t, err, plans.ErrNotSupersetOfFree)
	})

	t.Run("unknown feature in plan", func(t *testing.T) {
		t.Parallel()
		bad := plans.Plan{Name: "Free", Features: []plans.Feature{plans.FeatureUnknown}, Limits: fullLimits(1)}
		_, err := plans.NewCatalog("Free", bad)
		assert.ErrorIs(t, err, plans.ErrUnknownFeature)
	})

	t.Run("must catalog panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { plans.MustCatalog("missing", free) })
	})
}
