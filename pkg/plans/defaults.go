package plans

// Names of the compiled-in plans.
const (
	PlanFreemium           = "Freemium"
	PlanPremiumStandard    = "Premium Standard"
	PlanPremiumPackPro     = "Premium + Pack Pro"
	PlanPremiumSiteVitrine = "Premium + Site Vitrine"
)

var (
	freemiumFeatures = []Feature{
		FeatureClients,
		FeatureDevis,
		FeatureFactures,
		FeaturePlanning,
	}

	standardFeatures = append(append([]Feature{}, freemiumFeatures...),
		FeatureMissions,
		FeatureActualites,
		FeatureStatistiques,
	)
)

// DefaultPlans returns the compiled-in tiers: Freemium plus three paid plans.
func DefaultPlans() []Plan {
	return []Plan{
		{
			Name:        PlanFreemium,
			Rank:        0,
			Description: "Gestion des clients, devis et factures pour démarrer",
			Interval:    BillingIntervalNone,
			Features:    append([]Feature{}, freemiumFeatures...),
			Limits: map[Resource]int64{
				ResourceClients:       10,
				ResourceQuotes:        3,
				ResourceInvoices:      3,
				ResourceShowcaseSites: 0,
				ResourceStorageMB:     100,
			},
		},
		{
			Name:        PlanPremiumStandard,
			Rank:        1,
			Description: "Clients, devis et factures illimités, missions et actualités",
			Price:       Money{Amount: 990, Currency: "EUR"},
			Interval:    BillingIntervalMonthly,
			Features:    append([]Feature{}, standardFeatures...),
			Limits: map[Resource]int64{
				ResourceClients:       Unlimited,
				ResourceQuotes:        Unlimited,
				ResourceInvoices:      Unlimited,
				ResourceShowcaseSites: 1,
				ResourceStorageMB:     1024,
			},
		},
		{
			Name:        PlanPremiumPackPro,
			Rank:        2,
			Description: "Premium avec export comptable et relances automatiques",
			Price:       Money{Amount: 1990, Currency: "EUR"},
			Interval:    BillingIntervalMonthly,
			Features: append(append([]Feature{}, standardFeatures...),
				FeatureExportComptable,
				FeatureRelancesAutomatique,
			),
			Limits: map[Resource]int64{
				ResourceClients:       Unlimited,
				ResourceQuotes:        Unlimited,
				ResourceInvoices:      Unlimited,
				ResourceShowcaseSites: 1,
				ResourceStorageMB:     5120,
			},
		},
		{
			Name:        PlanPremiumSiteVitrine,
			Rank:        3,
			Description: "Premium avec création de sites vitrines",
			Price:       Money{Amount: 1490, Currency: "EUR"},
			Interval:    BillingIntervalMonthly,
			Features: append(append([]Feature{}, standardFeatures...),
				FeatureSitesVitrines,
			),
			Limits: map[Resource]int64{
				ResourceClients:       Unlimited,
				ResourceQuotes:        Unlimited,
				ResourceInvoices:      Unlimited,
				ResourceShowcaseSites: 3,
				ResourceStorageMB:     2048,
			},
		},
	}
}

// DefaultCatalog returns the compiled-in capability table with Freemium as the
// fallback tier.
func DefaultCatalog() *Catalog {
	return MustCatalog(PlanFreemium, DefaultPlans()...)
}
