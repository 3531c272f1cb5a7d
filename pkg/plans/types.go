package plans

import (
	"math"
	"strings"
)

// Feature is a gated capability of the application.
type Feature string

const (
	// FeatureUnknown is returned by ParseFeature for identifiers missing from the
	// enumeration. It is never part of a plan, so it is always denied.
	FeatureUnknown Feature = ""

	FeatureClients             Feature = "clients"
	FeatureDevis               Feature = "devis"
	FeatureFactures            Feature = "factures"
	FeaturePlanning            Feature = "planning"
	FeatureMissions            Feature = "missions"
	FeatureActualites          Feature = "actualites"
	FeatureStatistiques        Feature = "statistiques"
	FeatureExportComptable     Feature = "export-comptable"
	FeatureRelancesAutomatique Feature = "relances-automatiques"
	FeatureSitesVitrines       Feature = "sites-vitrines"
)

// Features lists every known feature in display order.
var Features = []Feature{
	FeatureClients,
	FeatureDevis,
	FeatureFactures,
	FeaturePlanning,
	FeatureMissions,
	FeatureActualites,
	FeatureStatistiques,
	FeatureExportComptable,
	FeatureRelancesAutomatique,
	FeatureSitesVitrines,
}

// ParseFeature maps a raw identifier to a known Feature.
// Identifiers are matched case-insensitively after trimming.
func ParseFeature(s string) (Feature, bool) {
	f := Feature(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Features {
		if f == known {
			return known, true
		}
	}
	return FeatureUnknown, false
}

// Resource is a countable entity type whose count is capped by a plan quota.
type Resource string

const (
	// ResourceUnknown is returned by ParseResource for unrecognized types.
	ResourceUnknown Resource = ""

	ResourceClients       Resource = "clients"
	ResourceQuotes        Resource = "quotes"
	ResourceInvoices      Resource = "invoices"
	ResourceShowcaseSites Resource = "showcase-sites"
	ResourceStorageMB     Resource = "storage-megabytes"
)

// Resources lists every known resource type. Every plan of a catalog must
// define a quota for each of them.
var Resources = []Resource{
	ResourceClients,
	ResourceQuotes,
	ResourceInvoices,
	ResourceShowcaseSites,
	ResourceStorageMB,
}

// ParseResource maps a raw identifier to a known Resource.
func ParseResource(s string) (Resource, bool) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Resources {
		if r == known {
			return known, true
		}
	}
	return ResourceUnknown, false
}

// Unlimited is the quota of an uncapped resource. Any count compares below it,
// so quota checks need no special case.
const Unlimited int64 = math.MaxInt64

// Money represents a monetary amount in the smallest currency unit.
// For example, 9.90 EUR is Amount: 990, Currency: "EUR".
type Money struct {
	Amount   int64  `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`
}

// BillingInterval represents the billing frequency of a plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free plans
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)
