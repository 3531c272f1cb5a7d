// Package plans holds the static capability table of the application: which
// features each subscription plan unlocks and how many of each countable
// resource a subscriber may own.
//
// The table is pure data plus lookup. It has no state machine and no I/O
// beyond loading the plan definitions once at startup.
//
// # Identifiers
//
// Features and resources are closed enumerations. ParseFeature and
// ParseResource return FeatureUnknown / ResourceUnknown for anything else so
// callers handle the unrecognized case explicitly:
//
//	f, ok := plans.ParseFeature("sites-vitrines")
//	if !ok {
//		// unknown features are always denied
//	}
//
// # Catalog
//
// A Catalog maps normalized plan names to plans. Lookups are case-insensitive
// and ignore surrounding whitespace (see NormalizeName). Resolve never fails:
// an unknown plan name yields the free plan, never an empty capability set
// and never "allow everything".
//
//	catalog := plans.DefaultCatalog()
//	p := catalog.Resolve(" premium + site vitrine ")
//	p.HasFeature(plans.FeatureSitesVitrines) // true
//
// NewCatalog validates the table: every plan defines a quota for every known
// resource and every paid plan is a superset of the free plan.
//
// Unlimited quotas are represented by Unlimited (math.MaxInt64), so a quota
// check is always the plain comparison count < quota.
//
// # Sources
//
// Plans may be compiled in (DefaultCatalog), held in memory
// (NewMemorySource), or read from a YAML document on disk (NewFileSource) or
// in an S3 bucket (NewS3Source):
//
//	src := plans.NewFileSource("config/plans.yaml")
//	catalog, err := plans.LoadCatalog(ctx, src)
//
// Quotas in YAML accept either a non-negative integer or "unlimited".
package plans
