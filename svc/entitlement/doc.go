// Package entitlement decides what a user may do under their subscription
// plan: whether a feature is enabled (HasAccess) and whether one more
// resource fits under the plan quota (CanUseResource).
//
// Every call resolves the plan afresh from a SubscriptionStore and counts
// usage through registered CounterFunc values; nothing is cached. The free
// plan of the catalog is the floor: no subscription, a canceled one, or a
// plan name missing from the catalog all resolve to it. A suspended
// subscription keeps its paid quotas but only grants free features until
// billing is restored.
//
// Errors are reserved for "could not determine" (store or counter failure,
// context cancellation); a denial is a false answer with a nil error.
//
// Stores exist for memory, Postgres (database/sql over pgx), Redis and
// MongoDB, with matching counters for Postgres and MongoDB. Router exposes
// the checks over HTTP for the browser app.
package entitlement
