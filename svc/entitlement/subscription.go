package entitlement

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the billing lifecycle state of a subscription as reported by the
// payment platform.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCanceled  Status = "canceled"
)

// Normalize trims and lower-cases a stored status, the same folding applied
// to plan names and feature identifiers.
func (s Status) Normalize() Status {
	return Status(strings.ToLower(strings.TrimSpace(string(s))))
}

// BillingCycle is the billing frequency of a subscription.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Subscription binds one user to one plan.
// A user may have several rows; the most recently created one holding a tier
// is the current one (see currentSubscription).
type Subscription struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"user_id"`
	PlanName        string       `json:"plan_name"`
	Status          Status       `json:"status"`
	BillingCycle    BillingCycle `json:"billing_cycle"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         *time.Time   `json:"end_date,omitempty"`
	NextBillingDate *time.Time   `json:"next_billing_date,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// IsActive reports whether billing is current. Only active subscriptions
// unlock paid features.
func (s *Subscription) IsActive() bool {
	return s.Status.Normalize() == StatusActive
}

// IsSuspended reports whether billing is suspended.
func (s *Subscription) IsSuspended() bool {
	return s.Status.Normalize() == StatusSuspended
}

// HoldsTier reports whether the subscription still names the user's tier.
// Suspended subscriptions keep reporting the paid plan for display.
func (s *Subscription) HoldsTier() bool {
	return s.IsActive() || s.IsSuspended()
}

// currentSubscription returns the most recently created subscription that
// holds a tier, or nil. Ties on CreatedAt are broken by the larger ID so the
// choice does not depend on the order rows come back from the store.
func currentSubscription(subs []Subscription) *Subscription {
	var current *Subscription
	for i := range subs {
		s := &subs[i]
		if !s.HoldsTier() {
			continue
		}
		if current == nil || createdAfter(s, current) {
			current = s
		}
	}
	if current == nil {
		return nil
	}
	out := *current
	out.Status = out.Status.Normalize()
	return &out
}

func createdAfter(a, b *Subscription) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}
