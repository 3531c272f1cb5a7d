package entitlement

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bizkit-fr/entitlements/pkg/plans"
)

// CounterFunc returns the exact number of rows of one resource type owned by
// a user (megabytes for storage). It is called on every quota check, so it
// must read the source of truth and never a cached value.
type CounterFunc func(ctx context.Context, userID uuid.UUID) (int64, error)

// MemoryCounters keeps per-user counts in memory. Intended for tests and
// local development.
type MemoryCounters struct {
	mu     sync.RWMutex
	counts map[plans.Resource]map[uuid.UUID]int64
}

// NewMemoryCounters returns empty counters.
func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{counts: make(map[plans.Resource]map[uuid.UUID]int64)}
}

// Set sets the count of res for userID.
func (c *MemoryCounters) Set(res plans.Resource, userID uuid.UUID, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[res] == nil {
		c.counts[res] = make(map[uuid.UUID]int64)
	}
	c.counts[res][userID] = n
}

// Add adjusts the count of res for userID by delta, never below zero.
func (c *MemoryCounters) Add(res plans.Resource, userID uuid.UUID, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[res] == nil {
		c.counts[res] = make(map[uuid.UUID]int64)
	}
	c.counts[res][userID] = max(c.counts[res][userID]+delta, 0)
}

// Counter returns the CounterFunc of res.
func (c *MemoryCounters) Counter(res plans.Resource) CounterFunc {
	return func(ctx context.Context, userID uuid.UUID) (int64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.counts[res][userID], nil
	}
}

// Counters returns a CounterFunc for every known resource.
func (c *MemoryCounters) Counters() map[plans.Resource]CounterFunc {
	out := make(map[plans.Resource]CounterFunc, len(plans.Resources))
	for _, res := range plans.Resources {
		out[res] = c.Counter(res)
	}
	return out
}

func mustKnownResource(res plans.Resource) {
	if _, ok := plans.ParseResource(string(res)); !ok {
		panic(fmt.Sprintf("entitlement: counter registered for unknown resource %q", res))
	}
}
