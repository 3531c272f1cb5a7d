package entitlement

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// SubscriptionStore reads subscription records.
// Implementations return every row of the user in any order; the engine
// applies the selection rule itself.
type SubscriptionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Subscription, error)
}

// MemoryStore is an in-memory SubscriptionStore, safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID][]Subscription
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(subs ...Subscription) *MemoryStore {
	s := &MemoryStore{rows: make(map[uuid.UUID][]Subscription)}
	for _, sub := range subs {
		s.rows[sub.UserID] = append(s.rows[sub.UserID], sub)
	}
	return s
}

// ListByUser returns a copy of the user's subscriptions.
func (s *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows[userID]), nil
}

// Save inserts sub, or replaces the row with the same ID.
func (s *MemoryStore) Save(_ context.Context, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.rows[sub.UserID]
	for i := range rows {
		if rows[i].ID == sub.ID {
			rows[i] = sub
			return nil
		}
	}
	s.rows[sub.UserID] = append(rows, sub)
	return nil
}
