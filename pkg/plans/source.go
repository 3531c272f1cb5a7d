package plans

import (
	"context"
	"errors"
	"sync"
)

// Snapshot is the content of a catalog source: the plans and the name of the
// fallback tier.
type Snapshot struct {
	FreePlan string
	Plans    []Plan
}

// Source defines how plans are loaded into a Catalog.
// Plans are edited by administrators outside the engine; sources only read.
type Source interface {
	Load(ctx context.Context) (Snapshot, error)
}

// LoadCatalog reads src once and builds a validated Catalog.
func LoadCatalog(ctx context.Context, src Source) (*Catalog, error) {
	snap, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	if len(snap.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadCatalog, ErrNoPlans)
	}
	return NewCatalog(snap.FreePlan, snap.Plans...)
}

type memorySource struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewMemorySource returns a Source backed by a deep copy of the given plans.
// Panics if no plans are provided so a service can never start without a tier.
func NewMemorySource(freePlan string, plans ...Plan) Source {
	if len(plans) < 1 {
		panic("plans: at least one plan is required")
	}
	return &memorySource{snap: cloneSnapshot(Snapshot{FreePlan: freePlan, Plans: plans})}
}

// Load returns a copy of the stored plans.
func (s *memorySource) Load(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.snap), nil
}

func cloneSnapshot(snap Snapshot) Snapshot {
	out := Snapshot{FreePlan: snap.FreePlan, Plans: make([]Plan, 0, len(snap.Plans))}
	for _, p := range snap.Plans {
		out.Plans = append(out.Plans, p.Clone())
	}
	return out
}
