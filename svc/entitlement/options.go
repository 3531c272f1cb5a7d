package entitlement

import (
	"log/slog"

	"github.com/bizkit-fr/entitlements/pkg/plans"
)

// ServiceOption configures a Service.
type ServiceOption func(*service)

// WithCounter registers the usage counter of a resource.
// Panics on an unknown resource or a second registration for the same one.
func WithCounter(res plans.Resource, fn CounterFunc) ServiceOption {
	return func(s *service) {
		if fn == nil {
			return
		}
		mustKnownResource(res)
		if _, exists := s.counters[res]; exists {
			panic("entitlement: counter for resource " + string(res) + " already registered")
		}
		s.counters[res] = fn
	}
}

// WithCounters registers several counters, see WithCounter.
func WithCounters(counters map[plans.Resource]CounterFunc) ServiceOption {
	return func(s *service) {
		for res, fn := range counters {
			WithCounter(res, fn)(s)
		}
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStrictResources makes CanUseResource deny unknown resource types
// instead of allowing them.
func WithStrictResources() ServiceOption {
	return func(s *service) { s.strict = true }
}
