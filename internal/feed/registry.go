package feed

import (
	"fmt"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// Registry maps each configured (venue, symbol) pair to the adapter variant
// that knows its upstream payload shape. The mapping is built once at wire
// time and never mutated afterwards, so lookups need no locking.
type Registry struct {
	adapters map[domain.InstrumentKey]domain.FeedAdapter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[domain.InstrumentKey]domain.FeedAdapter),
	}
}

// Register binds key to adapter, replacing any previous binding.
func (r *Registry) Register(key domain.InstrumentKey, adapter domain.FeedAdapter) {
	r.adapters[key] = adapter
}

// Lookup returns the adapter for key. An unregistered pair is a configuration
// error, not a network error: it returns domain.ErrUnknownInstrument without
// any upstream call being attempted.
func (r *Registry) Lookup(key domain.InstrumentKey) (domain.FeedAdapter, error) {
	adapter, ok := r.adapters[key]
	if !ok {
		return nil, fmt.Errorf("feed: %s: %w", key, domain.ErrUnknownInstrument)
	}
	return adapter, nil
}

// Len returns the number of registered instruments.
func (r *Registry) Len() int {
	return len(r.adapters)
}
