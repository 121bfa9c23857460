// Package feed implements the snapshot collection core: the in-memory
// snapshot cache, the static adapter registry, and the collector that drives
// one polling round over every configured instrument.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// MemoryCache implements domain.SnapshotCache with a mutex-guarded map. The
// key set is fixed by configuration, so there is no eviction; entries are
// only ever overwritten. Staleness is computed by the caller against the TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[domain.InstrumentKey]domain.CacheEntry
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[domain.InstrumentKey]domain.CacheEntry),
	}
}

// Get returns the cached entry for key, or domain.ErrNotFound when the key
// has never been stored.
func (c *MemoryCache) Get(_ context.Context, key domain.InstrumentKey) (domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.CacheEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

// Put overwrites the entry for key with the given snapshot and fetch time.
func (c *MemoryCache) Put(_ context.Context, key domain.InstrumentKey, snap domain.Snapshot, fetchedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = domain.CacheEntry{Snapshot: snap, FetchedAt: fetchedAt}
	return nil
}

// Len returns the number of cached instruments.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*MemoryCache)(nil)
