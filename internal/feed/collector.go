package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// Collector drives one collection round over every configured instrument.
// For each key it consults the cache, invokes the matching adapter when the
// cached value is missing or expired, and falls back to the stale cached
// value when the fetch fails. A round never aborts because of a single key;
// every key is processed exactly once per round.
type Collector struct {
	keys     []domain.InstrumentKey // configured order, fixed for the process
	registry *Registry
	cache    domain.SnapshotCache
	ttl      time.Duration
	clock    domain.Clock
	logger   *slog.Logger
	status   atomic.Value // domain.FeedStatus
}

// NewCollector creates a Collector over the given keys in their configured
// order. A nil clock defaults to the system clock.
func NewCollector(
	keys []domain.InstrumentKey,
	registry *Registry,
	cache domain.SnapshotCache,
	ttl time.Duration,
	clock domain.Clock,
	logger *slog.Logger,
) *Collector {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	c := &Collector{
		keys:     keys,
		registry: registry,
		cache:    cache,
		ttl:      ttl,
		clock:    clock,
		logger:   logger.With(slog.String("component", "collector")),
	}
	c.status.Store(domain.FeedStatusStable)
	return c
}

// keyResult is the per-instrument outcome of one round.
type keyResult struct {
	snapshot *domain.Snapshot
	warning  string
}

// Collect runs one full round and returns the assembled outcome. Per-key
// fetches run concurrently (the key set is small and fixed, so one goroutine
// per key suffices), but the snapshot and warning lists are always emitted in
// configured key order so downstream consumers see deterministic ordering.
func (c *Collector) Collect(ctx context.Context) domain.CollectionOutcome {
	now := c.clock.Now()
	results := make([]keyResult, len(c.keys))

	var wg sync.WaitGroup
	for i, key := range c.keys {
		wg.Add(1)
		go func(i int, key domain.InstrumentKey) {
			defer wg.Done()
			results[i] = c.collectOne(ctx, key, now)
		}(i, key)
	}
	wg.Wait()

	outcome := domain.CollectionOutcome{
		RoundID:   uuid.New(),
		StartedAt: now,
	}
	for _, res := range results {
		if res.snapshot != nil {
			outcome.Snapshots = append(outcome.Snapshots, *res.snapshot)
		}
		if res.warning != "" {
			outcome.Warnings = append(outcome.Warnings, res.warning)
		}
	}
	outcome.CompletedAt = c.clock.Now()

	if outcome.Degraded() {
		c.status.Store(domain.FeedStatusDegraded)
	} else {
		c.status.Store(domain.FeedStatusStable)
	}

	c.logger.DebugContext(ctx, "collection round finished",
		slog.String("round_id", outcome.RoundID.String()),
		slog.Int("snapshots", len(outcome.Snapshots)),
		slog.Int("warnings", len(outcome.Warnings)),
	)

	return outcome
}

// collectOne applies the cache-then-fetch-then-fallback policy to one key.
func (c *Collector) collectOne(ctx context.Context, key domain.InstrumentKey, now time.Time) keyResult {
	entry, err := c.cache.Get(ctx, key)
	cached := err == nil

	// Fresh cache hit: no network call, no warning.
	if cached && now.Sub(entry.FetchedAt) < c.ttl {
		snap := entry.Snapshot
		return keyResult{snapshot: &snap}
	}

	snap, fetchErr := c.fetch(ctx, key)
	if fetchErr == nil {
		if putErr := c.cache.Put(ctx, key, snap, now); putErr != nil {
			// Cache write failure degrades future rounds, not this one.
			c.logger.WarnContext(ctx, "cache write failed",
				slog.String("instrument", key.String()),
				slog.String("error", putErr.Error()),
			)
		}
		return keyResult{snapshot: &snap}
	}

	if cached {
		// Stale serve: the expired entry is still the best data we have.
		age := now.Sub(entry.FetchedAt).Round(time.Second)
		stale := entry.Snapshot
		return keyResult{
			snapshot: &stale,
			warning:  fmt.Sprintf("%s: %v; serving cached data from %s ago", key, fetchErr, age),
		}
	}

	return keyResult{
		warning: fmt.Sprintf("%s: %v; no cached data available", key, fetchErr),
	}
}

// fetch resolves the adapter for key and performs the upstream call. An
// unregistered key fails immediately without any network activity.
func (c *Collector) fetch(ctx context.Context, key domain.InstrumentKey) (domain.Snapshot, error) {
	adapter, err := c.registry.Lookup(key)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return adapter.Fetch(ctx, key)
}

// Status returns the coarse health label derived from the most recent round:
// stable when it produced zero warnings, degraded otherwise.
func (c *Collector) Status() domain.FeedStatus {
	return c.status.Load().(domain.FeedStatus)
}
