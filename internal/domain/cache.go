package domain

import (
	"context"
	"time"
)

// SnapshotCache stores the most recently fetched snapshot per instrument.
// Implementations must tolerate concurrent reads and writes to different
// keys; within one round each key is written at most once.
type SnapshotCache interface {
	// Get returns the cached entry for key, or ErrNotFound when the key has
	// never been stored.
	Get(ctx context.Context, key InstrumentKey) (CacheEntry, error)

	// Put overwrites the entry for key. The overwrite is idempotent; entries
	// are never deleted.
	Put(ctx context.Context, key InstrumentKey, snap Snapshot, fetchedAt time.Time) error
}

// RateLimiter provides distributed rate limiting for the API surface.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under a sliding
	// window of limit requests per window, counting the request when it is.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Clock abstracts wall-clock reads so TTL-boundary behavior is deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock used in production; it reads the real wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
