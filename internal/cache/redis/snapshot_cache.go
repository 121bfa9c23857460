package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache on Redis. Each instrument's
// entry is stored as a JSON value at key "snap:{venue}:{symbol}". Entries
// carry no Redis expiry: staleness is always computed by the collector
// against the configured TTL, and an expired entry must stay available for
// stale serves.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func snapshotKey(key domain.InstrumentKey) string {
	return "snap:" + key.Venue + ":" + key.Symbol
}

// cacheEntryJSON is the stored representation of a domain.CacheEntry.
type cacheEntryJSON struct {
	Snapshot  domain.Snapshot `json:"snapshot"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Get retrieves the cached entry for key. It returns domain.ErrNotFound when
// the key does not exist.
func (sc *SnapshotCache) Get(ctx context.Context, key domain.InstrumentKey) (domain.CacheEntry, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CacheEntry{}, domain.ErrNotFound
		}
		return domain.CacheEntry{}, fmt.Errorf("redis: get snapshot %s: %w", key, err)
	}

	var stored cacheEntryJSON
	if err := json.Unmarshal(data, &stored); err != nil {
		return domain.CacheEntry{}, fmt.Errorf("redis: decode snapshot %s: %w", key, err)
	}

	return domain.CacheEntry{Snapshot: stored.Snapshot, FetchedAt: stored.FetchedAt}, nil
}

// Put stores the entry for key, overwriting any previous value.
func (sc *SnapshotCache) Put(ctx context.Context, key domain.InstrumentKey, snap domain.Snapshot, fetchedAt time.Time) error {
	data, err := json.Marshal(cacheEntryJSON{Snapshot: snap, FetchedAt: fetchedAt})
	if err != nil {
		return fmt.Errorf("redis: encode snapshot %s: %w", key, err)
	}

	if err := sc.rdb.Set(ctx, snapshotKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
