package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

func TestMemoryCacheMissing(t *testing.T) {
	cache := NewMemoryCache()

	_, err := cache.Get(context.Background(), domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get on empty cache = %v, want ErrNotFound", err)
	}
}

func TestMemoryCachePutOverwrites(t *testing.T) {
	cache := NewMemoryCache()
	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	ctx := context.Background()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := cache.Put(ctx, key, domain.Snapshot{Symbol: key.Symbol, ReferencePrice: 1}, t0); err != nil {
		t.Fatalf("Put: %v", err)
	}

	t1 := t0.Add(time.Minute)
	if err := cache.Put(ctx, key, domain.Snapshot{Symbol: key.Symbol, ReferencePrice: 2}, t1); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entry, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Snapshot.ReferencePrice != 2 {
		t.Errorf("ReferencePrice = %v, want overwritten 2", entry.Snapshot.ReferencePrice)
	}
	if !entry.FetchedAt.Equal(t1) {
		t.Errorf("FetchedAt = %v, want %v", entry.FetchedAt, t1)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestMemoryCacheKeysAreIndependent(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	now := time.Now().UTC()

	spot := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	perp := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCF0:USTF0"}

	if err := cache.Put(ctx, spot, domain.Snapshot{Symbol: spot.Symbol}, now); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := cache.Get(ctx, perp); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get other key = %v, want ErrNotFound", err)
	}
}
