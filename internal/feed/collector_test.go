package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeAdapter struct {
	price float64
	err   error
	calls atomic.Int32
}

func (a *fakeAdapter) Label() string { return "Spot" }

func (a *fakeAdapter) Fetch(ctx context.Context, key domain.InstrumentKey) (domain.Snapshot, error) {
	a.calls.Add(1)
	if a.err != nil {
		return domain.Snapshot{}, a.err
	}
	return domain.Snapshot{
		Venue:          key.Venue,
		Label:          a.Label(),
		Symbol:         key.Symbol,
		ReferencePrice: a.price,
		ObservedAt:     time.Now().UTC(),
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCollectFetchesAndCaches(t *testing.T) {
	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	adapter := &fakeAdapter{price: 65000}
	registry := NewRegistry()
	registry.Register(key, adapter)
	cache := NewMemoryCache()
	clock := newTestClock()
	roundStart := clock.Now()

	c := NewCollector([]domain.InstrumentKey{key}, registry, cache, time.Minute, clock, testLogger())

	outcome := c.Collect(context.Background())

	if len(outcome.Snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(outcome.Snapshots))
	}
	if len(outcome.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", outcome.Warnings)
	}
	if got := outcome.Snapshots[0].ReferencePrice; got != 65000 {
		t.Errorf("reference price = %v, want 65000", got)
	}

	entry, err := cache.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("cache.Get: %v", err)
	}
	if !entry.FetchedAt.Equal(roundStart) {
		t.Errorf("FetchedAt = %v, want round start %v", entry.FetchedAt, roundStart)
	}
}

func TestCollectFreshHitSkipsFetch(t *testing.T) {
	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	adapter := &fakeAdapter{price: 65000}
	registry := NewRegistry()
	registry.Register(key, adapter)
	cache := NewMemoryCache()
	clock := newTestClock()

	c := NewCollector([]domain.InstrumentKey{key}, registry, cache, time.Minute, clock, testLogger())

	c.Collect(context.Background())
	clock.advance(30 * time.Second)
	outcome := c.Collect(context.Background())

	if got := adapter.calls.Load(); got != 1 {
		t.Errorf("adapter calls = %d, want 1 (fresh hit must not fetch)", got)
	}
	if len(outcome.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", outcome.Warnings)
	}
	if len(outcome.Snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(outcome.Snapshots))
	}
}

func TestCollectExpiredEntryRefetches(t *testing.T) {
	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	adapter := &fakeAdapter{price: 65000}
	registry := NewRegistry()
	registry.Register(key, adapter)
	cache := NewMemoryCache()
	clock := newTestClock()

	c := NewCollector([]domain.InstrumentKey{key}, registry, cache, time.Minute, clock, testLogger())

	c.Collect(context.Background())
	clock.advance(time.Minute) // age == TTL counts as expired
	adapter.price = 66000
	outcome := c.Collect(context.Background())

	if got := adapter.calls.Load(); got != 2 {
		t.Errorf("adapter calls = %d, want 2", got)
	}
	if got := outcome.Snapshots[0].ReferencePrice; got != 66000 {
		t.Errorf("reference price = %v, want refreshed 66000", got)
	}

	entry, err := cache.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("cache.Get: %v", err)
	}
	if !entry.FetchedAt.Equal(clock.Now()) {
		t.Errorf("FetchedAt = %v, want second round start %v", entry.FetchedAt, clock.Now())
	}
}

func TestCollectServesStaleOnFetchFailure(t *testing.T) {
	key := domain.InstrumentKey{Venue: "Deribit", Symbol: "BTC-PERPETUAL"}
	adapter := &fakeAdapter{price: 64000}
	registry := NewRegistry()
	registry.Register(key, adapter)
	cache := NewMemoryCache()
	clock := newTestClock()

	c := NewCollector([]domain.InstrumentKey{key}, registry, cache, time.Minute, clock, testLogger())

	c.Collect(context.Background())
	clock.advance(5 * time.Minute)
	adapter.err = domain.ErrTransport
	outcome := c.Collect(context.Background())

	if len(outcome.Snapshots) != 1 {
		t.Fatalf("snapshots = %d, want stale serve", len(outcome.Snapshots))
	}
	if got := outcome.Snapshots[0].ReferencePrice; got != 64000 {
		t.Errorf("reference price = %v, want stale 64000", got)
	}
	if len(outcome.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", outcome.Warnings)
	}
	warning := outcome.Warnings[0]
	if !strings.Contains(warning, key.String()) {
		t.Errorf("warning %q does not name the instrument %q", warning, key.String())
	}
	if !strings.Contains(warning, "serving cached data from") {
		t.Errorf("warning %q does not mention the stale serve", warning)
	}
	if !strings.Contains(warning, domain.ErrTransport.Error()) {
		t.Errorf("warning %q does not carry the failure reason", warning)
	}
}

func TestCollectWarnsWithoutCache(t *testing.T) {
	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	adapter := &fakeAdapter{err: domain.ErrDecode}
	registry := NewRegistry()
	registry.Register(key, adapter)

	c := NewCollector([]domain.InstrumentKey{key}, registry, NewMemoryCache(), time.Minute, newTestClock(), testLogger())

	outcome := c.Collect(context.Background())

	if len(outcome.Snapshots) != 0 {
		t.Errorf("snapshots = %d, want none", len(outcome.Snapshots))
	}
	if len(outcome.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", outcome.Warnings)
	}
	if !strings.Contains(outcome.Warnings[0], "no cached data available") {
		t.Errorf("warning %q does not mention the missing cache entry", outcome.Warnings[0])
	}
}

func TestCollectUnknownInstrument(t *testing.T) {
	key := domain.InstrumentKey{Venue: "Binance", Symbol: "BTCUSDT"}

	c := NewCollector([]domain.InstrumentKey{key}, NewRegistry(), NewMemoryCache(), time.Minute, newTestClock(), testLogger())

	outcome := c.Collect(context.Background())

	if len(outcome.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", outcome.Warnings)
	}
	if !strings.Contains(outcome.Warnings[0], domain.ErrUnknownInstrument.Error()) {
		t.Errorf("warning %q does not carry the configuration error", outcome.Warnings[0])
	}
}

func TestCollectKeepsConfiguredOrder(t *testing.T) {
	keys := []domain.InstrumentKey{
		{Venue: "Bitfinex", Symbol: "tBTCUSD"},
		{Venue: "Bitfinex", Symbol: "tBTCF0:USTF0"},
		{Venue: "Deribit", Symbol: "BTC-USD"},
		{Venue: "Deribit", Symbol: "BTC-PERPETUAL"},
	}
	registry := NewRegistry()
	for i, key := range keys {
		adapter := &fakeAdapter{price: float64(100 + i)}
		if i == 1 {
			adapter.err = domain.ErrTransport // middle failure must not shift order
		}
		registry.Register(key, adapter)
	}

	c := NewCollector(keys, registry, NewMemoryCache(), time.Minute, newTestClock(), testLogger())

	outcome := c.Collect(context.Background())

	want := []string{"tBTCUSD", "BTC-USD", "BTC-PERPETUAL"}
	if len(outcome.Snapshots) != len(want) {
		t.Fatalf("snapshots = %d, want %d", len(outcome.Snapshots), len(want))
	}
	for i, sym := range want {
		if outcome.Snapshots[i].Symbol != sym {
			t.Errorf("snapshot[%d] = %s, want %s", i, outcome.Snapshots[i].Symbol, sym)
		}
	}
	if len(outcome.Warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one for the failed key", outcome.Warnings)
	}
}

func TestCollectEmptyConfiguration(t *testing.T) {
	c := NewCollector(nil, NewRegistry(), NewMemoryCache(), time.Minute, newTestClock(), testLogger())

	outcome := c.Collect(context.Background())

	if len(outcome.Snapshots) != 0 || len(outcome.Warnings) != 0 {
		t.Errorf("outcome = %+v, want empty and warning-free", outcome)
	}
	if got := c.Status(); got != domain.FeedStatusStable {
		t.Errorf("status = %s, want stable", got)
	}
}

func TestStatusFollowsLastRound(t *testing.T) {
	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	adapter := &fakeAdapter{err: domain.ErrTransport}
	registry := NewRegistry()
	registry.Register(key, adapter)
	clock := newTestClock()

	c := NewCollector([]domain.InstrumentKey{key}, registry, NewMemoryCache(), time.Minute, clock, testLogger())

	c.Collect(context.Background())
	if got := c.Status(); got != domain.FeedStatusDegraded {
		t.Fatalf("status after failed round = %s, want degraded", got)
	}

	adapter.err = nil
	clock.advance(time.Second)
	c.Collect(context.Background())
	if got := c.Status(); got != domain.FeedStatusStable {
		t.Errorf("status after clean round = %s, want stable", got)
	}
}

func TestCollectRoundIDsDiffer(t *testing.T) {
	c := NewCollector(nil, NewRegistry(), NewMemoryCache(), time.Minute, newTestClock(), testLogger())

	first := c.Collect(context.Background())
	second := c.Collect(context.Background())

	if first.RoundID == second.RoundID {
		t.Errorf("round IDs should differ, both %s", first.RoundID)
	}
}

func TestCollectWrappedErrorsStayMatchable(t *testing.T) {
	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	registry := NewRegistry()

	_, err := registry.Lookup(key)
	if !errors.Is(err, domain.ErrUnknownInstrument) {
		t.Errorf("Lookup error %v does not match ErrUnknownInstrument", err)
	}
}
