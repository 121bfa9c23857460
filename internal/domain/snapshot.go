// Package domain defines the core data types and interfaces shared across the
// quantumdesk subsystems: instrument identities, market snapshots, the
// collection outcome produced by each polling round, and the contracts
// implemented by caches, feed adapters, stores, and blob storage.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// InstrumentKey identifies one feed to poll: a venue plus the venue's own
// symbol for the instrument. Identity is the pair; it is used as the map key
// for both the snapshot cache and the adapter registry.
type InstrumentKey struct {
	Venue  string
	Symbol string
}

// String renders the key the way it appears in warnings and logs.
func (k InstrumentKey) String() string {
	return k.Venue + " " + k.Symbol
}

// Snapshot is the normalized result of one successful fetch. It is either
// fully populated by a feed adapter or copied verbatim from the cache; it is
// never partially constructed.
type Snapshot struct {
	// Venue is the upstream source name, e.g. "Bitfinex".
	Venue string `json:"venue"`

	// Label names the instrument shape: "Spot", "Perp", or "Index".
	Label string `json:"label"`

	// Symbol is the venue-native instrument symbol, e.g. "tBTCF0:USTF0".
	Symbol string `json:"symbol"`

	// ReferencePrice is the primary price for the instrument (last/index).
	ReferencePrice float64 `json:"reference_price"`

	// SecondaryPrice is an additional price where the upstream provides one
	// (mark price for derivatives). Nil when unknown.
	SecondaryPrice *float64 `json:"secondary_price,omitempty"`

	// FundingRate is the current funding rate; zero for non-derivative feeds.
	FundingRate float64 `json:"funding_rate"`

	// PredictedFundingRate is the upstream's estimate for the next funding
	// period. Nil when the upstream does not publish one.
	PredictedFundingRate *float64 `json:"predicted_funding_rate,omitempty"`

	// NextFundingTime is when the next funding event settles, if published.
	NextFundingTime *time.Time `json:"next_funding_time,omitempty"`

	// ObservedAt is the adapter's local capture time for this snapshot.
	ObservedAt time.Time `json:"observed_at"`
}

// Key returns the instrument identity this snapshot belongs to.
func (s Snapshot) Key() InstrumentKey {
	return InstrumentKey{Venue: s.Venue, Symbol: s.Symbol}
}

// CacheEntry is one cached snapshot together with the time it was fetched.
// Freshness is always computed by the caller as now - FetchedAt against the
// configured TTL; entries themselves never expire.
type CacheEntry struct {
	Snapshot  Snapshot
	FetchedAt time.Time
}

// CollectionOutcome is the result of one full collection round: the snapshots
// to display, in configured instrument order, mixing fresh and stale values,
// plus one human-readable warning per degraded or failed instrument. It is
// rebuilt from scratch every round and handed to the caller by value.
type CollectionOutcome struct {
	RoundID     uuid.UUID   `json:"round_id"`
	Snapshots   []Snapshot  `json:"snapshots"`
	Warnings    []string    `json:"warnings"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
}

// Degraded reports whether the round produced at least one warning.
func (o CollectionOutcome) Degraded() bool {
	return len(o.Warnings) > 0
}

// FeedStatus is the coarse health label derived from the most recent round.
type FeedStatus string

const (
	// FeedStatusStable means the last round completed without warnings.
	FeedStatusStable FeedStatus = "stable"

	// FeedStatusDegraded means the last round served stale data or lost at
	// least one instrument.
	FeedStatusDegraded FeedStatus = "degraded"
)
