package domain

import "context"

// FeedAdapter fetches and normalizes one instrument shape from one venue.
// There is one adapter variant per distinct upstream payload shape (spot
// ticker, derivative status, index price); dispatch from InstrumentKey to the
// right variant is a static lookup owned by the feed registry.
type FeedAdapter interface {
	// Label names the instrument shape this adapter produces, e.g. "Perp".
	Label() string

	// Fetch performs the network call for key and returns a fully populated
	// Snapshot. Failures are classified with the domain error sentinels:
	// ErrTransport, ErrDecode, or ErrMissingField.
	Fetch(ctx context.Context, key InstrumentKey) (Snapshot, error)
}
