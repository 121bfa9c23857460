package bitfinex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// Indices into the /v2/ticker response array.
const tickerLastPrice = 6

// Indices into a /v2/status/deriv row.
const (
	derivPrice          = 3
	derivNextFundingMts = 8
	derivPredFunding    = 9
	derivCurrentFunding = 12
	derivMarkPrice      = 15
)

// AdapterFor returns the adapter variant matching a Bitfinex symbol's
// instrument shape: derivative symbols carry the "F0" margin-currency infix
// (e.g. "tBTCF0:USTF0"), everything else is a spot pair.
func (c *Client) AdapterFor(symbol string) domain.FeedAdapter {
	if strings.Contains(symbol, "F0") {
		return &DerivativeAdapter{client: c}
	}
	return &SpotAdapter{client: c}
}

// SpotAdapter normalizes the plain spot ticker shape. Spot pairs have no
// funding figures, so only the reference price is populated.
type SpotAdapter struct {
	client *Client
}

// Label returns the instrument shape name.
func (a *SpotAdapter) Label() string { return "Spot" }

// Fetch retrieves the ticker for key and extracts the last price.
func (a *SpotAdapter) Fetch(ctx context.Context, key domain.InstrumentKey) (domain.Snapshot, error) {
	fields, err := a.client.Ticker(ctx, key.Symbol)
	if err != nil {
		return domain.Snapshot{}, err
	}

	if len(fields) <= tickerLastPrice {
		return domain.Snapshot{}, fmt.Errorf("bitfinex: ticker %s: %w (last price)", key.Symbol, domain.ErrMissingField)
	}

	return domain.Snapshot{
		Venue:          key.Venue,
		Label:          a.Label(),
		Symbol:         key.Symbol,
		ReferencePrice: fields[tickerLastPrice],
		ObservedAt:     time.Now().UTC(),
	}, nil
}

// DerivativeAdapter normalizes the derivatives status shape: deriv price,
// mark price, current and predicted funding, and the next funding event.
type DerivativeAdapter struct {
	client *Client
}

// Label returns the instrument shape name.
func (a *DerivativeAdapter) Label() string { return "Perp" }

// Fetch retrieves the derivatives status row for key. The deriv price and
// current funding rate are required; mark price, predicted funding, and the
// next funding time default to unknown when the upstream omits them.
func (a *DerivativeAdapter) Fetch(ctx context.Context, key domain.InstrumentKey) (domain.Snapshot, error) {
	row, err := a.client.DerivStatus(ctx, key.Symbol)
	if err != nil {
		return domain.Snapshot{}, err
	}

	price, ok := floatAt(row, derivPrice)
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("bitfinex: deriv status %s: %w (deriv price)", key.Symbol, domain.ErrMissingField)
	}
	funding, ok := floatAt(row, derivCurrentFunding)
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("bitfinex: deriv status %s: %w (current funding)", key.Symbol, domain.ErrMissingField)
	}

	snap := domain.Snapshot{
		Venue:          key.Venue,
		Label:          a.Label(),
		Symbol:         key.Symbol,
		ReferencePrice: price,
		FundingRate:    funding,
		ObservedAt:     time.Now().UTC(),
	}

	if mark, ok := floatAt(row, derivMarkPrice); ok {
		snap.SecondaryPrice = &mark
	}
	if pred, ok := floatAt(row, derivPredFunding); ok {
		snap.PredictedFundingRate = &pred
	}
	if mts, ok := floatAt(row, derivNextFundingMts); ok && mts > 0 {
		t := time.UnixMilli(int64(mts)).UTC()
		snap.NextFundingTime = &t
	}

	return snap, nil
}

// Compile-time interface checks.
var (
	_ domain.FeedAdapter = (*SpotAdapter)(nil)
	_ domain.FeedAdapter = (*DerivativeAdapter)(nil)
)
