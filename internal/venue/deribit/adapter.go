package deribit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// AdapterFor returns the adapter variant matching a Deribit symbol's
// instrument shape: "-PERPETUAL" instruments are perpetual swaps, anything
// else (e.g. "BTC-USD") is an index.
func (c *Client) AdapterFor(symbol string) domain.FeedAdapter {
	if strings.HasSuffix(symbol, "-PERPETUAL") {
		return &PerpAdapter{client: c}
	}
	return &IndexAdapter{client: c}
}

// PerpAdapter normalizes the perpetual ticker shape: last price, mark price,
// and the 8h funding figures.
type PerpAdapter struct {
	client *Client
}

// Label returns the instrument shape name.
func (a *PerpAdapter) Label() string { return "Perp" }

// Fetch retrieves the ticker for key. Last price and the 8h funding rate are
// required; mark price and the instantaneous funding estimate default to
// unknown when absent. Deribit accrues funding continuously, so there is no
// next-funding-time to report.
func (a *PerpAdapter) Fetch(ctx context.Context, key domain.InstrumentKey) (domain.Snapshot, error) {
	tick, err := a.client.Ticker(ctx, key.Symbol)
	if err != nil {
		return domain.Snapshot{}, err
	}

	if tick.LastPrice == nil {
		return domain.Snapshot{}, fmt.Errorf("deribit: ticker %s: %w (last price)", key.Symbol, domain.ErrMissingField)
	}
	if tick.Funding8h == nil {
		return domain.Snapshot{}, fmt.Errorf("deribit: ticker %s: %w (funding 8h)", key.Symbol, domain.ErrMissingField)
	}

	snap := domain.Snapshot{
		Venue:          key.Venue,
		Label:          a.Label(),
		Symbol:         key.Symbol,
		ReferencePrice: *tick.LastPrice,
		FundingRate:    *tick.Funding8h,
		ObservedAt:     time.Now().UTC(),
	}
	if tick.MarkPrice != nil {
		snap.SecondaryPrice = tick.MarkPrice
	}
	if tick.CurrentFunding != nil {
		snap.PredictedFundingRate = tick.CurrentFunding
	}

	return snap, nil
}

// IndexAdapter normalizes the index price shape.
type IndexAdapter struct {
	client *Client
}

// Label returns the instrument shape name.
func (a *IndexAdapter) Label() string { return "Index" }

// Fetch retrieves the index price for key. The display symbol "BTC-USD"
// maps to Deribit's index name "btc_usd".
func (a *IndexAdapter) Fetch(ctx context.Context, key domain.InstrumentKey) (domain.Snapshot, error) {
	indexName := strings.ToLower(strings.ReplaceAll(key.Symbol, "-", "_"))

	price, err := a.client.IndexPrice(ctx, indexName)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if price == nil {
		return domain.Snapshot{}, fmt.Errorf("deribit: index price %s: %w (index price)", indexName, domain.ErrMissingField)
	}

	return domain.Snapshot{
		Venue:          key.Venue,
		Label:          a.Label(),
		Symbol:         key.Symbol,
		ReferencePrice: *price,
		ObservedAt:     time.Now().UTC(),
	}, nil
}

// Compile-time interface checks.
var (
	_ domain.FeedAdapter = (*PerpAdapter)(nil)
	_ domain.FeedAdapter = (*IndexAdapter)(nil)
)
