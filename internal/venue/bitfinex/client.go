// Package bitfinex implements the feed adapters for the Bitfinex public
// REST API: the spot ticker and the derivatives status feed.
package bitfinex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// DefaultBaseURL is the Bitfinex public API root.
const DefaultBaseURL = "https://api-pub.bitfinex.com/v2"

// Client is the REST client for the Bitfinex public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Bitfinex client. An empty baseURL selects the
// public production endpoint; timeout bounds every request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ticker returns the flat number array for a trading pair, e.g. "tBTCUSD".
// Index 6 is LAST_PRICE.
func (c *Client) Ticker(ctx context.Context, symbol string) ([]float64, error) {
	path := "/ticker/" + url.PathEscape(symbol)

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("bitfinex: ticker %s: %w", symbol, err)
	}

	var fields []float64
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("bitfinex: ticker %s: %w (%v)", symbol, domain.ErrDecode, err)
	}

	return fields, nil
}

// DerivStatus returns the derivatives status row for a derivative symbol,
// e.g. "tBTCF0:USTF0". The row mixes strings, numbers, and nulls; use
// floatAt to extract numeric fields by index.
func (c *Client) DerivStatus(ctx context.Context, symbol string) ([]any, error) {
	params := url.Values{}
	params.Set("keys", symbol)
	path := "/status/deriv?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("bitfinex: deriv status %s: %w", symbol, err)
	}

	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("bitfinex: deriv status %s: %w (%v)", symbol, domain.ErrDecode, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("bitfinex: deriv status %s: %w (no status row)", symbol, domain.ErrMissingField)
	}

	return rows[0], nil
}

// doGet issues a GET request against the API and returns the response body.
// Network failures (including timeouts) and non-2xx statuses both map to
// domain.ErrTransport.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w (%v)", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w (read response: %v)", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w (HTTP %d)", domain.ErrTransport, resp.StatusCode)
	}

	return body, nil
}

// floatAt extracts a numeric field from a mixed-type status row. It returns
// false when the index is out of range or the field is null or non-numeric.
func floatAt(row []any, idx int) (float64, bool) {
	if idx >= len(row) {
		return 0, false
	}
	f, ok := row[idx].(float64)
	return f, ok
}
