// Package deribit implements the feed adapters for the Deribit public REST
// API: the perpetual ticker and the index price feed.
package deribit

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

// DefaultBaseURL is the Deribit public API root.
const DefaultBaseURL = "https://www.deribit.com/api/v2"

// Client is the REST client for the Deribit public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Deribit client. An empty baseURL selects the
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

// rpcError is the error object of the Deribit JSON-RPC response envelope.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// envelope is the JSON-RPC response wrapper every Deribit endpoint uses.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// TickerResult holds the fields of /public/ticker that the perp adapter
// consumes. Pointers distinguish absent fields from zero values.
type TickerResult struct {
	LastPrice      *float64 `json:"last_price"`
	MarkPrice      *float64 `json:"mark_price"`
	IndexPrice     *float64 `json:"index_price"`
	CurrentFunding *float64 `json:"current_funding"`
	Funding8h      *float64 `json:"funding_8h"`
}

// Ticker returns the ticker for an instrument, e.g. "BTC-PERPETUAL".
func (c *Client) Ticker(ctx context.Context, instrument string) (TickerResult, error) {
	params := url.Values{}
	params.Set("instrument_name", instrument)
	path := "/public/ticker?" + params.Encode()

	var result TickerResult
	if err := c.doGet(ctx, path, &result); err != nil {
		return TickerResult{}, fmt.Errorf("deribit: ticker %s: %w", instrument, err)
	}
	return result, nil
}

// IndexPrice returns the current index price for an index name, e.g.
// "btc_usd".
func (c *Client) IndexPrice(ctx context.Context, indexName string) (*float64, error) {
	params := url.Values{}
	params.Set("index_name", indexName)
	path := "/public/get_index_price?" + params.Encode()

	var result struct {
		IndexPrice *float64 `json:"index_price"`
	}
	if err := c.doGet(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("deribit: index price %s: %w", indexName, err)
	}
	return result.IndexPrice, nil
}

// doGet issues a GET request, unwraps the JSON-RPC envelope, and decodes the
// result into out. Network failures and non-2xx statuses map to
// domain.ErrTransport; an upstream error object is also a transport-level
// rejection. Undecodable bodies map to domain.ErrDecode.
func (c *Client) doGet(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w (%v)", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w (read response: %v)", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w (HTTP %d)", domain.ErrTransport, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w (%v)", domain.ErrDecode, err)
	}
	if env.Error != nil {
		return fmt.Errorf("%w (api error %d: %s)", domain.ErrTransport, env.Error.Code, env.Error.Message)
	}
	if len(env.Result) == 0 {
		return fmt.Errorf("%w (empty result)", domain.ErrDecode)
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w (%v)", domain.ErrDecode, err)
	}
	return nil
}
