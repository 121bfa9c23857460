package bitfinex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, 5*time.Second)
}

func TestTicker(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ticker/tBTCUSD" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[64990,12.5,65000,8.1,120,0.0018,65010.5,5000,65500,64000]`))
	})

	fields, err := client.Ticker(context.Background(), "tBTCUSD")
	if err != nil {
		t.Fatalf("Ticker: %v", err)
	}
	if fields[tickerLastPrice] != 65010.5 {
		t.Errorf("last price = %v, want 65010.5", fields[tickerLastPrice])
	}
}

func TestTickerTransportError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Ticker(context.Background(), "tBTCUSD")
	if !errors.Is(err, domain.ErrTransport) {
		t.Errorf("Ticker = %v, want ErrTransport", err)
	}
}

func TestTickerDecodeError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"object"}`))
	})

	_, err := client.Ticker(context.Background(), "tBTCUSD")
	if !errors.Is(err, domain.ErrDecode) {
		t.Errorf("Ticker = %v, want ErrDecode", err)
	}
}

func TestDerivStatusEmpty(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := client.DerivStatus(context.Background(), "tBTCF0:USTF0")
	if !errors.Is(err, domain.ErrMissingField) {
		t.Errorf("DerivStatus = %v, want ErrMissingField", err)
	}
}

func TestSpotAdapterFetch(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[64990,12.5,65000,8.1,120,0.0018,65010.5,5000,65500,64000]`))
	})

	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	snap, err := client.AdapterFor(key.Symbol).Fetch(context.Background(), key)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.Label != "Spot" {
		t.Errorf("label = %s, want Spot", snap.Label)
	}
	if snap.ReferencePrice != 65010.5 {
		t.Errorf("reference price = %v, want 65010.5", snap.ReferencePrice)
	}
	if snap.FundingRate != 0 {
		t.Errorf("funding rate = %v, want 0 for spot", snap.FundingRate)
	}
	if snap.ObservedAt.IsZero() {
		t.Error("ObservedAt not set")
	}
}

func TestSpotAdapterShortTicker(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[64990,12.5,65000]`))
	})

	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCUSD"}
	_, err := client.AdapterFor(key.Symbol).Fetch(context.Background(), key)
	if !errors.Is(err, domain.ErrMissingField) {
		t.Errorf("Fetch = %v, want ErrMissingField", err)
	}
}

func TestDerivativeAdapterFetch(t *testing.T) {
	// Row layout: [SYMBOL, MTS, null, DERIV_PRICE, SPOT_PRICE, null, INSURANCE,
	// null, NEXT_FUNDING_MTS, PRED_FUNDING, null, null, CURRENT_FUNDING, null,
	// null, MARK_PRICE, ...]
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["tBTCF0:USTF0",1767225600000,null,65100.5,65050,null,400000,null,1767254400000,0.000125,null,null,0.0001,null,null,65120]]`))
	})

	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCF0:USTF0"}
	snap, err := client.AdapterFor(key.Symbol).Fetch(context.Background(), key)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.Label != "Perp" {
		t.Errorf("label = %s, want Perp", snap.Label)
	}
	if snap.ReferencePrice != 65100.5 {
		t.Errorf("reference price = %v, want 65100.5", snap.ReferencePrice)
	}
	if snap.FundingRate != 0.0001 {
		t.Errorf("funding rate = %v, want 0.0001", snap.FundingRate)
	}
	if snap.SecondaryPrice == nil || *snap.SecondaryPrice != 65120 {
		t.Errorf("secondary price = %v, want 65120", snap.SecondaryPrice)
	}
	if snap.PredictedFundingRate == nil || *snap.PredictedFundingRate != 0.000125 {
		t.Errorf("predicted funding = %v, want 0.000125", snap.PredictedFundingRate)
	}
	wantNext := time.UnixMilli(1767254400000).UTC()
	if snap.NextFundingTime == nil || !snap.NextFundingTime.Equal(wantNext) {
		t.Errorf("next funding time = %v, want %v", snap.NextFundingTime, wantNext)
	}
}

func TestDerivativeAdapterOptionalFieldsAbsent(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["tBTCF0:USTF0",1767225600000,null,65100.5,65050,null,400000,null,null,null,null,null,0.0001]]`))
	})

	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCF0:USTF0"}
	snap, err := client.AdapterFor(key.Symbol).Fetch(context.Background(), key)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snap.SecondaryPrice != nil {
		t.Errorf("secondary price = %v, want nil", snap.SecondaryPrice)
	}
	if snap.PredictedFundingRate != nil {
		t.Errorf("predicted funding = %v, want nil", snap.PredictedFundingRate)
	}
	if snap.NextFundingTime != nil {
		t.Errorf("next funding time = %v, want nil", snap.NextFundingTime)
	}
}

func TestDerivativeAdapterMissingFunding(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["tBTCF0:USTF0",1767225600000,null,65100.5]]`))
	})

	key := domain.InstrumentKey{Venue: "Bitfinex", Symbol: "tBTCF0:USTF0"}
	_, err := client.AdapterFor(key.Symbol).Fetch(context.Background(), key)
	if !errors.Is(err, domain.ErrMissingField) {
		t.Errorf("Fetch = %v, want ErrMissingField", err)
	}
}

func TestAdapterForSelection(t *testing.T) {
	client := NewClient("", time.Second)

	tests := []struct {
		symbol string
		want   string
	}{
		{"tBTCUSD", "Spot"},
		{"tETHUSD", "Spot"},
		{"tBTCF0:USTF0", "Perp"},
		{"tETHF0:USTF0", "Perp"},
	}
	for _, tt := range tests {
		if got := client.AdapterFor(tt.symbol).Label(); got != tt.want {
			t.Errorf("AdapterFor(%s) = %s, want %s", tt.symbol, got, tt.want)
		}
	}
}
