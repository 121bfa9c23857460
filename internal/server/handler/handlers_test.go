package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abdullah353/quantumdesk/internal/alerts"
	"github.com/abdullah353/quantumdesk/internal/domain"
)

type fakeBlobReader struct {
	infos []domain.BlobInfo
	err   error
}

func (r *fakeBlobReader) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeBlobReader) List(ctx context.Context, prefix string) ([]domain.BlobInfo, error) {
	return r.infos, r.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func alertMux(t *testing.T) (*http.ServeMux, *alerts.Manager) {
	t.Helper()
	manager := alerts.NewManager([]alerts.Definition{
		{Name: "Bitfinex Funding", Threshold: "> 75 bps"},
	}, nil)
	h := NewAlertHandler(manager, testLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/alerts", h.ListAlerts)
	mux.HandleFunc("POST /api/alerts/{name}/triggered", h.SetTriggered)
	return mux, manager
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler("server", time.Now().UTC().Add(-90*time.Second))
	rec := httptest.NewRecorder()

	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status        string `json:"status"`
		Mode          string `json:"mode"`
		UptimeSeconds int64  `json:"uptime_seconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status field = %q, want ok", body.Status)
	}
	if body.Mode != "server" {
		t.Errorf("mode field = %q, want server", body.Mode)
	}
	if body.UptimeSeconds < 90 {
		t.Errorf("uptime = %d, want at least 90", body.UptimeSeconds)
	}
}

func TestListAlerts(t *testing.T) {
	mux, _ := alertMux(t)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Alerts []domain.AlertStatus `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Alerts) != 1 || body.Alerts[0].Name != "Bitfinex Funding" {
		t.Errorf("alerts = %+v", body.Alerts)
	}
}

func TestSetTriggered(t *testing.T) {
	mux, manager := alertMux(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/alerts/Bitfinex%20Funding/triggered", strings.NewReader(`{"triggered":true}`))

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var status domain.AlertStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !status.Triggered {
		t.Error("response not triggered")
	}
	if manager.TriggeredCount() != 1 {
		t.Errorf("TriggeredCount = %d, want 1", manager.TriggeredCount())
	}
}

func TestSetTriggeredUnknownAlert(t *testing.T) {
	mux, _ := alertMux(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/alerts/Nope/triggered", strings.NewReader(`{"triggered":true}`))

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSetTriggeredBadBody(t *testing.T) {
	mux, _ := alertMux(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/alerts/Bitfinex%20Funding/triggered", strings.NewReader("not json"))

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListArchives(t *testing.T) {
	modified := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	reader := &fakeBlobReader{infos: []domain.BlobInfo{
		{Path: "archive/snapshots/2026-01.jsonl", Size: 2048, LastModified: modified},
	}}
	h := NewArchiveHandler(reader, testLogger())
	rec := httptest.NewRecorder()

	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/archives", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Archives []struct {
			Path         string `json:"path"`
			Size         int64  `json:"size"`
			LastModified string `json:"last_modified"`
		} `json:"archives"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Archives) != 1 {
		t.Fatalf("archives = %+v, want 1 entry", body.Archives)
	}
	got := body.Archives[0]
	if got.Path != "archive/snapshots/2026-01.jsonl" || got.Size != 2048 {
		t.Errorf("archive entry = %+v", got)
	}
	if got.LastModified != "2026-02-01T00:00:00Z" {
		t.Errorf("last modified = %s", got.LastModified)
	}
}

func TestListArchivesUnconfigured(t *testing.T) {
	h := NewArchiveHandler(nil, testLogger())
	rec := httptest.NewRecorder()

	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/archives", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestListArchivesReaderFailure(t *testing.T) {
	reader := &fakeBlobReader{err: errors.New("s3 unreachable")}
	h := NewArchiveHandler(reader, testLogger())
	rec := httptest.NewRecorder()

	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/archives", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
