package handler

import (
	"net/http"

	"github.com/abdullah353/quantumdesk/internal/service"
)

// MetricsHandler serves the desk-level metrics summary.
type MetricsHandler struct {
	desk *service.Desk
}

// NewMetricsHandler creates a MetricsHandler over the given desk.
func NewMetricsHandler(desk *service.Desk) *MetricsHandler {
	return &MetricsHandler{desk: desk}
}

// GetMetrics responds with the summary derived from the current snapshot set.
// GET /api/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.desk.State().Metrics)
}
