package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abdullah353/quantumdesk/internal/alerts"
	"github.com/abdullah353/quantumdesk/internal/domain"
)

// AlertHandler serves the configured alerts and accepts external trigger
// updates.
type AlertHandler struct {
	manager *alerts.Manager
	logger  *slog.Logger
}

// NewAlertHandler creates an AlertHandler over the given manager.
func NewAlertHandler(manager *alerts.Manager, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{manager: manager, logger: logger}
}

// ListAlerts responds with all alerts in configuration order.
// GET /api/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": h.manager.List(),
	})
}

// triggerRequest is the body for SetTriggered.
type triggerRequest struct {
	Triggered bool `json:"triggered"`
}

// SetTriggered updates the trigger flag for the named alert. Evaluation
// happens outside this process; this endpoint only records the result.
// POST /api/alerts/{name}/triggered
func (h *AlertHandler) SetTriggered(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "alert name is required")
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.manager.SetTriggered(name, req.Triggered)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "alert not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "alert update failed",
			slog.String("alert", name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "alert update failed")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
