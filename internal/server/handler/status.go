package handler

import (
	"net/http"

	"github.com/abdullah353/quantumdesk/internal/service"
)

// StatusHandler serves the desk status line and feed health for dashboards.
type StatusHandler struct {
	desk *service.Desk
	mode string
}

// NewStatusHandler creates a StatusHandler over the given desk.
func NewStatusHandler(desk *service.Desk, mode string) *StatusHandler {
	return &StatusHandler{desk: desk, mode: mode}
}

// GetStatus responds with the current mode, feed health, and status line.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	state := h.desk.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":        h.mode,
		"status":      state.Status,
		"status_line": state.StatusLine,
		"round_id":    state.RoundID,
		"updated_at":  state.UpdatedAt,
	})
}
