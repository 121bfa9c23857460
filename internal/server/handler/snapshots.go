package handler

import (
	"net/http"

	"github.com/abdullah353/quantumdesk/internal/service"
)

// SnapshotHandler serves the snapshots of the most recent collection round.
type SnapshotHandler struct {
	desk *service.Desk
}

// NewSnapshotHandler creates a SnapshotHandler over the given desk.
func NewSnapshotHandler(desk *service.Desk) *SnapshotHandler {
	return &SnapshotHandler{desk: desk}
}

// ListSnapshots responds with the current snapshot set and round warnings.
// Snapshots appear in configured instrument order; a fully failed round keeps
// the last good set.
// GET /api/snapshots
func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	state := h.desk.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"round_id":   state.RoundID,
		"snapshots":  state.Snapshots,
		"warnings":   state.Warnings,
		"updated_at": state.UpdatedAt,
	})
}
