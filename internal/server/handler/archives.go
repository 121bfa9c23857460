package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// ArchiveHandler lists snapshot archives in cold storage.
type ArchiveHandler struct {
	reader domain.BlobReader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler over the given blob reader.
// A nil reader yields 503 on every request.
func NewArchiveHandler(reader domain.BlobReader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{reader: reader, logger: logger}
}

// ListArchives responds with metadata for all archived snapshot files.
// GET /api/archives
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "archiving is not configured")
		return
	}

	infos, err := h.reader.List(r.Context(), "archive/")
	if err != nil {
		h.logger.ErrorContext(r.Context(), "archive listing failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "archive listing failed")
		return
	}

	type archiveInfo struct {
		Path         string `json:"path"`
		Size         int64  `json:"size"`
		LastModified string `json:"last_modified"`
	}
	out := make([]archiveInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, archiveInfo{
			Path:         info.Path,
			Size:         info.Size,
			LastModified: info.LastModified.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"archives": out,
	})
}
