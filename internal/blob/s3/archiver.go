package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// jsonlContentType is the MIME type for newline-delimited JSON.
const jsonlContentType = "application/x-ndjson"

// multipartThreshold is the payload size above which the archiver switches to
// multipart upload.
const multipartThreshold = 8 * 1024 * 1024

// Archiver exports snapshot history to object storage and prunes the exported
// rows from the database. Archives are written as JSONL, one file per
// calendar month of the cutoff.
type Archiver struct {
	writer    domain.BlobWriter
	snapshots domain.SnapshotStore
	logger    *slog.Logger
}

// NewArchiver creates an Archiver that reads history from snapshots and
// writes archives through writer.
func NewArchiver(writer domain.BlobWriter, snapshots domain.SnapshotStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:    writer,
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveSnapshots exports all snapshot rows recorded before the cutoff to a
// JSONL object, then deletes them from the database. Rows are only deleted
// after the upload succeeds, so a failed upload leaves the database intact.
func (a *Archiver) ArchiveSnapshots(ctx context.Context, before time.Time) (int64, error) {
	records, err := a.snapshots.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: collect snapshots for archive: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	data, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: encode snapshot archive: %w", err)
	}

	path := archivePath("snapshots", before)
	if len(data) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(data), int64(len(data)/4))
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(data), jsonlContentType)
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: upload snapshot archive: %w", err)
	}

	deleted, err := a.snapshots.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: prune archived snapshots: %w", err)
	}

	a.logger.Info("archived snapshot history",
		slog.String("path", path),
		slog.Int("rows", len(records)),
		slog.Int64("deleted", deleted),
	)
	return int64(len(records)), nil
}

// archivePath builds the object key for an archive of the given kind, bucketed
// by the cutoff month.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.UTC().Format("2006-01"))
}

// marshalJSONL encodes items as newline-delimited JSON.
func marshalJSONL[T any](items []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return nil, fmt.Errorf("encode item %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
