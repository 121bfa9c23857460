package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SnapshotRecord is one archived snapshot row: the snapshot itself plus the
// round it was collected in and when it was persisted.
type SnapshotRecord struct {
	RoundID    uuid.UUID `json:"round_id"`
	Snapshot   Snapshot  `json:"snapshot"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SnapshotStore persists collection rounds as snapshot history. The desk loop
// writes every round; the archiver drains old rows to cold storage.
type SnapshotStore interface {
	// SaveRound persists the round's snapshots and warnings.
	SaveRound(ctx context.Context, outcome CollectionOutcome) error

	// ListBefore returns all snapshot rows recorded strictly before the
	// cutoff, oldest first.
	ListBefore(ctx context.Context, before time.Time) ([]SnapshotRecord, error)

	// DeleteBefore removes all snapshot rows recorded strictly before the
	// cutoff and returns the number of rows removed.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
