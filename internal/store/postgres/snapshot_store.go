package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. Each
// collection round becomes one collection_rounds row plus one snapshots row
// per instrument served that round.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given connection
// pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// SaveRound persists the round header and its snapshots in one transaction.
func (s *SnapshotStore) SaveRound(ctx context.Context, outcome domain.CollectionOutcome) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin round %s: %w", outcome.RoundID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const roundQuery = `
		INSERT INTO collection_rounds (round_id, started_at, completed_at, warnings)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (round_id) DO NOTHING`

	if _, err := tx.Exec(ctx, roundQuery,
		outcome.RoundID, outcome.StartedAt, outcome.CompletedAt, outcome.Warnings,
	); err != nil {
		return fmt.Errorf("postgres: insert round %s: %w", outcome.RoundID, err)
	}

	const snapQuery = `
		INSERT INTO snapshots (
			round_id, venue, label, symbol,
			reference_price, secondary_price,
			funding_rate, predicted_funding_rate,
			next_funding_time, observed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	batch := &pgx.Batch{}
	for _, snap := range outcome.Snapshots {
		batch.Queue(snapQuery,
			outcome.RoundID, snap.Venue, snap.Label, snap.Symbol,
			snap.ReferencePrice, snap.SecondaryPrice,
			snap.FundingRate, snap.PredictedFundingRate,
			snap.NextFundingTime, snap.ObservedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range outcome.Snapshots {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("postgres: insert snapshots for round %s: %w", outcome.RoundID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close batch for round %s: %w", outcome.RoundID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit round %s: %w", outcome.RoundID, err)
	}
	return nil
}

// ListBefore returns all snapshot rows recorded strictly before the cutoff,
// oldest first.
func (s *SnapshotStore) ListBefore(ctx context.Context, before time.Time) ([]domain.SnapshotRecord, error) {
	const query = `
		SELECT round_id, venue, label, symbol,
		       reference_price, secondary_price,
		       funding_rate, predicted_funding_rate,
		       next_funding_time, observed_at, recorded_at
		FROM snapshots
		WHERE recorded_at < $1
		ORDER BY recorded_at ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before %s: %w", before, err)
	}
	defer rows.Close()

	var records []domain.SnapshotRecord
	for rows.Next() {
		var rec domain.SnapshotRecord
		if err := rows.Scan(
			&rec.RoundID, &rec.Snapshot.Venue, &rec.Snapshot.Label, &rec.Snapshot.Symbol,
			&rec.Snapshot.ReferencePrice, &rec.Snapshot.SecondaryPrice,
			&rec.Snapshot.FundingRate, &rec.Snapshot.PredictedFundingRate,
			&rec.Snapshot.NextFundingTime, &rec.Snapshot.ObservedAt, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate snapshot rows: %w", err)
	}

	return records, nil
}

// DeleteBefore removes all snapshot rows recorded strictly before the cutoff
// along with rounds that no longer have any snapshots, and returns the number
// of snapshot rows removed.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM snapshots WHERE recorded_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before %s: %w", before, err)
	}

	const pruneRounds = `
		DELETE FROM collection_rounds r
		WHERE r.recorded_at < $1
		  AND NOT EXISTS (SELECT 1 FROM snapshots s WHERE s.round_id = r.round_id)`
	if _, err := s.pool.Exec(ctx, pruneRounds, before); err != nil {
		return tag.RowsAffected(), fmt.Errorf("postgres: prune empty rounds: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.SnapshotStore = (*SnapshotStore)(nil)
