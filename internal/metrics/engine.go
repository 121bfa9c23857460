// Package metrics derives the desk-level summary from the snapshots of the
// most recent collection round.
package metrics

import (
	"github.com/abdullah353/quantumdesk/internal/domain"
)

// Engine computes MetricsSummary values. It is stateless; every round is
// summarized from scratch.
type Engine struct{}

// NewEngine creates a metrics engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Summarize aggregates the given snapshots into a MetricsSummary.
// VenuesOnline counts every instrument with a displayable snapshot, so a
// venue contributing a spot and a perp row counts twice; the funding average
// runs over every snapshot, spot rows contributing zero. An empty input
// yields the zero summary.
func (e *Engine) Summarize(snapshots []domain.Snapshot) domain.MetricsSummary {
	if len(snapshots) == 0 {
		return domain.MetricsSummary{}
	}

	var fundingSum float64
	for _, snap := range snapshots {
		fundingSum += snap.FundingRate
	}

	return domain.MetricsSummary{
		VenuesOnline:       len(snapshots),
		AverageFundingRate: fundingSum / float64(len(snapshots)),
	}
}
