package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abdullah353/quantumdesk/internal/domain"
)

// DeskState is the merged view the desk exposes between rounds: the last
// non-empty snapshot set, the warnings of the most recent round, and the
// derived metrics and status. It is copied out on read, never shared.
type DeskState struct {
	RoundID    uuid.UUID             `json:"round_id"`
	Snapshots  []domain.Snapshot     `json:"snapshots"`
	Warnings   []string              `json:"warnings"`
	Metrics    domain.MetricsSummary `json:"metrics"`
	Status     domain.FeedStatus     `json:"status"`
	StatusLine string                `json:"status_line"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// clone returns a deep copy safe to hand to callers.
func (s DeskState) clone() DeskState {
	out := s
	out.Snapshots = make([]domain.Snapshot, len(s.Snapshots))
	copy(out.Snapshots, s.Snapshots)
	out.Warnings = make([]string, len(s.Warnings))
	copy(out.Warnings, s.Warnings)
	return out
}

// stateBox guards the current DeskState. Reads copy, writes replace.
type stateBox struct {
	mu    sync.RWMutex
	state DeskState
}

func newStateBox() *stateBox {
	return &stateBox{}
}

func (b *stateBox) get() DeskState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.clone()
}

func (b *stateBox) set(s DeskState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}
