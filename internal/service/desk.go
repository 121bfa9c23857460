// Package service runs the desk refresh loop: it drives collection rounds on
// the configured interval, merges each outcome into the desk state, derives
// metrics and the status line, and fans the result out to persistence,
// websocket subscribers, and notification channels.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdullah353/quantumdesk/internal/alerts"
	"github.com/abdullah353/quantumdesk/internal/domain"
	"github.com/abdullah353/quantumdesk/internal/feed"
	"github.com/abdullah353/quantumdesk/internal/metrics"
	"github.com/abdullah353/quantumdesk/internal/notify"
)

// statusWarningLimit caps the warning excerpt embedded in the status line.
const statusWarningLimit = 80

// Broadcaster pushes a serialized state update to live subscribers.
type Broadcaster interface {
	Broadcast(data []byte)
}

// Desk owns the refresh loop and the merged desk state. Persistence,
// broadcasting, and notifications are all optional; a nil dependency simply
// disables that output.
type Desk struct {
	collector *feed.Collector
	engine    *metrics.Engine
	alerts    *alerts.Manager
	store     domain.SnapshotStore
	hub       Broadcaster
	notifier  *notify.Notifier
	logger    *slog.Logger

	mode           string
	updateInterval time.Duration
	cacheTTL       time.Duration

	state *stateBox
}

// DeskConfig collects the desk's constructor dependencies.
type DeskConfig struct {
	Collector      *feed.Collector
	Engine         *metrics.Engine
	Alerts         *alerts.Manager
	Store          domain.SnapshotStore
	Hub            Broadcaster
	Notifier       *notify.Notifier
	Logger         *slog.Logger
	Mode           string
	UpdateInterval time.Duration
	CacheTTL       time.Duration
}

// NewDesk creates a Desk from its dependencies.
func NewDesk(cfg DeskConfig) *Desk {
	return &Desk{
		collector:      cfg.Collector,
		engine:         cfg.Engine,
		alerts:         cfg.Alerts,
		store:          cfg.Store,
		hub:            cfg.Hub,
		notifier:       cfg.Notifier,
		logger:         cfg.Logger.With(slog.String("component", "desk")),
		mode:           cfg.Mode,
		updateInterval: cfg.UpdateInterval,
		cacheTTL:       cfg.CacheTTL,
		state:          newStateBox(),
	}
}

// Run executes rounds until the context is cancelled. The first round fires
// immediately so the desk is populated before the first tick.
func (d *Desk) Run(ctx context.Context) error {
	d.logger.InfoContext(ctx, "desk loop starting",
		slog.String("mode", d.mode),
		slog.Duration("update_interval", d.updateInterval),
		slog.Duration("cache_ttl", d.cacheTTL),
	)

	d.runRound(ctx)

	ticker := time.NewTicker(d.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.InfoContext(ctx, "desk loop stopping")
			return ctx.Err()
		case <-ticker.C:
			d.runRound(ctx)
		}
	}
}

// State returns a copy of the current merged desk state.
func (d *Desk) State() DeskState {
	return d.state.get()
}

// Status returns the collector's health label for the most recent round.
func (d *Desk) Status() domain.FeedStatus {
	return d.collector.Status()
}

// runRound performs one collection round and applies its outcome.
func (d *Desk) runRound(ctx context.Context) {
	outcome := d.collector.Collect(ctx)
	prev := d.state.get()

	next := d.merge(prev, outcome)
	d.state.set(next)

	d.persist(ctx, outcome)
	d.broadcast(ctx, next)
	d.notifyTransition(ctx, prev, next)
}

// merge folds a round outcome into the previous state. Snapshots are only
// replaced when the round produced at least one; a fully failed round keeps
// the last good view on screen. Warnings always reflect the latest round.
func (d *Desk) merge(prev DeskState, outcome domain.CollectionOutcome) DeskState {
	next := DeskState{
		RoundID:   outcome.RoundID,
		Snapshots: prev.Snapshots,
		Warnings:  outcome.Warnings,
		UpdatedAt: outcome.CompletedAt,
	}
	if len(outcome.Snapshots) > 0 {
		next.Snapshots = outcome.Snapshots
	}
	next.Metrics = d.engine.Summarize(next.Snapshots)
	if outcome.Degraded() {
		next.Status = domain.FeedStatusDegraded
	} else {
		next.Status = domain.FeedStatusStable
	}
	next.StatusLine = d.statusLine(next)
	return next
}

// statusLine renders the one-line desk summary shown in headers and logs.
func (d *Desk) statusLine(s DeskState) string {
	triggered := 0
	if d.alerts != nil {
		triggered = d.alerts.TriggeredCount()
	}
	return fmt.Sprintf("Mode %s | Refresh %dms | Cache %ds | Feed %s | Alerts %d | %s",
		d.mode,
		d.updateInterval.Milliseconds(),
		int(d.cacheTTL.Seconds()),
		s.Status,
		triggered,
		summarizeWarnings(s.Warnings),
	)
}

// persist writes the round to snapshot history, best effort.
func (d *Desk) persist(ctx context.Context, outcome domain.CollectionOutcome) {
	if d.store == nil {
		return
	}
	if err := d.store.SaveRound(ctx, outcome); err != nil {
		d.logger.ErrorContext(ctx, "round persistence failed",
			slog.String("round_id", outcome.RoundID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// broadcast pushes the merged state to websocket subscribers, best effort.
func (d *Desk) broadcast(ctx context.Context, s DeskState) {
	if d.hub == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		d.logger.ErrorContext(ctx, "state encode failed",
			slog.String("error", err.Error()),
		)
		return
	}
	d.hub.Broadcast(data)
}

// notifyTransition reports stable/degraded flips to the notifier.
func (d *Desk) notifyTransition(ctx context.Context, prev, next DeskState) {
	if d.notifier == nil || prev.Status == next.Status {
		return
	}
	// The zero state has an empty status; skip the first round.
	if prev.Status == "" {
		return
	}

	event := notify.EventFeedRecovered
	title := "Feeds recovered"
	message := "All feeds are serving fresh data again."
	if next.Status == domain.FeedStatusDegraded {
		event = notify.EventFeedDegraded
		title = "Feeds degraded"
		message = fmt.Sprintf("%d warning(s); first: %s",
			len(next.Warnings), truncateForStatus(firstOrEmpty(next.Warnings), statusWarningLimit))
	}

	if err := d.notifier.Notify(ctx, event, title, message); err != nil {
		d.logger.ErrorContext(ctx, "transition notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// summarizeWarnings renders the health segment of the status line.
func summarizeWarnings(warnings []string) string {
	if len(warnings) == 0 {
		return "Feeds healthy"
	}
	return fmt.Sprintf("%d warning(s): %s",
		len(warnings), truncateForStatus(warnings[0], statusWarningLimit))
}

// truncateForStatus shortens s to at most limit runes, appending an ellipsis
// when anything was cut.
func truncateForStatus(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

func firstOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
