package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abdullah353/quantumdesk/internal/notify"
	"github.com/abdullah353/quantumdesk/internal/server"
	"github.com/abdullah353/quantumdesk/internal/server/handler"
	"github.com/abdullah353/quantumdesk/internal/server/ws"
	"github.com/abdullah353/quantumdesk/internal/service"
)

// shutdownGrace is how long in-flight HTTP requests get on shutdown.
const shutdownGrace = 10 * time.Second

// MonitorMode runs the desk loop alone: collection rounds, merged state, and
// notifications, with no API surface.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	desk := a.buildDesk(deps, nil)
	g.Go(func() error {
		return desk.Run(ctx)
	})

	return g.Wait()
}

// ServerMode runs the desk loop plus the HTTP API and websocket stream.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	startedAt := time.Now().UTC()

	hub := ws.NewHub(a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: startedAt,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	desk := a.buildDesk(deps, hub)
	g.Go(func() error {
		return desk.Run(ctx)
	})

	a.startHTTPServer(ctx, g, deps, desk, hub, startedAt)

	return g.Wait()
}

// FullMode runs everything: the desk loop, the HTTP API, snapshot history
// persistence, and the archival loop.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	startedAt := time.Now().UTC()

	hub := ws.NewHub(a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: startedAt,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	desk := a.buildDesk(deps, hub)
	g.Go(func() error {
		return desk.Run(ctx)
	})

	a.startHTTPServer(ctx, g, deps, desk, hub, startedAt)

	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiveLoop(ctx, deps)
		})
	}

	return g.Wait()
}

// buildDesk assembles the desk loop for the current mode. The store is nil
// outside full mode; the hub is nil in monitor mode.
func (a *App) buildDesk(deps *Dependencies, hub *ws.Hub) *service.Desk {
	var broadcaster service.Broadcaster
	if hub != nil {
		broadcaster = hub
	}
	return service.NewDesk(service.DeskConfig{
		Collector:      deps.Collector,
		Engine:         deps.Engine,
		Alerts:         deps.Alerts,
		Store:          deps.SnapshotStore,
		Hub:            broadcaster,
		Notifier:       deps.Notifier,
		Logger:         a.logger,
		Mode:           a.cfg.Mode,
		UpdateInterval: a.cfg.UpdateIntervalValue(),
		CacheTTL:       a.cfg.CacheTTLValue(),
	})
}

// startHTTPServer registers the API handlers and runs the server under the
// errgroup, shutting it down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, desk *service.Desk, hub *ws.Hub, startedAt time.Time) {
	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.cfg.Mode, startedAt),
		Status:    handler.NewStatusHandler(desk, a.cfg.Mode),
		Snapshots: handler.NewSnapshotHandler(desk),
		Metrics:   handler.NewMetricsHandler(desk),
		Alerts:    handler.NewAlertHandler(deps.Alerts, a.logger),
		Archives:  handler.NewArchiveHandler(deps.BlobReader, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// runArchiveLoop periodically drains snapshot history older than the
// retention window to cold storage.
func (a *App) runArchiveLoop(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Archive.Interval.Duration
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour

	a.logger.InfoContext(ctx, "archive loop starting",
		slog.Duration("interval", interval),
		slog.Int("retention_days", a.cfg.Archive.RetentionDays),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			archived, err := deps.Archiver.ArchiveSnapshots(ctx, cutoff)
			if err != nil {
				a.logger.ErrorContext(ctx, "archive run failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			if archived == 0 {
				continue
			}
			if err := deps.Notifier.Notify(ctx, notify.EventArchiveCompleted,
				"Snapshot archive completed",
				fmt.Sprintf("Archived %d snapshot rows recorded before %s.", archived, cutoff.Format(time.RFC3339)),
			); err != nil {
				a.logger.WarnContext(ctx, "archive notification failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
