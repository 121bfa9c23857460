package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abdullah353/quantumdesk/internal/alerts"
	s3blob "github.com/abdullah353/quantumdesk/internal/blob/s3"
	"github.com/abdullah353/quantumdesk/internal/cache/redis"
	"github.com/abdullah353/quantumdesk/internal/config"
	"github.com/abdullah353/quantumdesk/internal/domain"
	"github.com/abdullah353/quantumdesk/internal/feed"
	"github.com/abdullah353/quantumdesk/internal/metrics"
	"github.com/abdullah353/quantumdesk/internal/notify"
	"github.com/abdullah353/quantumdesk/internal/store/postgres"
	"github.com/abdullah353/quantumdesk/internal/venue/bitfinex"
	"github.com/abdullah353/quantumdesk/internal/venue/deribit"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Keys      []domain.InstrumentKey
	Registry  *feed.Registry
	Cache     domain.SnapshotCache
	Collector *feed.Collector

	SnapshotStore domain.SnapshotStore
	RateLimiter   domain.RateLimiter

	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	Engine   *metrics.Engine
	Alerts   *alerts.Manager
	Notifier *notify.Notifier
}

// Wire constructs the concrete dependency implementations for the given
// configuration and returns them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Engine: metrics.NewEngine(),
	}

	// --- Snapshot cache ---
	switch strings.ToLower(cfg.Cache.Backend) {
	case "", "memory":
		deps.Cache = feed.NewMemoryCache()
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Cache = redis.NewSnapshotCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unsupported cache backend %q", cfg.Cache.Backend)
	}

	// --- Venue adapters ---
	deps.Registry = feed.NewRegistry()
	timeout := cfg.FetchTimeoutValue()
	for _, venue := range cfg.Venues {
		switch strings.ToLower(venue.Name) {
		case "bitfinex":
			client := bitfinex.NewClient(venue.BaseURL, timeout)
			for _, sym := range venue.Symbols {
				key := domain.InstrumentKey{Venue: venue.Name, Symbol: sym}
				deps.Registry.Register(key, client.AdapterFor(sym))
				deps.Keys = append(deps.Keys, key)
			}
		case "deribit":
			client := deribit.NewClient(venue.BaseURL, timeout)
			for _, sym := range venue.Symbols {
				key := domain.InstrumentKey{Venue: venue.Name, Symbol: sym}
				deps.Registry.Register(key, client.AdapterFor(sym))
				deps.Keys = append(deps.Keys, key)
			}
		default:
			// Unknown venues stay unregistered; every round reports them as
			// configuration errors rather than failing startup.
			logger.Warn("unknown venue in configuration",
				slog.String("venue", venue.Name),
			)
			for _, sym := range venue.Symbols {
				deps.Keys = append(deps.Keys, domain.InstrumentKey{Venue: venue.Name, Symbol: sym})
			}
		}
	}

	deps.Collector = feed.NewCollector(
		deps.Keys, deps.Registry, deps.Cache, cfg.CacheTTLValue(), nil, logger,
	)

	// --- PostgreSQL snapshot history (full mode only) ---
	if cfg.NeedsPostgres() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.SnapshotStore = postgres.NewSnapshotStore(pgClient.Pool())
	}

	// --- S3 cold storage (full mode with archiving enabled) ---
	if cfg.NeedsS3() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		if deps.SnapshotStore != nil {
			deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.SnapshotStore, logger)
		}
	}

	// --- Alerts ---
	defs := make([]alerts.Definition, 0, len(cfg.Alerts))
	for _, alert := range cfg.Alerts {
		defs = append(defs, alerts.Definition{
			Name:      alert.Name,
			Threshold: alert.Threshold,
		})
	}
	deps.Alerts = alerts.NewManager(defs, nil)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
