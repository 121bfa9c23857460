// Package config defines the top-level configuration for quantumdesk and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by QDESK_* environment variables.
type Config struct {
	Venues   []VenueConfig  `toml:"venues"`
	Alerts   []AlertConfig  `toml:"alerts"`
	Cache    CacheConfig    `toml:"cache"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`

	// UpdateInterval is how often the desk runs a collection round.
	UpdateInterval duration `toml:"update_interval"`

	// CacheTTL is the maximum snapshot age served without a refresh.
	CacheTTL duration `toml:"cache_ttl"`

	// FetchTimeout bounds every upstream HTTP call.
	FetchTimeout duration `toml:"fetch_timeout"`

	Mode     string `toml:"mode"`
	LogLevel string `toml:"log_level"`
}

// VenueConfig holds one venue's name, instrument symbols, and optional API
// base URL override (used in tests and for self-hosted gateways).
type VenueConfig struct {
	Name    string   `toml:"name"`
	Symbols []string `toml:"symbols"`
	BaseURL string   `toml:"base_url"`
}

// AlertConfig declares one alert row carried through to the display. Trigger
// evaluation is external; quantumdesk only tracks the flags.
type AlertConfig struct {
	Name      string `toml:"name"`
	Threshold string `toml:"threshold"`
}

// CacheConfig selects the snapshot cache backend.
type CacheConfig struct {
	// Backend is "memory" (default, process-local) or "redis" (shared).
	Backend string `toml:"backend"`
}

// RedisConfig holds Redis connection parameters for the shared cache backend.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for snapshot history.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for cold storage.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls the snapshot-history archival loop (full mode only).
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// ServerConfig holds HTTP server parameters. An empty APIKey disables
// authentication; rate limiting only applies when the redis cache backend is
// configured.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "1s", "60s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "500ms" or "1m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values: the
// Bitfinex and Deribit BTC instruments, a 1s refresh, and a 60s cache TTL.
func Defaults() Config {
	return Config{
		Venues: []VenueConfig{
			{Name: "Bitfinex", Symbols: []string{"tBTCUSD", "tBTCF0:USTF0"}},
			{Name: "Deribit", Symbols: []string{"BTC-USD", "BTC-PERPETUAL"}},
		},
		Alerts: []AlertConfig{
			{Name: "Bitfinex Funding", Threshold: "> 75 bps"},
			{Name: "Deribit Funding", Threshold: "< -25 bps"},
			{Name: "IBIT Premium", Threshold: "> 1.5%"},
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "quantumdesk",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "quantumdesk-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimit:       120,
			RateLimitWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"feed_degraded", "feed_recovered"},
		},
		UpdateInterval: duration{time.Second},
		CacheTTL:       duration{60 * time.Second},
		FetchTimeout:   duration{10 * time.Second},
		Mode:           "monitor",
		LogLevel:       "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"monitor": true,
	"server":  true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validCacheBackends enumerates the accepted values for Cache.Backend.
var validCacheBackends = map[string]bool{
	"memory": true,
	"redis":  true,
}

// UpdateIntervalValue returns the refresh interval, clamped to a 100ms floor
// so a misconfigured file cannot spin the collector.
func (c *Config) UpdateIntervalValue() time.Duration {
	if c.UpdateInterval.Duration < 100*time.Millisecond {
		return 100 * time.Millisecond
	}
	return c.UpdateInterval.Duration
}

// CacheTTLValue returns the snapshot TTL, clamped to a 5s floor.
func (c *Config) CacheTTLValue() time.Duration {
	if c.CacheTTL.Duration < 5*time.Second {
		return 5 * time.Second
	}
	return c.CacheTTL.Duration
}

// FetchTimeoutValue returns the per-request timeout, defaulting to 10s.
func (c *Config) FetchTimeoutValue() time.Duration {
	if c.FetchTimeout.Duration <= 0 {
		return 10 * time.Second
	}
	return c.FetchTimeout.Duration
}

// NeedsPostgres reports whether the configured mode persists snapshot history.
func (c *Config) NeedsPostgres() bool {
	return strings.ToLower(c.Mode) == "full"
}

// NeedsS3 reports whether the configured mode runs the archival loop.
func (c *Config) NeedsS3() bool {
	return strings.ToLower(c.Mode) == "full" && c.Archive.Enabled
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: monitor, server, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if !validCacheBackends[strings.ToLower(c.Cache.Backend)] {
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}

	// Venues: an empty list is allowed (the desk idles with empty rounds),
	// but a venue entry without a name or symbols is a mistake.
	for i, v := range c.Venues {
		if strings.TrimSpace(v.Name) == "" {
			errs = append(errs, fmt.Sprintf("venues[%d]: name must not be empty", i))
		}
		for j, s := range v.Symbols {
			if strings.TrimSpace(s) == "" {
				errs = append(errs, fmt.Sprintf("venues[%d].symbols[%d]: symbol must not be empty", i, j))
			}
		}
	}

	if strings.ToLower(c.Cache.Backend) == "redis" {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when cache.backend is redis")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.NeedsPostgres() {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.NeedsS3() {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archiving is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archiving is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
