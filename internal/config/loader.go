package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies QDESK_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known QDESK_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Cache / Redis ──
	setStr(&cfg.Cache.Backend, "QDESK_CACHE_BACKEND")
	setStr(&cfg.Redis.Addr, "QDESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "QDESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "QDESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "QDESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "QDESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "QDESK_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "QDESK_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "QDESK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "QDESK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "QDESK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "QDESK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "QDESK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "QDESK_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "QDESK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "QDESK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "QDESK_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "QDESK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "QDESK_S3_REGION")
	setStr(&cfg.S3.Bucket, "QDESK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "QDESK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "QDESK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "QDESK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "QDESK_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "QDESK_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "QDESK_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "QDESK_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "QDESK_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "QDESK_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "QDESK_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "QDESK_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "QDESK_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "QDESK_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "QDESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "QDESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "QDESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "QDESK_NOTIFY_EVENTS")

	// ── Top-level ──
	setDuration(&cfg.UpdateInterval, "QDESK_UPDATE_INTERVAL")
	setDuration(&cfg.CacheTTL, "QDESK_CACHE_TTL")
	setDuration(&cfg.FetchTimeout, "QDESK_FETCH_TIMEOUT")
	setStr(&cfg.Mode, "QDESK_MODE")
	setStr(&cfg.LogLevel, "QDESK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
