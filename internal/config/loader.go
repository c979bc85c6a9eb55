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
// built-in defaults, applies INSIDERWATCH_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
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

// applyEnvOverrides reads well-known INSIDERWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Edgar ──
	setStr(&cfg.Edgar.BaseURL, "INSIDERWATCH_EDGAR_BASE_URL")
	setStr(&cfg.Edgar.UserAgent, "INSIDERWATCH_EDGAR_USER_AGENT")
	setInt(&cfg.Edgar.RateLimit, "INSIDERWATCH_EDGAR_RATE_LIMIT")
	setDuration(&cfg.Edgar.RateWindow, "INSIDERWATCH_EDGAR_RATE_WINDOW")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "INSIDERWATCH_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "INSIDERWATCH_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "INSIDERWATCH_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "INSIDERWATCH_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "INSIDERWATCH_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "INSIDERWATCH_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "INSIDERWATCH_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "INSIDERWATCH_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "INSIDERWATCH_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "INSIDERWATCH_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "INSIDERWATCH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "INSIDERWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "INSIDERWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "INSIDERWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "INSIDERWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "INSIDERWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "INSIDERWATCH_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SeenTTL, "INSIDERWATCH_REDIS_SEEN_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "INSIDERWATCH_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "INSIDERWATCH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "INSIDERWATCH_S3_REGION")
	setStr(&cfg.S3.Bucket, "INSIDERWATCH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "INSIDERWATCH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "INSIDERWATCH_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "INSIDERWATCH_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "INSIDERWATCH_S3_FORCE_PATH_STYLE")

	// ── Scoring ──
	setInt(&cfg.Scoring.LookbackDays, "INSIDERWATCH_SCORING_LOOKBACK_DAYS")
	setInt(&cfg.Scoring.ClusterWindowDays, "INSIDERWATCH_SCORING_CLUSTER_WINDOW_DAYS")
	setFloat64(&cfg.Scoring.SignificantThreshold, "INSIDERWATCH_SCORING_SIGNIFICANT_THRESHOLD")
	setFloat64(&cfg.Scoring.UrgentScoreThreshold, "INSIDERWATCH_SCORING_URGENT_SCORE_THRESHOLD")
	setFloat64(&cfg.Scoring.UrgentValueThreshold, "INSIDERWATCH_SCORING_URGENT_VALUE_THRESHOLD")

	// ── Pipeline ──
	setDuration(&cfg.Pipeline.PollInterval, "INSIDERWATCH_PIPELINE_POLL_INTERVAL")
	setInt(&cfg.Pipeline.MaxFilings, "INSIDERWATCH_PIPELINE_MAX_FILINGS")
	setInt(&cfg.Pipeline.RetentionDays, "INSIDERWATCH_PIPELINE_RETENTION_DAYS")
	setStr(&cfg.Pipeline.RetentionCron, "INSIDERWATCH_PIPELINE_RETENTION_CRON")

	// ── Digest ──
	setBool(&cfg.Digest.Enabled, "INSIDERWATCH_DIGEST_ENABLED")
	setStr(&cfg.Digest.Cron, "INSIDERWATCH_DIGEST_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "INSIDERWATCH_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "INSIDERWATCH_SERVER_PORT")
	setStr(&cfg.Server.AuthToken, "INSIDERWATCH_SERVER_AUTH_TOKEN")
	setStringSlice(&cfg.Server.CORSOrigins, "INSIDERWATCH_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "INSIDERWATCH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "INSIDERWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "INSIDERWATCH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "INSIDERWATCH_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "INSIDERWATCH_MODE")
	setStr(&cfg.LogLevel, "INSIDERWATCH_LOG_LEVEL")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
