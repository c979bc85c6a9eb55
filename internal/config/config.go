// Package config defines the top-level configuration for the insider filing
// watcher and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by INSIDERWATCH_* environment variables.
type Config struct {
	Edgar    EdgarConfig    `toml:"edgar"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Scoring  ScoringConfig  `toml:"scoring"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Digest   DigestConfig   `toml:"digest"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// EdgarConfig holds the upstream filing index endpoint and the politeness
// settings it requires. EDGAR enforces a declared User-Agent and roughly ten
// requests per second per client.
type EdgarConfig struct {
	BaseURL    string   `toml:"base_url"`
	UserAgent  string   `toml:"user_agent"`
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// PostgresConfig holds PostgreSQL connection parameters.
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	SeenTTL    duration `toml:"seen_ttl"`
}

// S3Config holds S3-compatible object storage parameters for the raw filing
// archive and the cold transaction archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ScoringConfig holds the signal-scoring windows and thresholds.
type ScoringConfig struct {
	LookbackDays         int     `toml:"lookback_days"`
	ClusterWindowDays    int     `toml:"cluster_window_days"`
	SignificantThreshold float64 `toml:"significant_threshold"`
	UrgentScoreThreshold float64 `toml:"urgent_score_threshold"`
	UrgentValueThreshold float64 `toml:"urgent_value_threshold"`
}

// PipelineConfig holds ingest scheduling and retention parameters.
type PipelineConfig struct {
	PollInterval  duration `toml:"poll_interval"`
	MaxFilings    int      `toml:"max_filings"`
	RetentionDays int      `toml:"retention_days"`
	RetentionCron string   `toml:"retention_cron"`
}

// DigestConfig holds the daily-summary schedule.
type DigestConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	AuthToken   string   `toml:"auth_token"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Edgar: EdgarConfig{
			BaseURL:    "https://www.sec.gov",
			UserAgent:  "insiderwatch/1.0 (ops@insiderwatch.dev)",
			RateLimit:  10,
			RateWindow: duration{time.Second},
		},
		Postgres: PostgresConfig{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "insiderwatch",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			SeenTTL:    duration{72 * time.Hour},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "insiderwatch-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Scoring: ScoringConfig{
			LookbackDays:         90,
			ClusterWindowDays:    7,
			SignificantThreshold: 3.0,
			UrgentScoreThreshold: 5.0,
			UrgentValueThreshold: 250_000,
		},
		Pipeline: PipelineConfig{
			PollInterval:  duration{10 * time.Minute},
			MaxFilings:    100,
			RetentionDays: 365,
			RetentionCron: "0 3 * * *",
		},
		Digest: DigestConfig{
			Enabled: true,
			Cron:    "0 22 * * 1-5",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"urgent", "digest", "ops"},
		},
		Mode:     "daemon",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"daemon":   true,
	"pipeline": true,
	"digest":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: daemon, pipeline, digest)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Edgar
	if c.Edgar.BaseURL == "" {
		errs = append(errs, "edgar: base_url must not be empty")
	}
	if c.Edgar.UserAgent == "" {
		errs = append(errs, "edgar: user_agent must not be empty (the SEC requires a declared client)")
	}
	if c.Edgar.RateLimit < 1 {
		errs = append(errs, "edgar: rate_limit must be >= 1")
	}

	// Postgres
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
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Scoring
	if c.Scoring.LookbackDays < 1 {
		errs = append(errs, "scoring: lookback_days must be >= 1")
	}
	if c.Scoring.ClusterWindowDays < 1 {
		errs = append(errs, "scoring: cluster_window_days must be >= 1")
	}
	if c.Scoring.UrgentScoreThreshold <= 0 {
		errs = append(errs, "scoring: urgent_score_threshold must be > 0")
	}
	if c.Scoring.UrgentValueThreshold <= 0 {
		errs = append(errs, "scoring: urgent_value_threshold must be > 0")
	}

	// Pipeline
	if c.Pipeline.PollInterval.Duration < time.Minute {
		errs = append(errs, "pipeline: poll_interval must be >= 1m")
	}
	if c.Pipeline.MaxFilings < 1 {
		errs = append(errs, "pipeline: max_filings must be >= 1")
	}
	if c.Pipeline.RetentionDays < 1 {
		errs = append(errs, "pipeline: retention_days must be >= 1")
	}

	// Server
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
