package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/insiderwatch/internal/blob/s3"
	"github.com/alanyoungcy/insiderwatch/internal/cache/redis"
	"github.com/alanyoungcy/insiderwatch/internal/config"
	"github.com/alanyoungcy/insiderwatch/internal/domain"
	"github.com/alanyoungcy/insiderwatch/internal/notify"
	"github.com/alanyoungcy/insiderwatch/internal/platform/edgar"
	"github.com/alanyoungcy/insiderwatch/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	CompanyStore     domain.CompanyStore
	InsiderStore     domain.InsiderStore
	TransactionStore domain.TransactionStore
	AlertStore       domain.AlertStore
	RunStore         domain.RunStore

	// Caches (nil when redis is disabled; the pipeline degrades gracefully)
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	FilingSeen  domain.FilingSeenCache

	// Blob storage (nil when s3 is disabled)
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver

	// Upstream filing source
	Source domain.FilingSource

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
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

	pool := pgClient.Pool()
	deps.CompanyStore = postgres.NewCompanyStore(pool)
	deps.InsiderStore = postgres.NewInsiderStore(pool)
	deps.TransactionStore = postgres.NewTransactionStore(pool)
	deps.AlertStore = postgres.NewAlertStore(pool)
	deps.RunStore = postgres.NewRunStore(pool)

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
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

		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.FilingSeen = redis.NewFilingCache(redisClient, cfg.Redis.SeenTTL.Duration)
	}

	// --- S3 blob storage (optional) ---
	if cfg.S3.Enabled {
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
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.TransactionStore)
	}

	// --- EDGAR client ---
	// The rate limiter is optional: without Redis the client still runs, just
	// without distributed throttling.
	deps.Source = edgar.New(edgar.Config{
		BaseURL:    cfg.Edgar.BaseURL,
		UserAgent:  cfg.Edgar.UserAgent,
		RateLimit:  cfg.Edgar.RateLimit,
		RateWindow: cfg.Edgar.RateWindow.Duration,
	}, deps.RateLimiter)

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
