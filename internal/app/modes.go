package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/insiderwatch/internal/alert"
	"github.com/alanyoungcy/insiderwatch/internal/pipeline"
	"github.com/alanyoungcy/insiderwatch/internal/scoring"
	"github.com/alanyoungcy/insiderwatch/internal/server"
	"github.com/alanyoungcy/insiderwatch/internal/server/handler"
)

// pipelineLockKey guards concurrent ingest runs across replicas. A held lock
// means another instance is mid-batch; the idempotent stores make a skipped
// cycle harmless.
const pipelineLockKey = "insiderwatch:pipeline:run"

// PipelineMode executes a single ingest batch and exits. Per-filing failures
// are reported in the run record, not as a process error.
func (a *App) PipelineMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting pipeline mode")

	stats := a.buildOrchestrator(deps).Run(ctx)
	if len(stats.Errors) > 0 {
		a.logger.WarnContext(ctx, "pipeline run finished with errors",
			slog.String("run_id", stats.RunID),
			slog.Int("errors", len(stats.Errors)),
		)
	}
	return nil
}

// DigestMode generates and sends the digest for the current UTC date, then
// exits.
func (a *App) DigestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting digest mode")

	stats, err := a.buildDigest(deps).Generate(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("digest mode: %w", err)
	}
	if stats.SendError != "" {
		return fmt.Errorf("digest mode: send failed: %s", stats.SendError)
	}
	return nil
}

// DaemonMode runs everything: the periodic ingest loop, the cron-scheduled
// digest and retention jobs, and the HTTP API server. It blocks until the
// context is cancelled.
func (a *App) DaemonMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting daemon mode")

	g, ctx := errgroup.WithContext(ctx)

	orch := a.buildOrchestrator(deps)
	digest := a.buildDigest(deps)
	retention := pipeline.NewRetention(
		deps.TransactionStore, deps.Archiver, a.cfg.Pipeline.RetentionDays, a.logger,
	)

	pipelineTriggerCh := make(chan struct{}, 1)
	digestTriggerCh := make(chan struct{}, 1)

	runPipeline := func() {
		if deps.LockManager != nil {
			unlock, err := deps.LockManager.Acquire(ctx, pipelineLockKey, 10*time.Minute)
			if err != nil {
				a.logger.InfoContext(ctx, "pipeline cycle skipped, lock not acquired",
					slog.String("error", err.Error()),
				)
				return
			}
			defer unlock()
		}
		orch.Run(ctx)
	}

	// Ingest loop: first run immediately, then on every tick or manual
	// trigger.
	g.Go(func() error {
		runPipeline()

		ticker := time.NewTicker(a.cfg.Pipeline.PollInterval.Duration)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				runPipeline()
			case <-pipelineTriggerCh:
				runPipeline()
			}
		}
	})

	// Digest loop: runs on manual trigger or the cron schedule below.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-digestTriggerCh:
				if _, err := digest.Generate(ctx, time.Now().UTC()); err != nil {
					a.logger.ErrorContext(ctx, "digest run failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	// Cron schedules for the digest and the retention job. Schedules fire a
	// trigger or run inline; a dead schedule must not kill the daemon, so
	// AddFunc errors are fatal only at startup.
	sched := cron.New()
	if a.cfg.Digest.Enabled {
		if _, err := sched.AddFunc(a.cfg.Digest.Cron, func() {
			select {
			case digestTriggerCh <- struct{}{}:
			default:
			}
		}); err != nil {
			return fmt.Errorf("daemon mode: digest cron %q: %w", a.cfg.Digest.Cron, err)
		}
	}
	if _, err := sched.AddFunc(a.cfg.Pipeline.RetentionCron, func() {
		if _, err := retention.Run(ctx); err != nil {
			a.logger.ErrorContext(ctx, "retention run failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		return fmt.Errorf("daemon mode: retention cron %q: %w", a.cfg.Pipeline.RetentionCron, err)
	}
	sched.Start()
	g.Go(func() error {
		<-ctx.Done()
		<-sched.Stop().Done()
		return nil
	})

	// HTTP server.
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, pipelineTriggerCh, digestTriggerCh)
	}

	a.logger.InfoContext(ctx, "daemon started",
		slog.Duration("poll_interval", a.cfg.Pipeline.PollInterval.Duration),
		slog.Bool("digest_enabled", a.cfg.Digest.Enabled),
		slog.Bool("server_enabled", a.cfg.Server.Enabled),
	)

	return g.Wait()
}

// startHTTPServer adds the HTTP API server to the given errgroup, with a
// graceful shutdown goroutine bound to the context.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	pipelineTriggerCh chan<- struct{},
	digestTriggerCh chan<- struct{},
) {
	handlers := server.Handlers{
		Health:       handler.NewHealthHandler(a.logger),
		Status:       handler.NewStatusHandler(a.cfg.Mode, deps.CompanyStore, deps.RunStore, a.logger),
		Transactions: handler.NewTransactionHandler(deps.TransactionStore, a.logger),
		Alerts:       handler.NewAlertHandler(deps.AlertStore, a.logger),
		Pipeline: handler.NewPipelineHandler(a.logger).
			WithPipelineChannel(pipelineTriggerCh).
			WithDigestChannel(digestTriggerCh),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		AuthToken:   a.cfg.Server.AuthToken,
		RateLimiter: deps.RateLimiter,
	}, handlers, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// buildOrchestrator assembles the ingest pipeline from the wired dependencies.
func (a *App) buildOrchestrator(deps *Dependencies) *pipeline.Orchestrator {
	cfg := a.scoringConfig()
	return pipeline.NewOrchestrator(
		deps.Source,
		pipeline.Stores{
			Companies:    deps.CompanyStore,
			Insiders:     deps.InsiderStore,
			Transactions: deps.TransactionStore,
			Alerts:       deps.AlertStore,
			Runs:         deps.RunStore,
		},
		deps.FilingSeen,
		deps.BlobWriter,
		deps.Notifier,
		alert.NewRouter(cfg),
		cfg,
		a.cfg.Pipeline.MaxFilings,
		a.logger,
	)
}

func (a *App) buildDigest(deps *Dependencies) *pipeline.DigestAggregator {
	return pipeline.NewDigestAggregator(
		deps.TransactionStore, deps.AlertStore, deps.Notifier, a.logger,
	)
}

func (a *App) scoringConfig() scoring.Config {
	return scoring.Config{
		LookbackDays:         a.cfg.Scoring.LookbackDays,
		ClusterWindowDays:    a.cfg.Scoring.ClusterWindowDays,
		SignificantThreshold: a.cfg.Scoring.SignificantThreshold,
		UrgentScoreThreshold: a.cfg.Scoring.UrgentScoreThreshold,
		UrgentValueThreshold: a.cfg.Scoring.UrgentValueThreshold,
	}
}
