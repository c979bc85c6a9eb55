// Package server exposes the HTTP API: health, status, recent transactions
// and alerts, and manual pipeline/digest triggers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
	"github.com/alanyoungcy/insiderwatch/internal/server/handler"
	"github.com/alanyoungcy/insiderwatch/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	AuthToken   string             // if empty, authentication is disabled
	RateLimiter domain.RateLimiter // if nil, per-client rate limiting is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health       *handler.HealthHandler
	Status       *handler.StatusHandler
	Transactions *handler.TransactionHandler
	Alerts       *handler.AlertHandler
	Pipeline     *handler.PipelineHandler
}

// Server is the headless HTTP API server for the filing watcher.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and the middleware chain (logging, CORS, auth) wired up.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Status, company lookup, and run history.
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	mux.HandleFunc("GET /api/companies/{cik}", handlers.Status.GetCompany)
	mux.HandleFunc("GET /api/runs", handlers.Status.ListRuns)

	// Transaction and alert listings.
	mux.HandleFunc("GET /api/transactions", handlers.Transactions.ListTransactions)
	mux.HandleFunc("GET /api/alerts", handlers.Alerts.ListAlerts)

	// Manual triggers.
	mux.HandleFunc("POST /api/pipeline/trigger", handlers.Pipeline.TriggerPipeline)
	mux.HandleFunc("POST /api/digest/trigger", handlers.Pipeline.TriggerDigest)

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply per-client rate limiting when a distributed limiter is available.
	if cfg.RateLimiter != nil {
		h = middleware.RateLimit(cfg.RateLimiter, 30, time.Second)(h)
	}

	// Apply auth middleware (skips if AuthToken is empty).
	h = middleware.Auth(cfg.AuthToken)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
