// Package server provides the HTTP read API for stocksync.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/metrics"
	"github.com/agentstation/stocksync/internal/server/cache"
	"github.com/agentstation/stocksync/internal/server/middleware"
	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/pkg/constants"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	store       store.Store
	runner      *syncer.Runner
	metrics     *metrics.Metrics
	cache       *cache.Cache
	rateLimiter *middleware.RateLimiter
	logger      *zerolog.Logger
	version     string
	config      Config
}

// New creates a server bound to the application's store and runner.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = constants.CacheTTL
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/v1"
	}

	st, err := app.Store()
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	runner, err := app.Runner()
	if err != nil {
		return nil, fmt.Errorf("building sync runner: %w", err)
	}

	s := &Server{
		store:   st,
		runner:  runner,
		metrics: app.Metrics(),
		cache:   cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		logger:  logger,
		version: app.Version(),
		config:  cfg,
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	// Cached listings are stale once a pass has run.
	runner.OnPass(func(r syncer.Report) {
		s.cache.Flush()
		logger.Debug().Str("pass", r.ID).Msg("API cache invalidated")
	})

	logger.Debug().Msg("Server instance created")
	return s, nil
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// HTTPServer returns an http.Server configured with the server's timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Shutdown releases background resources.
func (s *Server) Shutdown(_ context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.logger.Info().Msg("Server background services stopped")
	return nil
}

// Cache returns the response cache.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// shutdownTimeout bounds graceful shutdown of the listener.
var shutdownTimeout = constants.ServerShutdownTimeout

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("Shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.Shutdown(shutdownCtx)
}

