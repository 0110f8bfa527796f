// Package app wires configuration, logging and the lazily built service
// components behind the stocksync CLI.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/config"
	"github.com/agentstation/stocksync/internal/metrics"
	"github.com/agentstation/stocksync/internal/notify"
	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/internal/store/memory"
	"github.com/agentstation/stocksync/internal/store/sqlstore"
	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/internal/transport"
	"github.com/agentstation/stocksync/internal/vendors"
	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/reconcile"
)

// App is the running stocksync process.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	settings *Settings
	config   *config.Config
	logger   *zerolog.Logger
	// pinned is set when the config was supplied by WithConfig.
	pinned bool

	// Lazily built, guarded by mu.
	mu        sync.Mutex
	store     store.Store
	registry  *vendors.Registry
	runner    *syncer.Runner
	metrics   *metrics.Metrics
	publisher *notify.Publisher
}

// New creates an App from the environment and default config file
// locations. Flags are applied when a command runs.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	a := &App{
		version:  version,
		commit:   commit,
		date:     date,
		builtBy:  builtBy,
		settings: LoadSettings(),
	}

	logger := NewLogger(a.settings)
	a.logger = &logger

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.config == nil {
		cfg, err := LoadConfig(a.settings.ConfigFile, nil)
		if err != nil {
			return nil, err
		}
		a.config = cfg
	}

	return a, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the service configuration.
func (a *App) Config() *config.Config { return a.config }

// Settings returns the CLI settings.
func (a *App) Settings() *Settings { return a.settings }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the --format value, possibly empty.
func (a *App) OutputFormat() string { return a.settings.Format }

// Store opens the configured store on first use.
func (a *App) Store() (store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storeLocked()
}

func (a *App) storeLocked() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	cfg := a.config.Store
	switch cfg.Driver {
	case "", "memory":
		a.store = memory.New()
	default:
		s, err := sqlstore.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
			defer cancel()
			if err := s.Migrate(ctx); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		a.store = s
	}

	a.logger.Debug().Str("driver", cfg.Driver).Msg("Store opened")
	return a.store, nil
}

// Registry builds the vendor registry on first use.
func (a *App) Registry() (*vendors.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registryLocked(), nil
}

func (a *App) registryLocked() *vendors.Registry {
	if a.registry == nil {
		client := transport.New(transport.WithTimeout(a.config.HTTP.Timeout))
		a.registry = vendors.NewRegistry(a.config.Vendors,
			vendors.WithTransport(client),
			vendors.WithPolicy(a.config.Retry.Policy()),
			vendors.WithLogger(a.logger),
		)
	}
	return a.registry
}

// Metrics returns the collectors, or nil when server.metrics is off.
func (a *App) Metrics() *metrics.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metricsLocked()
}

func (a *App) metricsLocked() *metrics.Metrics {
	if a.metrics == nil && a.config.Server.Metrics {
		a.metrics = metrics.New()
	}
	return a.metrics
}

// Runner builds the sync runner on first use, wiring the engine hooks
// for metrics and stock-out publishing.
func (a *App) Runner() (*syncer.Runner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.runner != nil {
		return a.runner, nil
	}

	st, err := a.storeLocked()
	if err != nil {
		return nil, err
	}

	engine := reconcile.NewEngine(st, reconcile.WithLogger(a.logger))
	m := a.metricsLocked()
	if m != nil {
		engine.OnStockOut(m.ObserveStockOut)
		engine.OnBatch(m.ObserveBatch)
	}

	if addr := a.config.Notify.RedisAddr; addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultHTTPTimeout)
		defer cancel()
		p, err := notify.Dial(ctx, addr, a.config.Notify.Stream, a.logger)
		if err != nil {
			return nil, err
		}
		a.publisher = p
		engine.OnStockOut(p.Hook())
	}

	runner := syncer.New(a.registryLocked(), engine,
		syncer.WithEnabled(a.config.Sync.Enabled),
		syncer.WithLogger(a.logger),
	)
	if m != nil {
		runner.OnPass(m.ObservePass)
	}

	a.runner = runner
	return runner, nil
}

// Shutdown closes the publisher and the store if they were opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close stock-out publisher")
			firstErr = err
		}
		a.publisher = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = errors.WrapStore("close", "", "", err)
		}
		a.store = nil
	}
	return firstErr
}

// Option configures an App.
type Option func(*App) error

// WithConfig sets the service configuration instead of loading it.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		a.config = cfg
		a.pinned = true
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the store instead of opening one from configuration.
func WithStore(s store.Store) Option {
	return func(a *App) error {
		a.store = s
		return nil
	}
}

var _ application.Application = (*App)(nil)
