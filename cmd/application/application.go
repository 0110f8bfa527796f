// Package application provides the application interface for stocksync
// commands and the API server.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested against a mock:
//
//	mock := &application.Mock{
//	    StoreFunc: func() (store.Store, error) {
//	        return memory.New(), nil
//	    },
//	}
//	cmd := products.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/internal/config"
	"github.com/agentstation/stocksync/internal/metrics"
	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/internal/vendors"
)

// Application provides what commands need from the running process.
//
// Store, Registry and Runner are built lazily on first use and cached; the
// same instance is returned on every later call. All methods are safe for
// concurrent use.
type Application interface {
	// Config returns the loaded configuration.
	Config() *config.Config

	// Store returns the product and event store.
	Store() (store.Store, error)

	// Registry returns the vendor fetchers built from configuration.
	Registry() (*vendors.Registry, error)

	// Runner returns the sync runner wired to the registry and store.
	Runner() (*syncer.Runner, error)

	// Metrics returns the Prometheus collectors, or nil when disabled.
	Metrics() *metrics.Metrics

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
