package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/internal/config"
	"github.com/agentstation/stocksync/internal/metrics"
	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/internal/vendors"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ConfigFunc       func() *config.Config
	StoreFunc        func() (store.Store, error)
	RegistryFunc     func() (*vendors.Registry, error)
	RunnerFunc       func() (*syncer.Runner, error)
	MetricsFunc      func() *metrics.Metrics
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Config returns the mock config or the defaults.
func (m *Mock) Config() *config.Config {
	if m.ConfigFunc != nil {
		return m.ConfigFunc()
	}
	return config.Default()
}

// Store returns a store using the mock function or nil.
func (m *Mock) Store() (store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	return nil, nil
}

// Registry returns a registry using the mock function or an empty one.
func (m *Mock) Registry() (*vendors.Registry, error) {
	if m.RegistryFunc != nil {
		return m.RegistryFunc()
	}
	return vendors.NewRegistry(config.Vendors{}), nil
}

// Runner returns a runner using the mock function or nil.
func (m *Mock) Runner() (*syncer.Runner, error) {
	if m.RunnerFunc != nil {
		return m.RunnerFunc()
	}
	return nil, nil
}

// Metrics returns metrics using the mock function or nil.
func (m *Mock) Metrics() *metrics.Metrics {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
