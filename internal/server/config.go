package server

import (
	"time"

	"github.com/agentstation/stocksync/internal/config"
	"github.com/agentstation/stocksync/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	Host string
	Port int

	// PathPrefix is prepended to every versioned route.
	PathPrefix string

	CORSEnabled bool
	CORSOrigins []string

	RateLimit int // requests per minute per IP; 0 disables
	CacheTTL  time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MetricsEnabled bool
	// MockVendor mounts the sample vendor endpoint.
	MockVendor bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8080,
		PathPrefix:     "/api/v1",
		RateLimit:      constants.DefaultRateLimit,
		CacheTTL:       constants.CacheTTL,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   constants.SyncPassTimeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MetricsEnabled: true,
	}
}

// ConfigFrom builds a Config from the application's server section.
func ConfigFrom(s config.Server) Config {
	cfg := DefaultConfig()
	if s.Host != "" {
		cfg.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	cfg.CORSEnabled = s.CORS
	cfg.CORSOrigins = s.CORSOrigins
	cfg.RateLimit = s.RateLimit
	cfg.MetricsEnabled = s.Metrics
	cfg.MockVendor = s.MockVendor
	return cfg
}
