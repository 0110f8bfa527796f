// Package handlers provides the HTTP handlers for the stocksync API.
package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/internal/server/cache"
	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/internal/syncer"
)

// Runner is the part of the sync runner the API drives.
type Runner interface {
	SyncAll(ctx context.Context) (syncer.Report, error)
	LastReport() (syncer.Report, bool)
	Enabled() bool
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	store     store.Store
	runner    Runner
	cache     *cache.Cache
	logger    *zerolog.Logger
	version   string
	startTime time.Time
}

// New creates a new Handlers instance.
func New(s store.Store, runner Runner, c *cache.Cache, logger *zerolog.Logger, version string) *Handlers {
	return &Handlers{
		store:     s,
		runner:    runner,
		cache:     c,
		logger:    logger,
		version:   version,
		startTime: time.Now(),
	}
}
