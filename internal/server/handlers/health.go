package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/agentstation/stocksync/internal/server/response"
)

// HandleHealth handles GET /health (liveness).
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "stocksync",
		"version": h.version,
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HandleReady handles GET /api/v1/ready. It fails when the store cannot be
// reached.
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Readiness check failed")
		response.ServiceUnavailable(w, "Store not available")
		return
	}

	data := map[string]any{
		"status":       "ready",
		"sync_enabled": h.runner.Enabled(),
		"cache": map[string]any{
			"items": h.cache.ItemCount(),
		},
	}
	if last, ok := h.runner.LastReport(); ok {
		data["last_sync"] = last.StartedAt
	}
	response.OK(w, data)
}
