package handlers

import (
	"context"
	"net/http"

	"github.com/agentstation/stocksync/internal/server/response"
	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
)

// HandleSync handles POST /api/v1/sync: run one pass now and return its
// report. Answers 409 while another pass is running.
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	// A client hanging up must not cut a pass short.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), constants.SyncPassTimeout)
	defer cancel()

	report, err := h.runner.SyncAll(ctx)
	switch {
	case err == nil:
		response.OK(w, report)
	case errors.Is(err, errors.ErrPassInProgress), errors.Is(err, errors.ErrSyncDisabled):
		response.ErrorFromType(w, err)
	default:
		h.logger.Error().Err(err).Str("pass", report.ID).Msg("Manual sync failed")
		response.InternalError(w, err)
	}
}

// HandleLastSync handles GET /api/v1/sync/last.
func (h *Handlers) HandleLastSync(w http.ResponseWriter, _ *http.Request) {
	report, ok := h.runner.LastReport()
	if !ok {
		response.NotFound(w, "No sync pass has run yet", "")
		return
	}
	response.OK(w, report)
}
