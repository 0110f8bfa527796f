package handlers

import (
	"net/http"

	"github.com/agentstation/stocksync/internal/server/cache"
	"github.com/agentstation/stocksync/internal/server/filter"
	"github.com/agentstation/stocksync/internal/server/response"
)

// HandleListProducts handles GET /products and GET /api/v1/products.
//
// Query parameters: vendor, sku, name_contains, in_stock, limit, offset.
// Results are ordered by vendor then SKU and cached until the next pass.
func (h *Handlers) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	key := cache.ProductsKey(r.URL.RawQuery)
	if cached, found := h.cache.Get(key); found {
		response.OK(w, cached)
		return
	}

	f, err := filter.ParseProductFilter(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list products")
		response.InternalError(w, err)
		return
	}

	result := f.Apply(products)
	h.cache.Set(key, result)
	response.OK(w, result)
}

// HandleListStockOuts handles GET /api/v1/stock-out-events.
//
// Query parameters: vendor, sku, since (RFC 3339), limit. Newest first.
func (h *Handlers) HandleListStockOuts(w http.ResponseWriter, r *http.Request) {
	key := cache.EventsKey(r.URL.RawQuery)
	if cached, found := h.cache.Get(key); found {
		response.OK(w, cached)
		return
	}

	f, err := filter.ParseEventFilter(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	events, err := h.store.ListStockOuts(r.Context(), f)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list stock-out events")
		response.InternalError(w, err)
		return
	}

	h.cache.Set(key, events)
	response.OK(w, events)
}
