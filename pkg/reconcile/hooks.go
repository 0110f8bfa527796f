package reconcile

import (
	"sync"

	"github.com/agentstation/stocksync/pkg/inventory"
)

// Hook function types for reconciliation events.
type (
	// StockOutHook is called once per committed stock-out event.
	StockOutHook func(event inventory.StockOutEvent)

	// BatchHook is called after every committed batch.
	BatchHook func(result Result)
)

type hooks struct {
	mu         sync.RWMutex
	onStockOut []StockOutHook
	onBatch    []BatchHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnStockOut registers a callback for committed stock-out events.
func (e *Engine) OnStockOut(fn StockOutHook) {
	e.hooks.mu.Lock()
	defer e.hooks.mu.Unlock()
	e.hooks.onStockOut = append(e.hooks.onStockOut, fn)
}

// OnBatch registers a callback for committed batches.
func (e *Engine) OnBatch(fn BatchHook) {
	e.hooks.mu.Lock()
	defer e.hooks.mu.Unlock()
	e.hooks.onBatch = append(e.hooks.onBatch, fn)
}

func (h *hooks) fireStockOut(ev inventory.StockOutEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onStockOut {
		fn(ev)
	}
}

func (h *hooks) fireBatch(r Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onBatch {
		fn(r)
	}
}
