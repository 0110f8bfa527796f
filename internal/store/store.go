// Package store defines persistence for products and stock-out events.
//
// All writes go through a Tx obtained from Store.Begin. Implementations
// allow one open Tx at a time, so a read-then-write on one key inside a
// Tx cannot interleave with another writer.
package store

import (
	"context"
	"time"

	"github.com/agentstation/stocksync/pkg/inventory"
)

// ProductStore reads and writes canonical products by natural key.
type ProductStore interface {
	// FindBySKUAndVendor returns nil and no error when the key is unknown.
	FindBySKUAndVendor(ctx context.Context, sku, vendor string) (*inventory.Product, error)

	// SaveProduct inserts p when p.ID is nil (assigning an ID) and
	// updates it otherwise. UpdatedAt is written as given.
	SaveProduct(ctx context.Context, p *inventory.Product) error
}

// EventStore appends stock-out events.
type EventStore interface {
	// AppendStockOut stores e, assigning an ID when e.ID is nil.
	AppendStockOut(ctx context.Context, e *inventory.StockOutEvent) error
}

// Tx is a unit of work over both stores. Rollback after Commit is a no-op,
// so callers can always defer it.
type Tx interface {
	ProductStore
	EventStore
	Commit() error
	Rollback() error
}

// EventFilter narrows ListStockOuts.
type EventFilter struct {
	Vendor string
	SKU    string
	Since  time.Time
	// Limit of zero means no limit.
	Limit int
}

// Store is a persistence backend.
type Store interface {
	// Begin opens a unit of work, blocking while another one is open.
	// ctx bounds the wait only; cancelling it later does not end the Tx.
	Begin(ctx context.Context) (Tx, error)

	// ListProducts returns every product ordered by vendor then SKU.
	ListProducts(ctx context.Context) ([]inventory.Product, error)

	// ListStockOuts returns matching events, newest first.
	ListStockOuts(ctx context.Context, filter EventFilter) ([]inventory.StockOutEvent, error)

	Ping(ctx context.Context) error
	Close() error
}
