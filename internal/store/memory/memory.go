// Package memory is an in-process Store. Writes made in a Tx are staged
// and only become visible on Commit.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
)

// Store keeps products keyed by (SKU, Vendor) and an append-only event log.
type Store struct {
	mu       sync.RWMutex
	products map[inventory.Key]inventory.Product
	events   []inventory.StockOutEvent
	closed   bool

	// writer is a one-slot semaphore held by the open Tx.
	writer chan struct{}
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		products: make(map[inventory.Key]inventory.Product),
		writer:   make(chan struct{}, 1),
	}
}

// Begin implements store.Store.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapStore("begin", "", "", err)
	}
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.WrapStore("begin", "", "", ctx.Err())
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		<-s.writer
		return nil, errors.NewStoreError("begin", "", "", errors.New("store closed"))
	}

	return &tx{s: s, staged: make(map[inventory.Key]inventory.Product)}, nil
}

// ListProducts implements store.Store.
func (s *Store) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]inventory.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, clone(p))
	}
	slices.SortFunc(out, func(a, b inventory.Product) int {
		if c := strings.Compare(a.Vendor, b.Vendor); c != 0 {
			return c
		}
		return strings.Compare(a.SKU, b.SKU)
	})
	return out, nil
}

// ListStockOuts implements store.Store.
func (s *Store) ListStockOuts(ctx context.Context, f store.EventFilter) ([]inventory.StockOutEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []inventory.StockOutEvent{}
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if f.Vendor != "" && e.Vendor != f.Vendor {
			continue
		}
		if f.SKU != "" && e.SKU != f.SKU {
			continue
		}
		if !f.Since.IsZero() && e.OccurredAt.Before(f.Since) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Ping implements store.Store.
func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.NewStoreError("ping", "", "", errors.New("store closed"))
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type tx struct {
	s      *Store
	staged map[inventory.Key]inventory.Product
	events []inventory.StockOutEvent
	done   bool
}

func (t *tx) FindBySKUAndVendor(ctx context.Context, sku, vendor string) (*inventory.Product, error) {
	if t.done {
		return nil, errors.NewStoreError("find", sku, vendor, errTxDone)
	}
	key := inventory.Key{SKU: sku, Vendor: vendor}
	if p, ok := t.staged[key]; ok {
		c := clone(p)
		return &c, nil
	}

	t.s.mu.RLock()
	p, ok := t.s.products[key]
	t.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	c := clone(p)
	return &c, nil
}

func (t *tx) SaveProduct(ctx context.Context, p *inventory.Product) error {
	if t.done {
		return errors.NewStoreError("save", p.SKU, p.Vendor, errTxDone)
	}
	if p.ID == uuid.Nil {
		if existing, _ := t.FindBySKUAndVendor(ctx, p.SKU, p.Vendor); existing != nil {
			return errors.NewStoreError("save", p.SKU, p.Vendor, errors.New("duplicate natural key"))
		}
		p.ID = uuid.New()
	}
	t.staged[p.Key()] = clone(*p)
	return nil
}

func (t *tx) AppendStockOut(ctx context.Context, e *inventory.StockOutEvent) error {
	if t.done {
		return errors.NewStoreError("append", e.SKU, e.Vendor, errTxDone)
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	t.events = append(t.events, *e)
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return errors.NewStoreError("commit", "", "", errTxDone)
	}
	defer t.release()

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.closed {
		return errors.NewStoreError("commit", "", "", errors.New("store closed"))
	}
	for k, p := range t.staged {
		t.s.products[k] = p
	}
	t.s.events = append(t.s.events, t.events...)
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *tx) release() {
	t.done = true
	t.staged = nil
	t.events = nil
	<-t.s.writer
}

var errTxDone = errors.New("transaction already finished")

func clone(p inventory.Product) inventory.Product {
	if p.StockQuantity != nil {
		q := *p.StockQuantity
		p.StockQuantity = &q
	}
	return p
}
