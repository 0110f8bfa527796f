// Package reconcile applies vendor snapshots to the product store and
// detects stock-out transitions.
//
// A batch is applied in input order inside a single store transaction.
// For every row the stored product is looked up by (SKU, Vendor):
//
//   - unknown key: the product is created and no event is emitted, even
//     when the first quantity seen is zero;
//   - known key: name, quantity and timestamp are overwritten, and a
//     StockOutEvent is appended when the stored quantity was positive and
//     the incoming quantity is an explicit zero.
//
// An absent incoming quantity is never a transition. Rows for the same key
// inside one batch are applied one after another, so a 5 -> 0 -> 5 -> 0
// bounce yields two events.
package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/logging"
)

// Engine reconciles batches against a store.
type Engine struct {
	store  store.Store
	clock  func() time.Time
	logger *zerolog.Logger
	hooks  *hooks
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for UpdatedAt and OccurredAt.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine writing to s.
func NewEngine(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		clock: func() time.Time { return time.Now().UTC() },
		hooks: newHooks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	return e
}

// ProcessBatch applies batch in one transaction. On any storage error the
// transaction is rolled back and the error returned; Result.Processed then
// tells how many rows were applied before the failure. Hooks run only
// after a successful commit.
//
// Once the transaction is open the batch runs to completion even if ctx
// is cancelled.
func (e *Engine) ProcessBatch(ctx context.Context, batch []inventory.VendorProduct) (Result, error) {
	start := e.clock()
	result := Result{StartedAt: start, Events: []inventory.StockOutEvent{}}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback() }()

	ctx = context.WithoutCancel(ctx)
	for _, vp := range batch {
		outcome, event, err := e.upsertAndDetect(ctx, tx, vp)
		if err != nil {
			e.logger.Error().Err(err).
				Int("processed", result.Processed).
				Int("batch", len(batch)).
				Msg("Batch aborted, rolling back")
			return result, err
		}
		result.Processed++
		switch outcome {
		case outcomeCreated:
			result.Created++
		case outcomeUpdated:
			result.Updated++
		}
		if event != nil {
			result.StockOuts++
			result.Events = append(result.Events, *event)
		}
	}

	if err := tx.Commit(); err != nil {
		e.logger.Error().Err(err).Int("batch", len(batch)).Msg("Batch commit failed")
		return result, errors.WrapStore("commit", "", "", err)
	}
	result.Duration = e.clock().Sub(start)

	for _, ev := range result.Events {
		e.hooks.fireStockOut(ev)
	}
	e.hooks.fireBatch(result)

	e.logger.Info().
		Int("processed", result.Processed).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("stock_outs", result.StockOuts).
		Msg("Batch reconciled")
	return result, nil
}

type outcome int

const (
	outcomeCreated outcome = iota + 1
	outcomeUpdated
)

func (e *Engine) upsertAndDetect(ctx context.Context, tx store.Tx, vp inventory.VendorProduct) (outcome, *inventory.StockOutEvent, error) {
	existing, err := tx.FindBySKUAndVendor(ctx, vp.SKU, vp.Vendor)
	if err != nil {
		return 0, nil, wrap("find", vp, err)
	}

	now := e.clock()
	if existing == nil {
		p := &inventory.Product{
			SKU:           vp.SKU,
			Name:          vp.Name,
			StockQuantity: copyQty(vp.StockQuantity),
			Vendor:        vp.Vendor,
			UpdatedAt:     now,
		}
		if err := tx.SaveProduct(ctx, p); err != nil {
			return 0, nil, wrap("save", vp, err)
		}
		if vp.StockQuantity != nil && *vp.StockQuantity == 0 {
			e.logger.Info().Str("vendor", vp.Vendor).Str("sku", vp.SKU).
				Msgf("Inserted product %s:%s with zero stock (no transition)", vp.Vendor, vp.SKU)
		}
		return outcomeCreated, nil, nil
	}

	oldQty := existing.StockQuantity
	existing.Name = vp.Name
	existing.StockQuantity = copyQty(vp.StockQuantity)
	existing.UpdatedAt = now
	if err := tx.SaveProduct(ctx, existing); err != nil {
		return 0, nil, wrap("save", vp, err)
	}

	if !isStockOut(oldQty, vp.StockQuantity) {
		return outcomeUpdated, nil, nil
	}

	e.logger.Warn().Str("vendor", vp.Vendor).Str("sku", vp.SKU).Int("previous_quantity", *oldQty).
		Msgf("STOCK-OUT detected for %s:%s (%d -> 0)", vp.Vendor, vp.SKU, *oldQty)
	event := &inventory.StockOutEvent{
		SKU:              existing.SKU,
		Vendor:           existing.Vendor,
		PreviousQuantity: *oldQty,
		OccurredAt:       now,
	}
	if err := tx.AppendStockOut(ctx, event); err != nil {
		return 0, nil, wrap("append", vp, err)
	}
	return outcomeUpdated, event, nil
}

// isStockOut reports a positive-to-explicit-zero transition.
func isStockOut(oldQty, newQty *int) bool {
	return oldQty != nil && *oldQty > 0 && newQty != nil && *newQty == 0
}

func wrap(op string, vp inventory.VendorProduct, err error) error {
	if errors.IsStorage(err) {
		return err
	}
	return errors.NewStoreError(op, vp.SKU, vp.Vendor, err)
}

func copyQty(q *int) *int {
	if q == nil {
		return nil
	}
	v := *q
	return &v
}
