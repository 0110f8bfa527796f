package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/internal/store/memory"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/logging"
	"github.com/agentstation/stocksync/pkg/reconcile"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func vp(sku, name, vendor string, qty *int) inventory.VendorProduct {
	return inventory.VendorProduct{SKU: sku, Name: name, StockQuantity: qty, Vendor: vendor}
}

func newEngine(t *testing.T, s store.Store) (*reconcile.Engine, *logging.TestLogger) {
	t.Helper()
	tl := logging.NewTestLogger(t)
	return reconcile.NewEngine(s, reconcile.WithClock(stepClock()), reconcile.WithLogger(tl.Logger)), tl
}

func products(t *testing.T, s store.Store) map[inventory.Key]inventory.Product {
	t.Helper()
	list, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	out := make(map[inventory.Key]inventory.Product, len(list))
	for _, p := range list {
		out[p.Key()] = p
	}
	return out
}

func events(t *testing.T, s store.Store) []inventory.StockOutEvent {
	t.Helper()
	list, err := s.ListStockOuts(context.Background(), store.EventFilter{})
	require.NoError(t, err)
	return list
}

func TestFirstSightingCreatesWithoutEvent(t *testing.T) {
	tests := []struct {
		name string
		qty  *int
	}{
		{"positive", inventory.Qty(5)},
		{"zero", inventory.Qty(0)},
		{"absent", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			e, _ := newEngine(t, s)

			res, err := e.ProcessBatch(context.Background(), []inventory.VendorProduct{vp("A", "Alpha", "V", tt.qty)})
			require.NoError(t, err)
			assert.Equal(t, 1, res.Processed)
			assert.Equal(t, 1, res.Created)
			assert.Equal(t, 0, res.StockOuts)

			p := products(t, s)[inventory.Key{SKU: "A", Vendor: "V"}]
			assert.Equal(t, tt.qty, p.StockQuantity)
			assert.Empty(t, events(t, s))
		})
	}
}

func TestZeroStockInsertIsLogged(t *testing.T) {
	s := memory.New()
	e, tl := newEngine(t, s)

	_, err := e.ProcessBatch(context.Background(), []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(0))})
	require.NoError(t, err)
	tl.AssertContains(t, "Inserted product V:A with zero stock (no transition)")
	tl.AssertNotContains(t, "STOCK-OUT")
}

func TestPositiveToZeroEmitsEvent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e, tl := newEngine(t, s)

	_, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(5))})
	require.NoError(t, err)

	res, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(0))})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.StockOuts)
	require.Len(t, res.Events, 1)

	evs := events(t, s)
	require.Len(t, evs, 1)
	assert.Equal(t, "A", evs[0].SKU)
	assert.Equal(t, "V", evs[0].Vendor)
	assert.Equal(t, 5, evs[0].PreviousQuantity)
	assert.Equal(t, res.Events[0].OccurredAt, evs[0].OccurredAt)

	p := products(t, s)[inventory.Key{SKU: "A", Vendor: "V"}]
	assert.Equal(t, 0, *p.StockQuantity)
	assert.Equal(t, evs[0].OccurredAt, p.UpdatedAt)

	tl.AssertContains(t, "STOCK-OUT detected for V:A (5 -> 0)")
	assert.Equal(t, 1, tl.CountLevel(zerolog.WarnLevel))
}

func TestZeroToZeroUpdatesWithoutEvent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e, _ := newEngine(t, s)

	_, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Old", "V", inventory.Qty(0))})
	require.NoError(t, err)
	before := products(t, s)[inventory.Key{SKU: "A", Vendor: "V"}]

	res, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "New", "V", inventory.Qty(0))})
	require.NoError(t, err)
	assert.Equal(t, 0, res.StockOuts)

	after := products(t, s)[inventory.Key{SKU: "A", Vendor: "V"}]
	assert.Equal(t, "New", after.Name)
	assert.Equal(t, before.ID, after.ID)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Empty(t, events(t, s))
}

func TestAbsentQuantityIsNeverATransition(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e, _ := newEngine(t, s)

	_, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(5))})
	require.NoError(t, err)

	// 5 -> absent -> 0: the stored quantity is absent when zero arrives.
	res, err := e.ProcessBatch(ctx, []inventory.VendorProduct{
		vp("A", "Alpha", "V", nil),
		vp("A", "Alpha", "V", inventory.Qty(0)),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.StockOuts)
	assert.Empty(t, events(t, s))
}

func TestBounceWithinBatchEmitsTwoEvents(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e, _ := newEngine(t, s)

	_, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(5))})
	require.NoError(t, err)

	res, err := e.ProcessBatch(ctx, []inventory.VendorProduct{
		vp("A", "Alpha", "V", inventory.Qty(0)),
		vp("A", "Alpha", "V", inventory.Qty(3)),
		vp("A", "Alpha", "V", inventory.Qty(0)),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	require.Equal(t, 2, res.StockOuts)
	assert.Equal(t, 5, res.Events[0].PreviousQuantity)
	assert.Equal(t, 3, res.Events[1].PreviousQuantity)
	assert.Len(t, events(t, s), 2)
	assert.Len(t, products(t, s), 1)
}

func TestRepeatedBatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e, _ := newEngine(t, s)

	_, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(5))})
	require.NoError(t, err)

	batch := []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(0))}
	_, err = e.ProcessBatch(ctx, batch)
	require.NoError(t, err)
	res, err := e.ProcessBatch(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, 0, res.StockOuts)
	assert.Len(t, events(t, s), 1)
}

func TestSameSKUDifferentVendorsAreDistinct(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e, _ := newEngine(t, s)

	res, err := e.ProcessBatch(ctx, []inventory.VendorProduct{
		vp("A", "Alpha", "V1", inventory.Qty(5)),
		vp("A", "Alpha", "V2", inventory.Qty(5)),
		vp("A", "Alpha", "V1", inventory.Qty(4)),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Updated)

	got := products(t, s)
	require.Len(t, got, 2)
	assert.Equal(t, 4, *got[inventory.Key{SKU: "A", Vendor: "V1"}].StockQuantity)
	assert.Equal(t, 5, *got[inventory.Key{SKU: "A", Vendor: "V2"}].StockQuantity)
}

func TestEmptyBatch(t *testing.T) {
	s := memory.New()
	e, _ := newEngine(t, s)

	res, err := e.ProcessBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.NotNil(t, res.Events)
}

// failingStore fails SaveProduct for one SKU.
type failingStore struct {
	store.Store
	failSKU string
}

func (f *failingStore) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := f.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, failSKU: f.failSKU}, nil
}

type failingTx struct {
	store.Tx
	failSKU string
}

func (f *failingTx) SaveProduct(ctx context.Context, p *inventory.Product) error {
	if p.SKU == f.failSKU {
		return errors.New("disk full")
	}
	return f.Tx.SaveProduct(ctx, p)
}

func TestStoreFailureRollsBackBatch(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	e, _ := newEngine(t, &failingStore{Store: mem, failSKU: "B"})

	var fired int
	e.OnStockOut(func(inventory.StockOutEvent) { fired++ })

	res, err := e.ProcessBatch(ctx, []inventory.VendorProduct{
		vp("A", "Alpha", "V", inventory.Qty(1)),
		vp("B", "Beta", "V", inventory.Qty(1)),
		vp("C", "Gamma", "V", inventory.Qty(1)),
	})
	require.Error(t, err)
	assert.True(t, errors.IsStorage(err))

	var storeErr *errors.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "B", storeErr.SKU)
	assert.Equal(t, "V", storeErr.Vendor)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, 1, res.Processed)
	assert.Empty(t, products(t, mem), "no partial batch is visible")
	assert.Zero(t, fired)

	// The writer slot was released by the rollback.
	e2, _ := newEngine(t, mem)
	_, err = e2.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(1))})
	require.NoError(t, err)
}

func TestHooksFireAfterCommit(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	e, _ := newEngine(t, s)

	var (
		got     []inventory.StockOutEvent
		batches []reconcile.Result
	)
	e.OnStockOut(func(ev inventory.StockOutEvent) {
		// The event is already committed when the hook runs.
		assert.NotEmpty(t, events(t, s))
		got = append(got, ev)
	})
	e.OnBatch(func(r reconcile.Result) { batches = append(batches, r) })

	_, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(2))})
	require.NoError(t, err)
	_, err = e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(0))})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].PreviousQuantity)
	require.Len(t, batches, 2)
	assert.Equal(t, 1, batches[1].StockOuts)
}

func TestCancelledContextCannotOpenBatch(t *testing.T) {
	s := memory.New()
	e, _ := newEngine(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ProcessBatch(ctx, []inventory.VendorProduct{vp("A", "Alpha", "V", inventory.Qty(1))})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, products(t, s))
}

func TestResultSummary(t *testing.T) {
	r := reconcile.Result{Processed: 3, Created: 1, Updated: 2, StockOuts: 1, Duration: 1500 * time.Millisecond}
	assert.Equal(t, "3 processed (1 created, 2 updated), 1 stock-outs in 1.5s", r.Summary())
}
