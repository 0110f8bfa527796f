package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/config"
	"github.com/agentstation/stocksync/internal/metrics"
	"github.com/agentstation/stocksync/internal/mockvendor"
	"github.com/agentstation/stocksync/internal/server/response"
	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/internal/store/memory"
	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/internal/vendors"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/logging"
	"github.com/agentstation/stocksync/pkg/reconcile"
)

// stubFetcher returns whatever items currently holds.
type stubFetcher struct {
	mu      sync.Mutex
	items   []inventory.VendorProduct
	gate    chan struct{}
	entered chan struct{}
}

func (f *stubFetcher) Vendor() string     { return "V" }
func (f *stubFetcher) Kind() vendors.Kind { return vendors.KindREST }

func (f *stubFetcher) Fetch(ctx context.Context) []inventory.VendorProduct {
	if f.entered != nil {
		close(f.entered)
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items
}

func (f *stubFetcher) set(items ...inventory.VendorProduct) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

type fixture struct {
	srv     *Server
	handler http.Handler
	store   store.Store
	fetcher *stubFetcher
	runner  *syncer.Runner
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	logger := logging.NewNopLogger()
	st := memory.New()
	m := metrics.New()

	engine := reconcile.NewEngine(st, reconcile.WithLogger(logger))
	engine.OnStockOut(m.ObserveStockOut)
	engine.OnBatch(m.ObserveBatch)

	fetcher := &stubFetcher{}
	reg := vendors.NewRegistry(config.Vendors{}, vendors.WithLogger(logger))
	reg.Register(fetcher)

	runner := syncer.New(reg, engine, syncer.WithLogger(logger))
	runner.OnPass(m.ObservePass)

	app := &application.Mock{
		StoreFunc:   func() (store.Store, error) { return st, nil },
		RunnerFunc:  func() (*syncer.Runner, error) { return runner, nil },
		MetricsFunc: func() *metrics.Metrics { return m },
	}

	cfg := DefaultConfig()
	cfg.RateLimit = 0
	cfg.MockVendor = true
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := New(app, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &fixture{srv: srv, handler: srv.Handler(), store: st, fetcher: fetcher, runner: runner}
}

func (f *fixture) do(t *testing.T, method, path string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var resp response.Response
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func decodeData[T any](t *testing.T, resp response.Response) T {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func item(sku string, qty int) inventory.VendorProduct {
	return inventory.VendorProduct{SKU: sku, Name: "Item " + sku, StockQuantity: inventory.Qty(qty), Vendor: "V"}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	for _, path := range []string{"/health", "/api/v1/health"} {
		w, resp := f.do(t, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Nil(t, resp.Error)
	}
}

func TestReady(t *testing.T) {
	f := newFixture(t, nil)
	w, _ := f.do(t, http.MethodGet, "/api/v1/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, f.store.Close())
	w, resp := f.do(t, http.MethodGet, "/api/v1/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, resp.Error)
}

func TestProductsListingAndCacheInvalidation(t *testing.T) {
	f := newFixture(t, nil)

	w, resp := f.do(t, http.MethodGet, "/products")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[[]inventory.Product](t, resp))

	f.fetcher.set(item("B", 2), item("A", 1))
	w, _ = f.do(t, http.MethodPost, "/api/v1/sync")
	require.Equal(t, http.StatusOK, w.Code)

	// The empty listing cached above must not survive the pass.
	for _, path := range []string{"/products", "/api/v1/products"} {
		_, resp = f.do(t, http.MethodGet, path)
		got := decodeData[[]inventory.Product](t, resp)
		require.Len(t, got, 2, path)
		assert.Equal(t, "A", got[0].SKU)
		assert.Equal(t, "B", got[1].SKU)
	}

	_, resp = f.do(t, http.MethodGet, "/products?sku=B")
	assert.Len(t, decodeData[[]inventory.Product](t, resp), 1)
}

func TestProductsBadFilter(t *testing.T) {
	f := newFixture(t, nil)
	w, resp := f.do(t, http.MethodGet, "/products?in_stock=perhaps")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestStockOutEvents(t *testing.T) {
	f := newFixture(t, nil)

	f.fetcher.set(item("A", 5))
	f.do(t, http.MethodPost, "/api/v1/sync")
	f.fetcher.set(item("A", 0))
	w, resp := f.do(t, http.MethodPost, "/api/v1/sync")
	require.Equal(t, http.StatusOK, w.Code)
	report := decodeData[syncer.Report](t, resp)
	assert.Equal(t, 1, report.Result.StockOuts)

	_, resp = f.do(t, http.MethodGet, "/api/v1/stock-out-events?vendor=V")
	events := decodeData[[]inventory.StockOutEvent](t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, 5, events[0].PreviousQuantity)

	_, resp = f.do(t, http.MethodGet, "/api/v1/stock-out-events?vendor=OTHER")
	assert.Empty(t, decodeData[[]inventory.StockOutEvent](t, resp))

	w, _ = f.do(t, http.MethodGet, "/api/v1/stock-out-events?since=nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncConflictWhilePassRuns(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.gate = make(chan struct{})
	f.fetcher.entered = make(chan struct{})

	done := make(chan int, 1)
	go func() {
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))
		done <- w.Code
	}()
	<-f.fetcher.entered

	w, resp := f.do(t, http.MethodPost, "/api/v1/sync")
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)

	close(f.fetcher.gate)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestLastSync(t *testing.T) {
	f := newFixture(t, nil)

	w, _ := f.do(t, http.MethodGet, "/api/v1/sync/last")
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.do(t, http.MethodPost, "/api/v1/sync")
	w, resp := f.do(t, http.MethodGet, "/api/v1/sync/last")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeData[syncer.Report](t, resp).ID)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil)

	w, _ := f.do(t, http.MethodGet, "/api/v1/sync")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))

	w, _ = f.do(t, http.MethodDelete, "/products")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.set(item("A", 1), item("B", 2))
	f.do(t, http.MethodPost, "/api/v1/sync")
	f.do(t, http.MethodGet, "/products")

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `stocksync_sync_passes_total{outcome="success"} 1`)
	assert.Contains(t, string(body), `endpoint="/products"`)
	assert.Contains(t, string(body), `stocksync_products_reconciled_total{outcome="created"} 2`)
}

func TestMetricsDisabled(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.MetricsEnabled = false })
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMockVendorMounted(t *testing.T) {
	f := newFixture(t, nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, mockvendor.Path, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(mockvendor.Sample()), w.Body.String())
}

func TestRateLimitApplied(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.RateLimit = 1 })

	w, _ := f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Server{Host: "0.0.0.0", Port: 9000, CORS: true, RateLimit: 5, Metrics: true})
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.CORSEnabled)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, "/api/v1", cfg.PathPrefix)

	srvCfg := DefaultConfig()
	srvCfg.Port = 9000
	s := &Server{config: srvCfg}
	assert.Equal(t, "localhost:9000", s.Addr())
}
