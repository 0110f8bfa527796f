// Package metrics exposes Prometheus counters for sync passes, stock-outs
// and the read API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/reconcile"
)

const namespace = "stocksync"

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	passesTotal       *prometheus.CounterVec
	passDuration      prometheus.Histogram
	vendorItems       *prometheus.GaugeVec
	vendorTimeouts    *prometheus.CounterVec
	stockOutsTotal    *prometheus.CounterVec
	productsReconciled *prometheus.CounterVec
	batchSize          prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_passes_total",
			Help:      "Sync passes by outcome.",
		}, []string{"outcome"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_pass_duration_seconds",
			Help:      "Duration of sync passes.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		vendorItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vendor_items",
			Help:      "Items returned by each vendor in the last pass.",
		}, []string{"vendor", "kind"}),
		vendorTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_fetch_timeouts_total",
			Help:      "Vendor fetches cut off by their deadline.",
		}, []string{"vendor"}),
		stockOutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_outs_total",
			Help:      "Committed stock-out events.",
		}, []string{"vendor"}),
		productsReconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_reconciled_total",
			Help:      "Vendor rows committed to the store, by whether the product was new.",
		}, []string{"outcome"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Rows per committed reconciliation batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "endpoint", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "endpoint", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.passesTotal,
		m.passDuration,
		m.vendorItems,
		m.vendorTimeouts,
		m.stockOutsTotal,
		m.productsReconciled,
		m.batchSize,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObservePass records a finished pass. Use as a syncer.PassHook.
func (m *Metrics) ObservePass(r syncer.Report) {
	outcome := "success"
	if r.Failed() {
		outcome = "failure"
	}
	m.passesTotal.WithLabelValues(outcome).Inc()
	m.passDuration.Observe(r.Duration.Seconds())
	for _, v := range r.Vendors {
		m.vendorItems.WithLabelValues(v.Vendor, string(v.Kind)).Set(float64(v.Count))
		if v.TimedOut {
			m.vendorTimeouts.WithLabelValues(v.Vendor).Inc()
		}
	}
}

// ObserveBatch records a committed batch. Use as a reconcile.BatchHook.
func (m *Metrics) ObserveBatch(r reconcile.Result) {
	m.productsReconciled.WithLabelValues("created").Add(float64(r.Created))
	m.productsReconciled.WithLabelValues("updated").Add(float64(r.Updated))
	m.batchSize.Observe(float64(r.Processed))
}

// ObserveStockOut counts a committed event. Use as a reconcile.StockOutHook.
func (m *Metrics) ObserveStockOut(ev inventory.StockOutEvent) {
	m.stockOutsTotal.WithLabelValues(ev.Vendor).Inc()
}

// RecordRequest records an HTTP request served by the API.
func (m *Metrics) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	m.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}
