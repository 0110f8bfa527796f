// Package syncer runs sync passes: fetch every enabled vendor, then
// reconcile the combined snapshot in one batch.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/stocksync/internal/vendors"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/logging"
	"github.com/agentstation/stocksync/pkg/reconcile"
)

// Source lists the fetchers for a pass.
type Source interface {
	Enabled() []vendors.Fetcher
}

// Processor applies a combined snapshot.
type Processor interface {
	ProcessBatch(ctx context.Context, batch []inventory.VendorProduct) (reconcile.Result, error)
}

// PassHook is called with the report of every pass that ran.
type PassHook func(Report)

// Runner executes sync passes. At most one pass runs at a time; a trigger
// that arrives while one is in flight is skipped.
type Runner struct {
	source    Source
	processor Processor
	enabled   bool
	logger    *zerolog.Logger
	clock     func() time.Time

	mu sync.Mutex // held for the duration of a pass

	reportMu sync.RWMutex
	last     *Report
	hooks    []PassHook
}

// Option configures a Runner.
type Option func(*Runner)

// WithEnabled turns the runner on or off. A disabled runner logs and
// returns ErrSyncDisabled on every trigger.
func WithEnabled(enabled bool) Option {
	return func(r *Runner) { r.enabled = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source used for reports.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// New creates an enabled runner.
func New(source Source, processor Processor, opts ...Option) *Runner {
	r := &Runner{
		source:    source,
		processor: processor,
		enabled:   true,
		clock:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Default()
	}
	return r
}

// Enabled reports whether passes run at all.
func (r *Runner) Enabled() bool { return r.enabled }

// OnPass registers a callback fired after every pass that ran, failed or not.
func (r *Runner) OnPass(fn PassHook) {
	r.reportMu.Lock()
	defer r.reportMu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// LastReport returns the report of the most recent pass, if any.
func (r *Runner) LastReport() (Report, bool) {
	r.reportMu.RLock()
	defer r.reportMu.RUnlock()
	if r.last == nil {
		return Report{}, false
	}
	return *r.last, true
}

// SyncAll runs one pass. It returns ErrPassInProgress when another pass
// holds the runner and ErrSyncDisabled when the runner is off. Vendor
// failures never fail the pass; storage failures do.
func (r *Runner) SyncAll(ctx context.Context) (Report, error) {
	if !r.mu.TryLock() {
		r.logger.Info().Msg("Sync pass already in progress, skipping trigger")
		return Report{}, errors.ErrPassInProgress
	}
	defer r.mu.Unlock()

	if !r.enabled {
		r.logger.Info().Msg("Sync disabled, skipping trigger")
		return Report{}, errors.ErrSyncDisabled
	}

	report := Report{ID: uuid.NewString(), StartedAt: r.clock()}
	logger := r.logger.With().Str("pass", report.ID).Logger()
	ctx = logging.WithLogger(ctx, &logger)

	fetchers := r.source.Enabled()
	logger.Info().Int("vendors", len(fetchers)).Msg("Sync pass started")

	batch, vendorReports := r.fetchAll(ctx, fetchers)
	report.Vendors = vendorReports
	report.Fetched = len(batch)

	result, err := r.processor.ProcessBatch(ctx, batch)
	report.Result = result
	report.Duration = r.clock().Sub(report.StartedAt)
	if err != nil {
		report.Error = err.Error()
		logger.Error().Err(err).
			Int("fetched", report.Fetched).
			Int("applied", result.Processed).
			Msg("Sync pass failed")
	} else {
		logger.Info().
			Int("fetched", report.Fetched).
			Int("stock_outs", result.StockOuts).
			Dur("duration", report.Duration).
			Msg("Sync pass completed")
	}

	r.record(report)
	return report, err
}

// fetchAll runs every fetcher concurrently under its own deadline and
// concatenates the snapshots in fetcher order.
func (r *Runner) fetchAll(ctx context.Context, fetchers []vendors.Fetcher) ([]inventory.VendorProduct, []VendorReport) {
	snapshots := make([][]inventory.VendorProduct, len(fetchers))
	reports := make([]VendorReport, len(fetchers))

	var g errgroup.Group
	for i, f := range fetchers {
		g.Go(func() error {
			deadline := vendors.DeadlineFor(f)
			fctx, cancel := context.WithTimeout(ctx, deadline)
			defer cancel()

			start := time.Now()
			snapshots[i] = f.Fetch(fctx)
			reports[i] = VendorReport{
				Vendor:   f.Vendor(),
				Kind:     f.Kind(),
				Count:    len(snapshots[i]),
				Duration: time.Since(start),
				TimedOut: fctx.Err() == context.DeadlineExceeded,
			}
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, s := range snapshots {
		total += len(s)
	}
	batch := make([]inventory.VendorProduct, 0, total)
	for _, s := range snapshots {
		batch = append(batch, s...)
	}
	return batch, reports
}

func (r *Runner) record(report Report) {
	r.reportMu.Lock()
	r.last = &report
	hooks := make([]PassHook, len(r.hooks))
	copy(hooks, r.hooks)
	r.reportMu.Unlock()

	for _, fn := range hooks {
		fn(report)
	}
}
