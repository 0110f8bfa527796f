// Package scheduler fires sync passes on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/logging"
)

// Trigger runs one pass.
type Trigger interface {
	SyncAll(ctx context.Context) (syncer.Report, error)
}

// Scheduler runs a Trigger on a six-field (seconds first) cron expression.
// Ticks that fire while the previous pass is still running are skipped.
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	spec    string
	timeout time.Duration
	logger  *zerolog.Logger
	entry   cron.EntryID
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds each pass.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New parses spec and registers the trigger. An empty spec uses the
// default of once a minute.
func New(trigger Trigger, spec string, opts ...Option) (*Scheduler, error) {
	if spec == "" {
		spec = constants.DefaultCron
	}
	s := &Scheduler{
		trigger: trigger,
		spec:    spec,
		timeout: constants.SyncPassTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}

	cl := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, errors.NewValidationError("sync.cron", spec, err.Error())
	}
	s.entry = id
	return s, nil
}

// Spec returns the cron expression.
func (s *Scheduler) Spec() string { return s.spec }

// Next returns the next scheduled tick, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Str("cron", s.spec).Time("next", s.Next()).Msg("Scheduler started")
}

// Stop prevents new ticks and waits for a running pass to finish or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.NewTimeoutError("scheduler stop", "", "running pass did not finish")
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.trigger.SyncAll(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrPassInProgress), errors.Is(err, errors.ErrSyncDisabled):
		// Already logged by the runner.
	default:
		s.logger.Error().Err(err).Msg("Scheduled sync pass failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l *zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
