package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stocksync/internal/scheduler"
	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/logging"
)

type countingTrigger struct {
	calls atomic.Int32
	err   error
}

func (c *countingTrigger) SyncAll(ctx context.Context) (syncer.Report, error) {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		panic("pass started without a deadline")
	}
	return syncer.Report{}, c.err
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	_, err := scheduler.New(&countingTrigger{}, "not a cron", scheduler.WithLogger(logging.NewNopLogger()))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestNewRequiresSecondsField(t *testing.T) {
	_, err := scheduler.New(&countingTrigger{}, "*/5 * * * *", scheduler.WithLogger(logging.NewNopLogger()))
	assert.Error(t, err, "five-field expressions are rejected")
}

func TestDefaultSpec(t *testing.T) {
	s, err := scheduler.New(&countingTrigger{}, "", scheduler.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultCron, s.Spec())
}

func TestSchedulerFiresTrigger(t *testing.T) {
	trig := &countingTrigger{}
	s, err := scheduler.New(trig, "* * * * * *",
		scheduler.WithLogger(logging.NewNopLogger()),
		scheduler.WithTimeout(time.Second))
	require.NoError(t, err)

	s.Start()
	assert.False(t, s.Next().IsZero())

	require.Eventually(t, func() bool { return trig.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestSkippedPassIsNotAnError(t *testing.T) {
	trig := &countingTrigger{err: errors.ErrPassInProgress}
	tl := logging.NewTestLogger(t)
	s, err := scheduler.New(trig, "* * * * * *", scheduler.WithLogger(tl.Logger))
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return trig.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	tl.AssertNotContains(t, "Scheduled sync pass failed")
}
