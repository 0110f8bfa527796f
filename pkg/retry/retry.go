// Package retry runs an operation under an explicit attempt budget and
// delay schedule.
//
//	policy := retry.Exponential(time.Second, 2.0, 4*time.Second, 3) // waits 1s, 2s
//	items, stats, err := retry.Do(ctx, policy, fetchOnce, errors.IsTransient)
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy describes how many times to try and how long to wait in between.
// Delays[i] is the wait after attempt i+1; a short slice repeats its last entry.
type Policy struct {
	Attempts int
	Delays   []time.Duration
}

// Exponential builds a policy whose delays start at initial, grow by
// multiplier and never exceed max.
func Exponential(initial time.Duration, multiplier float64, max time.Duration, attempts int) Policy {
	if attempts < 1 {
		attempts = 1
	}
	delays := make([]time.Duration, 0, attempts-1)
	d := initial
	for i := 1; i < attempts; i++ {
		if max > 0 && d > max {
			d = max
		}
		delays = append(delays, d)
		d = time.Duration(float64(d) * multiplier)
	}
	return Policy{Attempts: attempts, Delays: delays}
}

// Budget is the total time the policy can spend waiting between attempts.
func (p Policy) Budget() time.Duration {
	var total time.Duration
	for i := 1; i < p.Attempts; i++ {
		total += p.delay(i)
	}
	return total
}

func (p Policy) delay(attempt int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if attempt-1 < len(p.Delays) {
		return p.Delays[attempt-1]
	}
	return p.Delays[len(p.Delays)-1]
}

// Stats reports what a Do call spent.
type Stats struct {
	Attempts int
	Waited   time.Duration
}

// Do calls op until it succeeds, returns an error retryable rejects, the
// attempt budget runs out, or ctx is done. A nil retryable retries every error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), retryable func(error) bool) (T, Stats, error) {
	var (
		zero  T
		stats Stats
	)
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		stats.Attempts = attempt
		v, err := op(ctx)
		if err == nil {
			return v, stats, nil
		}
		if retryable != nil && !retryable(err) {
			return zero, stats, err
		}
		if attempt >= attempts {
			return zero, stats, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
		}

		wait := p.delay(attempt)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, stats, fmt.Errorf("retry aborted after %d attempts: %w", attempt, errors.Join(ctx.Err(), err))
		case <-timer.C:
			stats.Waited += wait
		}
	}
}
