// Package retry implements bounded retries with exponential backoff for
// transient failures, typically network calls to the auth service.
//
//	err := retry.Do(ctx, retry.Policy{Attempts: 3, Delay: 250 * time.Millisecond}, func() error {
//	    return client.Call(ctx)
//	})
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Policy describes how often and how patiently Do retries.
type Policy struct {
	// Attempts is the total number of calls, the first one included.
	// Values below 1 mean a single call without retries.
	Attempts int
	// Delay is the pause before the second attempt; it doubles after every
	// failed attempt until it reaches MaxDelay.
	Delay time.Duration
	// MaxDelay bounds the backoff. Zero means 8x Delay.
	MaxDelay time.Duration
	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

func (p Policy) normalized() Policy {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Delay <= 0 {
		p.Delay = 250 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 8 * p.Delay
	}
	if p.Retryable == nil {
		p.Retryable = func(error) bool { return true }
	}
	return p
}

// Do runs fn until it succeeds, the policy is exhausted, the error is not
// retryable, or ctx is cancelled. The last error seen is returned;
// cancellation is joined onto it so callers can errors.Is both ways.
func Do(ctx context.Context, p Policy, fn func() error) error {
	p = p.normalized()

	var err error
	delay := p.Delay
	for attempt := 1; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return errors.Join(err, cerr)
		}

		if err = fn(); err == nil {
			return nil
		}
		if attempt == p.Attempts || !p.Retryable(err) {
			return err
		}

		slog.Debug("retrying after failure",
			"attempt", attempt, "of", p.Attempts, "delay", delay, "err", err)

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}
		if delay *= 2; delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
