package database

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 100 * time.Millisecond
	DefaultMaxDelay    = 2 * time.Second
	DefaultJitter      = 0.25
)

// RetryPolicy decides how a unit of work is repeated after a failure.
// The zero value runs the work once.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the delay after the failed attempt with the given
	// zero-based index.
	Backoff   func(attempt int) time.Duration
	Retryable func(error) bool
	Sleep     func(ctx context.Context, d time.Duration) error
	// OnRetry is called before sleeping, with the one-based number of the
	// attempt that just failed.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy retries lock conflicts three times in total with
// jittered exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(DefaultMaxAttempts, DefaultBaseDelay, DefaultMaxDelay)
}

func NewRetryPolicy(maxAttempts int, base, maxDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     ExponentialBackoff{Base: base, Max: maxDelay, Jitter: DefaultJitter}.Delay,
		Retryable:   IsLockConflict,
		Sleep:       SleepContext,
	}
}

// Run calls fn until it succeeds, fails with a non-retryable error, or the
// attempts are used up. Exhausting the attempts on retryable errors yields a
// *ContentionError.
func (p RetryPolicy) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}

		slog.Warn("Lock conflict; retrying unit of work",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"backoff", delay,
			"error", err)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return &ContentionError{Attempts: attempts, Err: lastErr}
}

// Retry is Run for work that produces a value.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Run(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExponentialBackoff yields Base * 2^attempt scaled by a random factor in
// [1-Jitter, 1+Jitter], never exceeding Max when Max is positive.
type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	r := b.Rand
	if r == nil {
		r = rand.Float64
	}

	d := float64(b.Base) * math.Pow(2, float64(attempt))
	d *= 1 + b.Jitter*(2*r()-1)

	if b.Max > 0 && d > float64(b.Max) {
		return b.Max
	}
	return time.Duration(d)
}
