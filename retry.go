package mcptest

import (
	"context"
	"time"
)

// Retry defaults, matching three attempts one second apart doubling.
const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
	defaultRetryBackoff  = 2.0
)

type retryOptions struct {
	attempts int
	delay    time.Duration
	backoff  float64
}

// RetryOption configures Retry.
type RetryOption func(*retryOptions)

// WithAttempts sets the maximum number of attempts.
func WithAttempts(attempts int) RetryOption {
	return func(o *retryOptions) { o.attempts = attempts }
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(delay time.Duration) RetryOption {
	return func(o *retryOptions) { o.delay = delay }
}

// WithBackoff sets the multiplier applied to the delay after each retry.
func WithBackoff(multiplier float64) RetryOption {
	return func(o *retryOptions) { o.backoff = multiplier }
}

// Retry runs op until it succeeds or the attempts are exhausted, sleeping an
// exponentially growing delay between attempts and returning the last
// observed error. The delay grows without cap and carries no jitter; bound
// total wall time through the context, which cancels mid-sleep. The Session
// never retries internally; this is for callers needing resilience against
// transient failures.
func Retry[T any](ctx context.Context, op func(context.Context) (T, error), opts ...RetryOption) (T, error) {
	options := retryOptions{
		attempts: defaultRetryAttempts,
		delay:    defaultRetryDelay,
		backoff:  defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.attempts < 1 {
		options.attempts = 1
	}

	var zero T
	var lastErr error
	delay := options.delay

	for attempt := 0; attempt < options.attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == options.attempts-1 {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * options.backoff)
	}
	return zero, lastErr
}
