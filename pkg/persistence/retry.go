package persistence

import (
	"context"
	"time"

	"github.com/shelfworks/planogram/pkg/observability"
	"github.com/shelfworks/planogram/pkg/store"
)

// RetryPolicy controls how transient store failures are retried.
type RetryPolicy struct {
	Attempts int           // Total attempts including the first; <1 means 1
	Delay    time.Duration // Delay before the second attempt, doubled after each retry
}

// DefaultRetryPolicy retries up to 3 times, starting at one second.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: time.Second}

// retry calls fn until it succeeds, fails with an error that is not
// store-retryable, or the policy is exhausted. Waiting honors ctx.
func retry(ctx context.Context, op string, p RetryPolicy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !store.IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			observability.Store().OnRetry(ctx, op, i+1, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
