package extract

import (
	"context"
	"time"
)

// RetryPolicy is an explicit retry description: how many attempts, how long to
// wait between them, and which errors are worth another try. Keeping it a
// value makes the policy reusable and testable apart from any extractor.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error) bool
}

// DefaultRetryPolicy retries once after a fixed 2-second pause, only for
// transient-classified service errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Backoff:     func(int) time.Duration { return 2 * time.Second },
		Retryable:   IsTransient,
	}
}

// Do runs fn until it succeeds, attempts run out, a non-retryable error
// occurs, or the context is cancelled. Returns the last error observed.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == attempts || p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	return err
}
