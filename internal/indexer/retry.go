package indexer

import (
	"context"
	"time"

	"fillScope/internal/failure"
)

const (
	defaultRetryBackoff = 100 * time.Millisecond
	maxRetryBackoff     = 30 * time.Second
)

// retryPolicy retries retryable failures with capped exponential backoff.
type retryPolicy struct {
	maxRetries int
	backoff    time.Duration
	// onRetry, if set, is called before each wait.
	onRetry func(attempt int, delay time.Duration, err error)
}

func newRetryPolicy(maxRetries int, backoff time.Duration) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return retryPolicy{maxRetries: maxRetries, backoff: backoff}
}

// do runs fn until it succeeds, fails permanently, runs out of attempts or
// ctx is done.
func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	delay := p.backoff
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !failure.IsRetryable(err) || attempt > p.maxRetries {
			return err
		}
		if p.onRetry != nil {
			p.onRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = min(delay*2, maxRetryBackoff)
	}
}
