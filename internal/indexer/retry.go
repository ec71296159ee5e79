package indexer

import (
	"context"
	"time"
)

const (
	defaultRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 30 * time.Second
)

// retryPolicy retries with exponential backoff capped at maxRetryDelay.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryDelay
	}
	return retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay}
}

// retry calls fn until it succeeds, the retries run out or ctx is done.
// onErr sees every failed attempt, starting at 1.
func retry[T any](ctx context.Context, p retryPolicy, fn func(context.Context) (T, error), onErr func(attempt int, err error)) (T, error) {
	delay := p.baseDelay
	for attempt := 1; ; attempt++ {
		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		if onErr != nil {
			onErr(attempt, err)
		}
		if attempt > p.maxRetries {
			return value, err
		}
		if err := sleep(ctx, delay); err != nil {
			return value, err
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
