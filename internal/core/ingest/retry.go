package ingest

import (
	"context"
	"time"
)

// retryPolicy is a bounded retry with doubling backoff, shared by every
// external-call site in the pipeline. attempts is the total number of
// tries; attempts=1 means no retry at all.
type retryPolicy struct {
	attempts int
	delay    time.Duration
}

func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.delay

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
