package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	p := retryPolicy{attempts: 3, delay: time.Millisecond}
	calls := 0
	err := p.do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrySucceedsAfterFailure(t *testing.T) {
	p := retryPolicy{attempts: 2, delay: time.Millisecond}
	calls := 0
	err := p.do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	p := retryPolicy{attempts: 3, delay: time.Millisecond}
	boom := errors.New("boom")
	calls := 0
	err := p.do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetrySingleAttemptNeverRetries(t *testing.T) {
	p := retryPolicy{attempts: 1, delay: time.Hour}
	calls := 0
	err := p.do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryZeroAttemptsTreatedAsOne(t *testing.T) {
	p := retryPolicy{}
	calls := 0
	err := p.do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retryPolicy{attempts: 5, delay: time.Hour}
	calls := 0
	err := p.do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("failed")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "no retry after cancellation")
}

func TestRetryWaitAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retryPolicy{attempts: 2, delay: time.Hour}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := p.do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("failed")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}
