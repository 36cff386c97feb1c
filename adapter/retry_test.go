package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/flofy/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = fmt.Errorf("%w: flaky", storage.ErrRemoteUnavailable)

func TestRetryPolicy_Default(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Zero(t, p.BaseDelay)

	attempts := 0
	err := p.Do(context.Background(), func() error {
		attempts++
		return errFlaky
	})
	assert.ErrorIs(t, err, storage.ErrRemoteUnavailable)
	assert.Equal(t, 1, attempts, "default policy must not retry")
}

func TestRetryPolicy_Success(t *testing.T) {
	attempts := 0
	err := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestRetryPolicy_EventualSuccess(t *testing.T) {
	attempts := 0
	err := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestRetryPolicy_AllAttemptsFail(t *testing.T) {
	attempts := 0
	err := RetryPolicy{MaxAttempts: 3}.Do(context.Background(), func() error {
		attempts++
		return errFlaky
	})
	require.Error(t, err)
	assert.Equal(t, errFlaky, err, "should return the last error")
	assert.Equal(t, 3, attempts, "should attempt exactly maxAttempts times")
}

func TestRetryPolicy_NonRetryable(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		attempts := 0
		err := RetryPolicy{MaxAttempts: 5}.Do(context.Background(), func() error {
			attempts++
			return storage.ErrNotFound
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Equal(t, 1, attempts)
	})

	t.Run("arbitrary error", func(t *testing.T) {
		attempts := 0
		boom := errors.New("boom")
		err := RetryPolicy{MaxAttempts: 5}.Do(context.Background(), func() error {
			attempts++
			return boom
		})
		assert.Equal(t, boom, err)
		assert.Equal(t, 1, attempts)
	})
}

func TestRetryPolicy_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryPolicy{MaxAttempts: 10, BaseDelay: 10 * time.Millisecond}.Do(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errFlaky
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestRetryPolicy_ExponentialBackoff(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	err := RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond}.Do(context.Background(), func() error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if attempts < 4 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, delays, 3)

	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}

func TestRetryPolicy_Invalid(t *testing.T) {
	for _, max := range []int{0, -1} {
		attempts := 0
		err := RetryPolicy{MaxAttempts: max}.Do(context.Background(), func() error {
			attempts++
			return nil
		})
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Equal(t, 0, attempts)
	}
}
