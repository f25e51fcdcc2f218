package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nova-stream/eventpipe/internal/apperr"
	"github.com/nova-stream/eventpipe/internal/resilience"
	"github.com/stretchr/testify/require"
)

// retryAnything is the "retry on any error" RetryIf the examples below
// use when they're exercising attempt-counting/backoff mechanics
// rather than the default RetryIf's apperr.IsRetriable classification.
func retryAnything(err error) bool { return err != nil }

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	outcome := resilience.Retry(context.Background(), resilience.RetryConfig{MaxAttempts: 3}, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.True(t, outcome.Succeeded)
	require.Equal(t, 1, outcome.Attempts)
	require.Equal(t, 1, calls)
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 1, RetryIf: retryAnything}
	outcome := resilience.Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.True(t, outcome.Succeeded)
	require.Equal(t, 3, outcome.Attempts)
}

func TestRetry_ExhaustsAttemptsAndReturnsFinalError(t *testing.T) {
	calls := 0
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 1, RetryIf: retryAnything}
	wantErr := errors.New("persistent failure")
	outcome := resilience.Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return wantErr
	})

	require.False(t, outcome.Succeeded)
	require.Equal(t, 3, calls)
	require.Equal(t, 3, outcome.Attempts)
	require.ErrorIs(t, outcome.Err, wantErr)
}

func TestRetry_RetryIfFalseStopsImmediately(t *testing.T) {
	calls := 0
	cfg := resilience.RetryConfig{
		MaxAttempts: 3,
		RetryIf:     func(err error) bool { return false },
	}
	outcome := resilience.Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return errors.New("non-retriable")
	})

	require.False(t, outcome.Succeeded)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, outcome.Attempts)
}

func TestRetry_DefaultRetryIfDefersToAppErrorRetriable(t *testing.T) {
	calls := 0
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 1}
	outcome := resilience.Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return apperr.NewRetriable("CODE", "transient", nil)
	})

	require.False(t, outcome.Succeeded)
	require.Equal(t, 3, calls)
}

func TestRetry_DefaultRetryIfStopsImmediatelyForNonAppError(t *testing.T) {
	calls := 0
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 1}
	outcome := resilience.Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return errors.New("not classified")
	})

	require.False(t, outcome.Succeeded)
	require.Equal(t, 1, calls)
}

func TestRetry_DefaultRetryIfStopsImmediatelyForNonRetriableAppError(t *testing.T) {
	calls := 0
	cfg := resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 1}
	outcome := resilience.Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return apperr.New("CODE", "not retriable", nil)
	})

	require.False(t, outcome.Succeeded)
	require.Equal(t, 1, calls)
}

func TestRetry_ContextCancellationStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	outcome := resilience.Retry(ctx, resilience.RetryConfig{MaxAttempts: 3}, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.False(t, outcome.Succeeded)
	require.Equal(t, 0, calls)
	require.ErrorIs(t, outcome.Err, context.Canceled)
}

func TestRetry_ContextCanceledDuringBackoffStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := resilience.RetryConfig{MaxAttempts: 5, InitialBackoff: 50 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 1, RetryIf: retryAnything}

	calls := 0
	done := make(chan resilience.Outcome, 1)
	go func() {
		done <- resilience.Retry(ctx, cfg, func(ctx context.Context) error {
			calls++
			return errors.New("fail")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case outcome := <-done:
		require.False(t, outcome.Succeeded)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe context cancellation")
	}
}
