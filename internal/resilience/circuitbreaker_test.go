package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nova-stream/eventpipe/internal/resilience"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterFailureThreshold(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
	})
	failing := func(ctx context.Context) error { return errors.New("boom") }

	require.Error(t, cb.Execute(context.Background(), failing))
	require.Equal(t, resilience.StateClosed, cb.State())

	require.Error(t, cb.Execute(context.Background(), failing))
	require.Equal(t, resilience.StateOpen, cb.State())
}

func TestCircuitBreaker_RejectsFastWhileOpen(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
	})
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("boom") })
	require.Equal(t, resilience.StateOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	require.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecoversToClosed(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("boom") })
	require.Equal(t, resilience.StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil })

	require.NoError(t, err)
	require.Equal(t, resilience.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("boom") })
	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(context.Background(), func(ctx context.Context) error { return errors.New("boom again") })

	require.Error(t, err)
	require.Equal(t, resilience.StateOpen, cb.State())
}
