package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/nova-stream/eventpipe/internal/apperr"
)

// Outcome reports what a retried call actually did, so callers can
// distinguish "succeeded on attempt 2" from "failed after exhausting
// attempts" without re-deriving it from the error alone.
type Outcome struct {
	Succeeded bool
	Attempts  int
	Err       error
}

// Retry executes fn, retrying on failure per cfg, and returns an
// Outcome rather than re-raising — callers branch on Succeeded instead
// of inspecting err.
func Retry(ctx context.Context, cfg RetryConfig, fn Executor) Outcome {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.RetryIf == nil {
		// Callers that haven't classified their errors into AppError's
		// Retriable flag get "retry everything" by setting RetryIf
		// explicitly; the unset default defers to that flag.
		cfg.RetryIf = apperr.IsRetriable
	}

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return Outcome{Succeeded: false, Attempts: attempt - 1, Err: ctx.Err()}
		}

		err := fn(ctx)
		if err == nil {
			return Outcome{Succeeded: true, Attempts: attempt}
		}
		lastErr = err

		if !cfg.RetryIf(err) {
			return Outcome{Succeeded: false, Attempts: attempt, Err: err}
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		jitter := 1.0
		if cfg.Jitter > 0 {
			jitter = 1.0 + (rand.Float64()*2-1)*cfg.Jitter
		}
		sleep := time.Duration(float64(backoff) * jitter)

		select {
		case <-ctx.Done():
			return Outcome{Succeeded: false, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(sleep):
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return Outcome{Succeeded: false, Attempts: cfg.MaxAttempts, Err: lastErr}
}

// RetryWithCircuitBreaker combines retry and circuit breaker: each
// attempt is gated by cb, so while the breaker is open an attempt
// fails with ErrCircuitOpen without calling fn. The backoff between
// attempts still applies whenever RetryIf accepts ErrCircuitOpen.
func RetryWithCircuitBreaker(ctx context.Context, cb *CircuitBreaker, retryCfg RetryConfig, fn Executor) Outcome {
	return Retry(ctx, retryCfg, func(ctx context.Context) error {
		return cb.Execute(ctx, fn)
	})
}
