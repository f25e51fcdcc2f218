package messaging

import (
	"context"
	"time"

	"github.com/nova-stream/eventpipe/internal/resilience"
)

// ResilientBrokerConfig configures the resilient producer wrapper.
type ResilientBrokerConfig struct {
	CircuitBreakerEnabled   bool
	CircuitBreakerThreshold int64
	CircuitBreakerTimeout   time.Duration

	RetryEnabled     bool
	RetryMaxAttempts int
	RetryBackoff     time.Duration
}

// ResilientBroker wraps a Broker with circuit breaker and retry
// protection around Producer creation and publishing.
type ResilientBroker struct {
	broker   Broker
	cb       *resilience.CircuitBreaker
	retryCfg resilience.RetryConfig
}

// NewResilientBroker wraps broker with the resilience features
// enabled in cfg.
func NewResilientBroker(broker Broker, cfg ResilientBrokerConfig) *ResilientBroker {
	rb := &ResilientBroker{broker: broker}

	if cfg.CircuitBreakerEnabled {
		rb.cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "messaging",
			FailureThreshold: cfg.CircuitBreakerThreshold,
			SuccessThreshold: 2,
			Timeout:          cfg.CircuitBreakerTimeout,
		})
	}

	if cfg.RetryEnabled {
		rb.retryCfg = resilience.RetryConfig{
			MaxAttempts:    cfg.RetryMaxAttempts,
			InitialBackoff: cfg.RetryBackoff,
			MaxBackoff:     5 * time.Second,
			Multiplier:     2.0,
			// Producer send errors come straight from the broker
			// client, not through apperr, so retry unconditionally
			// rather than deferring to apperr.IsRetriable's default.
			RetryIf: func(err error) bool { return err != nil },
		}
	}

	return rb
}

func (rb *ResilientBroker) Producer(topic string) (Producer, error) {
	var producer Producer
	err := rb.execute(context.Background(), func(ctx context.Context) error {
		var err error
		producer, err = rb.broker.Producer(topic)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resilientProducer{producer: producer, broker: rb}, nil
}

func (rb *ResilientBroker) Close() error { return rb.broker.Close() }

func (rb *ResilientBroker) Healthy(ctx context.Context) bool { return rb.broker.Healthy(ctx) }

func (rb *ResilientBroker) execute(ctx context.Context, fn resilience.Executor) error {
	operation := fn

	if rb.cb != nil {
		cbFn := operation
		operation = func(ctx context.Context) error {
			return rb.cb.Execute(ctx, cbFn)
		}
	}

	if rb.retryCfg.MaxAttempts > 0 {
		outcome := resilience.Retry(ctx, rb.retryCfg, operation)
		if !outcome.Succeeded {
			return outcome.Err
		}
		return nil
	}

	return operation(ctx)
}

// resilientProducer wraps a Producer with the same protection as its
// owning ResilientBroker.
type resilientProducer struct {
	producer Producer
	broker   *ResilientBroker
}

func (rp *resilientProducer) Publish(ctx context.Context, msg *Message) error {
	return rp.broker.execute(ctx, func(ctx context.Context) error {
		return rp.producer.Publish(ctx, msg)
	})
}

func (rp *resilientProducer) PublishBatch(ctx context.Context, msgs []*Message) error {
	return rp.broker.execute(ctx, func(ctx context.Context) error {
		return rp.producer.PublishBatch(ctx, msgs)
	})
}

func (rp *resilientProducer) Close() error { return rp.producer.Close() }
