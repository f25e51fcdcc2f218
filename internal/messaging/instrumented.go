package messaging

import (
	"context"

	"github.com/nova-stream/eventpipe/internal/obslog"
	"github.com/nova-stream/eventpipe/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedBroker wraps a Broker with logging and tracing.
type InstrumentedBroker struct {
	next   Broker
	tracer trace.Tracer
}

// NewInstrumentedBroker wraps next with request logging and span
// creation around every publish.
func NewInstrumentedBroker(next Broker) *InstrumentedBroker {
	return &InstrumentedBroker{next: next, tracer: telemetry.Tracer()}
}

func (b *InstrumentedBroker) Producer(topic string) (Producer, error) {
	producer, err := b.next.Producer(topic)
	if err != nil {
		obslog.L().Error("failed to create producer", "topic", topic, "error", err)
		return nil, err
	}
	return &InstrumentedProducer{next: producer, topic: topic, tracer: b.tracer}, nil
}

func (b *InstrumentedBroker) Close() error {
	obslog.L().Info("closing messaging broker")
	return b.next.Close()
}

func (b *InstrumentedBroker) Healthy(ctx context.Context) bool { return b.next.Healthy(ctx) }

// InstrumentedProducer wraps a Producer with logging and tracing.
type InstrumentedProducer struct {
	next   Producer
	topic  string
	tracer trace.Tracer
}

func (p *InstrumentedProducer) Publish(ctx context.Context, msg *Message) error {
	ctx, span := p.tracer.Start(ctx, "messaging.Publish", trace.WithAttributes(
		attribute.String("messaging.topic", p.topic),
		attribute.String("messaging.message_id", msg.ID),
	))
	defer span.End()

	if err := p.next.Publish(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		obslog.L().ErrorContext(ctx, "failed to publish message", "topic", p.topic, "error", err)
		return err
	}
	span.SetStatus(codes.Ok, "message published")
	return nil
}

func (p *InstrumentedProducer) PublishBatch(ctx context.Context, msgs []*Message) error {
	ctx, span := p.tracer.Start(ctx, "messaging.PublishBatch", trace.WithAttributes(
		attribute.String("messaging.topic", p.topic),
		attribute.Int("messaging.batch_size", len(msgs)),
	))
	defer span.End()

	if err := p.next.PublishBatch(ctx, msgs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		obslog.L().ErrorContext(ctx, "failed to publish batch", "topic", p.topic, "error", err)
		return err
	}
	span.SetStatus(codes.Ok, "batch published")
	return nil
}

func (p *InstrumentedProducer) Close() error {
	obslog.L().Info("closing producer", "topic", p.topic)
	return p.next.Close()
}
