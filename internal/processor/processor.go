// Package processor composes codec, dedupe, validate, enrich and
// persist into the per-event pipeline and classifies the outcome the
// dispatcher acts on.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nova-stream/eventpipe/internal/apperr"
	"github.com/nova-stream/eventpipe/internal/codec"
	"github.com/nova-stream/eventpipe/internal/enrich"
	"github.com/nova-stream/eventpipe/internal/event"
	"github.com/nova-stream/eventpipe/internal/metrics"
	"github.com/nova-stream/eventpipe/internal/obslog"
	"github.com/nova-stream/eventpipe/internal/pipeline"
	"github.com/nova-stream/eventpipe/internal/resilience"
	"github.com/nova-stream/eventpipe/internal/store"
	"github.com/nova-stream/eventpipe/internal/validate"
)

// Outcome is the result the dispatcher branches its ack decision on.
type Outcome struct {
	// Succeeded is true for both a completed persist and a dedupe hit.
	Succeeded bool

	// TimedOut marks a deadline-exceeded outcome: the dispatcher must
	// neither ack nor treat this as a DLQ write.
	TimedOut bool

	// ShouldAck tells the dispatcher whether to ack the message. It is
	// true for Succeeded outcomes and for Failed outcomes whose DLQ row
	// was written successfully; false for a Failed outcome whose DLQ
	// write itself failed, and always false when TimedOut.
	ShouldAck bool

	Err error
}

// Processor owns the pipeline dependencies for a single worker
// process.
type Processor struct {
	Store    store.Store
	Enricher *enrich.Enricher
	RetryCfg resilience.RetryConfig

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// New constructs a Processor with sensible defaults.
func New(st store.Store, enricher *enrich.Enricher, retryCfg resilience.RetryConfig) *Processor {
	return &Processor{Store: st, Enricher: enricher, RetryCfg: retryCfg, Now: time.Now}
}

// Process runs the full pipeline for one message. It never retains the
// broker handle or a store session past the call.
func (p *Processor) Process(ctx context.Context, payload []byte, messageID string) Outcome {
	if ctx.Err() != nil {
		return Outcome{TimedOut: true, Err: ctx.Err()}
	}

	now := p.Now()
	logger := obslog.ForEvent("", messageID)

	e, err := codec.Decode(payload)
	if err != nil {
		return p.deadLetter(ctx, uuid.Nil, codec.DecodeRaw(payload), err, 0, logger)
	}
	logger = obslog.ForEvent(e.EventID.String(), messageID)

	exists, err := p.Store.ExistsProcessed(ctx, e.EventID)
	if err != nil {
		return p.deadLetter(ctx, e.EventID, rawPayload(e), pipeline.TransientStoreError(err), 0, logger)
	}
	if exists {
		metrics.EventsDuplicateTotal.WithLabelValues(string(e.EventType)).Inc()
		logger.InfoContext(ctx, "duplicate event, already processed")
		return Outcome{Succeeded: true, ShouldAck: true}
	}

	if err := validate.Validate(e, now); err != nil {
		return p.deadLetter(ctx, e.EventID, rawPayload(e), err, 0, logger)
	}

	timer := metrics.NewTimer()

	var enriched map[string]interface{}
	enrichOutcome := resilience.Retry(ctx, p.RetryCfg, func(ctx context.Context) error {
		data, err := p.Enricher.Enrich(ctx, e, p.Now())
		if err != nil {
			return pipeline.TransientEnrichmentError(err)
		}
		enriched = data
		return nil
	})
	if !enrichOutcome.Succeeded {
		if ctx.Err() != nil {
			return Outcome{TimedOut: true, Err: ctx.Err()}
		}
		return p.deadLetter(ctx, e.EventID, rawPayload(e), enrichOutcome.Err, enrichOutcome.Attempts-1, logger)
	}

	processed := &event.ProcessedEvent{
		ID:           uuid.New(),
		EventID:      e.EventID,
		EventType:    e.EventType,
		UserID:       e.UserID,
		Timestamp:    e.Timestamp,
		Properties:   e.Properties,
		ProcessedAt:  p.Now(),
		Status:       event.StatusCompleted,
		EnrichedData: enriched,
		RetryCount:   0,
	}

	persistOutcome := resilience.Retry(ctx, p.RetryCfg, func(ctx context.Context) error {
		err := p.Store.InsertProcessed(ctx, processed)
		if err == nil {
			return nil
		}
		if apperr.Is(err, pipeline.CodeDuplicateKey) {
			// Not retriable: a duplicate key won't resolve itself on
			// a second attempt, so fail fast out of the retry loop.
			return err
		}
		return pipeline.TransientStoreError(err)
	})
	if !persistOutcome.Succeeded {
		if apperr.Is(persistOutcome.Err, pipeline.CodeDuplicateKey) {
			metrics.EventsDuplicateTotal.WithLabelValues(string(e.EventType)).Inc()
			return Outcome{Succeeded: true, ShouldAck: true}
		}
		if ctx.Err() != nil {
			return Outcome{TimedOut: true, Err: ctx.Err()}
		}
		return p.deadLetter(ctx, e.EventID, rawPayload(e), persistOutcome.Err, persistOutcome.Attempts-1, logger)
	}

	metrics.EventsProcessedTotal.WithLabelValues(string(e.EventType)).Inc()
	timer.ObserveDurationVec(metrics.ProcessingDuration, string(e.EventType))
	logger.InfoContext(ctx, "event processed", "event_type", e.EventType)
	return Outcome{Succeeded: true, ShouldAck: true}
}

// deadLetter writes a FailedEvent for cause. The message is acked only
// if that write succeeds; if the DLQ write itself fails, the message
// is left un-acked so the broker redelivers it.
func (p *Processor) deadLetter(ctx context.Context, eventID uuid.UUID, payload map[string]interface{}, cause error, retryCount int, logger *slog.Logger) Outcome {
	errKind := string(apperr.CodeOf(cause))
	metrics.EventsFailedTotal.WithLabelValues(errKind).Inc()

	fe := &event.FailedEvent{
		ID:           uuid.New(),
		EventID:      eventID,
		Payload:      payload,
		ErrorMessage: cause.Error(),
		FailedAt:     p.Now(),
		RetryCount:   retryCount,
	}
	if err := p.Store.InsertDeadLetter(ctx, fe); err != nil {
		logger.ErrorContext(ctx, "failed to write dead letter record", "error", err, "original_error", cause)
		return Outcome{Succeeded: false, ShouldAck: false, Err: cause}
	}
	return Outcome{Succeeded: false, ShouldAck: true, Err: cause}
}

func rawPayload(e event.Event) map[string]interface{} {
	return map[string]interface{}{
		"event_id":   e.EventID.String(),
		"event_type": string(e.EventType),
		"user_id":    e.UserID,
		"timestamp":  e.Timestamp,
		"properties": e.Properties,
	}
}
