// Package dispatcher runs the worker's main read-dispatch-ack loop: it
// pulls a batch off the broker, fans each message out to the processor
// under a bounded concurrency cap, joins the batch, and acks or drops
// each message according to its outcome.
package dispatcher

import (
	"context"
	"time"

	"github.com/nova-stream/eventpipe/internal/broker"
	"github.com/nova-stream/eventpipe/internal/concurrency"
	"github.com/nova-stream/eventpipe/internal/event"
	"github.com/nova-stream/eventpipe/internal/metrics"
	"github.com/nova-stream/eventpipe/internal/obslog"
	"github.com/nova-stream/eventpipe/internal/processor"
)

// Phase is the worker's lifecycle state.
type Phase string

const (
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseDraining Phase = "draining"
	PhaseStopped  Phase = "stopped"
)

// Config controls batch size, per-event deadline, and the read-path
// backoff the loop uses between unhandled read errors.
type Config struct {
	BatchSize         int
	ProcessingTimeout time.Duration

	// ReadErrorBackoff is how long the loop sleeps after an unhandled
	// error from the read path before trying again.
	ReadErrorBackoff time.Duration
}

// Worker owns the broker and processor for one consumer identity and
// drives the batch loop described by Config.
type Worker struct {
	Broker    broker.Broker
	Processor Processor
	Config    Config

	phase Phase
}

// Processor is the subset of *processor.Processor the dispatcher
// depends on, narrowed so tests can substitute a fake.
type Processor interface {
	Process(ctx context.Context, payload []byte, messageID string) processor.Outcome
}

// New constructs a Worker in the Starting phase. BatchSize and
// ProcessingTimeout in cfg fall back to 10 and 30s respectively if
// non-positive.
func New(b broker.Broker, p Processor, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = 30 * time.Second
	}
	if cfg.ReadErrorBackoff <= 0 {
		cfg.ReadErrorBackoff = 5 * time.Second
	}
	return &Worker{Broker: b, Processor: p, Config: cfg, phase: PhaseStarting}
}

// Phase reports the worker's current lifecycle state.
func (w *Worker) Phase() Phase {
	return w.phase
}

// Run attaches to the broker and drives the batch loop until ctx is
// canceled, at which point it transitions to Draining: it stops
// reading new batches, lets any in-flight batch finish under its own
// per-event deadlines, disconnects the broker, and transitions to
// Stopped.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Broker.Attach(ctx); err != nil {
		return err
	}
	w.phase = PhaseRunning
	defer func() {
		w.phase = PhaseStopped
		if err := w.Broker.Close(); err != nil {
			obslog.L().ErrorContext(context.Background(), "error closing broker connection", "error", err)
		}
	}()

	for {
		if ctx.Err() != nil {
			w.phase = PhaseDraining
			return nil
		}

		messages, err := w.Broker.ReadBatch(ctx, w.Config.BatchSize)
		if err != nil {
			if ctx.Err() != nil {
				w.phase = PhaseDraining
				return nil
			}
			metrics.ReadErrorsTotal.Inc()
			obslog.L().ErrorContext(ctx, "unhandled error reading batch", "error", err)
			select {
			case <-time.After(w.Config.ReadErrorBackoff):
			case <-ctx.Done():
				w.phase = PhaseDraining
				return nil
			}
			continue
		}

		if length, err := w.Broker.StreamLength(ctx); err == nil {
			metrics.QueueDepth.Set(float64(length))
		}

		if len(messages) == 0 {
			continue
		}
		metrics.BatchSize.Observe(float64(len(messages)))

		w.processBatch(ctx, messages)

		if pending, err := w.Broker.PendingCount(ctx); err == nil {
			metrics.PendingCount.Set(float64(pending))
		}
	}
}

// processBatch fans every message in the batch out to the processor
// under a per-event deadline, joins the batch, and acks messages whose
// outcome says to.
//
// Each task's deadline is derived with context.WithoutCancel. A
// shutdown signal on ctx only tells the read loop to stop fetching new
// batches; it never cuts a task off early, so in-flight work always
// runs to its own deadline or natural completion.
func (w *Worker) processBatch(ctx context.Context, messages []event.StreamMessage) {
	taskCtx := context.WithoutCancel(ctx)
	concurrency.FanOut(ctx, len(messages), func(i int) {
		msg := messages[i]
		eventCtx, cancel := context.WithTimeout(taskCtx, w.Config.ProcessingTimeout)
		defer cancel()

		outcome := w.Processor.Process(eventCtx, msg.Data, msg.MessageID)

		if outcome.TimedOut {
			metrics.EventsTimedOutTotal.Inc()
			obslog.L().WarnContext(taskCtx, "event processing timed out", "message_id", msg.MessageID)
			return
		}
		if !outcome.ShouldAck {
			return
		}
		if err := w.Broker.Ack(taskCtx, msg.MessageID); err != nil {
			obslog.L().ErrorContext(taskCtx, "failed to ack message", "message_id", msg.MessageID, "error", err)
		}
	})
}
