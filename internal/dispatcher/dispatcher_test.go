package dispatcher_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nova-stream/eventpipe/internal/broker/memorystream"
	"github.com/nova-stream/eventpipe/internal/dispatcher"
	"github.com/nova-stream/eventpipe/internal/enrich"
	"github.com/nova-stream/eventpipe/internal/processor"
	"github.com/nova-stream/eventpipe/internal/resilience"
	"github.com/nova-stream/eventpipe/internal/store/memorystore"
	"github.com/stretchr/testify/require"
)

func purchaseJSON(id string) []byte {
	return []byte(`{"event_id":"` + id + `","event_type":"purchase","user_id":"u1",` +
		`"timestamp":"2024-01-01T00:00:00Z","properties":{"amount":10}}`)
}

// countingProcessor wraps a real processor.Processor and counts calls,
// for asserting the batch loop dispatched exactly as many tasks as
// messages it read.
type countingProcessor struct {
	inner *processor.Processor
	mu    sync.Mutex
	calls int
}

func (c *countingProcessor) Process(ctx context.Context, payload []byte, messageID string) processor.Outcome {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Process(ctx, payload, messageID)
}

func newTestWorker(t *testing.T, broker *memorystream.Adapter, cp *countingProcessor) *dispatcher.Worker {
	t.Helper()
	return dispatcher.New(broker, cp, dispatcher.Config{
		BatchSize:         10,
		ProcessingTimeout: time.Second,
		ReadErrorBackoff:  10 * time.Millisecond,
	})
}

func TestWorker_ProcessesBatchAndAcks(t *testing.T) {
	b := memorystream.New(memorystream.Config{})
	st := memorystore.New()
	p := processor.New(st, &enrich.Enricher{WorkerID: "w1"}, resilience.RetryConfig{MaxAttempts: 1})
	cp := &countingProcessor{inner: p}
	w := newTestWorker(t, b, cp)

	b.Publish(purchaseJSON("11111111-1111-1111-1111-111111111111"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		cp.mu.Lock()
		defer cp.mu.Unlock()
		return cp.calls == 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		pending, err := b.PendingCount(context.Background())
		return err == nil && pending == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not shut down")
	}
	require.Equal(t, dispatcher.PhaseStopped, w.Phase())

	require.Len(t, st.Processed(), 1)
}

func TestWorker_EmptyBatchDoesNotAck(t *testing.T) {
	b := memorystream.New(memorystream.Config{})
	st := memorystore.New()
	p := processor.New(st, &enrich.Enricher{WorkerID: "w1"}, resilience.RetryConfig{MaxAttempts: 1})
	cp := &countingProcessor{inner: p}
	w := newTestWorker(t, b, cp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not shut down")
	}

	cp.mu.Lock()
	defer cp.mu.Unlock()
	require.Equal(t, 0, cp.calls)
}

func TestWorker_ShutdownLetsInFlightTaskFinish(t *testing.T) {
	b := memorystream.New(memorystream.Config{})

	release := make(chan struct{})
	started := make(chan struct{})
	slowProcessor := processorFunc(func(ctx context.Context, payload []byte, messageID string) processor.Outcome {
		close(started)
		<-release
		return processor.Outcome{Succeeded: true, ShouldAck: true}
	})
	w := newTestWorker(t, b, slowProcessor)

	b.Publish(purchaseJSON("22222222-2222-2222-2222-222222222222"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("processor never started")
	}

	cancel()
	time.Sleep(20 * time.Millisecond)

	select {
	case <-done:
		t.Fatal("worker stopped before in-flight task finished")
	default:
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not shut down after task completed")
	}

	require.Eventually(t, func() bool {
		pending, err := b.PendingCount(context.Background())
		return err == nil && pending == 0
	}, time.Second, 5*time.Millisecond)
}

type processorFunc func(ctx context.Context, payload []byte, messageID string) processor.Outcome

func (f processorFunc) Process(ctx context.Context, payload []byte, messageID string) processor.Outcome {
	return f(ctx, payload, messageID)
}
