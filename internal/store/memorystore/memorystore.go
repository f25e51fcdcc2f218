// Package memorystore is an in-process store.Store fake used by unit
// tests.
package memorystore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nova-stream/eventpipe/internal/event"
	"github.com/nova-stream/eventpipe/internal/pipeline"
)

// Adapter is a map-backed stand-in for the Postgres store.
type Adapter struct {
	mu         sync.Mutex
	processed  map[uuid.UUID]event.ProcessedEvent
	deadLetter []event.FailedEvent

	// FailInsertProcessed and FailInsertDeadLetter, when set, are
	// returned by the corresponding method instead of succeeding. Tests
	// use these to exercise the transient-store-error and
	// DLQ-write-failure branches of the processor.
	FailInsertProcessed  error
	FailInsertDeadLetter error
}

// New returns a ready-to-use Adapter.
func New() *Adapter {
	return &Adapter{processed: make(map[uuid.UUID]event.ProcessedEvent)}
}

func (a *Adapter) ExistsProcessed(ctx context.Context, eventID uuid.UUID) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.processed[eventID]
	return ok, nil
}

func (a *Adapter) InsertProcessed(ctx context.Context, pe *event.ProcessedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailInsertProcessed != nil {
		return a.FailInsertProcessed
	}
	if _, exists := a.processed[pe.EventID]; exists {
		return pipeline.DuplicateKeyError(nil)
	}
	a.processed[pe.EventID] = *pe
	return nil
}

func (a *Adapter) InsertDeadLetter(ctx context.Context, fe *event.FailedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailInsertDeadLetter != nil {
		return a.FailInsertDeadLetter
	}
	a.deadLetter = append(a.deadLetter, *fe)
	return nil
}

func (a *Adapter) Healthy(ctx context.Context) bool { return true }

func (a *Adapter) Close() error { return nil }

// Processed returns a snapshot of all persisted processed events, for
// test assertions.
func (a *Adapter) Processed() []event.ProcessedEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]event.ProcessedEvent, 0, len(a.processed))
	for _, pe := range a.processed {
		out = append(out, pe)
	}
	return out
}

// DeadLetters returns a snapshot of all dead-lettered events, for test
// assertions.
func (a *Adapter) DeadLetters() []event.FailedEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]event.FailedEvent, len(a.deadLetter))
	copy(out, a.deadLetter)
	return out
}
