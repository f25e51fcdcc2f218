// Package memorystream is an in-process broker.Broker fake used by
// unit tests.
package memorystream

import (
	"context"
	"strconv"
	"sync"

	"github.com/nova-stream/eventpipe/internal/event"
)

// Config configures the in-memory adapter.
type Config struct {
	BufferSize int
}

// Adapter is a single-process stand-in for a Redis Streams consumer
// group: Publish enqueues, ReadBatch drains up to maxMessages, Ack is a
// no-op bookkeeping decrement of the pending count.
type Adapter struct {
	mu      sync.Mutex
	queue   []event.StreamMessage
	pending map[string]struct{}
	nextID  int
	closed  bool
}

// New returns a ready-to-use Adapter. cfg is accepted for interface
// symmetry with other adapter constructors but is unused: tests
// publish and drain synchronously with no bound on queue depth.
func New(cfg Config) *Adapter {
	return &Adapter{pending: make(map[string]struct{})}
}

// Publish enqueues a message for the next ReadBatch call.
func (a *Adapter) Publish(data []byte) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := strconv.Itoa(a.nextID)
	a.queue = append(a.queue, event.StreamMessage{MessageID: id, Data: data})
	return id
}

func (a *Adapter) Attach(ctx context.Context) error { return nil }

func (a *Adapter) ReadBatch(ctx context.Context, maxMessages int) ([]event.StreamMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.queue) == 0 {
		return nil, nil
	}
	n := maxMessages
	if n > len(a.queue) {
		n = len(a.queue)
	}
	batch := a.queue[:n]
	a.queue = a.queue[n:]
	for _, m := range batch {
		a.pending[m.MessageID] = struct{}{}
	}
	out := make([]event.StreamMessage, len(batch))
	copy(out, batch)
	return out, nil
}

func (a *Adapter) Ack(ctx context.Context, messageID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, messageID)
	return nil
}

func (a *Adapter) PendingCount(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.pending)), nil
}

func (a *Adapter) StreamLength(ctx context.Context) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.queue) + len(a.pending)), nil
}

func (a *Adapter) Healthy(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
