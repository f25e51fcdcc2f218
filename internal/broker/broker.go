// Package broker defines the Broker Adapter contract the dispatcher
// depends on: a core interface here, concrete adapters in
// sub-packages, narrowed to the consumer-group-with-batch-read
// semantics a stream processor needs.
package broker

import (
	"context"
	"time"

	"github.com/nova-stream/eventpipe/internal/event"
)

// Broker is the contract the dispatcher uses to attach to a stream as
// part of a consumer group, read batches of undelivered messages, and
// acknowledge them once the pipeline has finished with them.
type Broker interface {
	// Attach idempotently creates the consumer group on the stream if it
	// does not already exist. Safe to call on every worker startup.
	Attach(ctx context.Context) error

	// ReadBatch blocks for up to the adapter's configured timeout waiting
	// for up to maxMessages new messages for this consumer. Returns a nil
	// slice (not an error) on a read timeout with no messages available.
	ReadBatch(ctx context.Context, maxMessages int) ([]event.StreamMessage, error)

	// Ack acknowledges a message, removing it from the group's pending
	// entries list.
	Ack(ctx context.Context, messageID string) error

	// PendingCount reports the number of messages delivered to this group
	// but not yet acknowledged.
	PendingCount(ctx context.Context) (int64, error)

	// StreamLength reports the total number of entries in the stream.
	StreamLength(ctx context.Context) (int64, error)

	// Healthy reports whether the broker connection is usable.
	Healthy(ctx context.Context) bool

	// Close releases the broker's underlying connection.
	Close() error
}
