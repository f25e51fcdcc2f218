// Package messaging is a generic publish-side abstraction over message
// brokers. It is used only by the synthetic load generator
// (cmd/loadgen): the core pipeline's consume-side contract lives in
// internal/broker and is shaped around Redis Streams consumer-group
// semantics rather than this package's generic pub/sub surface.
package messaging

import (
	"context"
	"time"
)

// Message is the broker-agnostic envelope produced by a load generator
// run.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Key       []byte            `json:"key,omitempty"`
	Payload   []byte            `json:"payload"`
	Headers   map[string]string `json:"headers,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  MessageMetadata   `json:"metadata,omitempty"`
}

// MessageMetadata carries broker-specific delivery information filled
// in by the producer after a successful publish.
type MessageMetadata struct {
	Partition int32       `json:"partition,omitempty"`
	Offset    int64       `json:"offset,omitempty"`
	Raw       interface{} `json:"-"`
}

// Producer sends messages to a topic.
type Producer interface {
	Publish(ctx context.Context, msg *Message) error
	PublishBatch(ctx context.Context, msgs []*Message) error
	Close() error
}

// Broker creates producers for a driver-specific backend.
type Broker interface {
	Producer(topic string) (Producer, error)
	Close() error
	Healthy(ctx context.Context) bool
}
