// Package memory implements messaging.Broker over a buffered channel,
// for load generator tests that should not require a live Kafka
// cluster.
package memory

import (
	"context"
	"sync"

	"github.com/nova-stream/eventpipe/internal/messaging"
)

// Config configures the in-memory broker.
type Config struct {
	BufferSize int
}

// Broker is a single-process messaging.Broker backed by one channel
// per topic.
type Broker struct {
	mu     sync.Mutex
	bufLen int
	topics map[string]chan *messaging.Message
	closed bool
}

// New returns a ready-to-use Broker.
func New(cfg Config) *Broker {
	bufLen := cfg.BufferSize
	if bufLen <= 0 {
		bufLen = 100
	}
	return &Broker{bufLen: bufLen, topics: make(map[string]chan *messaging.Message)}
}

// Producer returns a producer bound to topic, creating its backing
// channel on first use.
func (b *Broker) Producer(topic string) (messaging.Producer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, messaging.ErrClosed(nil)
	}
	ch, ok := b.topics[topic]
	if !ok {
		ch = make(chan *messaging.Message, b.bufLen)
		b.topics[topic] = ch
	}
	return &producer{topic: topic, ch: ch}, nil
}

// Consume returns the channel backing topic, for tests that want to
// drain published messages.
func (b *Broker) Consume(topic string) <-chan *messaging.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.topics[topic]
	if !ok {
		ch = make(chan *messaging.Message, b.bufLen)
		b.topics[topic] = ch
	}
	return ch
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, ch := range b.topics {
		close(ch)
	}
	return nil
}

func (b *Broker) Healthy(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

type producer struct {
	topic string
	ch    chan *messaging.Message
}

func (p *producer) Publish(ctx context.Context, msg *messaging.Message) error {
	select {
	case p.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return messaging.ErrPublishFailed(nil)
	}
}

func (p *producer) PublishBatch(ctx context.Context, msgs []*messaging.Message) error {
	for _, msg := range msgs {
		if err := p.Publish(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (p *producer) Close() error { return nil }
