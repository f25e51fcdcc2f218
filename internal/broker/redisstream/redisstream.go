// Package redisstream implements the broker.Broker contract over Redis
// Streams consumer groups: a Config struct, a constructor that dials
// the backend, and a type satisfying the core interface.
package redisstream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nova-stream/eventpipe/internal/event"
	"github.com/nova-stream/eventpipe/internal/pipeline"
	"github.com/redis/go-redis/v9"
)

// Config configures the Redis Streams adapter.
type Config struct {
	URL           string
	Stream        string
	ConsumerGroup string
	ConsumerName  string
	BlockTimeout  time.Duration
}

// Adapter implements broker.Broker over a single Redis Streams
// consumer-group subscription.
type Adapter struct {
	client       *redis.Client
	stream       string
	group        string
	consumer     string
	blockTimeout time.Duration
}

// New dials Redis and returns an Adapter scoped to the given stream,
// consumer group, and consumer name. Attach must still be called before
// ReadBatch.
func New(cfg Config) (*Adapter, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, pipeline.FatalStartupError("invalid broker url", err)
	}
	client := redis.NewClient(opts)

	blockTimeout := cfg.BlockTimeout
	if blockTimeout <= 0 {
		blockTimeout = 5 * time.Second
	}

	return &Adapter{
		client:       client,
		stream:       cfg.Stream,
		group:        cfg.ConsumerGroup,
		consumer:     cfg.ConsumerName,
		blockTimeout: blockTimeout,
	}, nil
}

// Attach idempotently creates the consumer group, and the stream itself
// if it does not yet exist (MKSTREAM). A BUSYGROUP error (group already
// exists) is swallowed, matching the idempotent-attach contract.
func (a *Adapter) Attach(ctx context.Context) error {
	err := a.client.XGroupCreateMkStream(ctx, a.stream, a.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return pipeline.FatalStartupError("failed to attach consumer group", err)
	}
	return nil
}

// ReadBatch blocks for up to the adapter's configured timeout waiting
// for new (">") messages delivered to this consumer.
func (a *Adapter) ReadBatch(ctx context.Context, maxMessages int) ([]event.StreamMessage, error) {
	res, err := a.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    a.group,
		Consumer: a.consumer,
		Streams:  []string{a.stream, ">"},
		Count:    int64(maxMessages),
		Block:    a.blockTimeout,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, pipeline.TransientStoreError(err)
	}

	if len(res) == 0 {
		return nil, nil
	}

	messages := make([]event.StreamMessage, 0, len(res[0].Messages))
	for _, m := range res[0].Messages {
		raw, ok := m.Values["data"]
		if !ok {
			continue
		}
		var data []byte
		switch v := raw.(type) {
		case string:
			data = []byte(v)
		case []byte:
			data = v
		default:
			continue
		}
		messages = append(messages, event.StreamMessage{MessageID: m.ID, Data: data})
	}
	return messages, nil
}

// Publish appends a new entry to the stream under the single "data"
// field the wire format specifies. Used by the load generator; the
// worker itself only ever reads from the stream.
func (a *Adapter) Publish(ctx context.Context, payload []byte) (string, error) {
	id, err := a.client.XAdd(ctx, &redis.XAddArgs{
		Stream: a.stream,
		Values: map[string]interface{}{"data": payload},
	}).Result()
	if err != nil {
		return "", pipeline.TransientStoreError(err)
	}
	return id, nil
}

// Ack acknowledges a message, removing it from the group's pending
// entries list.
func (a *Adapter) Ack(ctx context.Context, messageID string) error {
	if err := a.client.XAck(ctx, a.stream, a.group, messageID).Err(); err != nil {
		return pipeline.TransientStoreError(err)
	}
	return nil
}

// PendingCount reports the number of messages delivered to this group
// but not yet acknowledged.
func (a *Adapter) PendingCount(ctx context.Context) (int64, error) {
	summary, err := a.client.XPending(ctx, a.stream, a.group).Result()
	if err != nil {
		return 0, pipeline.TransientStoreError(err)
	}
	return summary.Count, nil
}

// StreamLength reports the total number of entries in the stream.
func (a *Adapter) StreamLength(ctx context.Context) (int64, error) {
	n, err := a.client.XLen(ctx, a.stream).Result()
	if err != nil {
		return 0, pipeline.TransientStoreError(err)
	}
	return n, nil
}

// Healthy reports whether the Redis connection answers PING.
func (a *Adapter) Healthy(ctx context.Context) bool {
	return a.client.Ping(ctx).Err() == nil
}

// Close releases the underlying Redis connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}
