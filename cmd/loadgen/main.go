// Command loadgen publishes synthetic events for exercising the
// worker pipeline. The default transport is the same Redis stream the
// worker consumes; --transport=kafka or --transport=memory route
// through the generic messaging package instead, for load-testing
// that abstraction on its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nova-stream/eventpipe/internal/broker/redisstream"
	"github.com/nova-stream/eventpipe/internal/concurrency"
	"github.com/nova-stream/eventpipe/internal/messaging"
	"github.com/nova-stream/eventpipe/internal/messaging/adapters/kafka"
	"github.com/nova-stream/eventpipe/internal/messaging/adapters/memory"
)

func main() {
	var (
		transport  = flag.String("transport", "redis", "publish target: redis, kafka, or memory")
		count      = flag.Int("count", 1000, "number of synthetic events to publish")
		workers    = flag.Int("concurrency", 8, "number of concurrent publishers")
		brokerURL  = flag.String("broker-url", envOr("BROKER_URL", "redis://localhost:6379/0"), "broker connection string")
		stream     = flag.String("stream", envOr("STREAM_NAME", "events"), "stream or topic name")
		kafkaAddrs = flag.String("kafka-brokers", envOr("KAFKA_BROKERS", "localhost:9092"), "comma-separated Kafka broker addresses")
	)
	flag.Parse()

	publish, closeFn, err := buildPublisher(*transport, *brokerURL, *stream, *kafkaAddrs)
	if err != nil {
		log.Fatalf("loadgen: %v", err)
	}
	defer closeFn()

	ctx := context.Background()
	pool := concurrency.NewWorkerPool(*workers, *count)
	pool.Start(ctx)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	var published atomic.Int64
	var failed atomic.Int64

	for i := 0; i < *count; i++ {
		payload := syntheticPayload(r, time.Now())
		pool.Submit(func(ctx context.Context) {
			if err := publish(ctx, payload); err != nil {
				failed.Add(1)
				return
			}
			published.Add(1)
		})
	}
	pool.Stop()

	log.Printf("loadgen: published=%d failed=%d transport=%s", published.Load(), failed.Load(), *transport)
}

// buildPublisher resolves the chosen transport to a single publish
// function plus a teardown, so main's loop does not need to branch on
// transport per call.
func buildPublisher(transport, brokerURL, stream, kafkaAddrs string) (func(context.Context, []byte) error, func(), error) {
	switch transport {
	case "redis":
		adapter, err := redisstream.New(redisstream.Config{URL: brokerURL, Stream: stream})
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context, payload []byte) error {
				_, err := adapter.Publish(ctx, payload)
				return err
			}, func() {
				_ = adapter.Close()
			}, nil

	case "kafka":
		broker, err := kafka.New(kafka.Config{Brokers: strings.Split(kafkaAddrs, ",")})
		if err != nil {
			return nil, nil, err
		}
		producer, err := broker.Producer(stream)
		if err != nil {
			_ = broker.Close()
			return nil, nil, err
		}
		return func(ctx context.Context, payload []byte) error {
				return producer.Publish(ctx, &messaging.Message{Topic: stream, Payload: payload})
			}, func() {
				_ = producer.Close()
				_ = broker.Close()
			}, nil

	case "memory":
		broker := memory.New(memory.Config{})
		producer, err := broker.Producer(stream)
		if err != nil {
			return nil, nil, err
		}
		return func(ctx context.Context, payload []byte) error {
				return producer.Publish(ctx, &messaging.Message{Topic: stream, Payload: payload})
			}, func() {
				_ = producer.Close()
				_ = broker.Close()
			}, nil

	default:
		return nil, nil, fmt.Errorf("unknown transport: %s", transport)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
