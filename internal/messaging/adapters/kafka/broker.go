// Package kafka implements messaging.Broker over sarama's sync
// producer.
package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/nova-stream/eventpipe/internal/messaging"
)

// Config configures the Kafka adapter.
type Config struct {
	Brokers []string
}

// Broker dials a sarama sync producer per topic on demand.
type Broker struct {
	cfg    Config
	client sarama.Client
}

// New dials the Kafka cluster described by cfg.
func New(cfg Config) (*Broker, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3

	client, err := sarama.NewClient(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, messaging.ErrConnectionFailed(err)
	}
	return &Broker{cfg: cfg, client: client}, nil
}

// Producer returns a producer bound to topic.
func (b *Broker) Producer(topic string) (messaging.Producer, error) {
	syncProducer, err := sarama.NewSyncProducerFromClient(b.client)
	if err != nil {
		return nil, messaging.ErrConnectionFailed(err)
	}
	return &producer{broker: b, topic: topic, producer: syncProducer}, nil
}

// Close shuts down the underlying client.
func (b *Broker) Close() error {
	return b.client.Close()
}

// Healthy reports whether the client can still reach the cluster's
// controller broker.
func (b *Broker) Healthy(ctx context.Context) bool {
	_, err := b.client.Controller()
	return err == nil
}
