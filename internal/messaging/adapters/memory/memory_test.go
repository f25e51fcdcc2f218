package memory_test

import (
	"context"
	"testing"

	"github.com/nova-stream/eventpipe/internal/messaging"
	"github.com/nova-stream/eventpipe/internal/messaging/adapters/memory"
	"github.com/stretchr/testify/require"
)

func TestMemoryBrokerPublishAndConsume(t *testing.T) {
	broker := memory.New(memory.Config{BufferSize: 10})
	defer broker.Close()

	producer, err := broker.Producer("events")
	require.NoError(t, err)
	defer producer.Close()

	ch := broker.Consume("events")

	err = producer.Publish(context.Background(), &messaging.Message{ID: "1", Payload: []byte(`{}`)})
	require.NoError(t, err)

	msg := <-ch
	require.Equal(t, "1", msg.ID)
}

func TestMemoryBrokerHealthyAfterClose(t *testing.T) {
	broker := memory.New(memory.Config{BufferSize: 10})
	require.True(t, broker.Healthy(context.Background()))
	require.NoError(t, broker.Close())
	require.False(t, broker.Healthy(context.Background()))
}
