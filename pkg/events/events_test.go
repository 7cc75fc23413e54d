package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProducer records messages instead of talking to a broker.
type mockProducer struct {
	sarama.SyncProducer
	messages []*sarama.ProducerMessage
	err      error
}

func (m *mockProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	m.messages = append(m.messages, msg)
	return 0, int64(len(m.messages)), nil
}

func (m *mockProducer) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	producer := &mockProducer{}
	pub := NewKafkaPublisher(producer, "marketplace-events")

	err := pub.Publish(context.Background(), Event{
		Type: ProductCreated,
		Key:  "prod-1",
		Data: map[string]string{"title": "Vintage lamp"},
	})
	require.NoError(t, err)
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	assert.Equal(t, "marketplace-events", msg.Topic)

	key, _ := msg.Key.Encode()
	assert.Equal(t, "prod-1", string(key))

	raw, _ := msg.Value.Encode()
	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, ProductCreated, decoded.Type)
	assert.False(t, decoded.OccurredAt.IsZero())
	assert.Equal(t, "event-type", string(msg.Headers[0].Key))
}

func TestKafkaPublisherError(t *testing.T) {
	pub := NewKafkaPublisher(&mockProducer{err: errors.New("broker down")}, "t")
	err := pub.Publish(context.Background(), Event{Type: UserBanned, Key: "u"})
	assert.ErrorContains(t, err, "broker down")
}

func TestKafkaPublisherCancelledContext(t *testing.T) {
	producer := &mockProducer{}
	pub := NewKafkaPublisher(producer, "t")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pub.Publish(ctx, Event{Type: UserBanned}), context.Canceled)
	assert.Empty(t, producer.messages)
}

func TestEmitSwallowsErrors(t *testing.T) {
	Emit(context.Background(), NewKafkaPublisher(&mockProducer{err: errors.New("x")}, "t"), Event{Type: OrderCompleted})
	Emit(context.Background(), nil, Event{Type: OrderCompleted})
	Emit(context.Background(), Noop{}, Event{Type: OrderCompleted})
}
