package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setupKafka(t *testing.T) (string, func()) {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}

	return brokers[0], cleanup
}

func TestKafkaPublisher_Publish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	broker, cleanup := setupKafka(t)
	defer cleanup()

	const topic = "orders"
	publisher := NewKafkaPublisher(topic, broker)
	defer publisher.Close()

	order := &domain.Order{
		ID:            primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		TotalPrice:    500,
		TotalItems:    1,
		TotalQuantity: 5,
		Status:        domain.OrderStatusPending,
		Cancellable:   true,
	}
	event := NewOrderEvent(TypeOrderCreated, order)

	require.Eventually(t, func() bool {
		return publisher.Publish(ctx, event) == nil
	}, 30*time.Second, time.Second, "publish never succeeded")

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: "events-test",
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ID.Hex(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, TypeOrderCreated, string(msg.Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, order.ID, got.Order.ID)
	assert.Equal(t, 5, got.Order.TotalQuantity)
}

func TestNewOrderEvent(t *testing.T) {
	order := &domain.Order{ID: primitive.NewObjectID()}
	e := NewOrderEvent(TypeOrderStatusChanged, order)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TypeOrderStatusChanged, e.Type)
	assert.Equal(t, order.ID.Hex(), e.AggregateID)
	assert.Same(t, order, e.Order)
}
