// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/google/uuid"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

type Event struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	AggregateID string        `json:"aggregate_id"`
	OccurredAt  time.Time     `json:"occurred_at"`
	Order       *domain.Order `json:"order"`
}

func NewOrderEvent(eventType string, order *domain.Order) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: order.ID.Hex(),
		OccurredAt:  time.Now().UTC(),
		Order:       order,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
