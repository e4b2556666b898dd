package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrOrderNotCancellable = errors.New("order is not cancellable")
	ErrOrderCancelled      = errors.New("order is already cancelled")
	ErrOrderCompleted      = errors.New("order is already completed")
)

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	Items         []CartItem         `bson:"items" json:"items"`
	TotalPrice    float64            `bson:"total_price" json:"totalPrice"`
	TotalItems    int                `bson:"total_items" json:"totalItems"`
	TotalQuantity int                `bson:"total_quantity" json:"totalQuantity"`
	Status        OrderStatus        `bson:"status" json:"status"`
	Cancellable   bool               `bson:"cancellable" json:"cancellable"`
	IsDeleted     bool               `bson:"is_deleted" json:"isDeleted"`
	DeletedAt     *time.Time         `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// NewOrderFromCart snapshots the cart into a pending order. The items slice is
// copied so later cart mutations never reach the order.
func NewOrderFromCart(cart *Cart) *Order {
	items := make([]CartItem, len(cart.Items))
	copy(items, cart.Items)

	return &Order{
		UserID:        cart.UserID,
		Items:         items,
		TotalPrice:    cart.TotalPrice,
		TotalItems:    cart.TotalItems,
		TotalQuantity: cart.TotalQuantity(),
		Status:        OrderStatusPending,
		Cancellable:   true,
	}
}

// CanTransition reports why the order can no longer change status. Once an order
// leaves pending it is locked, whatever the requested target.
func (o *Order) CanTransition() error {
	if !o.Cancellable {
		return ErrOrderNotCancellable
	}
	switch o.Status {
	case OrderStatusCancelled:
		return ErrOrderCancelled
	case OrderStatusCompleted:
		return ErrOrderCompleted
	}
	return nil
}

// TransitionTo moves the order to status if the state machine allows it.
func (o *Order) TransitionTo(status OrderStatus) error {
	if err := o.CanTransition(); err != nil {
		return err
	}
	o.Status = status
	return nil
}
