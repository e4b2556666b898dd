package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/events"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrEmptyCart is returned when an order is requested for a cart with no items.
var ErrEmptyCart = fmt.Errorf("%w: cart is empty, nothing to order", ErrValidation)

type CreateOrderInput struct {
	CartID string `json:"cartId"`
}

type UpdateOrderInput struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type OrderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	users     repository.UserRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	users repository.UserRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		carts:     carts,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateOrder snapshots the caller's cart into a pending order. The cart itself
// is left as is.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*domain.Order, error) {
	cartID, err := parseID("cartId", in.CartID)
	if err != nil {
		return nil, err
	}
	uid, err := requireUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, notFoundError("cart %s does not exist", in.CartID)
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.UserID != uid {
		return nil, forbiddenError("cart %s does not belong to user %s", in.CartID, userID)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := domain.NewOrderFromCart(cart)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.logger.Error("repo create order error", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info("order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", userID),
		zap.Float64("total_price", order.TotalPrice))

	s.publish(ctx, events.TypeOrderCreated, order)
	return order, nil
}

// UpdateOrderStatus moves a pending order to the requested status. Completed
// and cancelled orders are locked.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, userID string, in UpdateOrderInput) (*domain.Order, error) {
	orderID, err := parseID("orderId", in.OrderID)
	if err != nil {
		return nil, err
	}
	status, ok := domain.ParseOrderStatus(in.Status)
	if !ok {
		return nil, validationError("status must be one of pending, completed, cancelled")
	}

	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	previous := order.Status
	if err := order.TransitionTo(status); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrState, err)
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, order.Status)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: order %s is no longer pending", ErrState, in.OrderID)
		}
		s.logger.Error("repo update order status error", zap.String("order_id", in.OrderID), zap.Error(err))
		return nil, fmt.Errorf("update order status: %w", err)
	}
	s.logger.Info("order status changed",
		zap.String("order_id", in.OrderID),
		zap.Stringer("from", previous),
		zap.Stringer("to", updated.Status))

	s.publish(ctx, events.TypeOrderStatusChanged, updated)
	return updated, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	oid, err := parseID("orderId", orderID)
	if err != nil {
		return nil, err
	}
	return s.ownedOrder(ctx, userID, oid)
}

// ListOrders returns the caller's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	uid, err := requireUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrdersByUserID(ctx, uid)
	if err != nil {
		s.logger.Error("repo list orders error", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ownedOrder(ctx context.Context, userID string, orderID primitive.ObjectID) (*domain.Order, error) {
	uid, err := requireUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, notFoundError("order %s does not exist", orderID.Hex())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != uid {
		return nil, forbiddenError("order %s does not belong to user %s", orderID.Hex(), userID)
	}
	return order, nil
}

// publish is best effort: the order is already persisted.
func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Warn("publish order event error",
			zap.String("event_type", eventType),
			zap.String("order_id", order.ID.Hex()),
			zap.Error(err))
	}
}
