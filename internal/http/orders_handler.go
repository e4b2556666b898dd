package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, in service.CreateOrderInput) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, userID string, in service.UpdateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
	logger  *zap.Logger
}

func NewOrdersHandler(orders OrderService, timeout time.Duration, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
		logger:  logger,
	}
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.CreateOrderInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.CreateOrder(ctx, chi.URLParam(r, "userId"), req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusCreated, "order placed", order)
}

func (h *OrdersHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.UpdateOrderInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.UpdateOrderStatus(ctx, chi.URLParam(r, "userId"), req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "order status updated", order)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "userId"), chi.URLParam(r, "orderId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "order details", order)
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "orders", orders)
}
