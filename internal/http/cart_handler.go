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

type CartService interface {
	AddItem(ctx context.Context, userID string, in service.AddItemInput) (*domain.Cart, error)
	UpdateCart(ctx context.Context, userID string, in service.UpdateCartInput) (*domain.Cart, error)
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(carts CartService, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
		logger:  logger,
	}
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.AddItemInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.carts.AddItem(ctx, chi.URLParam(r, "userId"), req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusCreated, "item added to cart", cart)
}

func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.UpdateCartInput
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.carts.UpdateCart(ctx, chi.URLParam(r, "userId"), req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "cart updated", cart)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "cart details", cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.ClearCart(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "cart cleared", cart)
}
