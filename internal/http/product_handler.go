package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductService interface {
	CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error)
	ListProducts(ctx context.Context, q service.ProductQuery) ([]*domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, in service.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type ProductHandler struct {
	products      ProductService
	timeout       time.Duration
	maxUploadSize int64
	logger        *zap.Logger
}

func NewProductHandler(products ProductService, timeout time.Duration, maxUploadSize int64, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products:      products,
		timeout:       timeout,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	in, closeFile, ok := h.readProductForm(w, r)
	if !ok {
		return
	}
	defer closeFile()

	product, err := h.products.CreateProduct(ctx, in)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusCreated, "product created", product)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	products, err := h.products.ListProducts(ctx, service.ProductQuery{
		Size:             q.Get("size"),
		Name:             q.Get("name"),
		PriceGreaterThan: q.Get("priceGreaterThan"),
		PriceLessThan:    q.Get("priceLessThan"),
		PriceSort:        q.Get("priceSort"),
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "products", products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.products.GetProduct(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "product details", product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	in, closeFile, ok := h.readProductForm(w, r)
	if !ok {
		return
	}
	defer closeFile()

	product, err := h.products.UpdateProduct(ctx, chi.URLParam(r, "productId"), in)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "product updated", product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.products.DeleteProduct(ctx, chi.URLParam(r, "productId")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondData(w, http.StatusOK, "product deleted", nil)
}

// readProductForm writes the error response itself and reports ok=false on failure.
func (h *ProductHandler) readProductForm(w http.ResponseWriter, r *http.Request) (service.ProductInput, func(), bool) {
	noop := func() {}
	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid form body: "+err.Error())
		return service.ProductInput{}, noop, false
	}

	in := service.ProductInput{
		Title:          r.PostFormValue("title"),
		Description:    r.PostFormValue("description"),
		Price:          r.PostFormValue("price"),
		CurrencyID:     r.PostFormValue("currencyId"),
		CurrencyFormat: r.PostFormValue("currencyFormat"),
		IsFreeShipping: r.PostFormValue("isFreeShipping"),
		Style:          r.PostFormValue("style"),
		AvailableSizes: r.PostForm["availableSizes"],
		Installments:   r.PostFormValue("installments"),
	}

	file, closer, err := formFile(r, "productImage")
	switch {
	case errors.Is(err, errNoFile):
		return in, noop, true
	case err != nil:
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return service.ProductInput{}, noop, false
	}
	in.Image = file
	return in, func() { _ = closer.Close() }, true
}
