package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"github.com/fjod/go_cart/shop-service/internal/storage"
	"github.com/fjod/go_cart/shop-service/internal/validator"
	"go.uber.org/zap"
)

// ProductInput holds the raw form values of a create or update request.
// Empty strings mean "not supplied".
type ProductInput struct {
	Title          string
	Description    string
	Price          string
	CurrencyID     string
	CurrencyFormat string
	IsFreeShipping string
	Style          string
	AvailableSizes []string
	Installments   string
	Image          *storage.File
}

// ProductQuery holds the raw query parameters of a catalog listing.
type ProductQuery struct {
	Size             string
	Name             string
	PriceGreaterThan string
	PriceLessThan    string
	PriceSort        string
}

type ProductService struct {
	products repository.ProductRepository
	uploader storage.Uploader
	logger   *zap.Logger
}

func NewProductService(products repository.ProductRepository, uploader storage.Uploader, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if !validator.IsValid(in.Title) || !validator.IsValid(in.Description) || !validator.IsValid(in.Price) ||
		!validator.IsValid(in.CurrencyID) || !validator.IsValid(in.CurrencyFormat) {
		return nil, validationError("title, description, price, currencyId and currencyFormat are required")
	}
	price, err := parsePrice("price", in.Price)
	if err != nil {
		return nil, err
	}
	sizes, err := parseSizes(in.AvailableSizes)
	if err != nil {
		return nil, err
	}
	if len(sizes) == 0 {
		return nil, validationError("availableSizes must contain at least one of %s", strings.Join(domain.AvailableSizes, ", "))
	}

	product := &domain.Product{
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Price:          price,
		CurrencyID:     strings.TrimSpace(in.CurrencyID),
		CurrencyFormat: strings.TrimSpace(in.CurrencyFormat),
		Style:          strings.TrimSpace(in.Style),
		AvailableSizes: sizes,
	}
	if in.IsFreeShipping != "" {
		if product.IsFreeShipping, err = strconv.ParseBool(in.IsFreeShipping); err != nil {
			return nil, validationError("isFreeShipping must be true or false")
		}
	}
	if in.Installments != "" {
		if product.Installments, err = parseInstallments(in.Installments); err != nil {
			return nil, err
		}
	}
	if in.Image == nil {
		return nil, validationError("productImage file is required")
	}

	if err := s.ensureTitleFree(ctx, product.Title); err != nil {
		return nil, err
	}

	if product.ProductImage, err = s.upload(ctx, *in.Image); err != nil {
		return nil, err
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, validationError("title %q is already present", product.Title)
		}
		s.logger.Error("repo create product error", zap.String("title", product.Title), zap.Error(err))
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.String("product_id", product.ID.Hex()), zap.String("title", product.Title))
	return product, nil
}

// ListProducts returns non-deleted products matching the query.
func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) ([]*domain.Product, error) {
	var filter domain.ProductFilter

	if q.Size != "" {
		if !validator.IsValidSize(q.Size) {
			return nil, validationError("size must be one of %s", strings.Join(domain.AvailableSizes, ", "))
		}
		filter.Size = q.Size
	}
	filter.Name = strings.TrimSpace(q.Name)
	if q.PriceGreaterThan != "" {
		v, err := parsePrice("priceGreaterThan", q.PriceGreaterThan)
		if err != nil {
			return nil, err
		}
		filter.PriceGreaterThan = &v
	}
	if q.PriceLessThan != "" {
		v, err := parsePrice("priceLessThan", q.PriceLessThan)
		if err != nil {
			return nil, err
		}
		filter.PriceLessThan = &v
	}
	if q.PriceSort != "" {
		sort, err := strconv.Atoi(q.PriceSort)
		if err != nil || (sort != 1 && sort != -1) {
			return nil, validationError("priceSort must be 1 or -1")
		}
		filter.PriceSort = sort
	}

	products, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		s.logger.Error("repo list products error", zap.Error(err))
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return nil, notFoundError("no products found")
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	id, err := parseID("productId", productID)
	if err != nil {
		return nil, err
	}
	return requireProduct(ctx, s.products, id)
}

// UpdateProduct applies the supplied fields. Sizes are added to the existing set.
func (s *ProductService) UpdateProduct(ctx context.Context, productID string, in ProductInput) (*domain.Product, error) {
	id, err := parseID("productId", productID)
	if err != nil {
		return nil, err
	}

	var update domain.ProductUpdate
	fields := 0

	if in.Title != "" {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			return nil, validationError("title must not be blank")
		}
		update.Title = &title
		fields++
	}
	if in.Description != "" {
		description := strings.TrimSpace(in.Description)
		update.Description = &description
		fields++
	}
	if in.Price != "" {
		price, err := parsePrice("price", in.Price)
		if err != nil {
			return nil, err
		}
		update.Price = &price
		fields++
	}
	if in.CurrencyID != "" {
		update.CurrencyID = &in.CurrencyID
		fields++
	}
	if in.CurrencyFormat != "" {
		update.CurrencyFormat = &in.CurrencyFormat
		fields++
	}
	if in.IsFreeShipping != "" {
		free, err := strconv.ParseBool(in.IsFreeShipping)
		if err != nil {
			return nil, validationError("isFreeShipping must be true or false")
		}
		update.IsFreeShipping = &free
		fields++
	}
	if in.Style != "" {
		update.Style = &in.Style
		fields++
	}
	if in.Installments != "" {
		n, err := parseInstallments(in.Installments)
		if err != nil {
			return nil, err
		}
		update.Installments = &n
		fields++
	}
	if len(in.AvailableSizes) > 0 {
		if update.AddSizes, err = parseSizes(in.AvailableSizes); err != nil {
			return nil, err
		}
		fields++
	}
	if fields == 0 && in.Image == nil {
		return nil, validationError("no fields to update")
	}

	current, err := requireProduct(ctx, s.products, id)
	if err != nil {
		return nil, err
	}
	if update.Title != nil && *update.Title != current.Title {
		if err := s.ensureTitleFree(ctx, *update.Title); err != nil {
			return nil, err
		}
	}
	if in.Image != nil {
		url, err := s.upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		update.ProductImage = &url
	}

	product, err := s.products.UpdateProduct(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, notFoundError("product %s does not exist", productID)
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, validationError("title is already present")
		}
		s.logger.Error("repo update product error", zap.String("product_id", productID), zap.Error(err))
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// DeleteProduct soft deletes the product.
func (s *ProductService) DeleteProduct(ctx context.Context, productID string) error {
	id, err := parseID("productId", productID)
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return notFoundError("product %s does not exist or is already deleted", productID)
		}
		s.logger.Error("repo delete product error", zap.String("product_id", productID), zap.Error(err))
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.Info("product deleted", zap.String("product_id", productID))
	return nil
}

func (s *ProductService) ensureTitleFree(ctx context.Context, title string) error {
	exists, err := s.products.TitleExists(ctx, title)
	if err != nil {
		return fmt.Errorf("check title: %w", err)
	}
	if exists {
		return validationError("title %q is already present", title)
	}
	return nil
}

func (s *ProductService) upload(ctx context.Context, file storage.File) (string, error) {
	url, err := s.uploader.Upload(ctx, file)
	if err != nil {
		s.logger.Error("upload product image error", zap.String("file", file.Name), zap.Error(err))
		return "", fmt.Errorf("upload product image: %w", err)
	}
	return url, nil
}

func parsePrice(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, validationError("%s must be a non-negative number", field)
	}
	return v, nil
}

func parseInstallments(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, validationError("installments must be a non-negative integer")
	}
	return n, nil
}

// parseSizes accepts repeated values as well as comma separated lists and
// drops duplicates.
func parseSizes(raw []string) ([]string, error) {
	var sizes []string
	seen := make(map[string]bool)
	for _, value := range raw {
		for _, size := range strings.Split(value, ",") {
			size = strings.ToUpper(strings.TrimSpace(size))
			if size == "" {
				continue
			}
			if !validator.IsValidSize(size) {
				return nil, validationError("size %q must be one of %s", size, strings.Join(domain.AvailableSizes, ", "))
			}
			if !seen[size] {
				seen[size] = true
				sizes = append(sizes, size)
			}
		}
	}
	return sizes, nil
}
