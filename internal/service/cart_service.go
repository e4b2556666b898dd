package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/cache"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// maxSaveAttempts bounds the reload-and-reapply loop on cart version conflicts.
	maxSaveAttempts = 3
	// cartLoadTimeout bounds a shared cache-miss load, which outlives any single caller.
	cartLoadTimeout = 5 * time.Second
)

type AddItemInput struct {
	CartID    string `json:"cartId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartInput struct {
	CartID        string `json:"cartId"`
	ProductID     string `json:"productId"`
	RemoveProduct *int   `json:"removeProduct"`
}

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	users    repository.UserRepository
	cache    cache.CartCache
	logger   *zap.Logger
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	cache cache.CartCache,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		users:    users,
		cache:    cache,
		logger:   logger,
	}
}

// EnsureCart returns the user's cart, creating an empty one on first use.
func (s *CartService) EnsureCart(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := requireUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	cart, created, err := s.carts.EnsureCart(ctx, uid)
	if err != nil {
		s.logger.Error("repo ensure cart error", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("ensure cart: %w", err)
	}
	if created {
		s.logger.Info("cart created", zap.String("user_id", userID), zap.String("cart_id", cart.ID.Hex()))
	}
	return cart, nil
}

// AddItem creates the cart if needed and merges quantity units of the product
// into it. Once the cart exists the caller must name it by cartId.
func (s *CartService) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.Cart, error) {
	productID, err := parseID("productId", in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.Quantity < 1 {
		return nil, validationError("quantity must be a positive integer")
	}
	var cartID primitive.ObjectID
	if in.CartID != "" {
		if cartID, err = parseID("cartId", in.CartID); err != nil {
			return nil, err
		}
	}

	uid, err := requireUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	product, err := requireProduct(ctx, s.products, productID)
	if err != nil {
		return nil, err
	}

	// A named cart must already be the user's, checked before anything is created.
	if !cartID.IsZero() {
		existing, err := s.carts.GetCart(ctx, uid)
		switch {
		case errors.Is(err, repository.ErrCartNotFound):
			return nil, forbiddenError("cart %s does not belong to user %s", in.CartID, userID)
		case err != nil:
			s.logger.Error("repo get cart error", zap.String("user_id", userID), zap.Error(err))
			return nil, fmt.Errorf("get cart: %w", err)
		case existing.ID != cartID:
			return nil, forbiddenError("cart %s does not belong to user %s", in.CartID, userID)
		}
	}

	cart, created, err := s.carts.EnsureCart(ctx, uid)
	if err != nil {
		s.logger.Error("repo ensure cart error", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("ensure cart: %w", err)
	}
	if cartID.IsZero() && !created {
		return nil, validationError("cartId is required, the user already has cart %s", cart.ID.Hex())
	}

	cart, err = s.mutate(ctx, cart, func(c *domain.Cart) error {
		applyAdd(c, product, in.Quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateCache(s, userID, cart.Version)
	return cart, nil
}

// UpdateCart removes a product line or decrements it by one unit.
func (s *CartService) UpdateCart(ctx context.Context, userID string, in UpdateCartInput) (*domain.Cart, error) {
	productID, err := parseID("productId", in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.RemoveProduct == nil {
		return nil, validationError("removeProduct is required")
	}
	mode, ok := ParseRemoveMode(*in.RemoveProduct)
	if !ok {
		return nil, validationError("removeProduct should be 0 or 1")
	}
	var cartID primitive.ObjectID
	if in.CartID != "" {
		if cartID, err = parseID("cartId", in.CartID); err != nil {
			return nil, err
		}
	}

	uid, err := requireUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	var cart *domain.Cart
	if cartID.IsZero() {
		cart, err = s.carts.GetCart(ctx, uid)
	} else {
		cart, err = s.carts.GetCartByID(ctx, cartID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, notFoundError("cart does not exist")
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.UserID != uid {
		return nil, forbiddenError("cart %s does not belong to user %s", cart.ID.Hex(), userID)
	}

	product, err := requireProduct(ctx, s.products, productID)
	if err != nil {
		return nil, err
	}

	cart, err = s.mutate(ctx, cart, func(c *domain.Cart) error {
		return applyReduce(c, product, mode)
	})
	if err != nil {
		return nil, err
	}

	invalidateCache(s, userID, cart.Version)
	return cart, nil
}

// GetCart serves the user's cart from cache, falling back to the database.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := parseID("userId", userID)
	if err != nil {
		return nil, err
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key.
	// The shared load is detached so one caller giving up does not fail the rest.
	ch := s.sfg.DoChan(userID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cartLoadTimeout)
		defer cancel()
		return s.loadCart(loadCtx, userID, uid)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		if errors.Is(res.Err, repository.ErrCartNotFound) {
			if _, errUser := requireUser(ctx, s.users, userID); errUser != nil {
				return nil, errUser
			}
			return nil, notFoundError("user %s has no cart", userID)
		}
		s.logger.Error("repo get cart error", zap.String("user_id", userID), zap.Error(res.Err))
		return nil, fmt.Errorf("get cart: %w", res.Err)
	}

	return res.Val.(*domain.Cart), nil
}

func (s *CartService) loadCart(ctx context.Context, userID string, uid primitive.ObjectID) (*domain.Cart, error) {
	cart, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
	}

	cart, err = s.carts.GetCart(ctx, uid)
	if err != nil {
		return nil, err
	}

	go func() {
		setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		errSet := s.cache.Set(setCtx, userID, cart)
		switch {
		case errors.Is(errSet, cache.ErrStaleCart):
			s.logger.Debug("cache set skipped, cart changed meanwhile", zap.String("user_id", userID))
		case errSet != nil:
			s.logger.Warn("cache set error", zap.String("user_id", userID), zap.Error(errSet))
		}
	}()
	return cart, nil
}

// ClearCart empties the cart but keeps the document.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := requireUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.ClearCart(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, notFoundError("user %s has no cart", userID)
		}
		s.logger.Error("repo clear cart error", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	invalidateCache(s, userID, cart.Version)
	return cart, nil
}

// mutate applies fn and saves the cart, reloading and reapplying when another
// writer got there first.
func (s *CartService) mutate(ctx context.Context, cart *domain.Cart, fn func(*domain.Cart) error) (*domain.Cart, error) {
	for attempt := 1; ; attempt++ {
		if err := fn(cart); err != nil {
			return nil, err
		}

		err := s.carts.SaveCart(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Error("repo save cart error", zap.String("cart_id", cart.ID.Hex()), zap.Error(err))
			return nil, fmt.Errorf("save cart: %w", err)
		}
		if attempt == maxSaveAttempts {
			return nil, fmt.Errorf("%w: cart %s was modified concurrently, retry the request", ErrConflict, cart.ID.Hex())
		}

		s.logger.Debug("cart version conflict, reloading",
			zap.String("cart_id", cart.ID.Hex()), zap.Int("attempt", attempt))
		cart, err = s.carts.GetCartByID(ctx, cart.ID)
		if err != nil {
			if errors.Is(err, repository.ErrCartNotFound) {
				return nil, notFoundError("cart does not exist")
			}
			return nil, fmt.Errorf("reload cart: %w", err)
		}
	}
}

func invalidateCache(s *CartService, userID string, version int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, userID, version); err != nil {
		s.logger.Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}
