package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/shop-service/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	// Set stores the cart unless a newer version has been invalidated since it
	// was read, in which case it returns ErrStaleCart.
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	// Invalidate drops the cached cart and rejects later writes of any version
	// older than version.
	Invalidate(ctx context.Context, userID string, version int64) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrStaleCart = errors.New("cart is older than the last invalidated version")
)
