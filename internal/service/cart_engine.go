package service

import (
	"slices"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/pricing"
)

// RemoveMode selects how UpdateCart reduces a line item.
type RemoveMode int

const (
	RemoveLine   RemoveMode = 0
	DecrementOne RemoveMode = 1
)

// ParseRemoveMode accepts only the two supported reduction modes.
func ParseRemoveMode(v int) (RemoveMode, bool) {
	switch m := RemoveMode(v); m {
	case RemoveLine, DecrementOne:
		return m, true
	}
	return 0, false
}

// applyAdd merges quantity units of product into the cart.
func applyAdd(cart *domain.Cart, product *domain.Product, quantity int) {
	line := domain.CartItem{ProductID: product.ID, Quantity: quantity}
	if i := cart.FindItem(product.ID); i >= 0 {
		cart.Items[i].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, line)
	}

	delta := pricing.TotalPrice([]domain.CartItem{line}, []domain.Product{*product})
	cart.TotalPrice = pricing.Add(cart.TotalPrice, delta)
	cart.TotalItems = len(cart.Items)
	cart.UpdatedAt = time.Now().UTC()
}

// applyReduce removes the line or takes away a single unit of it. A line with
// one unit left is removed in either mode.
func applyReduce(cart *domain.Cart, product *domain.Product, mode RemoveMode) error {
	i := cart.FindItem(product.ID)
	if i < 0 {
		return notFoundError("product %s is not in the cart", product.ID.Hex())
	}

	item := cart.Items[i]
	removed := item
	if mode == DecrementOne && item.Quantity > 1 {
		cart.Items[i].Quantity--
		removed.Quantity = 1
	} else {
		cart.Items = slices.Delete(cart.Items, i, i+1)
	}

	delta := pricing.TotalPrice([]domain.CartItem{removed}, []domain.Product{*product})
	cart.TotalPrice = pricing.Sub(cart.TotalPrice, delta)
	// Prices may have changed since the items were added.
	if cart.TotalPrice < 0 || cart.IsEmpty() {
		cart.TotalPrice = 0
	}
	cart.TotalItems = len(cart.Items)
	cart.UpdatedAt = time.Now().UTC()
	return nil
}
