// Package pricing computes cart and order money totals.
//
// Amounts are stored as float64 but every sum goes through decimal arithmetic so
// that incrementally maintained totals match a full recompute.
package pricing

import (
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/shopspring/decimal"
)

// TotalPrice sums price*quantity for every item whose product is in products.
// Items without a matching product contribute nothing.
func TotalPrice(items []domain.CartItem, products []domain.Product) float64 {
	total := decimal.Zero
	for _, item := range items {
		for _, p := range products {
			if p.ID == item.ProductID {
				total = total.Add(LineTotal(p.Price, item.Quantity))
				break
			}
		}
	}
	return total.InexactFloat64()
}

// LineTotal is the exact price of quantity units.
func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}
