package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultCurrencyFormat = "₹"

// AvailableSizes lists the sizes a product may be offered in.
var AvailableSizes = []string{"S", "XS", "M", "X", "L", "XXL", "XL"}

type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Price          float64            `bson:"price" json:"price"`
	CurrencyID     string             `bson:"currency_id" json:"currencyId"`
	CurrencyFormat string             `bson:"currency_format" json:"currencyFormat"`
	IsFreeShipping bool               `bson:"is_free_shipping" json:"isFreeShipping"`
	ProductImage   string             `bson:"product_image" json:"productImage"`
	Style          string             `bson:"style,omitempty" json:"style,omitempty"`
	AvailableSizes []string           `bson:"available_sizes" json:"availableSizes"`
	Installments   int                `bson:"installments,omitempty" json:"installments,omitempty"`
	IsDeleted      bool               `bson:"is_deleted" json:"isDeleted"`
	DeletedAt      *time.Time         `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ProductFilter narrows a catalog listing. Nil pointers mean "no bound".
type ProductFilter struct {
	Size             string
	Name             string
	PriceGreaterThan *float64
	PriceLessThan    *float64
	PriceSort        int
}

// ProductUpdate carries the fields of a partial product update.
type ProductUpdate struct {
	Title          *string
	Description    *string
	Price          *float64
	CurrencyID     *string
	CurrencyFormat *string
	IsFreeShipping *bool
	ProductImage   *string
	Style          *string
	Installments   *int
	AddSizes       []string
}
