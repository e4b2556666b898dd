package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection(productsCollection),
	}
}

func (m *mongoProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	result, err := m.collection.InsertOne(ctx, product)
	if err != nil {
		return fmt.Errorf("insert product: %w", translateWriteErr(err))
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		product.ID = id
	}
	return nil
}

// GetProduct returns a product that has not been soft deleted.
func (m *mongoProductRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product
	err := m.collection.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &product, nil
}

func (m *mongoProductRepository) ListProducts(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, error) {
	filter := bson.M{"is_deleted": false}
	if f.Size != "" {
		filter["available_sizes"] = f.Size
	}
	if f.Name != "" {
		filter["title"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}}
	}

	price := bson.M{}
	if f.PriceGreaterThan != nil {
		price["$gt"] = *f.PriceGreaterThan
	}
	if f.PriceLessThan != nil {
		price["$lt"] = *f.PriceLessThan
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	opts := options.Find()
	if f.PriceSort != 0 {
		opts.SetSort(bson.D{{Key: "price", Value: f.PriceSort}})
	}

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (m *mongoProductRepository) TitleExists(ctx context.Context, title string) (bool, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{"title": title}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count products: %w", err)
	}
	return n > 0, nil
}

func (m *mongoProductRepository) UpdateProduct(ctx context.Context, id primitive.ObjectID, u domain.ProductUpdate) (*domain.Product, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.CurrencyID != nil {
		set["currency_id"] = *u.CurrencyID
	}
	if u.CurrencyFormat != nil {
		set["currency_format"] = *u.CurrencyFormat
	}
	if u.IsFreeShipping != nil {
		set["is_free_shipping"] = *u.IsFreeShipping
	}
	if u.ProductImage != nil {
		set["product_image"] = *u.ProductImage
	}
	if u.Style != nil {
		set["style"] = *u.Style
	}
	if u.Installments != nil {
		set["installments"] = *u.Installments
	}

	update := bson.M{"$set": set}
	if len(u.AddSizes) > 0 {
		update["$addToSet"] = bson.M{"available_sizes": bson.M{"$each": u.AddSizes}}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product domain.Product
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "is_deleted": false}, update, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", translateWriteErr(err))
	}
	return &product, nil
}

func (m *mongoProductRepository) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"is_deleted": true, "deleted_at": now, "updated_at": now}}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id, "is_deleted": false}, update)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
