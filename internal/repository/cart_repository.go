package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *mongoCartRepository) GetCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, error) {
	return m.findOne(ctx, bson.M{"user_id": userID})
}

func (m *mongoCartRepository) GetCartByID(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *mongoCartRepository) findOne(ctx context.Context, filter bson.M) (*domain.Cart, error) {
	var cart domain.Cart
	err := m.collection.FindOne(ctx, filter).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

func (m *mongoCartRepository) EnsureCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, bool, error) {
	now := time.Now().UTC()

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":     userID,
			"items":       bson.A{},
			"total_price": 0.0,
			"total_items": 0,
			"version":     int64(0),
			"created_at":  now,
			"updated_at":  now,
		},
	}
	opts := options.Update().SetUpsert(true)

	result, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		// Two concurrent upserts can race on the unique user_id index; the loser
		// simply reads the winner's cart.
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("failed to upsert cart: %w", err)
		}
		result = &mongo.UpdateResult{}
	}

	cart, err := m.GetCart(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return cart, result.UpsertedCount > 0, nil
}

func (m *mongoCartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now().UTC()

	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}

	filter := bson.M{"_id": cart.ID, "version": cart.Version}
	update := bson.M{
		"$set": bson.M{
			"items":       items,
			"total_price": cart.TotalPrice,
			"total_items": cart.TotalItems,
			"updated_at":  now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}

	cart.Version++
	cart.UpdatedAt = now
	return nil
}

func (m *mongoCartRepository) ClearCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, error) {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"items":       bson.A{},
			"total_price": 0.0,
			"total_items": 0,
			"updated_at":  time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var cart domain.Cart
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return &cart, nil
}
