package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// requireUser parses userID and checks the account exists.
func requireUser(ctx context.Context, users repository.UserRepository, userID string) (primitive.ObjectID, error) {
	uid, err := parseID("userId", userID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if _, err := users.GetUser(ctx, uid); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return primitive.NilObjectID, notFoundError("user %s does not exist", userID)
		}
		return primitive.NilObjectID, fmt.Errorf("get user: %w", err)
	}
	return uid, nil
}

func requireProduct(ctx context.Context, products repository.ProductRepository, productID primitive.ObjectID) (*domain.Product, error) {
	product, err := products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, notFoundError("product %s does not exist", productID.Hex())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}
