package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	cartsCollection    = "carts"
	ordersCollection   = "orders"
	productsCollection = "products"
	usersCollection    = "users"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrVersionConflict = errors.New("document was modified concurrently")
	ErrStatusConflict  = errors.New("order status changed concurrently")
	ErrDuplicateKey    = errors.New("duplicate key")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, error)
	GetCartByID(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error)
	// EnsureCart returns the user's cart, creating an empty one if needed.
	EnsureCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, bool, error)
	// SaveCart writes items and totals if the stored version still matches.
	SaveCart(ctx context.Context, cart *domain.Cart) error
	ClearCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID primitive.ObjectID) ([]*domain.Order, error)
	// UpdateStatus sets status only while the order is still pending.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) (*domain.Order, error)
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	TitleExists(ctx context.Context, title string) (bool, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, update domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update domain.UserUpdate) (*domain.User, error)
}

func translateWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}
