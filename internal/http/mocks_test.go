package http

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/service"
)

type mockVerifier map[string]string

func (m mockVerifier) Verify(token string) (string, error) {
	userID, ok := m[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return userID, nil
}

type mockCartService struct {
	m         sync.Mutex
	cart      *domain.Cart
	err       error
	userID    string
	addInput  service.AddItemInput
	updateReq service.UpdateCartInput
}

func (m *mockCartService) AddItem(_ context.Context, userID string, in service.AddItemInput) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.userID, m.addInput = userID, in
	return m.cart, m.err
}

func (m *mockCartService) UpdateCart(_ context.Context, userID string, in service.UpdateCartInput) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.userID, m.updateReq = userID, in
	return m.cart, m.err
}

func (m *mockCartService) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.userID = userID
	return m.cart, m.err
}

func (m *mockCartService) ClearCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.userID = userID
	return m.cart, m.err
}

type mockOrderService struct {
	order       *domain.Order
	err         error
	userID      string
	orderID     string
	createInput service.CreateOrderInput
	updateInput service.UpdateOrderInput
}

func (m *mockOrderService) CreateOrder(_ context.Context, userID string, in service.CreateOrderInput) (*domain.Order, error) {
	m.userID, m.createInput = userID, in
	return m.order, m.err
}

func (m *mockOrderService) UpdateOrderStatus(_ context.Context, userID string, in service.UpdateOrderInput) (*domain.Order, error) {
	m.userID, m.updateInput = userID, in
	return m.order, m.err
}

func (m *mockOrderService) GetOrder(_ context.Context, userID, orderID string) (*domain.Order, error) {
	m.userID, m.orderID = userID, orderID
	return m.order, m.err
}

func (m *mockOrderService) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	m.userID = userID
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Order{m.order}, nil
}

type mockProductService struct {
	product   *domain.Product
	err       error
	productID string
	input     service.ProductInput
	imageBody string
	query     service.ProductQuery
}

func (m *mockProductService) capture(in service.ProductInput) {
	m.input = in
	if in.Image != nil {
		body, _ := io.ReadAll(in.Image.Body)
		m.imageBody = string(body)
	}
}

func (m *mockProductService) CreateProduct(_ context.Context, in service.ProductInput) (*domain.Product, error) {
	m.capture(in)
	return m.product, m.err
}

func (m *mockProductService) ListProducts(_ context.Context, q service.ProductQuery) ([]*domain.Product, error) {
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Product{m.product}, nil
}

func (m *mockProductService) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	m.productID = productID
	return m.product, m.err
}

func (m *mockProductService) UpdateProduct(_ context.Context, productID string, in service.ProductInput) (*domain.Product, error) {
	m.productID = productID
	m.capture(in)
	return m.product, m.err
}

func (m *mockProductService) DeleteProduct(_ context.Context, productID string) error {
	m.productID = productID
	return m.err
}

type mockUserService struct {
	user       *domain.User
	login      *service.LoginResult
	err        error
	userID     string
	input      service.UserInput
	imageName  string
	loginInput service.LoginInput
}

func (m *mockUserService) Register(_ context.Context, in service.UserInput) (*domain.User, error) {
	m.input = in
	if in.Image != nil {
		m.imageName = in.Image.Name
	}
	return m.user, m.err
}

func (m *mockUserService) Login(_ context.Context, in service.LoginInput) (*service.LoginResult, error) {
	m.loginInput = in
	return m.login, m.err
}

func (m *mockUserService) GetProfile(_ context.Context, userID string) (*domain.User, error) {
	m.userID = userID
	return m.user, m.err
}

func (m *mockUserService) UpdateProfile(_ context.Context, userID string, in service.UserInput) (*domain.User, error) {
	m.userID, m.input = userID, in
	return m.user, m.err
}
