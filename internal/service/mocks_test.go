package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/cache"
	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/fjod/go_cart/shop-service/internal/events"
	"github.com/fjod/go_cart/shop-service/internal/repository"
	"github.com/fjod/go_cart/shop-service/internal/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func cloneCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp
}

// mockCartRepository keeps carts in memory and enforces the version check.
type mockCartRepository struct {
	m     sync.Mutex
	carts map[primitive.ObjectID]*domain.Cart
	err   error

	// conflicts makes the next SaveCart calls fail with a version conflict.
	conflicts int
	saves     int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[primitive.ObjectID]*domain.Cart)}
}

func (m *mockCartRepository) put(c *domain.Cart) {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[c.ID] = cloneCart(c)
}

func (m *mockCartRepository) stored(id primitive.ObjectID) *domain.Cart {
	m.m.Lock()
	defer m.m.Unlock()
	return cloneCart(m.carts[id])
}

func (m *mockCartRepository) GetCart(_ context.Context, userID primitive.ObjectID) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.carts {
		if c.UserID == userID {
			return cloneCart(c), nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *mockCartRepository) GetCartByID(_ context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (m *mockCartRepository) EnsureCart(ctx context.Context, userID primitive.ObjectID) (*domain.Cart, bool, error) {
	if c, err := m.GetCart(ctx, userID); err == nil {
		return c, false, nil
	} else if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, false, err
	}
	c := &domain.Cart{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.put(c)
	return c, true, nil
}

func (m *mockCartRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	stored, ok := m.carts[cart.ID]
	if !ok || stored.Version != cart.Version {
		return repository.ErrVersionConflict
	}
	if m.conflicts > 0 {
		m.conflicts--
		// Simulate a concurrent writer bumping the version.
		stored.Version++
		return repository.ErrVersionConflict
	}
	cart.Version++
	m.carts[cart.ID] = cloneCart(cart)
	return nil
}

func (m *mockCartRepository) ClearCart(_ context.Context, userID primitive.ObjectID) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.carts {
		if c.UserID == userID {
			c.Items = []domain.CartItem{}
			c.TotalPrice = 0
			c.TotalItems = 0
			c.Version++
			return cloneCart(c), nil
		}
	}
	return nil, repository.ErrCartNotFound
}

type mockOrderRepository struct {
	m      sync.Mutex
	orders map[primitive.ObjectID]*domain.Order
	err    error
	// statusConflict makes UpdateStatus behave as if another writer won.
	statusConflict bool
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[primitive.ObjectID]*domain.Order)}
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepository) GetOrder(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok || o.IsDeleted {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) ListOrdersByUserID(_ context.Context, userID primitive.ObjectID) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	orders := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if o.UserID == userID && !o.IsDeleted {
			cp := *o
			orders = append(orders, &cp)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.OrderStatus) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if m.statusConflict || !ok || o.Status != domain.OrderStatusPending || !o.Cancellable {
		return nil, repository.ErrStatusConflict
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

type mockProductRepository struct {
	m        sync.Mutex
	products map[primitive.ObjectID]*domain.Product
	err      error
	filter   domain.ProductFilter
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[primitive.ObjectID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	p.ID = primitive.NewObjectID()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) GetProduct(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok || p.IsDeleted {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// ListProducts records the filter and returns every live product.
func (m *mockProductRepository) ListProducts(_ context.Context, f domain.ProductFilter) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.filter = f
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if !p.IsDeleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) TitleExists(_ context.Context, title string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, p := range m.products {
		if p.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProductRepository) UpdateProduct(_ context.Context, id primitive.ObjectID, u domain.ProductUpdate) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok || p.IsDeleted {
		return nil, repository.ErrProductNotFound
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.ProductImage != nil {
		p.ProductImage = *u.ProductImage
	}
	for _, size := range u.AddSizes {
		if !slices.Contains(p.AvailableSizes, size) {
			p.AvailableSizes = append(p.AvailableSizes, size)
		}
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok || p.IsDeleted {
		return repository.ErrProductNotFound
	}
	p.IsDeleted = true
	return nil
}

type mockUserRepository struct {
	m     sync.Mutex
	users map[primitive.ObjectID]*domain.User
	err   error
}

func newMockUserRepository(users ...*domain.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) CreateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	u.ID = primitive.NewObjectID()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetUser(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := m.GetUserByEmail(context.Background(), email)
	return err == nil, nil
}

func (m *mockUserRepository) PhoneExists(_ context.Context, phone string) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepository) UpdateUser(_ context.Context, id primitive.ObjectID, upd domain.UserUpdate) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if upd.FName != nil {
		u.FName = *upd.FName
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	cp := *u
	return &cp, nil
}

type mockCache struct {
	m       sync.RWMutex
	carts   map[string]*domain.Cart
	floors  map[string]int64
	err     error
	deletes int
	// holdSet, when set, blocks Set until it is closed.
	holdSet chan struct{}
	setDone chan error
	// getEntered receives the context of each Get, which then waits on holdGet.
	getEntered chan context.Context
	holdGet    chan struct{}
}

func newMockCache() *mockCache {
	return &mockCache{
		carts:  make(map[string]*domain.Cart),
		floors: make(map[string]int64),
	}
}

func (m *mockCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	if m.getEntered != nil {
		m.getEntered <- ctx
		<-m.holdGet
	}

	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Set(_ context.Context, userID string, cart *domain.Cart) error {
	m.m.RLock()
	hold, done := m.holdSet, m.setDone
	m.m.RUnlock()
	if hold != nil {
		<-hold
	}

	err := m.set(userID, cart)
	if done != nil {
		done <- err
	}
	return err
}

func (m *mockCache) set(userID string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if floor, ok := m.floors[userID]; ok && cart.Version < floor {
		return cache.ErrStaleCart
	}
	m.carts[userID] = cart
	return nil
}

func (m *mockCache) Invalidate(_ context.Context, userID string, version int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, userID)
	if version > m.floors[userID] {
		m.floors[userID] = version
	}
	m.deletes++
	return m.err
}

func (m *mockCache) cached(userID string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.carts[userID]
	return ok
}

type mockUploader struct {
	m     sync.Mutex
	files []string
	err   error
}

func (m *mockUploader) Upload(_ context.Context, f storage.File) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if f.Body != nil {
		_, _ = io.Copy(io.Discard, f.Body)
	}
	m.files = append(m.files, f.Name)
	return "https://storage.googleapis.com/test-bucket/" + f.Name, nil
}

type mockPublisher struct {
	m      sync.Mutex
	events []events.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e events.Event) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) published() []events.Event {
	m.m.Lock()
	defer m.m.Unlock()
	return slices.Clone(m.events)
}

// plainHasher keeps tests fast; bcrypt is covered in the auth package.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) bool {
	return strings.TrimPrefix(hash, "hashed:") == password && strings.HasPrefix(hash, "hashed:")
}

type mockTokenIssuer struct{}

func (mockTokenIssuer) Issue(userID string) (string, error) { return "token-" + userID, nil }

func newTestUser() *domain.User {
	return &domain.User{
		ID:       primitive.NewObjectID(),
		FName:    "Jane",
		LName:    "Austin",
		Email:    "jane@example.com",
		Phone:    "9876543210",
		Password: "hashed:password123",
		Address: domain.Address{
			Shipping: domain.AddressLine{Street: "MG Road", City: "Delhi", Pincode: "110001"},
			Billing:  domain.AddressLine{Street: "MG Road", City: "Indore", Pincode: "452010"},
		},
	}
}

func newTestProduct(title string, price float64) *domain.Product {
	return &domain.Product{
		ID:             primitive.NewObjectID(),
		Title:          title,
		Description:    title + " description",
		Price:          price,
		CurrencyID:     "INR",
		CurrencyFormat: domain.DefaultCurrencyFormat,
		AvailableSizes: []string{"M"},
	}
}
