package service

import (
	"context"
	"sync"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/cache"
	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/payment"
	"github.com/Goodnews119/Marketplacesite/internal/repository"
)

// --- users ---

type MockUserRepository struct {
	users     map[string]*domain.User
	nextID    int64
	CreateErr error
}

func newMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: map[string]*domain.User{}}
}

func (m *MockUserRepository) CreateUser(_ context.Context, user *domain.User) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.Email] = &cp
	return nil
}

func (m *MockUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// --- products ---

type MockProductRepository struct {
	mu        sync.Mutex
	products  map[int64]*domain.Product
	nextID    int64
	ListCalls int
	ListErr   error

	// AfterList runs once the list has been read, outside the lock
	AfterList func()
}

func newMockProductRepository(products ...*domain.Product) *MockProductRepository {
	m := &MockProductRepository{products: map[int64]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *MockProductRepository) ListProducts(context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	m.ListCalls++
	if m.ListErr != nil {
		m.mu.Unlock()
		return nil, m.ListErr
	}
	out := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	m.mu.Unlock()

	if m.AfterList != nil {
		m.AfterList()
	}
	return out, nil
}

func (m *MockProductRepository) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *MockProductRepository) CreateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.products[p.ID] = p
	return nil
}

func (m *MockProductRepository) UpdateProduct(_ context.Context, id int64, patch domain.ProductPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.PriceCents != nil {
		p.PriceCents = *patch.PriceCents
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Author != nil {
		p.Author = *patch.Author
	}
	if patch.AssetKey != nil {
		p.AssetKey = *patch.AssetKey
	}
	return nil
}

func (m *MockProductRepository) DeleteProduct(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

// --- orders ---

type MockOrderRepository struct {
	Created      []*domain.Order
	CreateErr    error
	MarkCalls    []string
	MarkResult   repository.MarkPaidResult
	MarkErr      error
	GetOrder     *domain.Order
	GetErr       error
	ListedOrders []*domain.Order
}

func (m *MockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	order.ID = int64(len(m.Created) + 1)
	m.Created = append(m.Created, order)
	return nil
}

func (m *MockOrderRepository) GetOrderBySessionID(context.Context, string) (*domain.Order, error) {
	return m.GetOrder, m.GetErr
}

func (m *MockOrderRepository) ListOrders(context.Context) ([]*domain.Order, error) {
	return m.ListedOrders, nil
}

func (m *MockOrderRepository) MarkOrderPaid(_ context.Context, sessionID, _ string) (repository.MarkPaidResult, error) {
	m.MarkCalls = append(m.MarkCalls, sessionID)
	return m.MarkResult, m.MarkErr
}

// --- payment processor ---

type MockProcessor struct {
	Params    *payment.SessionParams
	Session   *payment.Session
	CreateErr error
	Event     *payment.Event
	ParseErr  error
}

func (m *MockProcessor) CreateCheckoutSession(_ context.Context, params payment.SessionParams) (*payment.Session, error) {
	m.Params = &params
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return m.Session, nil
}

func (m *MockProcessor) ParseWebhook([]byte, string) (*payment.Event, error) {
	return m.Event, m.ParseErr
}

// --- presigner ---

type MockPresigner struct {
	Key         string
	ContentType string
	Expires     time.Duration
	Err         error
}

func (m *MockPresigner) PresignPut(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	m.Key, m.ContentType, m.Expires = key, contentType, expires
	if m.Err != nil {
		return "", m.Err
	}
	return "https://store.test/upload/" + key + "?sig=1", nil
}

func (m *MockPresigner) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// --- product cache ---

type MockProductCache struct {
	mu          sync.Mutex
	lists       map[int64][]*domain.Product
	generation  int64
	GetErr      error
	Invalidated int
}

func (m *MockProductCache) GetProducts(context.Context) ([]*domain.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, 0, m.GetErr
	}
	products, ok := m.lists[m.generation]
	if !ok {
		return nil, m.generation, cache.ErrCacheMiss
	}
	return products, m.generation, nil
}

func (m *MockProductCache) SetProducts(_ context.Context, generation int64, products []*domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lists == nil {
		m.lists = map[int64][]*domain.Product{}
	}
	m.lists[generation] = products
	return nil
}

func (m *MockProductCache) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated++
	delete(m.lists, m.generation)
	m.generation++
	return nil
}
