package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/auth"
	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/service"
)

type MockVerifier struct {
	claims map[string]*auth.Claims
}

func (m MockVerifier) Verify(token string) (*auth.Claims, error) {
	if c, ok := m.claims[token]; ok {
		return c, nil
	}
	return nil, &service.Error{Kind: service.ErrUnauthorized, Message: "invalid or expired token"}
}

type MockCatalog struct {
	products  []*domain.Product
	err       error
	created   *service.ProductInput
	updatedID int64
	updated   *service.ProductUpdate
	deletedID int64
}

func (m *MockCatalog) ListProducts(context.Context) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m *MockCatalog) CreateProduct(_ context.Context, in service.ProductInput) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = &in
	cents, _ := domain.PriceToCents(*in.Price)
	return &domain.Product{ID: 7, Title: in.Title, PriceCents: cents, AssetKey: in.AssetKey}, nil
}

func (m *MockCatalog) UpdateProduct(_ context.Context, id int64, in service.ProductUpdate) error {
	m.updatedID = id
	m.updated = &in
	return m.err
}

func (m *MockCatalog) DeleteProduct(_ context.Context, id int64) error {
	m.deletedID = id
	return m.err
}

type MockCheckout struct {
	req        *service.CheckoutRequest
	result     *service.CheckoutResult
	webhook    *service.WebhookResult
	payload    []byte
	signature  string
	createErr  error
	webhookErr error
}

func (m *MockCheckout) CreateCheckoutSession(_ context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	m.req = &req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.result, nil
}

func (m *MockCheckout) HandleWebhook(_ context.Context, payload []byte, signature string) (*service.WebhookResult, error) {
	m.payload = payload
	m.signature = signature
	if m.webhookErr != nil {
		return nil, m.webhookErr
	}
	return m.webhook, nil
}

type MockOrders struct {
	orders []*domain.Order
	err    error
}

func (m MockOrders) GetOrder(_ context.Context, sessionID string) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.SessionID == sessionID {
			return o, nil
		}
	}
	return nil, &service.Error{Kind: service.ErrNotFound, Message: "order not found"}
}

func (m MockOrders) ListOrders(context.Context) ([]*domain.Order, error) {
	return m.orders, m.err
}

// FakePresigner signs nothing; URLs are derived from the key.
type FakePresigner struct {
	err error
}

func (f FakePresigner) PresignPut(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if contentType == "" || expires <= 0 {
		return "", errors.New("bad presign request")
	}
	return "https://store.test/assets/" + key + "?X-Amz-Expires=" + strconv.Itoa(int(expires.Seconds())), nil
}

func (f FakePresigner) PublicURL(key string) string {
	return "https://cdn.test/" + key
}
