package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strconv"
	"strings"

	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/payment"
	"github.com/Goodnews119/Marketplacesite/internal/repository"
)

const (
	maxItemQuantity = 99
	// processor metadata values are capped at 500 characters
	maxMetadataValueLen = 500
)

type CheckoutService struct {
	products  repository.ProductRepository
	orders    repository.OrderRepository
	processor payment.Processor
	currency  string
}

func NewCheckoutService(products repository.ProductRepository, orders repository.OrderRepository, processor payment.Processor, currency string) *CheckoutService {
	return &CheckoutService{
		products:  products,
		orders:    orders,
		processor: processor,
		currency:  strings.ToLower(currency),
	}
}

type CheckoutItem struct {
	ProductID int64
	Quantity  int64
}

type CheckoutRequest struct {
	Items         []CheckoutItem
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
}

type CheckoutResult struct {
	SessionID string
	URL       string
}

type WebhookResult struct {
	EventType string
	Updated   bool
	Duplicate bool
}

// CreateCheckoutSession prices the requested items from the catalog, opens a
// hosted checkout session and records a pending order for it.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	items, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	total, err := (&domain.Order{Items: items}).Total()
	if err != nil {
		return nil, badRequest("order total is too large")
	}

	lineItems := make([]payment.LineItem, len(items))
	for i, it := range items {
		lineItems[i] = payment.LineItem{Name: it.Title, UnitAmount: it.UnitPriceCents, Quantity: it.Quantity}
	}

	session, err := s.processor.CreateCheckoutSession(ctx, payment.SessionParams{
		LineItems:     lineItems,
		Currency:      s.currency,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
		Metadata:      sessionMetadata(items),
	})
	if err != nil {
		slog.ErrorContext(ctx, "payment processor rejected checkout session", "err", err)
		return nil, wrapError(ErrUpstreamFailure, "could not create checkout session", err)
	}

	order := &domain.Order{
		SessionID:        session.ID,
		CustomerEmail:    req.CustomerEmail,
		Status:           domain.OrderStatusPending,
		Items:            items,
		AmountTotalCents: total,
		Currency:         s.currency,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("record pending order for session %s: %w", session.ID, err)
	}

	slog.InfoContext(ctx, "checkout session created",
		"session_id", session.ID, "order_id", order.ID, "amount_total_cents", order.AmountTotalCents)
	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// HandleWebhook authenticates a processor callback and applies it. Only
// checkout.session.completed changes state; everything else is acknowledged.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	event, err := s.processor.ParseWebhook(payload, signatureHeader)
	if err != nil {
		return nil, wrapError(ErrSignatureInvalid, "webhook signature verification failed", err)
	}

	result := &WebhookResult{EventType: event.Type}
	if event.Type != payment.EventCheckoutSessionCompleted {
		slog.DebugContext(ctx, "ignoring webhook event", "event_id", event.ID, "type", event.Type)
		return result, nil
	}
	if event.SessionID == "" {
		return nil, badRequest("checkout.session.completed event without a session id")
	}

	res, err := s.orders.MarkOrderPaid(ctx, event.SessionID, event.ID)
	if err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	result.Updated = res.Updated
	result.Duplicate = res.Duplicate

	switch {
	case res.Duplicate:
		slog.InfoContext(ctx, "webhook event already processed", "event_id", event.ID)
	case res.Updated:
		slog.InfoContext(ctx, "order marked paid", "session_id", event.SessionID, "event_id", event.ID)
	default:
		slog.WarnContext(ctx, "no pending order for completed session", "session_id", event.SessionID)
	}
	return result, nil
}

func (s *CheckoutService) GetOrder(ctx context.Context, sessionID string) (*domain.Order, error) {
	order, err := s.orders.GetOrderBySessionID(ctx, sessionID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, newError(ErrNotFound, "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *CheckoutService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func validateCheckoutRequest(req CheckoutRequest) error {
	if len(req.Items) == 0 {
		return badRequest("items must not be empty")
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		return badRequest("successUrl and cancelUrl are required")
	}
	if req.CustomerEmail != "" {
		if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
			return badRequest("invalid customerEmail")
		}
	}
	for _, it := range req.Items {
		if it.ProductID <= 0 {
			return badRequest("product_id must be positive")
		}
		if it.Quantity < 1 || it.Quantity > maxItemQuantity {
			return badRequest("quantity must be between 1 and %d", maxItemQuantity)
		}
	}
	return nil
}

// priceItems merges duplicate product ids and takes titles and prices from
// the catalog; whatever the client claimed about price is never consulted.
func (s *CheckoutService) priceItems(ctx context.Context, requested []CheckoutItem) ([]domain.OrderItem, error) {
	quantities := make(map[int64]int64, len(requested))
	var ids []int64
	for _, it := range requested {
		if _, seen := quantities[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		quantities[it.ProductID] += it.Quantity
	}

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(ids))
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, badRequest("product %d does not exist", id)
		}
		if quantities[id] > maxItemQuantity {
			return nil, badRequest("quantity must be between 1 and %d", maxItemQuantity)
		}
		items = append(items, domain.OrderItem{
			ProductID:      p.ID,
			Title:          p.Title,
			Quantity:       quantities[id],
			UnitPriceCents: p.PriceCents,
		})
	}
	return items, nil
}

// sessionMetadata renders items as "id:qty" pairs for the processor. The full
// line items live on the order row.
func sessionMetadata(items []domain.OrderItem) map[string]string {
	pairs := make([]string, len(items))
	for i, it := range items {
		pairs[i] = strconv.FormatInt(it.ProductID, 10) + ":" + strconv.FormatInt(it.Quantity, 10)
	}
	sort.Strings(pairs)

	joined := strings.Join(pairs, ",")
	if len(joined) > maxMetadataValueLen {
		return nil
	}
	return map[string]string{"items": joined}
}
