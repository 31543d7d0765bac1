package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/service"
)

// Stripe sends events well below this size.
const maxWebhookBodySize = 64 << 10

type Checkout interface {
	CreateCheckoutSession(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*service.WebhookResult, error)
}

type CheckoutHandler struct {
	checkout Checkout
	timeout  time.Duration
}

func NewCheckoutHandler(checkout Checkout, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CheckoutItemDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Client prices, if sent, are ignored; amounts come from the catalog.
type CreateCheckoutSessionRequestDTO struct {
	Items         []CheckoutItemDTO `json:"items"`
	SuccessURL    string            `json:"successUrl"`
	CancelURL     string            `json:"cancelUrl"`
	CustomerEmail string            `json:"customerEmail"`
}

type CheckoutSessionResponseDTO struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

type WebhookResponseDTO struct {
	Received bool `json:"received"`
}

// POST /api/create-checkout-session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateCheckoutSessionRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]service.CheckoutItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	res, err := h.checkout.CreateCheckoutSession(ctx, service.CheckoutRequest{
		Items:         items,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CheckoutSessionResponseDTO{URL: res.URL, ID: res.SessionID})
}

// POST /api/webhooks/stripe
// The signature covers the exact bytes received, so the body is read raw.
func (h *CheckoutHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "bad_request", "could not read request body")
		return
	}

	res, err := h.checkout.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrSignatureInvalid) {
			slog.WarnContext(ctx, "rejected webhook", "request_id", getRequestID(r.Context()), "err", err)
		}
		handleServiceError(w, r, err)
		return
	}

	slog.DebugContext(ctx, "webhook handled",
		"type", res.EventType, "updated", res.Updated, "duplicate", res.Duplicate)
	respondJSON(w, http.StatusOK, WebhookResponseDTO{Received: true})
}
