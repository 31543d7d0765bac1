package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/go-chi/chi/v5"
)

type OrderLookup interface {
	GetOrder(ctx context.Context, sessionID string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderLookup
	timeout time.Duration
}

func NewOrdersHandler(orders OrderLookup, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	ProductID      int64  `json:"product_id"`
	Title          string `json:"title"`
	Quantity       int64  `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type OrderResponseDTO struct {
	ID               int64          `json:"id"`
	SessionID        string         `json:"session_id"`
	CustomerEmail    string         `json:"customer_email,omitempty"`
	Status           string         `json:"status"`
	Items            []OrderItemDTO `json:"items"`
	AmountTotal      string         `json:"amount_total"`
	AmountTotalCents int64          `json:"amount_total_cents"`
	Currency         string         `json:"currency"`
	CreatedAt        time.Time      `json:"created_at"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
}

// OrderStatusDTO is what an anonymous buyer sees on the success page.
type OrderStatusDTO struct {
	SessionID   string     `json:"session_id"`
	Status      string     `json:"status"`
	AmountTotal string     `json:"amount_total"`
	Currency    string     `json:"currency"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// GET /api/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	res := make([]OrderResponseDTO, len(orders))
	for i, o := range orders {
		res[i] = convertOrder(o)
	}
	respondJSON(w, http.StatusOK, res)
}

// GET /api/orders/{session_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "session_id is required")
		return
	}

	o, err := h.orders.GetOrder(ctx, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderStatusDTO{
		SessionID:   o.SessionID,
		Status:      o.Status.String(),
		AmountTotal: domain.FormatCents(o.AmountTotalCents),
		Currency:    o.Currency,
		PaidAt:      o.PaidAt,
	})
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemDTO{
			ProductID:      it.ProductID,
			Title:          it.Title,
			Quantity:       it.Quantity,
			UnitPrice:      domain.FormatCents(it.UnitPriceCents),
			UnitPriceCents: it.UnitPriceCents,
		}
	}

	return OrderResponseDTO{
		ID:               o.ID,
		SessionID:        o.SessionID,
		CustomerEmail:    o.CustomerEmail,
		Status:           o.Status.String(),
		Items:            items,
		AmountTotal:      domain.FormatCents(o.AmountTotalCents),
		AmountTotalCents: o.AmountTotalCents,
		Currency:         o.Currency,
		CreatedAt:        o.CreatedAt,
		PaidAt:           o.PaidAt,
	}
}
