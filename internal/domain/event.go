package domain

import "time"

const EventTypeOrderPaid = "order.paid"

// OrderPaidEvent is the payload published when an order reaches the paid state.
type OrderPaidEvent struct {
	OrderID          int64       `json:"order_id"`
	SessionID        string      `json:"session_id"`
	CustomerEmail    string      `json:"customer_email,omitempty"`
	Items            []OrderItem `json:"items"`
	AmountTotalCents int64       `json:"amount_total_cents"`
	Currency         string      `json:"currency"`
	PaidAt           time.Time   `json:"paid_at"`
}
