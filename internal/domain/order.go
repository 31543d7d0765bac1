package domain

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var ErrAmountTooLarge = errors.New("order amount exceeds the supported maximum")

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderStatusPending && next == OrderStatusPaid
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ProductID      int64  `json:"product_id"`
	Title          string `json:"title"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type Order struct {
	ID               int64
	SessionID        string
	CustomerEmail    string
	Status           OrderStatus
	Items            []OrderItem
	AmountTotalCents int64
	Currency         string
	CreatedAt        time.Time
	PaidAt           *time.Time
}

// Total sums the line amounts in minor units. A sum that does not fit in an
// int64 is an error, never a wrapped value.
func (o *Order) Total() (int64, error) {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(decimal.NewFromInt(it.UnitPriceCents).Mul(decimal.NewFromInt(it.Quantity)))
	}
	if total.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrAmountTooLarge
	}
	return total.IntPart(), nil
}
