package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MaxPriceCents is the largest unit price the payment processor accepts (999,999.99).
const MaxPriceCents = 99_999_999

var (
	ErrNegativePrice = errors.New("price must not be negative")
	ErrPriceTooLarge = errors.New("price exceeds the supported maximum")
)

type Product struct {
	ID          int64
	Title       string
	PriceCents  int64
	Description string
	Author      string
	AssetKey    string
	CreatedAt   time.Time
}

// ProductPatch carries a partial update. Nil fields keep the stored value,
// non-nil fields overwrite it, including with an empty string.
type ProductPatch struct {
	Title       *string
	PriceCents  *int64
	Description *string
	Author      *string
	AssetKey    *string
}

func (p ProductPatch) IsEmpty() bool {
	return p.Title == nil && p.PriceCents == nil && p.Description == nil && p.Author == nil && p.AssetKey == nil
}

// PriceToCents converts a major-unit price to minor units, rounding half away from zero.
func PriceToCents(price decimal.Decimal) (int64, error) {
	if price.IsNegative() {
		return 0, ErrNegativePrice
	}
	cents := price.Shift(2).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(MaxPriceCents)) {
		return 0, ErrPriceTooLarge
	}
	return cents.IntPart(), nil
}

// FormatCents renders minor units as a two-decimal major-unit string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
