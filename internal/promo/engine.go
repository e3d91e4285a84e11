// Package promo implements promotional code validation and discount
// calculation. Codes are read-only inputs here; redeeming (the usage_count
// increment) happens in the store at order commit, atomically with order
// placement.
package promo

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

// Kind enumerates the supported discount strategies.
type Kind string

const (
	KindPercentage   Kind = "percentage"
	KindFixedAmount  Kind = "fixed_amount"
	KindFreeShipping Kind = "free_shipping"
)

// Rejections are expected business outcomes, not failures. Each carries a
// distinct reason code surfaced to the caller for user-facing messaging.
var (
	ErrNotFound     = errors.New("promo code not found")
	ErrInactive     = errors.New("promo code inactive")
	ErrNotStarted   = errors.New("promo code not yet active")
	ErrExpired      = errors.New("promo code expired")
	ErrLimitReached = errors.New("promo code usage limit reached")
)

// Reason maps a rejection error to its wire reason code. Non-rejection
// errors map to the empty string.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrLimitReached):
		return "limit_reached"
	default:
		return ""
	}
}

// Code is a promo code record as supplied by the promotions store.
type Code struct {
	Code       string
	Kind       Kind
	Value      decimal.Decimal
	Active     bool
	StartsAt   *time.Time
	EndsAt     *time.Time
	UsageLimit *int32
	UsedCount  int32
}

// Validate reports whether the code is applicable at the given instant.
// An exhausted usage limit rejects regardless of date validity.
func (c Code) Validate(now time.Time) error {
	if !c.Active {
		return ErrInactive
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrLimitReached
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return ErrNotStarted
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return ErrExpired
	}
	return nil
}

// Applied is the computed discount for a validated code.
type Applied struct {
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"type"`
	Description string          `json:"description"`
}

// Apply validates the code against the current instant and computes the
// discount over the pre-promo totals. Percentage and fixed discounts apply
// to the merchandise subtotal only; free shipping yields the current
// delivery fee so the caller can zero it out. Apply is pure, so re-applying
// the same code to the same totals cannot double-count.
func Apply(c Code, totals pricing.Totals, now time.Time) (Applied, error) {
	if err := c.Validate(now); err != nil {
		return Applied{}, err
	}
	switch c.Kind {
	case KindPercentage:
		amount := pricing.Round2(totals.Subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)))
		return Applied{
			Amount:      amount,
			Kind:        KindPercentage,
			Description: fmt.Sprintf("%s%% off", c.Value),
		}, nil
	case KindFixedAmount:
		amount := pricing.Round2(c.Value)
		if amount.GreaterThan(totals.Subtotal) {
			amount = totals.Subtotal
		}
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		return Applied{
			Amount:      amount,
			Kind:        KindFixedAmount,
			Description: fmt.Sprintf("$%s off", amount),
		}, nil
	case KindFreeShipping:
		return Applied{
			Amount:      totals.DeliveryFee,
			Kind:        KindFreeShipping,
			Description: "Free delivery",
		}, nil
	default:
		return Applied{}, fmt.Errorf("unknown promo kind %q: %w", c.Kind, pricing.ErrInvalidInput)
	}
}
