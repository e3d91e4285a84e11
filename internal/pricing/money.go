package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput marks caller contract violations (missing price, negative
// quantity, malformed schedule table). These are bugs, never coerced to zero.
var ErrInvalidInput = errors.New("invalid pricing input")

// Round2 normalises a monetary amount to cents, rounding half away from zero.
// Every engine output passes through this exactly once, at the end of the
// calculation; intermediate values are never rounded.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Rates carries the pricing constants used by totals and settlement. It is
// loaded once from configuration and passed by value so call sites never read
// shared mutable tables.
type Rates struct {
	TaxRate               decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	StandardDeliveryFee   decimal.Decimal
	BulkDeliveryFee       decimal.Decimal
}

// DefaultRates returns the production defaults: 8.25% tax, free delivery at
// $150, $50 standard and $100 bulk delivery fee.
func DefaultRates() Rates {
	return Rates{
		TaxRate:               decimal.RequireFromString("0.0825"),
		FreeDeliveryThreshold: decimal.NewFromInt(150),
		StandardDeliveryFee:   decimal.NewFromInt(50),
		BulkDeliveryFee:       decimal.NewFromInt(100),
	}
}
