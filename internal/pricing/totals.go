package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryMethod selects the fulfilment tier for a cart.
type DeliveryMethod string

const (
	DeliveryPickup  DeliveryMethod = "pickup"
	DeliveryCourier DeliveryMethod = "delivery"
)

// Line is one cart line: a resolved per-unit price at read time, a quantity
// and the bulk/normal delivery classification of the listing.
type Line struct {
	ListingID uuid.UUID       `json:"listingId"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Bulk      bool            `json:"isBulk"`
}

// Totals is the pre-promo settlement breakdown for a cart.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	HasBulkItems   bool            `json:"hasBulkItems"`
	HasNormalItems bool            `json:"hasNormalItems"`
}

// ComputeTotals calculates subtotal, delivery fee, tax and total for the
// given lines. Pickup is always free; delivery is free from the threshold
// upward, otherwise a single bulk line forces the bulk tier for the whole
// cart. Tax applies to merchandise plus delivery.
func ComputeTotals(lines []Line, method DeliveryMethod, r Rates) (Totals, error) {
	if method != DeliveryPickup && method != DeliveryCourier {
		return Totals{}, fmt.Errorf("unknown delivery method %q: %w", method, ErrInvalidInput)
	}

	var t Totals
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Qty <= 0 {
			return Totals{}, fmt.Errorf("line %s has non-positive quantity %d: %w", line.ListingID, line.Qty, ErrInvalidInput)
		}
		if line.UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("line %s has negative unit price: %w", line.ListingID, ErrInvalidInput)
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))))
		if line.Bulk {
			t.HasBulkItems = true
		} else {
			t.HasNormalItems = true
		}
	}

	t.Subtotal = Round2(subtotal)
	t.DeliveryFee = deliveryFee(t, method, r)
	t.Tax = Round2(t.Subtotal.Add(t.DeliveryFee).Mul(r.TaxRate))
	t.Total = t.Subtotal.Add(t.DeliveryFee).Add(t.Tax)
	return t, nil
}

func deliveryFee(t Totals, method DeliveryMethod, r Rates) decimal.Decimal {
	if method == DeliveryPickup {
		return decimal.Zero
	}
	if t.Subtotal.GreaterThanOrEqual(r.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	if t.HasBulkItems {
		return r.BulkDeliveryFee
	}
	return r.StandardDeliveryFee
}
