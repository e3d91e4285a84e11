// Package settlement composes cart totals and promo discounts into the final
// amount shown to the buyer and charged at checkout. The same pure pipeline
// runs on every cart view and again at authorization time; identical inputs
// must settle to the identical cent.
package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
	"github.com/kiosko-dev/backend-consign/internal/promo"
)

// Quote is the full settlement breakdown for a cart.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	Tax            decimal.Decimal `json:"tax"`
	PromoDiscount  decimal.Decimal `json:"promoDiscount"`
	Total          decimal.Decimal `json:"total"`
	HasBulkItems   bool            `json:"hasBulkItems"`
	HasNormalItems bool            `json:"hasNormalItems"`
	PromoCode      string          `json:"promoCode,omitempty"`
	PromoKind      promo.Kind      `json:"promoType,omitempty"`
	PromoNote      string          `json:"promoDescription,omitempty"`
}

// Settle computes the authoritative cart total. Order matters: a
// free-shipping code zeroes the delivery fee before tax is recomputed, while
// percentage and fixed discounts stay a final line item and never shrink the
// tax basis (tax follows delivery, not promotional discount).
func Settle(lines []pricing.Line, method pricing.DeliveryMethod, rates pricing.Rates, code *promo.Code, now time.Time) (Quote, error) {
	base, err := pricing.ComputeTotals(lines, method, rates)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{
		Subtotal:       base.Subtotal,
		DeliveryFee:    base.DeliveryFee,
		Tax:            base.Tax,
		PromoDiscount:  decimal.Zero,
		Total:          base.Total,
		HasBulkItems:   base.HasBulkItems,
		HasNormalItems: base.HasNormalItems,
	}
	if code == nil {
		return q, nil
	}

	applied, err := promo.Apply(*code, base, now)
	if err != nil {
		return Quote{}, err
	}
	q.PromoCode = code.Code
	q.PromoKind = applied.Kind
	q.PromoNote = applied.Description
	q.PromoDiscount = applied.Amount

	switch applied.Kind {
	case promo.KindFreeShipping:
		q.DeliveryFee = decimal.Zero
		q.Tax = pricing.Round2(q.Subtotal.Mul(rates.TaxRate))
		q.Total = q.Subtotal.Add(q.Tax)
	default:
		q.Tax = pricing.Round2(q.Subtotal.Add(q.DeliveryFee).Mul(rates.TaxRate))
		q.Total = q.Subtotal.Add(q.DeliveryFee).Add(q.Tax).Sub(applied.Amount)
	}
	return q, nil
}
