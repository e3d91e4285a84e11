package settlement

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
	"github.com/kiosko-dev/backend-consign/internal/promo"
)

var now = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func lines(price string, qty int, bulk bool) []pricing.Line {
	return []pricing.Line{{
		ListingID: uuid.New(),
		Qty:       qty,
		UnitPrice: decimal.RequireFromString(price),
		Bulk:      bulk,
	}}
}

func code(kind promo.Kind, value string) *promo.Code {
	return &promo.Code{
		Code:   "TESTCODE",
		Kind:   kind,
		Value:  decimal.RequireFromString(value),
		Active: true,
	}
}

func eq(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "%s: got %s want %s", label, got, want)
}

func TestSettleWithoutPromo(t *testing.T) {
	q, err := Settle(lines("100", 1, false), pricing.DeliveryCourier, pricing.DefaultRates(), nil, now)
	require.NoError(t, err)
	eq(t, q.Subtotal, "100", "subtotal")
	eq(t, q.DeliveryFee, "50", "fee")
	eq(t, q.Tax, "12.38", "tax")
	eq(t, q.PromoDiscount, "0", "discount")
	eq(t, q.Total, "162.38", "total")
}

func TestSettleFreeShippingEndToEnd(t *testing.T) {
	q, err := Settle(lines("80", 1, false), pricing.DeliveryCourier, pricing.DefaultRates(), code(promo.KindFreeShipping, "0"), now)
	require.NoError(t, err)
	// Base fee $50 is waived, tax recomputed on merchandise alone.
	eq(t, q.DeliveryFee, "0", "fee")
	eq(t, q.PromoDiscount, "50", "discount")
	eq(t, q.Tax, "6.60", "tax")
	eq(t, q.Total, "86.60", "total")
}

func TestSettlePercentageKeepsTaxBasis(t *testing.T) {
	q, err := Settle(lines("100", 1, false), pricing.DeliveryCourier, pricing.DefaultRates(), code(promo.KindPercentage, "20"), now)
	require.NoError(t, err)
	// Tax stays on the pre-discount merchandise value plus delivery.
	eq(t, q.Tax, "12.38", "tax")
	eq(t, q.PromoDiscount, "20", "discount")
	eq(t, q.Total, "142.38", "total")
}

func TestSettleFixedAmountNeverNegative(t *testing.T) {
	q, err := Settle(lines("10", 1, false), pricing.DeliveryPickup, pricing.DefaultRates(), code(promo.KindFixedAmount, "25"), now)
	require.NoError(t, err)
	eq(t, q.PromoDiscount, "10", "discount")
	require.False(t, q.Total.IsNegative(), "total went negative: %s", q.Total)
	// 10 + 0 + 0.83 tax - 10 discount
	eq(t, q.Total, "0.83", "total")
}

func TestSettleRejectedPromoPropagates(t *testing.T) {
	c := code(promo.KindPercentage, "10")
	c.Active = false
	_, err := Settle(lines("100", 1, false), pricing.DeliveryCourier, pricing.DefaultRates(), c, now)
	require.True(t, errors.Is(err, promo.ErrInactive), "got %v", err)
	require.Equal(t, "inactive", promo.Reason(err))
}

func TestSettleCartCheckoutParity(t *testing.T) {
	// The cart view and the authorization path run the same function with the
	// same inputs; the totals must match to the cent, bit for bit.
	input := lines("33.33", 3, true)
	c := code(promo.KindPercentage, "15")
	view, err := Settle(input, pricing.DeliveryCourier, pricing.DefaultRates(), c, now)
	require.NoError(t, err)
	authorize, err := Settle(input, pricing.DeliveryCourier, pricing.DefaultRates(), c, now)
	require.NoError(t, err)
	require.True(t, view.Total.Equal(authorize.Total))
	require.Equal(t, view.Total.String(), authorize.Total.String())
}

func TestSettleInvalidLinesFailLoudly(t *testing.T) {
	_, err := Settle(lines("100", -1, false), pricing.DeliveryCourier, pricing.DefaultRates(), nil, now)
	require.True(t, errors.Is(err, pricing.ErrInvalidInput), "got %v", err)
}
