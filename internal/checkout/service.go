// Package checkout authorizes orders. The cart is re-settled server-side at
// authorization time and compared against the total the buyer saw; any drift
// beyond the configured epsilon aborts the order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/cart"
	"github.com/kiosko-dev/backend-consign/internal/obs"
	"github.com/kiosko-dev/backend-consign/internal/pricing"
	"github.com/kiosko-dev/backend-consign/internal/promo"
)

// ErrTotalsMismatch reports that the recomputed total no longer matches what
// the buyer was shown.
var ErrTotalsMismatch = errors.New("cart totals changed")

// Quoter produces a settlement quote at a fixed instant.
type Quoter interface {
	QuoteAt(ctx context.Context, cartID uuid.UUID, method pricing.DeliveryMethod, promoCode string, now time.Time) (cart.QuoteResult, error)
}

// OrderWriter persists an authorized order, redeeming the promo in the same
// transaction when one was applied.
type OrderWriter interface {
	CreateOrder(ctx context.Context, o Order, method pricing.DeliveryMethod, rec *promo.Record) error
}

// AuthorizeInput is the validated authorization request.
type AuthorizeInput struct {
	CartID         uuid.UUID
	DeliveryMethod pricing.DeliveryMethod
	PromoCode      string
	DisplayedTotal decimal.Decimal
}

// Order is the persisted authorization result.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	CartID        uuid.UUID       `json:"cartId"`
	Currency      string          `json:"currency"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	Tax           decimal.Decimal `json:"tax"`
	PromoDiscount decimal.Decimal `json:"promoDiscount"`
	Total         decimal.Decimal `json:"total"`
	PromoCode     string          `json:"promoCode,omitempty"`
	Status        string          `json:"status"`
	PricedAt      time.Time       `json:"pricedAt"`
}

// Service runs the authorization pipeline.
type Service struct {
	Carts    Quoter
	Orders   OrderWriter
	Epsilon  decimal.Decimal
	Currency string
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Authorize settles the cart fresh, verifies the buyer-displayed total and
// persists the order.
func (s *Service) Authorize(ctx context.Context, in AuthorizeInput) (Order, error) {
	now := s.now()
	result, err := s.Carts.QuoteAt(ctx, in.CartID, in.DeliveryMethod, in.PromoCode, now)
	if err != nil {
		return Order{}, err
	}

	q := result.Quote
	if q.Total.Sub(in.DisplayedTotal).Abs().GreaterThan(s.Epsilon) {
		obs.CountSettlementMismatch()
		s.Logger.Warn().
			Str("cart_id", in.CartID.String()).
			Str("displayed", in.DisplayedTotal.StringFixed(2)).
			Str("settled", q.Total.StringFixed(2)).
			Msg("checkout total mismatch")
		return Order{}, fmt.Errorf("displayed %s, settled %s: %w",
			in.DisplayedTotal.StringFixed(2), q.Total.StringFixed(2), ErrTotalsMismatch)
	}

	order := Order{
		ID:            uuid.New(),
		CartID:        in.CartID,
		Currency:      s.Currency,
		Subtotal:      q.Subtotal,
		DeliveryFee:   q.DeliveryFee,
		Tax:           q.Tax,
		PromoDiscount: q.PromoDiscount,
		Total:         q.Total,
		PromoCode:     q.PromoCode,
		Status:        "AUTHORIZED",
		PricedAt:      result.PricedAt,
	}
	if err := s.Orders.CreateOrder(ctx, order, in.DeliveryMethod, result.Promo); err != nil {
		return Order{}, err
	}
	return order, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
