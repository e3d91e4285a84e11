package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kiosko-dev/backend-consign/internal/common"
	"github.com/kiosko-dev/backend-consign/internal/pricing"
	"github.com/kiosko-dev/backend-consign/internal/promo"
)

var cartNow = time.Date(2025, time.April, 2, 15, 0, 0, 0, time.UTC)

type stubLines struct {
	lines []StoredLine
	err   error
}

func (s stubLines) Lines(_ context.Context, _ uuid.UUID) ([]StoredLine, error) {
	return s.lines, s.err
}

type stubPromos struct {
	rec promo.Record
	err error
}

func (s stubPromos) Resolve(_ context.Context, _ string, _ time.Time) (promo.Record, error) {
	return s.rec, s.err
}

func activeListing(price int64, ageDays int) pricing.Listing {
	return pricing.Listing{
		ID:           uuid.New(),
		Price:        decimal.NewFromInt(price),
		ScheduleType: pricing.ScheduleClassic60,
		Status:       "active",
		CreatedAt:    cartNow.AddDate(0, 0, -ageDays),
	}
}

func newService(store LineSource, promos PromoResolver) *Service {
	return &Service{
		Store:  store,
		Promos: promos,
		Rates:  pricing.DefaultRates(),
		Now:    func() time.Time { return cartNow },
		Logger: zerolog.Nop(),
	}
}

func TestQuoteRepricesLinesAtOneInstant(t *testing.T) {
	// A week-old listing has dropped to 90% by quote time.
	store := stubLines{lines: []StoredLine{
		{Qty: 2, Listing: activeListing(100, 7)},
		{Qty: 1, Listing: activeListing(40, 0)},
	}}
	svc := newService(store, stubPromos{})

	result, err := svc.Quote(context.Background(), uuid.New(), pricing.DeliveryCourier, "")
	require.NoError(t, err)
	require.True(t, result.Quote.Subtotal.Equal(decimal.RequireFromString("220.00")), "got %s", result.Quote.Subtotal)
	require.True(t, result.Quote.DeliveryFee.IsZero(), "subtotal above threshold rides free")
	require.Equal(t, cartNow, result.PricedAt)
}

func TestQuoteEmptyCart(t *testing.T) {
	svc := newService(stubLines{}, stubPromos{})
	_, err := svc.Quote(context.Background(), uuid.New(), pricing.DeliveryCourier, "")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, "CART_EMPTY", appErr.Code)
}

func TestQuoteExpiredListingBlocks(t *testing.T) {
	stale := activeListing(100, 75)
	svc := newService(stubLines{lines: []StoredLine{{Qty: 1, Listing: stale}}}, stubPromos{})
	_, err := svc.Quote(context.Background(), uuid.New(), pricing.DeliveryCourier, "")
	require.ErrorIs(t, err, ErrListingUnavailable)
}

func TestQuoteInactiveListingBlocks(t *testing.T) {
	sold := activeListing(100, 1)
	sold.Status = "sold"
	svc := newService(stubLines{lines: []StoredLine{{Qty: 1, Listing: sold}}}, stubPromos{})
	_, err := svc.Quote(context.Background(), uuid.New(), pricing.DeliveryCourier, "")
	require.ErrorIs(t, err, ErrListingUnavailable)
}

func TestQuoteAppliesFreeShippingPromo(t *testing.T) {
	store := stubLines{lines: []StoredLine{{Qty: 1, Listing: activeListing(80, 0)}}}
	promos := stubPromos{rec: promo.Record{
		ID:   uuid.New(),
		Code: promo.Code{Code: "SHIPFREE", Kind: promo.KindFreeShipping, Active: true},
	}}
	svc := newService(store, promos)

	result, err := svc.Quote(context.Background(), uuid.New(), pricing.DeliveryCourier, "SHIPFREE")
	require.NoError(t, err)
	require.True(t, result.Quote.DeliveryFee.IsZero())
	require.True(t, result.Quote.PromoDiscount.Equal(decimal.RequireFromString("50.00")))
	require.True(t, result.Quote.Tax.Equal(decimal.RequireFromString("6.60")), "tax recomputed on subtotal only, got %s", result.Quote.Tax)
	require.NotNil(t, result.Promo)
	require.Equal(t, "SHIPFREE", result.Promo.Code.Code)
}

func TestQuotePromoRejectionPropagates(t *testing.T) {
	store := stubLines{lines: []StoredLine{{Qty: 1, Listing: activeListing(80, 0)}}}
	svc := newService(store, stubPromos{err: promo.ErrExpired})
	_, err := svc.Quote(context.Background(), uuid.New(), pricing.DeliveryCourier, "OLD")
	require.ErrorIs(t, err, promo.ErrExpired)
	require.Equal(t, "expired", promo.Reason(err))
}

func TestQuoteAtIsDeterministic(t *testing.T) {
	listing := activeListing(120, 14)
	store := stubLines{lines: []StoredLine{{Qty: 1, Listing: listing}}}
	svc := newService(store, stubPromos{})

	first, err := svc.QuoteAt(context.Background(), uuid.New(), pricing.DeliveryCourier, "", cartNow)
	require.NoError(t, err)
	second, err := svc.QuoteAt(context.Background(), uuid.New(), pricing.DeliveryCourier, "", cartNow)
	require.NoError(t, err)
	require.True(t, first.Quote.Total.Equal(second.Quote.Total))
	require.Equal(t, first.Quote, second.Quote)
}
