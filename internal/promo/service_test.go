package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

type stubReader struct {
	rec Record
	err error
}

func (s stubReader) GetByCode(_ context.Context, _ string) (Record, error) {
	return s.rec, s.err
}

var svcNow = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return svcNow }

func TestServicePreviewPercentage(t *testing.T) {
	rec := Record{Code: Code{
		Code:   "SPRING15",
		Kind:   KindPercentage,
		Value:  decimal.NewFromInt(15),
		Active: true,
	}}
	svc := &Service{Store: stubReader{rec: rec}, Now: fixedClock}

	totals := pricing.Totals{
		Subtotal:    decimal.RequireFromString("80.00"),
		DeliveryFee: decimal.RequireFromString("50.00"),
	}
	result, err := svc.Preview(context.Background(), "SPRING15", totals)
	require.NoError(t, err)
	require.Equal(t, "SPRING15", result.Code)
	require.True(t, result.Discount.Equal(decimal.RequireFromString("12.00")),
		"discount should cover the subtotal only, got %s", result.Discount)
}

func TestServicePreviewRejections(t *testing.T) {
	limit := int32(5)
	past := svcNow.Add(-time.Hour)
	cases := []struct {
		name string
		rec  Record
		err  error
		want error
	}{
		{name: "missing", err: ErrNotFound, want: ErrNotFound},
		{name: "inactive", rec: Record{Code: Code{Code: "X", Kind: KindPercentage, Value: decimal.NewFromInt(10)}}, want: ErrInactive},
		{name: "exhausted", rec: Record{Code: Code{Code: "X", Kind: KindPercentage, Value: decimal.NewFromInt(10), Active: true, UsageLimit: &limit, UsedCount: 5}}, want: ErrLimitReached},
		{name: "expired", rec: Record{Code: Code{Code: "X", Kind: KindPercentage, Value: decimal.NewFromInt(10), Active: true, EndsAt: &past}}, want: ErrExpired},
	}
	totals := pricing.Totals{Subtotal: decimal.NewFromInt(100)}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &Service{Store: stubReader{rec: tc.rec, err: tc.err}, Now: fixedClock}
			_, err := svc.Preview(context.Background(), "X", totals)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestServicePreviewBlankCode(t *testing.T) {
	svc := &Service{Store: stubReader{}, Now: fixedClock}
	_, err := svc.Preview(context.Background(), "   ", pricing.Totals{Subtotal: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServicePreviewPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	svc := &Service{Store: stubReader{err: boom}, Now: fixedClock}
	_, err := svc.Preview(context.Background(), "SPRING15", pricing.Totals{Subtotal: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, boom)
	require.Empty(t, Reason(err), "infrastructure failures must not map to a rejection reason")
}
