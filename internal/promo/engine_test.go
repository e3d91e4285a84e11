package promo

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

var now = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func activeCode(kind Kind, value string) Code {
	from := now.Add(-24 * time.Hour)
	to := now.Add(24 * time.Hour)
	return Code{
		Code:     "SPRING",
		Kind:     kind,
		Value:    decimal.RequireFromString(value),
		Active:   true,
		StartsAt: &from,
		EndsAt:   &to,
	}
}

func totalsFixture(subtotal, fee string) pricing.Totals {
	return pricing.Totals{
		Subtotal:    decimal.RequireFromString(subtotal),
		DeliveryFee: decimal.RequireFromString(fee),
	}
}

func TestApplyPercentage(t *testing.T) {
	applied, err := Apply(activeCode(KindPercentage, "15"), totalsFixture("80", "50"), now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !applied.Amount.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("expected 12.00 off, got %s", applied.Amount)
	}
}

func TestApplyPercentageIgnoresDeliveryAndTax(t *testing.T) {
	totals := totalsFixture("100", "100")
	totals.Tax = decimal.RequireFromString("16.50")
	applied, err := Apply(activeCode(KindPercentage, "10"), totals, now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !applied.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("percentage must apply to subtotal only, got %s", applied.Amount)
	}
}

func TestApplyFixedAmountCappedAtSubtotal(t *testing.T) {
	applied, err := Apply(activeCode(KindFixedAmount, "25"), totalsFixture("10", "0"), now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !applied.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("fixed amount must be capped at subtotal, got %s", applied.Amount)
	}
}

func TestApplyFreeShippingYieldsCurrentFee(t *testing.T) {
	applied, err := Apply(activeCode(KindFreeShipping, "0"), totalsFixture("80", "50"), now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !applied.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected the delivery fee as the discount, got %s", applied.Amount)
	}
}

func TestValidateRejections(t *testing.T) {
	limit := int32(5)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	cases := []struct {
		name   string
		mutate func(*Code)
		want   error
		reason string
	}{
		{"inactive", func(c *Code) { c.Active = false }, ErrInactive, "inactive"},
		{"not started", func(c *Code) { c.StartsAt = &future }, ErrNotStarted, "not_started"},
		{"expired", func(c *Code) { c.EndsAt = &past }, ErrExpired, "expired"},
		{"limit reached", func(c *Code) { c.UsageLimit = &limit; c.UsedCount = 5 }, ErrLimitReached, "limit_reached"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := activeCode(KindPercentage, "10")
			tc.mutate(&code)
			_, err := Apply(code, totalsFixture("100", "0"), now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if Reason(err) != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, Reason(err))
			}
		})
	}
}

func TestLimitReachedWinsOverDates(t *testing.T) {
	limit := int32(1)
	code := activeCode(KindPercentage, "10")
	code.UsageLimit = &limit
	code.UsedCount = 1
	past := now.Add(-time.Hour)
	code.EndsAt = &past // also expired
	_, err := Apply(code, totalsFixture("100", "0"), now)
	if !errors.Is(err, ErrLimitReached) {
		t.Fatalf("limit_reached must win regardless of date validity, got %v", err)
	}
}

func TestReasonUnknownError(t *testing.T) {
	if Reason(errors.New("boom")) != "" {
		t.Fatal("non-rejection errors must not map to a reason code")
	}
}
