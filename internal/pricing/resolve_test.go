package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func listingFixture(price string) Listing {
	return Listing{
		ID:           uuid.New(),
		Price:        decimal.RequireFromString(price),
		ScheduleType: ScheduleClassic60,
		Status:       "active",
		CreatedAt:    anchor,
	}
}

func TestResolveSchedulePrice(t *testing.T) {
	l := listingFixture("33.33")
	got, err := Resolve(l, anchor.Add(8*24*time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// 33.33 * 90% = 29.997 rounds half-up to 30.00, once at the end.
	if !got.Price.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("expected 30.00, got %s", got.Price)
	}
	if !got.IsDiscounted {
		t.Fatal("expected a discounted price at day 8")
	}
	if got.OriginalPrice == nil || !got.OriginalPrice.Equal(l.Price) {
		t.Fatalf("original price not preserved: %v", got.OriginalPrice)
	}
}

func TestResolveSalePriceWins(t *testing.T) {
	l := listingFixture("100")
	sale := decimal.RequireFromString("45.50")
	l.SalePrice = &sale
	// Even deep into the schedule the seller override takes precedence.
	got, err := Resolve(l, anchor.Add(40*24*time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.Price.Equal(sale) {
		t.Fatalf("expected sale price %s, got %s", sale, got.Price)
	}
	if !got.IsDiscounted || got.OriginalPrice == nil {
		t.Fatal("sale price must be reported as a discount off the list price")
	}
}

func TestResolveSalePriceAboveListIgnored(t *testing.T) {
	l := listingFixture("100")
	sale := decimal.RequireFromString("120")
	l.SalePrice = &sale
	got, err := Resolve(l, anchor)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.Price.Equal(l.Price) {
		t.Fatalf("a sale price above list must be ignored, got %s", got.Price)
	}
	if got.IsDiscounted {
		t.Fatal("fresh listing must not be flagged discounted")
	}
}

func TestResolveDeterministic(t *testing.T) {
	l := listingFixture("87.99")
	now := anchor.Add(15 * 24 * time.Hour)
	first, err := Resolve(l, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Resolve(l, now)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if !again.Price.Equal(first.Price) || again.IsDiscounted != first.IsDiscounted {
			t.Fatalf("resolution drifted on call %d: %s vs %s", i, again.Price, first.Price)
		}
	}
}

func TestResolveMonotoneOverTime(t *testing.T) {
	l := listingFixture("249.99")
	prev := l.Price.Add(decimal.NewFromInt(1))
	for day := 0; day < 60; day++ {
		got, err := Resolve(l, anchor.Add(time.Duration(day)*24*time.Hour))
		if err != nil {
			t.Fatalf("resolve day %d: %v", day, err)
		}
		if got.Expired {
			break
		}
		if got.Price.GreaterThan(prev) {
			t.Fatalf("price rose to %s at day %d", got.Price, day)
		}
		prev = got.Price
	}
}

func TestResolveMissingPriceFailsLoudly(t *testing.T) {
	l := listingFixture("100")
	l.Price = decimal.Zero
	if _, err := Resolve(l, anchor); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing price, got %v", err)
	}
}

func TestResolveExpired(t *testing.T) {
	l := listingFixture("100")
	got, err := Resolve(l, anchor.Add(61*24*time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.Expired {
		t.Fatal("expected expired resolution past the terminal offset")
	}
}

func TestRound2Idempotent(t *testing.T) {
	for _, raw := range []string{"29.997", "12.375", "0.005", "149.994999"} {
		d := decimal.RequireFromString(raw)
		once := Round2(d)
		if !Round2(once).Equal(once) {
			t.Fatalf("round2 not idempotent for %s: %s vs %s", raw, Round2(once), once)
		}
	}
}
