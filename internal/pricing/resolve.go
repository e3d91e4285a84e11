package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is the pricing-relevant snapshot of a catalog listing. The catalog
// store owns the full record; the engine only reads these fields.
type Listing struct {
	ID                   uuid.UUID
	Price                decimal.Decimal
	SalePrice            *decimal.Decimal
	EstimatedRetailPrice *decimal.Decimal
	ScheduleType         string
	Status               string
	CreatedAt            time.Time
}

// Resolved is the authoritative "what the buyer sees and pays right now"
// price. It is recomputed on every read and never persisted; two identical
// inputs at the same instant always resolve identically.
type Resolved struct {
	Price            decimal.Decimal  `json:"price"`
	IsDiscounted     bool             `json:"isDiscounted"`
	OriginalPrice    *decimal.Decimal `json:"originalPrice,omitempty"`
	PercentRemaining int64            `json:"percentRemaining"`
	NextDropLabel    string           `json:"nextDropLabel,omitempty"`
	Expired          bool             `json:"expired"`

	// ScheduleDefaulted reports that the listing carried an unknown schedule
	// type and the classic table was used. Callers log this as a warning.
	ScheduleDefaulted bool `json:"-"`
}

// Resolve computes the display price for a listing as of now. A manual sale
// price lower than the list price always wins over the schedule. Rounding to
// cents happens once, at the end.
func Resolve(l Listing, now time.Time) (Resolved, error) {
	if !l.Price.IsPositive() {
		return Resolved{}, fmt.Errorf("listing %s has no usable list price: %w", l.ID, ErrInvalidInput)
	}

	if l.SalePrice != nil && l.SalePrice.IsPositive() && l.SalePrice.LessThan(l.Price) {
		original := l.Price
		return Resolved{
			Price:            Round2(*l.SalePrice),
			IsDiscounted:     true,
			OriginalPrice:    &original,
			PercentRemaining: 100,
		}, nil
	}

	sched, known := ByType(l.ScheduleType)
	drop, err := sched.Evaluate(l.CreatedAt, now)
	if err != nil {
		return Resolved{}, err
	}
	if drop.Expired {
		return Resolved{Expired: true, ScheduleDefaulted: !known}, nil
	}

	price := Round2(l.Price.Mul(decimal.NewFromInt(drop.PercentRemaining)).Div(decimal.NewFromInt(100)))
	out := Resolved{
		Price:             price,
		PercentRemaining:  drop.PercentRemaining,
		NextDropLabel:     drop.NextDropLabel(),
		ScheduleDefaulted: !known,
	}
	if drop.PercentRemaining < 100 {
		original := l.Price
		out.IsDiscounted = true
		out.OriginalPrice = &original
	}
	return out, nil
}
