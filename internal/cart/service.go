package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kiosko-dev/backend-consign/internal/common"
	"github.com/kiosko-dev/backend-consign/internal/obs"
	"github.com/kiosko-dev/backend-consign/internal/pricing"
	"github.com/kiosko-dev/backend-consign/internal/promo"
	"github.com/kiosko-dev/backend-consign/internal/settlement"
)

// ErrListingUnavailable reports that a cart line points at a listing that can
// no longer be sold (expired schedule or non-active status).
var ErrListingUnavailable = errors.New("listing no longer available")

// LineSource abstracts the store for tests.
type LineSource interface {
	Lines(ctx context.Context, cartID uuid.UUID) ([]StoredLine, error)
}

// PromoResolver loads and validates a promo code at a fixed instant.
type PromoResolver interface {
	Resolve(ctx context.Context, code string, now time.Time) (promo.Record, error)
}

// QuoteResult is a settled cart quote plus the instant it was priced at and
// the promo record used, if any, so checkout can redeem it.
type QuoteResult struct {
	Quote    settlement.Quote
	PricedAt time.Time
	Promo    *promo.Record
}

// Service produces settlement quotes for carts.
type Service struct {
	Store  LineSource
	Promos PromoResolver
	Rates  pricing.Rates
	Now    func() time.Time
	Logger zerolog.Logger
}

// Quote settles the cart as of the service clock.
func (s *Service) Quote(ctx context.Context, cartID uuid.UUID, method pricing.DeliveryMethod, promoCode string) (QuoteResult, error) {
	return s.QuoteAt(ctx, cartID, method, promoCode, s.now())
}

// QuoteAt settles the cart at an explicit instant. Checkout reuses this with
// its own clock so the authorization total is computed exactly like the cart
// view.
func (s *Service) QuoteAt(ctx context.Context, cartID uuid.UUID, method pricing.DeliveryMethod, promoCode string, now time.Time) (QuoteResult, error) {
	stored, err := s.Store.Lines(ctx, cartID)
	if err != nil {
		return QuoteResult{}, err
	}
	if len(stored) == 0 {
		return QuoteResult{}, common.NewAppError("CART_EMPTY", "cart has no items", http.StatusUnprocessableEntity, pricing.ErrInvalidInput)
	}

	lines := make([]pricing.Line, 0, len(stored))
	for _, item := range stored {
		if item.Listing.Status != "active" {
			return QuoteResult{}, fmt.Errorf("listing %s is %s: %w", item.Listing.ID, item.Listing.Status, ErrListingUnavailable)
		}
		resolved, err := pricing.Resolve(item.Listing, now)
		if err != nil {
			return QuoteResult{}, err
		}
		if resolved.Expired {
			return QuoteResult{}, fmt.Errorf("listing %s schedule has run out: %w", item.Listing.ID, ErrListingUnavailable)
		}
		if resolved.ScheduleDefaulted {
			s.Logger.Warn().
				Str("listing_id", item.Listing.ID.String()).
				Str("schedule", item.Listing.ScheduleType).
				Msg("unknown discount schedule, using classic table")
		}
		lines = append(lines, pricing.Line{
			ListingID: item.Listing.ID,
			Qty:       item.Qty,
			UnitPrice: resolved.Price,
			Bulk:      item.IsBulk,
		})
	}

	var (
		rec     promo.Record
		codePtr *promo.Code
	)
	if promoCode != "" {
		rec, err = s.Promos.Resolve(ctx, promoCode, now)
		if err != nil {
			return QuoteResult{}, err
		}
		codePtr = &rec.Code
	}

	q, err := settlement.Settle(lines, method, s.Rates, codePtr, now)
	if err != nil {
		return QuoteResult{}, err
	}
	result := QuoteResult{Quote: q, PricedAt: now}
	if codePtr != nil {
		obs.CountPromoApply("applied")
		result.Promo = &rec
	}
	return result, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
