package promo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/obs"
	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

// Reader captures the lookup the evaluation paths need.
type Reader interface {
	GetByCode(ctx context.Context, code string) (Record, error)
}

// PreviewResult describes a dry-run evaluation against supplied totals.
type PreviewResult struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Applied
}

// Service evaluates promo codes without mutating state. Redemption lives in
// the store so it can share the order transaction.
type Service struct {
	Store  Reader
	Now    func() time.Time
	Logger zerolog.Logger
}

// Resolve loads and validates a code at the given instant. Rejections come
// back as the sentinel errors in this package.
func (s *Service) Resolve(ctx context.Context, code string, now time.Time) (Record, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Record{}, ErrNotFound
	}
	rec, err := s.Store.GetByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.CountPromoApply("not_found")
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if err := rec.Validate(now); err != nil {
		obs.CountPromoApply(Reason(err))
		return Record{}, err
	}
	return rec, nil
}

// Preview computes the discount a code would yield against the supplied
// totals, without consuming a use.
func (s *Service) Preview(ctx context.Context, code string, totals pricing.Totals) (PreviewResult, error) {
	now := s.now()
	rec, err := s.Resolve(ctx, code, now)
	if err != nil {
		return PreviewResult{}, err
	}
	applied, err := Apply(rec.Code, totals, now)
	if err != nil {
		s.Logger.Warn().Err(err).Str("code", rec.Code.Code).Msg("promo apply failed")
		return PreviewResult{}, err
	}
	obs.CountPromoApply("applied")
	return PreviewResult{Code: rec.Code.Code, Discount: applied.Amount, Applied: applied}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
