package listing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kiosko-dev/backend-consign/internal/obs"
	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

// SnapshotSource abstracts the store so tests can supply fixtures.
type SnapshotSource interface {
	Snapshot(ctx context.Context, id uuid.UUID) (pricing.Listing, error)
	Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]pricing.Listing, error)
}

// PriceView is the buyer-facing price for one listing.
type PriceView struct {
	ListingID string `json:"listingId"`
	Status    string `json:"status"`
	pricing.Resolved
}

// Service resolves display prices. Prices are derived on every call from the
// snapshot and the clock; only snapshots are cached.
type Service struct {
	Store  SnapshotSource
	Cache  *Cache
	Now    func() time.Time
	Logger zerolog.Logger
}

// DisplayPrice resolves the current price of a single listing.
func (s *Service) DisplayPrice(ctx context.Context, id uuid.UUID) (PriceView, error) {
	snap, err := s.snapshot(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.CountPriceResolve("not_found")
		}
		return PriceView{}, err
	}
	return s.resolve(snap, s.now()), nil
}

// DisplayPrices resolves a batch of listings at one shared instant so a page
// of cards renders consistently. Unknown ids are omitted.
func (s *Service) DisplayPrices(ctx context.Context, ids []uuid.UUID) ([]PriceView, error) {
	snaps, err := s.Store.Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]PriceView, 0, len(ids))
	for _, id := range ids {
		snap, ok := snaps[id]
		if !ok {
			continue
		}
		out = append(out, s.resolve(snap, now))
	}
	return out, nil
}

func (s *Service) resolve(snap pricing.Listing, now time.Time) PriceView {
	view := PriceView{ListingID: snap.ID.String(), Status: snap.Status}
	if snap.Status == "expired" {
		view.Expired = true
		obs.CountPriceResolve("expired")
		return view
	}
	resolved, err := pricing.Resolve(snap, now)
	if err != nil {
		s.Logger.Error().Err(err).Str("listing_id", snap.ID.String()).Msg("price resolution failed")
		obs.CountPriceResolve("invalid")
		view.Expired = true
		return view
	}
	if resolved.ScheduleDefaulted {
		s.Logger.Warn().
			Str("listing_id", snap.ID.String()).
			Str("schedule", snap.ScheduleType).
			Msg("unknown discount schedule, using classic table")
		obs.CountPriceResolve("defaulted_schedule")
	} else if resolved.Expired {
		obs.CountPriceResolve("expired")
	} else {
		obs.CountPriceResolve("ok")
	}
	view.Resolved = resolved
	return view
}

func (s *Service) snapshot(ctx context.Context, id uuid.UUID) (pricing.Listing, error) {
	key := id.String()
	var cached pricing.Listing
	hit, err := s.Cache.GetSnapshot(ctx, key, &cached)
	if err != nil {
		s.Logger.Warn().Err(err).Str("listing_id", key).Msg("snapshot cache read failed")
	}
	if hit {
		return cached, nil
	}
	snap, err := s.Store.Snapshot(ctx, id)
	if err != nil {
		return pricing.Listing{}, err
	}
	if err := s.Cache.SetSnapshot(ctx, key, snap); err != nil {
		s.Logger.Warn().Err(err).Str("listing_id", key).Msg("snapshot cache write failed")
	}
	return snap, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
