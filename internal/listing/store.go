// Package listing serves buyer-facing display prices for catalog listings
// and expires listings whose markdown schedule has run out.
package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

// ErrNotFound reports that no listing matches the requested id.
var ErrNotFound = errors.New("listing not found")

// Store reads pricing snapshots from Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const snapshotColumns = `id, price, sale_price, estimated_retail_price, discount_schedule, status, created_at`

// Snapshot loads the pricing-relevant fields of a single listing.
func (s *Store) Snapshot(ctx context.Context, id uuid.UUID) (pricing.Listing, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+snapshotColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Listing{}, ErrNotFound
		}
		return pricing.Listing{}, err
	}
	return l, nil
}

// Snapshots loads pricing snapshots for a batch of listings. Missing ids are
// simply absent from the result.
func (s *Store) Snapshots(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]pricing.Listing, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]pricing.Listing{}, nil
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+snapshotColumns+` FROM listings WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]pricing.Listing, len(ids))
	for rows.Next() {
		l, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out[l.ID] = l
	}
	return out, rows.Err()
}

// ExpireDue marks active listings whose schedule has fully run out as
// expired, per schedule table. Unknown schedule types fall under the classic
// table, matching the resolver's fallback.
func (s *Store) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	otherTypes := make([]string, 0, len(pricing.Schedules()))
	for typ := range pricing.Schedules() {
		if typ != pricing.ScheduleClassic60 {
			otherTypes = append(otherTypes, typ)
		}
	}
	for typ, sched := range pricing.Schedules() {
		cutoff := now.Add(-time.Duration(sched.TotalDuration()) * 24 * time.Hour)
		var (
			query string
			arg   any
		)
		if typ == pricing.ScheduleClassic60 {
			query = `UPDATE listings SET status = 'expired', updated_at = now()
				WHERE status = 'active' AND discount_schedule <> ALL($1::text[]) AND created_at <= $2`
			arg = otherTypes
		} else {
			query = `UPDATE listings SET status = 'expired', updated_at = now()
				WHERE status = 'active' AND discount_schedule = $1 AND created_at <= $2`
			arg = typ
		}
		tag, err := s.Pool.Exec(ctx, query, arg, cutoff)
		if err != nil {
			return total, fmt.Errorf("expire %s listings: %w", typ, err)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func scanSnapshot(row pgx.Row) (pricing.Listing, error) {
	var (
		l      pricing.Listing
		id     pgtype.UUID
		sale   decimal.NullDecimal
		retail decimal.NullDecimal
	)
	err := row.Scan(&id, &l.Price, &sale, &retail, &l.ScheduleType, &l.Status, &l.CreatedAt)
	if err != nil {
		return pricing.Listing{}, err
	}
	l.ID = uuid.UUID(id.Bytes)
	if sale.Valid {
		v := sale.Decimal
		l.SalePrice = &v
	}
	if retail.Valid {
		v := retail.Decimal
		l.EstimatedRetailPrice = &v
	}
	return l, nil
}
