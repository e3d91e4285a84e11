package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so redemption can run
// inside the order transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Record is a stored promo code row.
type Record struct {
	ID uuid.UUID `json:"id"`
	Code
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertParams holds the writable promo code attributes.
type UpsertParams struct {
	Code       string
	Kind       Kind
	Value      decimal.Decimal
	Active     bool
	StartsAt   *time.Time
	EndsAt     *time.Time
	UsageLimit *int32
}

// Store persists promo codes and redemptions in Postgres.
type Store struct {
	DB DBTX
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{DB: tx}
}

const recordColumns = `id, code, kind, value, is_active, starts_at, ends_at, usage_limit, usage_count, created_at, updated_at`

// GetByCode loads a promo code by its exact code. Returns ErrNotFound when no
// row matches.
func (s *Store) GetByCode(ctx context.Context, code string) (Record, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+recordColumns+` FROM promo_codes WHERE code = $1`, code)
	return scanRecord(row)
}

// Create inserts a new promo code. Duplicate codes surface the raw unique
// violation so handlers can map it to a conflict response.
func (s *Store) Create(ctx context.Context, p UpsertParams) (Record, error) {
	row := s.DB.QueryRow(ctx, `
		INSERT INTO promo_codes (code, kind, value, is_active, starts_at, ends_at, usage_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+recordColumns,
		p.Code, string(p.Kind), p.Value, p.Active,
		nullableTime(p.StartsAt), nullableTime(p.EndsAt), nullableInt(p.UsageLimit),
	)
	return scanRecord(row)
}

// Update replaces the writable attributes of an existing code.
func (s *Store) Update(ctx context.Context, code string, p UpsertParams) (Record, error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE promo_codes
		SET kind = $2, value = $3, is_active = $4, starts_at = $5, ends_at = $6,
		    usage_limit = $7, updated_at = now()
		WHERE code = $1
		RETURNING `+recordColumns,
		code, string(p.Kind), p.Value, p.Active,
		nullableTime(p.StartsAt), nullableTime(p.EndsAt), nullableInt(p.UsageLimit),
	)
	return scanRecord(row)
}

// Redeem consumes one use of the code for the given order. The increment is
// guarded against the usage limit so concurrent checkouts cannot oversell,
// and the redemption row is keyed by order so replays are no-ops.
func (s *Store) Redeem(ctx context.Context, promoID, orderID uuid.UUID, amount decimal.Decimal) error {
	tag, err := s.DB.Exec(ctx, `
		INSERT INTO promo_redemptions (promo_code_id, order_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING`,
		promoID, orderID, amount,
	)
	if err != nil {
		return fmt.Errorf("record redemption: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already redeemed for this order.
		return nil
	}
	tag, err = s.DB.Exec(ctx, `
		UPDATE promo_codes
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		promoID,
	)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLimitReached
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec        Record
		id         pgtype.UUID
		kind       string
		startsAt   pgtype.Timestamptz
		endsAt     pgtype.Timestamptz
		usageLimit pgtype.Int4
	)
	err := row.Scan(&id, &rec.Code.Code, &kind, &rec.Value, &rec.Active,
		&startsAt, &endsAt, &usageLimit, &rec.UsedCount, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("scan promo code: %w", err)
	}
	rec.ID = uuid.UUID(id.Bytes)
	rec.Kind = Kind(kind)
	if startsAt.Valid {
		t := startsAt.Time
		rec.StartsAt = &t
	}
	if endsAt.Valid {
		t := endsAt.Time
		rec.EndsAt = &t
	}
	if usageLimit.Valid {
		v := usageLimit.Int32
		rec.UsageLimit = &v
	}
	return rec, nil
}

func nullableTime(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *v, Valid: true}
}

func nullableInt(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}
