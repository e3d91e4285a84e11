// Package cart quotes cart settlements: every line repriced at a single
// instant, delivery fee and tax computed, and an optional promo applied.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
)

// ErrNotFound reports that no cart matches the requested id.
var ErrNotFound = errors.New("cart not found")

// StoredLine is one cart item joined with the pricing snapshot of its
// listing.
type StoredLine struct {
	Qty     int
	IsBulk  bool
	Listing pricing.Listing
}

// Store reads carts and their items from Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// Lines loads the cart's items with listing snapshots in one round trip.
// Returns ErrNotFound when the cart itself does not exist; an existing empty
// cart yields an empty slice.
func (s *Store) Lines(ctx context.Context, cartID uuid.UUID) ([]StoredLine, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`, cartID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check cart: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT ci.qty, l.is_bulk,
		       l.id, l.price, l.sale_price, l.estimated_retail_price,
		       l.discount_schedule, l.status, l.created_at
		FROM cart_items ci
		JOIN listings l ON l.id = ci.listing_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at`, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var out []StoredLine
	for rows.Next() {
		var (
			line   StoredLine
			id     pgtype.UUID
			sale   decimal.NullDecimal
			retail decimal.NullDecimal
		)
		err := rows.Scan(&line.Qty, &line.IsBulk,
			&id, &line.Listing.Price, &sale, &retail,
			&line.Listing.ScheduleType, &line.Listing.Status, &line.Listing.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		line.Listing.ID = uuid.UUID(id.Bytes)
		if sale.Valid {
			v := sale.Decimal
			line.Listing.SalePrice = &v
		}
		if retail.Valid {
			v := retail.Decimal
			line.Listing.EstimatedRetailPrice = &v
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
