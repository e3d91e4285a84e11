package checkout

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiosko-dev/backend-consign/internal/pricing"
	"github.com/kiosko-dev/backend-consign/internal/promo"
)

// Store persists orders in Postgres.
type Store struct {
	Pool   *pgxpool.Pool
	Promos *promo.Store
}

// CreateOrder inserts the order and redeems the applied promo in one
// transaction, so an aborted order cannot leak a consumed use.
func (s *Store) CreateOrder(ctx context.Context, o Order, method pricing.DeliveryMethod, rec *promo.Record) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, cart_id, delivery_method, currency, subtotal,
			                    delivery_fee, tax, promo_discount, total, promo_code,
			                    status, priced_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)`,
			o.ID, o.CartID, string(method), o.Currency,
			o.Subtotal, o.DeliveryFee, o.Tax, o.PromoDiscount,
			o.Total, o.PromoCode, o.Status, o.PricedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if rec != nil {
			if err := s.Promos.WithTx(tx).Redeem(ctx, rec.ID, o.ID, o.PromoDiscount); err != nil {
				return err
			}
		}
		return nil
	})
}
