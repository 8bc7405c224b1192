package postgres

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogdomain "github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	"github.com/dmehra2102/agro-marketplace/internal/checkout/domain"
	orderpg "github.com/dmehra2102/agro-marketplace/internal/order/infrastructure/postgres"
	pg "github.com/dmehra2102/agro-marketplace/internal/platform/postgres"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

// Committer writes a placement in one transaction. Stock rows are decremented
// in product id order so concurrent checkouts lock them in the same sequence.
type Committer struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewCommitter(log *slog.Logger, pool *pgxpool.Pool) *Committer {
	return &Committer{log: log, pool: pool}
}

func (c *Committer) Commit(ctx context.Context, p domain.Placement) error {
	return pg.InTx(ctx, c.pool, func(tx pgx.Tx) error {
		if err := pg.LockKey(ctx, tx, "cart:"+p.ConsumerID); err != nil {
			return err
		}
		var version time.Time
		err := tx.QueryRow(ctx, `SELECT updated_at FROM carts WHERE consumer_id=$1`, p.ConsumerID).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && !version.Equal(p.CartVersion)) {
			return apperr.ErrStateConflict
		}
		if err != nil {
			return err
		}

		decs := make([]catalogdomain.StockDecrement, len(p.Decrements))
		copy(decs, p.Decrements)
		sort.Slice(decs, func(i, j int) bool { return decs[i].ProductID < decs[j].ProductID })
		for _, d := range decs {
			if err := decrement(ctx, tx, d); err != nil {
				return err
			}
		}

		if err := orderpg.InsertOrders(ctx, tx, p.Orders); err != nil {
			return err
		}
		for _, m := range p.Messages {
			if err := outbox.Enqueue(ctx, tx, m); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `DELETE FROM carts WHERE consumer_id=$1`, p.ConsumerID)
		return err
	})
}

// decrement is a conditional update; when it matches no row the product is
// re-read to report why.
func decrement(ctx context.Context, tx pgx.Tx, d catalogdomain.StockDecrement) error {
	if d.Quantity < 1 {
		return apperr.ErrInvalidQuantity
	}
	ct, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id=$1 AND available AND stock >= $2`, d.ProductID, d.Quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var stock int
	var available bool
	err = tx.QueryRow(ctx, `SELECT stock, available FROM products WHERE id=$1`, d.ProductID).Scan(&stock, &available)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.ProductRemoved(d.ProductID)
	case err != nil:
		return err
	case !available:
		return apperr.ProductUnavailable(d.ProductID)
	default:
		return apperr.InsufficientStock(d.ProductID, stock, true)
	}
}
