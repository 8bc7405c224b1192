package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/agro-marketplace/internal/cart/domain"
	pg "github.com/dmehra2102/agro-marketplace/internal/platform/postgres"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool, now: time.Now}
}

// Querier is the read side shared by pgx.Tx and *pgxpool.Pool.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Load reads a cart; a consumer without a row gets an empty cart with a zero version.
func Load(ctx context.Context, q Querier, consumerID string) (*domain.Cart, error) {
	c := domain.New(consumerID)
	err := q.QueryRow(ctx, `SELECT updated_at FROM carts WHERE consumer_id=$1`, consumerID).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	c.UpdatedAt = c.UpdatedAt.UTC()

	rows, err := q.Query(ctx, `SELECT product_id, quantity, unit_price FROM cart_items WHERE consumer_id=$1`, consumerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		c.Items[it.ProductID] = it
	}
	return c, rows.Err()
}

func (r *Repository) Get(ctx context.Context, consumerID string) (*domain.Cart, error) {
	return Load(ctx, r.pool, consumerID)
}

// nextVersion keeps versions strictly increasing at the microsecond precision Postgres stores.
func nextVersion(prev, now time.Time) time.Time {
	next := now.UTC().Truncate(time.Microsecond)
	if !next.After(prev) {
		next = prev.Add(time.Microsecond)
	}
	return next
}

func (r *Repository) Update(ctx context.Context, consumerID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	var out *domain.Cart
	err := pg.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := pg.LockKey(ctx, tx, "cart:"+consumerID); err != nil {
			return err
		}
		c, err := Load(ctx, tx, consumerID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if c.Empty() {
			if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE consumer_id=$1`, consumerID); err != nil {
				return err
			}
			out = domain.New(consumerID)
			return nil
		}

		c.UpdatedAt = nextVersion(c.UpdatedAt, r.now())
		if _, err := tx.Exec(ctx, `INSERT INTO carts (consumer_id, updated_at) VALUES ($1,$2)
			ON CONFLICT (consumer_id) DO UPDATE SET updated_at=$2`, consumerID, c.UpdatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE consumer_id=$1`, consumerID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, it := range c.Lines() {
			batch.Queue(`INSERT INTO cart_items (consumer_id, product_id, quantity, unit_price) VALUES ($1,$2,$3,$4)`,
				consumerID, it.ProductID, it.Quantity, it.UnitPrice)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) Clear(ctx context.Context, consumerID string) error {
	return pg.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := pg.LockKey(ctx, tx, "cart:"+consumerID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM carts WHERE consumer_id=$1`, consumerID)
		return err
	})
}
