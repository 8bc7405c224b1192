package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

const productColumns = `id, producer_id, name, price, stock, unit, available`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.ProducerID, &p.Name, &p.Price, &p.Stock, &p.Unit, &p.Available)
	return p, err
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, apperr.ProductRemoved(id)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// GetMany omits ids that do not exist; callers treat a missing key as removed.
func (r *Repository) GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repository) SetAvailable(ctx context.Context, id string, available bool) error {
	ct, err := r.pool.Exec(ctx, `UPDATE products SET available=$2, updated_at=now() WHERE id=$1`, id, available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.ProductRemoved(id)
	}
	return nil
}

// Upsert is used by seeding and the integration tests; product management
// itself lives outside this service.
func (r *Repository) Upsert(ctx context.Context, p domain.Product) error {
	p = p.Normalized()
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET producer_id=$2, name=$3, price=$4, stock=$5, unit=$6, available=$7, updated_at=now()`,
		p.ID, p.ProducerID, p.Name, p.Price, p.Stock, p.Unit, p.Available)
	return err
}
