package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/agro-marketplace/internal/order/domain"
	pg "github.com/dmehra2102/agro-marketplace/internal/platform/postgres"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

const orderColumns = `id, consumer_id, producer_id, total, status, payment_status, payment_method,
	delivery_address, notes, created_at, updated_at, estimated_delivery, delivered_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// InsertOrders writes orders and their items inside the caller's transaction.
func InsertOrders(ctx context.Context, tx pgx.Tx, orders []domain.Order) error {
	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(`INSERT INTO orders (`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			o.ID, o.ConsumerID, o.ProducerID, o.Total, o.Status, o.PaymentStatus, o.PaymentMethod,
			o.DeliveryAddress, o.Notes, o.CreatedAt, o.UpdatedAt, o.EstimatedDelivery, o.DeliveredAt)
		for _, item := range o.Items {
			batch.Queue(`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1,$2,$3,$4)`,
				o.ID, item.ProductID, item.Quantity, item.UnitPrice)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert orders: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.ConsumerID, &o.ProducerID, &o.Total, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.DeliveryAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.EstimatedDelivery, &o.DeliveredAt)
	return o, err
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, apperr.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	items, err := r.items(ctx, []string{id})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[id]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o, nil
}

func (r *Repository) items(ctx context.Context, ids []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT order_id, product_id, quantity, unit_price FROM order_items
		WHERE order_id = ANY($1) ORDER BY order_id, product_id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]domain.OrderItem{}
	for rows.Next() {
		var orderID string
		var it domain.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

// List returns a page ordered newest first plus the total matching count.
func (r *Repository) List(ctx context.Context, opts domain.ListOptions) ([]domain.Order, int, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.ConsumerID != "" {
		add("consumer_id=$%d", opts.ConsumerID)
	}
	if opts.ProducerID != "" {
		add("producer_id=$%d", opts.ProducerID)
	}
	if opts.Status != "" {
		add("status=$%d", opts.Status)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, opts.Limit, opts.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		orderColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, opts.Limit)
	ids := make([]string, 0, opts.Limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, total, nil
}

// UpdateStatus applies c only while the row is still in c.From, together with
// its outbox message.
func (r *Repository) UpdateStatus(ctx context.Context, c domain.StatusChange, msg outbox.Message) error {
	return pg.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE orders SET status=$3, updated_at=$4, estimated_delivery=$5,
				delivered_at=COALESCE($6, delivered_at)
			WHERE id=$1 AND status=$2`,
			c.OrderID, c.From, c.To, c.At, c.EstimatedDelivery, c.DeliveredAt)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return r.missOrConflict(ctx, tx, c.OrderID)
		}
		return outbox.Enqueue(ctx, tx, msg)
	})
}

func (r *Repository) UpdatePayment(ctx context.Context, id string, from, to domain.PaymentStatus, at time.Time, msg outbox.Message) error {
	return pg.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE orders SET payment_status=$3, updated_at=$4 WHERE id=$1 AND payment_status=$2`,
			id, from, to, at)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return r.missOrConflict(ctx, tx, id)
		}
		return outbox.Enqueue(ctx, tx, msg)
	})
}

func (r *Repository) missOrConflict(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperr.ErrNotFound
	}
	r.log.Debug("order changed concurrently", "order_id", id)
	return apperr.ErrStateConflict
}
