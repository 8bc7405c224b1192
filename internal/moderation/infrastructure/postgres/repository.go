package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	pg "github.com/dmehra2102/agro-marketplace/internal/platform/postgres"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

const reportColumns = `id, reporter_id, target_type, target_id, category, description, status,
	action_taken, resolved_by, created_at, resolved_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func scanReport(row pgx.Row) (domain.Report, error) {
	var r domain.Report
	err := row.Scan(&r.ID, &r.ReporterID, &r.TargetType, &r.TargetID, &r.Category, &r.Description, &r.Status,
		&r.ActionTaken, &r.ResolvedBy, &r.CreatedAt, &r.ResolvedAt)
	return r, err
}

func (r *Repository) Create(ctx context.Context, rep domain.Report, msg outbox.Message) error {
	return pg.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO reports (`+reportColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			rep.ID, rep.ReporterID, rep.TargetType, rep.TargetID, rep.Category, rep.Description, rep.Status,
			rep.ActionTaken, rep.ResolvedBy, rep.CreatedAt, rep.ResolvedAt)
		if err != nil {
			return err
		}
		return outbox.Enqueue(ctx, tx, msg)
	})
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Report, error) {
	rep, err := scanReport(r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Report{}, apperr.ErrNotFound
	}
	return rep, err
}

func (r *Repository) List(ctx context.Context, f domain.ListFilter) ([]domain.Report, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.TargetType != "" {
		args = append(args, f.TargetType)
		where = append(where, fmt.Sprintf("target_type=$%d", len(args)))
	}
	q := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.pool.Query(ctx, q+" ORDER BY created_at DESC, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// Resolve only touches reports that are still pending.
func (r *Repository) Resolve(ctx context.Context, res domain.Resolution, msg outbox.Message) error {
	return pg.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `UPDATE reports SET status=$2, action_taken=$3, resolved_by=$4, resolved_at=$5
			WHERE id=$1 AND status=$6`,
			res.ReportID, res.To, res.ActionTaken, res.ResolvedBy, res.At, domain.StatusPending)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return missOrConflict(ctx, tx, res.ReportID, apperr.ErrStateConflict)
		}
		return outbox.Enqueue(ctx, tx, msg)
	})
}

func (r *Repository) Delete(ctx context.Context, id string, msg outbox.Message) error {
	return pg.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM reports WHERE id=$1 AND status=$2`, id, domain.StatusResolved)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return missOrConflict(ctx, tx, id, apperr.ErrReportNotDeletable)
		}
		return outbox.Enqueue(ctx, tx, msg)
	})
}

func missOrConflict(ctx context.Context, tx pgx.Tx, id string, conflict error) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperr.ErrNotFound
	}
	return conflict
}
