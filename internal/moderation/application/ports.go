package application

import (
	"context"

	"github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

type ReportRepository interface {
	Create(ctx context.Context, r domain.Report, msg outbox.Message) error
	Get(ctx context.Context, id string) (domain.Report, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.Report, error)
	// Resolve applies res only while the report is pending; otherwise apperr.ErrStateConflict.
	Resolve(ctx context.Context, res domain.Resolution, msg outbox.Message) error
	// Delete removes the report only while it is resolved; otherwise apperr.ErrReportNotDeletable.
	Delete(ctx context.Context, id string, msg outbox.Message) error
}
