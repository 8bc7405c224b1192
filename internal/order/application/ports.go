package application

import (
	"context"
	"time"

	"github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

type OrderRepository interface {
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context, opts domain.ListOptions) ([]domain.Order, int, error)
	// UpdateStatus applies c only if the order is still in c.From, otherwise
	// it returns apperr.ErrStateConflict. msg is enqueued in the same transaction.
	UpdateStatus(ctx context.Context, c domain.StatusChange, msg outbox.Message) error
	UpdatePayment(ctx context.Context, id string, from, to domain.PaymentStatus, at time.Time, msg outbox.Message) error
}
