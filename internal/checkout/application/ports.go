package application

import (
	"context"

	"github.com/dmehra2102/agro-marketplace/internal/checkout/domain"
)

// Committer writes a placement atomically: all stock decrements succeed or
// none apply (apperr.ErrInsufficientStock, retryable), then orders, outbox
// messages and the cart clear land in the same unit.
type Committer interface {
	Commit(ctx context.Context, p domain.Placement) error
}
