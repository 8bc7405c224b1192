package application

import (
	"context"

	"github.com/dmehra2102/agro-marketplace/internal/cart/domain"
)

type CartRepository interface {
	// Get returns an empty cart when none exists.
	Get(ctx context.Context, consumerID string) (*domain.Cart, error)
	// Update runs fn on the consumer's cart under a per-consumer lock and
	// persists the result only when fn returns nil.
	Update(ctx context.Context, consumerID string, fn func(c *domain.Cart) error) (*domain.Cart, error)
	Clear(ctx context.Context, consumerID string) error
}
