package application

import (
	"context"

	"github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
)

// Catalog is the read-only accessor. Get returns apperr.ErrProductRemoved for unknown ids.
type Catalog interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type AvailabilityWriter interface {
	SetAvailable(ctx context.Context, id string, available bool) error
}
