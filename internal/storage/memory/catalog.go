package memory

import (
	"context"

	catalogdomain "github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

type Catalog struct{ s *Store }

func (c *Catalog) Get(ctx context.Context, id string) (catalogdomain.Product, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	p, ok := c.s.products[id]
	if !ok {
		return catalogdomain.Product{}, apperr.ProductRemoved(id)
	}
	return p, nil
}

func (c *Catalog) GetMany(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make(map[string]catalogdomain.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c *Catalog) SetAvailable(ctx context.Context, id string, available bool) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	p, ok := c.s.products[id]
	if !ok {
		return apperr.ProductRemoved(id)
	}
	p.Available = available
	c.s.products[id] = p
	return nil
}
