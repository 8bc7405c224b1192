package memory

import (
	"context"

	checkoutdomain "github.com/dmehra2102/agro-marketplace/internal/checkout/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

type Committer struct{ s *Store }

// Commit checks every decrement before applying any of them, all under the store lock.
func (c *Committer) Commit(ctx context.Context, p checkoutdomain.Placement) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	cart, ok := c.s.carts[p.ConsumerID]
	if !ok || !cart.UpdatedAt.Equal(p.CartVersion) {
		return apperr.ErrStateConflict
	}
	for _, d := range p.Decrements {
		prod, ok := c.s.products[d.ProductID]
		switch {
		case d.Quantity < 1:
			return apperr.ErrInvalidQuantity
		case !ok:
			return apperr.ProductRemoved(d.ProductID)
		case !prod.Available:
			return apperr.ProductUnavailable(d.ProductID)
		case prod.Stock < d.Quantity:
			return apperr.InsufficientStock(d.ProductID, prod.Stock, true)
		}
	}

	for _, d := range p.Decrements {
		prod := c.s.products[d.ProductID]
		prod.Stock -= d.Quantity
		c.s.products[d.ProductID] = prod
	}
	for _, o := range p.Orders {
		c.s.orders[o.ID] = o.Clone()
	}
	c.s.events = append(c.s.events, p.Messages...)
	delete(c.s.carts, p.ConsumerID)
	return nil
}
