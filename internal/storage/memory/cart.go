package memory

import (
	"context"

	cartdomain "github.com/dmehra2102/agro-marketplace/internal/cart/domain"
)

type Carts struct{ s *Store }

func (c *Carts) Get(ctx context.Context, consumerID string) (*cartdomain.Cart, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if cart, ok := c.s.carts[consumerID]; ok {
		return cart.Clone(), nil
	}
	return cartdomain.New(consumerID), nil
}

func (c *Carts) Update(ctx context.Context, consumerID string, fn func(*cartdomain.Cart) error) (*cartdomain.Cart, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	work := cartdomain.New(consumerID)
	if cart, ok := c.s.carts[consumerID]; ok {
		work = cart.Clone()
	}
	if err := fn(work); err != nil {
		return nil, err
	}
	if work.Empty() {
		delete(c.s.carts, consumerID)
		return cartdomain.New(consumerID), nil
	}
	work.UpdatedAt = c.s.tick()
	c.s.carts[consumerID] = work
	return work.Clone(), nil
}

func (c *Carts) Clear(ctx context.Context, consumerID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	delete(c.s.carts, consumerID)
	return nil
}
