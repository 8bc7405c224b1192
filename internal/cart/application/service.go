package application

import (
	"context"
	"log/slog"

	catalogapp "github.com/dmehra2102/agro-marketplace/internal/catalog/application"
	"github.com/dmehra2102/agro-marketplace/internal/cart/domain"
	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

// Service is the cart store. Each consumer may only touch their own cart.
type Service struct {
	log     *slog.Logger
	repo    CartRepository
	catalog catalogapp.Catalog
}

func NewService(log *slog.Logger, repo CartRepository, catalog catalogapp.Catalog) *Service {
	return &Service{log: log, repo: repo, catalog: catalog}
}

func consumerOnly(a identity.Actor) error {
	if a.Role != identity.RoleConsumer || a.ID == "" {
		return apperr.ErrUnauthorized
	}
	return nil
}

func (s *Service) AddItem(ctx context.Context, actor identity.Actor, productID string, qty int) (domain.View, error) {
	if err := consumerOnly(actor); err != nil {
		return domain.View{}, err
	}
	if qty < 1 {
		return domain.View{}, apperr.ErrInvalidQuantity
	}
	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return domain.View{}, err
	}
	if !p.Available {
		return domain.View{}, apperr.ProductUnavailable(productID)
	}
	c, err := s.repo.Update(ctx, actor.ID, func(c *domain.Cart) error {
		return c.Add(productID, qty, p.Price)
	})
	if err != nil {
		return domain.View{}, err
	}
	s.log.Debug("cart item added", "consumer_id", actor.ID, "product_id", productID, "quantity", qty)
	return c.View(), nil
}

func (s *Service) UpdateItem(ctx context.Context, actor identity.Actor, productID string, qty int) (domain.View, error) {
	if err := consumerOnly(actor); err != nil {
		return domain.View{}, err
	}
	c, err := s.repo.Update(ctx, actor.ID, func(c *domain.Cart) error {
		return c.Set(productID, qty)
	})
	if err != nil {
		return domain.View{}, err
	}
	return c.View(), nil
}

func (s *Service) RemoveItem(ctx context.Context, actor identity.Actor, productID string) (domain.View, error) {
	if err := consumerOnly(actor); err != nil {
		return domain.View{}, err
	}
	c, err := s.repo.Update(ctx, actor.ID, func(c *domain.Cart) error {
		c.Remove(productID)
		return nil
	})
	if err != nil {
		return domain.View{}, err
	}
	return c.View(), nil
}

func (s *Service) Get(ctx context.Context, actor identity.Actor) (domain.View, error) {
	if err := consumerOnly(actor); err != nil {
		return domain.View{}, err
	}
	c, err := s.repo.Get(ctx, actor.ID)
	if err != nil {
		return domain.View{}, err
	}
	return c.View(), nil
}

func (s *Service) Clear(ctx context.Context, actor identity.Actor) error {
	if err := consumerOnly(actor); err != nil {
		return err
	}
	return s.repo.Clear(ctx, actor.ID)
}
