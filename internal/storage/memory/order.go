package memory

import (
	"context"
	"sort"
	"time"

	orderdomain "github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

type Orders struct{ s *Store }

func (o *Orders) Get(ctx context.Context, id string) (orderdomain.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	ord, ok := o.s.orders[id]
	if !ok {
		return orderdomain.Order{}, apperr.ErrNotFound
	}
	return ord.Clone(), nil
}

func (o *Orders) List(ctx context.Context, opts orderdomain.ListOptions) ([]orderdomain.Order, int, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	filtered := make([]orderdomain.Order, 0)
	for _, ord := range o.s.orders {
		if opts.ConsumerID != "" && ord.ConsumerID != opts.ConsumerID {
			continue
		}
		if opts.ProducerID != "" && ord.ProducerID != opts.ProducerID {
			continue
		}
		if opts.Status != "" && ord.Status != opts.Status {
			continue
		}
		filtered = append(filtered, ord)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID < filtered[j].ID
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	start := min(opts.Offset, total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}
	page := make([]orderdomain.Order, 0, end-start)
	for _, ord := range filtered[start:end] {
		page = append(page, ord.Clone())
	}
	return page, total, nil
}

func (o *Orders) UpdateStatus(ctx context.Context, c orderdomain.StatusChange, msg outbox.Message) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	ord, ok := o.s.orders[c.OrderID]
	if !ok {
		return apperr.ErrNotFound
	}
	if ord.Status != c.From {
		return apperr.ErrStateConflict
	}
	o.s.orders[c.OrderID] = ord.Apply(c)
	o.s.events = append(o.s.events, msg)
	return nil
}

func (o *Orders) UpdatePayment(ctx context.Context, id string, from, to orderdomain.PaymentStatus, at time.Time, msg outbox.Message) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	ord, ok := o.s.orders[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if ord.PaymentStatus != from {
		return apperr.ErrStateConflict
	}
	ord.PaymentStatus = to
	ord.UpdatedAt = at
	o.s.orders[id] = ord
	o.s.events = append(o.s.events, msg)
	return nil
}
