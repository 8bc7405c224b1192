package domain

import (
	"time"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

var forward = map[OrderStatus]OrderStatus{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusInTransit,
	StatusInTransit: StatusDelivered,
}

var rank = map[OrderStatus]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusInTransit: 3,
	StatusDelivered: 4,
}

func (s OrderStatus) Valid() bool {
	_, ok := rank[s]
	return ok || s == StatusCanceled
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// Reached reports whether s is at or past other along the forward path.
func (s OrderStatus) Reached(other OrderStatus) bool {
	a, okA := rank[s]
	b, okB := rank[other]
	return okA && okB && a >= b
}

// CanTransition reports whether to is a direct successor of from. Every
// non-terminal state may be cancelled; forward moves advance one step only.
func CanTransition(from, to OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCanceled {
		return true
	}
	next, ok := forward[from]
	return ok && next == to
}

// CheckTransition validates the edge and the actor. Forward progress belongs
// to the order's producer; cancellation to its consumer or producer; admins
// may cancel any non-terminal order.
func (o Order) CheckTransition(a identity.Actor, to OrderStatus) error {
	if o.Status.Terminal() {
		return apperr.ErrOrderAlreadyTerminal
	}
	if !to.Valid() || !CanTransition(o.Status, to) {
		return apperr.Newf(apperr.CodeInvalidTransition, "cannot move order from %s to %s", o.Status, to)
	}
	if to == StatusCanceled {
		switch {
		case a.Role == identity.RoleAdmin:
			return nil
		case a.Role == identity.RoleConsumer && a.ID == o.ConsumerID:
			return nil
		case a.Role == identity.RoleProducer && a.ID == o.ProducerID:
			return nil
		}
		return apperr.ErrUnauthorized
	}
	if a.Role != identity.RoleProducer || a.ID != o.ProducerID {
		return apperr.ErrUnauthorized
	}
	return nil
}

// StatusChange is a compare-and-set request: it applies only while the order is still in From.
type StatusChange struct {
	OrderID           string
	From              OrderStatus
	To                OrderStatus
	At                time.Time
	EstimatedDelivery *time.Time
	DeliveredAt       *time.Time
}

func (o Order) Change(to OrderStatus, at time.Time, eta *time.Time) StatusChange {
	at = at.UTC()
	c := StatusChange{OrderID: o.ID, From: o.Status, To: to, At: at, EstimatedDelivery: o.EstimatedDelivery}
	if to == StatusInTransit && eta != nil {
		t := eta.UTC()
		c.EstimatedDelivery = &t
	}
	if to == StatusDelivered {
		c.DeliveredAt = &at
	}
	return c
}

func (o Order) Apply(c StatusChange) Order {
	out := o.Clone()
	out.Status = c.To
	out.UpdatedAt = c.At
	out.EstimatedDelivery = c.EstimatedDelivery
	if c.DeliveredAt != nil {
		out.DeliveredAt = c.DeliveredAt
	}
	return out
}
