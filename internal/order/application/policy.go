package application

import (
	"context"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

// CancelPolicy may veto a cancellation the state machine already allows.
type CancelPolicy interface {
	AllowCancel(o domain.Order, a identity.Actor) error
}

type AllowAllCancels struct{}

func (AllowAllCancels) AllowCancel(domain.Order, identity.Actor) error { return nil }

// BlockConsumerCancelFrom stops consumers from cancelling once the order has
// reached From. Producers and admins are unaffected.
type BlockConsumerCancelFrom struct {
	From domain.OrderStatus
}

func (p BlockConsumerCancelFrom) AllowCancel(o domain.Order, a identity.Actor) error {
	if a.Role == identity.RoleConsumer && o.Status.Reached(p.From) {
		return apperr.Newf(apperr.CodeInvalidTransition, "order in %s can no longer be cancelled by the consumer", o.Status)
	}
	return nil
}

// CancelHook runs after a cancellation commits. Restocking is deliberately not
// done by default; deployments that want it plug a hook in here.
type CancelHook interface {
	OrderCanceled(ctx context.Context, o domain.Order) error
}

type NopCancelHook struct{}

func (NopCancelHook) OrderCanceled(context.Context, domain.Order) error { return nil }
