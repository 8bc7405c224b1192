package application

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

type Service struct {
	log    *slog.Logger
	repo   OrderRepository
	policy CancelPolicy
	hook   CancelHook
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

func WithCancelPolicy(p CancelPolicy) Option { return func(s *Service) { s.policy = p } }
func WithCancelHook(h CancelHook) Option     { return func(s *Service) { s.hook = h } }
func WithClock(now func() time.Time) Option  { return func(s *Service) { s.now = now } }

func NewService(log *slog.Logger, repo OrderRepository, opts ...Option) *Service {
	s := &Service{
		log:    log,
		repo:   repo,
		policy: AllowAllCancels{},
		hook:   NopCancelHook{},
		now:    time.Now,
		tracer: otel.Tracer("order-service"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func canView(o domain.Order, a identity.Actor) bool {
	switch a.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleConsumer:
		return o.ConsumerID == a.ID
	case identity.RoleProducer:
		return o.ProducerID == a.ID
	}
	return false
}

func (s *Service) Get(ctx context.Context, actor identity.Actor, id string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !canView(o, actor) {
		// Hide existence of orders the actor is not party to.
		return domain.Order{}, apperr.ErrNotFound
	}
	return o, nil
}

// List scopes the query to the actor: consumers see their orders, producers
// the orders addressed to them, admins anything matching opts.
func (s *Service) List(ctx context.Context, actor identity.Actor, opts domain.ListOptions) (domain.ListResult, error) {
	switch actor.Role {
	case identity.RoleConsumer:
		opts.ConsumerID = actor.ID
	case identity.RoleProducer:
		opts.ProducerID = actor.ID
	case identity.RoleAdmin:
	default:
		return domain.ListResult{}, apperr.ErrUnauthorized
	}
	if opts.Status != "" && !opts.Status.Valid() {
		return domain.ListResult{}, apperr.Newf(apperr.CodeInvalidArgument, "unknown state %q", opts.Status)
	}
	opts.Normalize()
	items, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return domain.ListResult{}, err
	}
	return domain.ListResult{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

type TransitionOptions struct {
	EstimatedDelivery *time.Time
}

// Transition moves the order one edge along the state machine. A concurrent
// change between read and write surfaces as apperr.ErrStateConflict and
// leaves the order untouched.
func (s *Service) Transition(ctx context.Context, actor identity.Actor, id string, to domain.OrderStatus, opts TransitionOptions) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Order.Transition", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.target_state", string(to)),
	))
	defer span.End()

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if err := o.CheckTransition(actor, to); err != nil {
		return domain.Order{}, err
	}
	if to == domain.StatusCanceled {
		if err := s.policy.AllowCancel(o, actor); err != nil {
			return domain.Order{}, err
		}
	}

	change := o.Change(to, s.now(), opts.EstimatedDelivery)
	msg, err := outbox.NewMessage(ctx, domain.AggregateType, o.ID, domain.EventOrderStatusChanged, domain.OrderStatusChanged{
		OrderID:   o.ID,
		From:      change.From,
		To:        change.To,
		ActorID:   actor.ID,
		ActorRole: string(actor.Role),
		At:        change.At,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.UpdateStatus(ctx, change, msg); err != nil {
		return domain.Order{}, err
	}
	updated := o.Apply(change)
	s.log.Info("order transitioned", "order_id", o.ID, "from", change.From, "to", change.To, "actor_id", actor.ID, "actor_role", actor.Role)

	if to == domain.StatusCanceled {
		if err := s.hook.OrderCanceled(ctx, updated); err != nil {
			s.log.Error("cancel hook failed", "order_id", o.ID, "err", err)
		}
	}
	return updated, nil
}

// SetPaymentStatus records the payment label. It is independent of the order
// state machine; only the order's producer or an admin may change it.
func (s *Service) SetPaymentStatus(ctx context.Context, actor identity.Actor, id string, to domain.PaymentStatus) (domain.Order, error) {
	if !to.Valid() {
		return domain.Order{}, apperr.Newf(apperr.CodeInvalidArgument, "unknown payment state %q", to)
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !canView(o, actor) {
		return domain.Order{}, apperr.ErrNotFound
	}
	if actor.Role == identity.RoleConsumer {
		return domain.Order{}, apperr.ErrUnauthorized
	}
	if o.PaymentStatus == to {
		return o, nil
	}
	at := s.now().UTC()
	msg, err := outbox.NewMessage(ctx, domain.AggregateType, o.ID, domain.EventOrderPaymentChanged, domain.OrderPaymentChanged{
		OrderID: o.ID, From: o.PaymentStatus, To: to, At: at,
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.UpdatePayment(ctx, o.ID, o.PaymentStatus, to, at, msg); err != nil {
		return domain.Order{}, err
	}
	o.PaymentStatus = to
	o.UpdatedAt = at
	s.log.Info("order payment updated", "order_id", o.ID, "payment_state", to)
	return o, nil
}
