package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cartapp "github.com/dmehra2102/agro-marketplace/internal/cart/application"
	catalogapp "github.com/dmehra2102/agro-marketplace/internal/catalog/application"
	"github.com/dmehra2102/agro-marketplace/internal/checkout/domain"
	"github.com/dmehra2102/agro-marketplace/internal/identity"
	orderdomain "github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

type Service struct {
	log       *slog.Logger
	carts     cartapp.CartRepository
	catalog   catalogapp.Catalog
	committer Committer
	newID     func() string
	now       func() time.Time
	tracer    trace.Tracer
}

func NewService(log *slog.Logger, carts cartapp.CartRepository, catalog catalogapp.Catalog, committer Committer) *Service {
	return &Service{
		log:       log,
		carts:     carts,
		catalog:   catalog,
		committer: committer,
		newID:     uuid.NewString,
		now:       time.Now,
		tracer:    otel.Tracer("checkout-service"),
	}
}

type Request struct {
	DeliveryAddress string
	PaymentMethod   string
	Notes           string
}

type Result struct {
	OrderIDs []string            `json:"order_ids"`
	Orders   []orderdomain.Order `json:"orders"`
}

// Checkout turns the consumer's cart into one order per producer. Any failure
// leaves stock, orders and the cart exactly as they were.
func (s *Service) Checkout(ctx context.Context, actor identity.Actor, req Request) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "Checkout", trace.WithAttributes(attribute.String("consumer.id", actor.ID)))
	defer span.End()

	res, err := s.checkout(ctx, actor, req)
	if err != nil {
		span.SetStatus(codes.Error, string(apperr.CodeOf(err)))
		s.log.Info("checkout rejected", "consumer_id", actor.ID, "code", apperr.CodeOf(err), "err", err)
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("orders.count", len(res.OrderIDs)))
	s.log.Info("checkout completed", "consumer_id", actor.ID, "order_ids", res.OrderIDs)
	return res, nil
}

func (s *Service) checkout(ctx context.Context, actor identity.Actor, req Request) (Result, error) {
	if actor.Role != identity.RoleConsumer || actor.ID == "" {
		return Result{}, apperr.ErrUnauthorized
	}
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.DeliveryAddress == "" {
		return Result{}, apperr.New(apperr.CodeInvalidArgument, "delivery address is required")
	}
	if req.PaymentMethod == "" {
		return Result{}, apperr.New(apperr.CodeInvalidArgument, "payment method is required")
	}

	cart, err := s.carts.Get(ctx, actor.ID)
	if err != nil {
		return Result{}, err
	}
	if cart.Empty() {
		return Result{}, apperr.ErrEmptyCart
	}
	lines := cart.Lines()

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	live, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return Result{}, err
	}
	if err := domain.Validate(lines, live); err != nil {
		return Result{}, err
	}

	orders := domain.Split(actor.ID, lines, live, orderdomain.Delivery{
		Address:       req.DeliveryAddress,
		PaymentMethod: req.PaymentMethod,
		Notes:         strings.TrimSpace(req.Notes),
	}, s.newID, s.now())

	p := domain.Placement{
		ConsumerID:  actor.ID,
		CartVersion: cart.UpdatedAt,
		Decrements:  domain.Decrements(lines),
		Orders:      orders,
	}
	result := Result{OrderIDs: make([]string, 0, len(orders)), Orders: orders}
	for _, o := range orders {
		msg, err := outbox.NewMessage(ctx, orderdomain.AggregateType, o.ID, orderdomain.EventOrderPlaced, orderdomain.OrderPlaced{
			OrderID:    o.ID,
			ConsumerID: o.ConsumerID,
			ProducerID: o.ProducerID,
			Total:      o.Total,
			Items:      o.Items,
		})
		if err != nil {
			return Result{}, err
		}
		p.Messages = append(p.Messages, msg)
		result.OrderIDs = append(result.OrderIDs, o.ID)
	}

	if err := s.committer.Commit(ctx, p); err != nil {
		return Result{}, err
	}
	return result, nil
}
