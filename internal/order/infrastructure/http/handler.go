package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/agro-marketplace/internal/identity/jwtauth"
	"github.com/dmehra2102/agro-marketplace/internal/order/application"
	"github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/httpjson"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

type transitionReq struct {
	TargetState       domain.OrderStatus `json:"target_state"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery,omitempty"`
}

type paymentReq struct {
	PaymentState domain.PaymentStatus `json:"payment_state"`
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/transitions", h.transition)
	r.Put("/orders/{id}/payment", h.setPayment)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := domain.ListOptions{Status: domain.OrderStatus(q.Get("state"))}
	var err error
	if opts.Limit, err = intParam(q.Get("limit")); err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	res, err := h.service.List(r.Context(), jwtauth.MustActor(r), opts)
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Newf(apperr.CodeInvalidArgument, "invalid paging value %q", v)
	}
	return n, nil
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), jwtauth.MustActor(r), chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, o)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "TransitionOrder")
	defer span.End()

	var req transitionReq
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	span.SetAttributes(attribute.String("order.target_state", string(req.TargetState)))

	o, err := h.service.Transition(ctx, jwtauth.MustActor(r), chi.URLParam(r, "id"), req.TargetState,
		application.TransitionOptions{EstimatedDelivery: req.EstimatedDelivery})
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, o)
}

func (h *Handler) setPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentReq
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	o, err := h.service.SetPaymentStatus(r.Context(), jwtauth.MustActor(r), chi.URLParam(r, "id"), req.PaymentState)
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, o)
}
