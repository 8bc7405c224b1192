package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/agro-marketplace/internal/checkout/application"
	"github.com/dmehra2102/agro-marketplace/internal/identity/jwtauth"
	"github.com/dmehra2102/agro-marketplace/pkg/httpjson"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

type checkoutReq struct {
	DeliveryAddress string `json:"delivery_address"`
	PaymentMethod   string `json:"payment_method"`
	Notes           string `json:"notes"`
}

// Register mounts POST /checkout behind mws, typically the idempotency middleware.
func (h *Handler) Register(r chi.Router, mws ...func(http.Handler) http.Handler) {
	r.With(mws...).Post("/checkout", h.checkout)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	res, err := h.service.Checkout(r.Context(), jwtauth.MustActor(r), application.Request{
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, res)
}
