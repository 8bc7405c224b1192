package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/agro-marketplace/internal/identity/jwtauth"
	"github.com/dmehra2102/agro-marketplace/internal/moderation/application"
	"github.com/dmehra2102/agro-marketplace/internal/moderation/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/httpjson"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

type createReportReq struct {
	TargetType  domain.TargetType `json:"target_type"`
	TargetID    string            `json:"target_id"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
}

type resolutionReq struct {
	ResolutionState domain.ReportStatus `json:"resolution_state"`
	ActionTaken     string              `json:"action_taken"`
	DelistProduct   bool                `json:"delist_product"`
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/reports", h.create)
	r.Get("/reports", h.list)
	r.Get("/reports/{id}", h.get)
	r.Post("/reports/{id}/resolution", h.resolve)
	r.Delete("/reports/{id}", h.delete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createReportReq
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	rep, err := h.service.Create(r.Context(), jwtauth.MustActor(r), domain.NewReport{
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, rep)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := h.service.List(r.Context(), jwtauth.MustActor(r), domain.ListFilter{
		Status:     domain.ReportStatus(q.Get("state")),
		TargetType: domain.TargetType(q.Get("target_type")),
	})
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"items": reports})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Get(r.Context(), jwtauth.MustActor(r), chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, rep)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolutionReq
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	rep, err := h.service.Resolve(r.Context(), jwtauth.MustActor(r), chi.URLParam(r, "id"), application.ResolveInput{
		To:            req.ResolutionState,
		ActionTaken:   req.ActionTaken,
		DelistProduct: req.DelistProduct,
	})
	if err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	httpjson.Write(w, http.StatusOK, rep)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), jwtauth.MustActor(r), chi.URLParam(r, "id")); err != nil {
		httpjson.Error(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
