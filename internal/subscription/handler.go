// AngelaMos | 2026
// handler.go

package subscription

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(middleware.RequireAdmin)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/expire-overdue", h.ExpireOverdue)
		r.Get("/business/{businessID}", h.GetByBusiness)
		r.Get("/{subscriptionID}", h.Get)
		r.Put("/{subscriptionID}", h.Update)
		r.Put("/{subscriptionID}/activate", h.Activate)
		r.Put("/{subscriptionID}/cancel", h.Cancel)
		r.Put("/{subscriptionID}/suspend", h.Suspend)
		r.Delete("/{subscriptionID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), caller, r.URL.Query().Get("status"))
	if err != nil {
		core.WriteError(w, err, "subscription")
		return
	}

	core.OK(w, ToResponseList(items))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	sub, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "subscriptionID"))
	if err != nil {
		core.WriteError(w, err, "subscription")
		return
	}

	core.OK(w, ToResponse(sub))
}

func (h *Handler) GetByBusiness(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	sub, err := h.service.GetByBusiness(r.Context(), caller, chi.URLParam(r, "businessID"))
	if err != nil {
		core.WriteError(w, err, "subscription")
		return
	}

	core.OK(w, ToResponse(sub))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req CreateSubscriptionRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.Created(w, ToResponse(sub))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req UpdateSubscriptionRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "subscriptionID"), req)
	if err != nil {
		core.WriteError(w, err, "subscription")
		return
	}

	core.OK(w, ToResponse(sub))
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Activate)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Cancel)
}

func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Suspend)
}

type actionFunc func(ctx context.Context, caller access.Identity, id string) (*Subscription, error)

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn actionFunc) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	sub, err := fn(r.Context(), caller, chi.URLParam(r, "subscriptionID"))
	if err != nil {
		core.WriteError(w, err, "subscription")
		return
	}

	core.OK(w, ToResponse(sub))
}

func (h *Handler) ExpireOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ExpireOverdue(r.Context())
	if err != nil {
		core.WriteError(w, err, "subscription")
		return
	}

	core.OK(w, ExpireResponse{Expired: n})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, chi.URLParam(r, "subscriptionID")); err != nil {
		core.WriteError(w, err, "subscription")
		return
	}

	core.NoContent(w)
}
