// AngelaMos | 2026
// handler.go

package waitlist

import (
	"context"
	"errors"
	"net/http"
	"strings"

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
	r.Route("/waitlist", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Enroll)
		r.Get("/business/{businessID}", h.ListByBusiness)
		r.Get("/business/{businessID}/stats", h.Stats)

		r.Route("/{entryID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/notify", h.Notify)
			r.Put("/seat", h.Seat)
			r.Put("/cancel", h.Cancel)
			r.Patch("/status", h.UpdateStatus)
			r.Delete("/", h.Remove)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), caller)
	if err != nil {
		core.WriteError(w, err, "waitlist entry")
		return
	}

	core.OK(w, ToDetailResponseList(items))
}

func (h *Handler) ListByBusiness(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListByBusiness(r.Context(), caller, chi.URLParam(r, "businessID"))
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.OK(w, ToDetailResponseList(items))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	businessID := chi.URLParam(r, "businessID")
	stats, err := h.service.Stats(r.Context(), caller, businessID)
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.OK(w, ToStatsResponse(businessID, stats))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	d, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "entryID"))
	if err != nil {
		core.WriteError(w, err, "waitlist entry")
		return
	}

	core.OK(w, ToDetailResponse(d))
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req EnrollRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	res, err := h.service.Enroll(r.Context(), caller, req)
	if err != nil {
		core.WriteError(w, err, "resource")
		return
	}

	core.Created(w, ToActionResponse(res))
}

func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Notify)
}

func (h *Handler) Seat(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Seat)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.service.Cancel)
}

// UpdateStatus takes the target from ?status= or a JSON body.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	target := Status(strings.ToUpper(r.URL.Query().Get("status")))
	if target == "" {
		var req UpdateStatusRequest
		if err := core.DecodeJSON(r, &req); err != nil {
			core.BadRequest(w, "status is required")
			return
		}
		target = Status(strings.ToUpper(string(req.Status)))
	}

	res, err := h.service.UpdateStatus(r.Context(), caller, chi.URLParam(r, "entryID"), target)
	if err != nil {
		core.WriteError(w, err, "waitlist entry")
		return
	}

	core.OK(w, ToActionResponse(res))
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	// seated or cancelled entries are already off the queue
	_, err := h.service.Cancel(r.Context(), caller, chi.URLParam(r, "entryID"))
	if err != nil && !errors.Is(err, core.ErrInvalidState) {
		core.WriteError(w, err, "waitlist entry")
		return
	}

	core.NoContent(w)
}

type actionFunc func(ctx context.Context, caller access.Identity, id string) (*Result, error)

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn actionFunc) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	res, err := fn(r.Context(), caller, chi.URLParam(r, "entryID"))
	if err != nil {
		core.WriteError(w, err, "waitlist entry")
		return
	}

	core.OK(w, ToActionResponse(res))
}
