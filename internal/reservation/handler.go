// AngelaMos | 2026
// handler.go

package reservation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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
	r.Route("/reservations", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/business/{businessID}", h.ListByBusiness)
		r.Get("/customer/{customerID}", h.ListByCustomer)
		r.Get("/{reservationID}", h.Get)

		r.With(middleware.RequireManager).Put("/{reservationID}/confirm", h.Confirm)
		r.With(middleware.RequireManager).Put("/{reservationID}/complete", h.Complete)
		r.Put("/{reservationID}/cancel", h.Cancel)
		r.Post("/{reservationID}/reminder", h.SendReminder)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), caller)
	if err != nil {
		core.WriteError(w, err, "reservation")
		return
	}

	core.OK(w, ToResponseList(items))
}

func (h *Handler) ListByBusiness(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListByBusiness(r.Context(), caller,
		chi.URLParam(r, "businessID"), r.URL.Query().Get("date"))
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.OK(w, ToResponseList(items))
}

func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListByCustomer(r.Context(), caller, chi.URLParam(r, "customerID"))
	if err != nil {
		core.WriteError(w, err, "customer")
		return
	}

	core.OK(w, ToResponseList(items))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	d, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "reservationID"))
	if err != nil {
		core.WriteError(w, err, "reservation")
		return
	}

	core.OK(w, ToResponse(d))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req CreateReservationRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	d, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		core.WriteError(w, err, "resource")
		return
	}

	core.Created(w, ToResponse(d))
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	res, err := h.service.Confirm(r.Context(), caller, chi.URLParam(r, "reservationID"))
	if err != nil {
		core.WriteError(w, err, "reservation")
		return
	}

	core.OK(w, ToNotifiedResponse(res))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	d, err := h.service.Cancel(r.Context(), caller, chi.URLParam(r, "reservationID"))
	if err != nil {
		core.WriteError(w, err, "reservation")
		return
	}

	core.OK(w, ToResponse(d))
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	d, err := h.service.Complete(r.Context(), caller, chi.URLParam(r, "reservationID"))
	if err != nil {
		core.WriteError(w, err, "reservation")
		return
	}

	core.OK(w, ToResponse(d))
}

func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	res, err := h.service.SendReminder(r.Context(), caller, chi.URLParam(r, "reservationID"))
	if err != nil {
		core.WriteError(w, err, "reservation")
		return
	}

	core.OK(w, ToNotifiedResponse(res))
}
