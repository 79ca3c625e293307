// AngelaMos | 2026
// handler.go

package user

import (
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
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireManager)
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/{userID}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/business/{businessID}", h.ListByBusiness)
			r.Put("/{userID}", h.Update)
			r.Put("/{userID}/activate", h.Activate)
			r.Put("/{userID}/deactivate", h.Deactivate)
			r.Delete("/{userID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	params := ListParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     access.Role(r.URL.Query().Get("role")),
	}

	users, total, err := h.service.List(r.Context(), caller, params)
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	params.Normalize()
	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "userID"))
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) ListByBusiness(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListByBusiness(r.Context(), caller, chi.URLParam(r, "businessID"))
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.OK(w, ToUserResponseList(users))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.Created(w, ToUserResponse(u))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "userID"), req)
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	u, err := h.service.Activate(r.Context(), caller, chi.URLParam(r, "userID"))
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	u, err := h.service.Deactivate(r.Context(), caller, chi.URLParam(r, "userID"))
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, chi.URLParam(r, "userID")); err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.NoContent(w)
}
