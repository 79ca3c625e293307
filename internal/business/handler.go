// AngelaMos | 2026
// handler.go

package business

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
	r.Route("/business", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/type/{type}", h.ListByType)
		r.Get("/{businessID}", h.Get)

		r.With(middleware.RequireAdmin).Post("/", h.Create)
		r.With(middleware.RequireManager).Put("/{businessID}", h.Update)
		r.With(middleware.RequireManager).Delete("/{businessID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	params := pageParams(r)
	items, total, err := h.service.List(r.Context(), caller, params)
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.Paginated(w, ToResponseList(items), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "businessID"))
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.OK(w, ToResponse(b))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		term = r.URL.Query().Get("searchTerm")
	}

	params := pageParams(r)
	items, total, err := h.service.Search(r.Context(), term, params)
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.Paginated(w, ToResponseList(items), params.Page, params.PageSize, total)
}

func (h *Handler) ListByType(w http.ResponseWriter, r *http.Request) {
	params := pageParams(r)
	items, total, err := h.service.ListByType(r.Context(), Type(chi.URLParam(r, "type")), params)
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.Paginated(w, ToResponseList(items), params.Page, params.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req CreateBusinessRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	b, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.Created(w, ToResponse(b))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req UpdateBusinessRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	b, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "businessID"), req)
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.OK(w, ToResponse(b))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), caller, chi.URLParam(r, "businessID")); err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.NoContent(w)
}

func pageParams(r *http.Request) ListParams {
	p := ListParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
	}
	p.Normalize()
	return p
}
