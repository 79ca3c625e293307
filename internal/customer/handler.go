// AngelaMos | 2026
// handler.go

package customer

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
	r.Route("/customers", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/phone/{phone}", h.GetByPhone)
		r.Get("/{customerID}", h.Get)

		r.Post("/", h.Create)
		r.Post("/find-or-create", h.FindOrCreate)
		r.Put("/{customerID}", h.Update)
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
		core.WriteError(w, err, "customer")
		return
	}

	core.Paginated(w, ToResponseList(items), params.Page, params.PageSize, total)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	term := r.URL.Query().Get("q")
	if term == "" {
		term = r.URL.Query().Get("searchTerm")
	}

	params := pageParams(r)
	items, total, err := h.service.Search(r.Context(), caller, term, params)
	if err != nil {
		core.WriteError(w, err, "customer")
		return
	}

	core.Paginated(w, ToResponseList(items), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		core.WriteError(w, err, "customer")
		return
	}

	core.OK(w, ToResponse(c))
}

func (h *Handler) GetByPhone(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		core.WriteError(w, err, "customer")
		return
	}

	core.OK(w, ToResponse(c))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req CreateCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		core.WriteError(w, err, "customer")
		return
	}

	core.Created(w, ToResponse(c))
}

func (h *Handler) FindOrCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req CreateCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.FindOrCreate(r.Context(), caller, req)
	if err != nil {
		core.WriteError(w, err, "customer")
		return
	}

	core.OK(w, ToResponse(c))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.Update(r.Context(), chi.URLParam(r, "customerID"), req)
	if err != nil {
		core.WriteError(w, err, "customer")
		return
	}

	core.OK(w, ToResponse(c))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := core.DecodeJSON(r, dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func pageParams(r *http.Request) ListParams {
	p := ListParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
	}
	p.Normalize()
	return p
}
