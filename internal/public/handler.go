// AngelaMos | 2026
// handler.go

package public

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the unauthenticated routes. limiter may be nil.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/public", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter)
		}
		r.Get("/waitlist/{businessID}", h.WaitlistSummary)
	})
}

func (h *Handler) WaitlistSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.WaitlistSummary(r.Context(), chi.URLParam(r, "businessID"))
	if err != nil {
		core.WriteError(w, err, "business")
		return
	}

	core.OK(w, summary)
}
