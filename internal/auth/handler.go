// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/middleware"
)

var errReuseDetected = core.NewAppError(
	core.ErrTokenRevoked,
	"security alert: token reuse detected, all sessions revoked",
	http.StatusUnauthorized,
	"TOKEN_REUSE_DETECTED",
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
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)
		r.Post("/validate", h.Validate)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/profile", h.Profile)
			r.Get("/me", h.Profile)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
		})
	})
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Refresh(
		r.Context(),
		req.RefreshToken,
		r.UserAgent(),
		middleware.ClientIP(r),
	)
	if err != nil {
		if errors.Is(err, ErrTokenReuse) {
			core.JSONError(w, errReuseDetected)
			return
		}
		core.WriteError(w, err, "refresh token")
		return
	}

	core.OK(w, resp)
}

// Validate accepts the token in the body or, failing that, the
// Authorization header.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if r.ContentLength != 0 {
		//nolint:errcheck // a malformed body simply yields an empty token
		_ = core.DecodeJSON(r, &req)
	}

	token := req.Token
	if token == "" {
		token = middleware.ExtractToken(r)
	}

	core.OK(w, h.service.Validate(r.Context(), token))
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	user, err := h.service.Profile(r.Context(), caller.UserID)
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.OK(w, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.Caller(w, r); !ok {
		return
	}

	var req RefreshRequest
	if r.ContentLength != 0 {
		if err := core.DecodeJSON(r, &req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
	}

	claims := middleware.GetClaims(r.Context())
	if err := h.service.Logout(r.Context(), req.RefreshToken, claims); err != nil {
		core.WriteError(w, err, "refresh token")
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	if err := h.service.LogoutAll(r.Context(), caller.UserID); err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.GetActiveSessions(r.Context(), caller.UserID)
	if err != nil {
		core.WriteError(w, err, "session")
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		core.BadRequest(w, "session ID required")
		return
	}

	if err := h.service.RevokeSession(r.Context(), caller.UserID, sessionID); err != nil {
		core.WriteError(w, err, "session")
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(r.Context(), caller.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		core.WriteError(w, err, "user")
		return
	}

	core.NoContent(w)
}
