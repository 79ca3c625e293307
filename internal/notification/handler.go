// AngelaMos | 2026
// handler.go

package notification

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/customer"
	"github.com/carterperez-dev/waitlist-backend/internal/middleware"
)

type CustomerFinder interface {
	Get(ctx context.Context, id string) (*customer.Customer, error)
}

type Handler struct {
	notifier  *Notifier
	customers CustomerFinder
	validator *validator.Validate
}

func NewHandler(notifier *Notifier, customers CustomerFinder) *Handler {
	return &Handler{
		notifier:  notifier,
		customers: customers,
		validator: core.NewValidator(),
	}
}

type SendSMSRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Message    string `json:"message"     validate:"required,min=1,max=1600"`
}

type SendSMSResponse struct {
	Success    bool      `json:"success"`
	CustomerID string    `json:"customer_id"`
	Phone      string    `json:"phone_number"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type StatusResponse struct {
	MessageID string    `json:"message_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// RegisterRoutes mounts the manual SMS endpoints. sendLimit throttles
// outbound messages per user.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	sendLimit func(http.Handler) http.Handler,
) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(authenticator)

		r.With(sendLimit).Post("/sms", h.SendSMS)
		r.Get("/status/{messageID}", h.Status)
	})
}

func (h *Handler) SendSMS(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.Caller(w, r)
	if !ok {
		return
	}

	var req SendSMSRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	c, err := h.customers.Get(r.Context(), req.CustomerID)
	if err != nil {
		core.WriteError(w, err, "customer")
		return
	}

	if !caller.IsPlatformAdmin() &&
		!slices.ContainsFunc(c.BusinessIDs, caller.HasBusiness) {
		core.Forbidden(w, "customer does not belong to your businesses")
		return
	}

	sent, err := h.notifier.SendSMS(r.Context(), c.Phone, req.Message)
	if err != nil {
		slog.WarnContext(r.Context(), "manual sms failed",
			"customer_id", c.ID,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
	}

	resp := SendSMSResponse{
		Success:    sent,
		CustomerID: c.ID,
		Phone:      c.Phone,
		Message:    req.Message,
		Timestamp:  core.Now(),
	}

	if !sent {
		core.JSON(w, http.StatusInternalServerError, core.Response{Success: false, Data: resp})
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "messageID")

	status, err := h.notifier.Status(r.Context(), id)
	if err != nil {
		core.WriteError(w, err, "message")
		return
	}

	core.OK(w, StatusResponse{
		MessageID: id,
		Status:    status,
		Timestamp: core.Now(),
	})
}
