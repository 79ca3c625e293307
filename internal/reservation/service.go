// AngelaMos | 2026
// service.go

package reservation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/customer"
	"github.com/carterperez-dev/waitlist-backend/internal/notification"
)

type BusinessFinder interface {
	GetByID(ctx context.Context, id string) (*business.Business, error)
}

type CustomerFinder interface {
	Get(ctx context.Context, id string) (*customer.Customer, error)
	EnsureLinked(ctx context.Context, customerID, businessID string) error
}

type Service struct {
	repo       Repository
	businesses BusinessFinder
	customers  CustomerFinder
	notifier   notification.Gateway
	locks      *core.KeyedMutex
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	businesses BusinessFinder,
	customers CustomerFinder,
	notifier notification.Gateway,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		businesses: businesses,
		customers:  customers,
		notifier:   notifier,
		locks:      core.NewKeyedMutex(),
		logger:     logger,
	}
}

// Result carries a reservation after a mutation and whether the customer
// was texted about it.
type Result struct {
	Reservation *Detail
	SMSSent     bool
}

// Create books a PENDING reservation. Another active reservation at the
// same business, date and time is a conflict.
func (s *Service) Create(
	ctx context.Context,
	caller access.Identity,
	req CreateReservationRequest,
) (*Detail, error) {
	date, clock, err := ParseSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	b, err := s.businesses.GetByID(ctx, req.BusinessID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, core.Errorf(core.ErrInvalidState, "business %s is not accepting reservations", b.Name)
	}
	if err := caller.CheckBusiness(b.ID); err != nil {
		return nil, err
	}

	c, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if err := s.customers.EnsureLinked(ctx, c.ID, b.ID); err != nil {
		return nil, err
	}

	res := &Reservation{
		ID:              uuid.NewString(),
		BusinessID:      b.ID,
		CustomerID:      c.ID,
		Date:            date,
		Time:            clock,
		PartySize:       req.PartySize,
		Status:          StatusPending,
		SpecialRequests: req.SpecialRequests,
	}

	err = s.locks.With(b.ID, func() error {
		return s.repo.WithTx(ctx, func(repo Repository) error {
			taken, err := repo.ExistsActiveAt(ctx, b.ID, date, clock)
			if err != nil {
				return err
			}
			if taken {
				return core.Errorf(core.ErrConflict,
					"%s already has a reservation on %s at %s", b.Name, date, clock)
			}
			return repo.Create(ctx, res)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reservation created",
		"reservation_id", res.ID,
		"business_id", b.ID,
		"date", date,
		"time", clock,
	)

	return s.repo.GetDetail(ctx, res.ID)
}

// Confirm moves a pending reservation to CONFIRMED and texts the customer.
func (s *Service) Confirm(ctx context.Context, caller access.Identity, id string) (*Result, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin, access.RoleBusinessOwner); err != nil {
		return nil, err
	}

	d, err := s.transition(ctx, caller, id, ActionConfirm)
	if err != nil {
		return nil, err
	}

	sent, err := s.notifier.SendReservationConfirmation(ctx, message(d))
	s.logNotification(ctx, "reservation_confirmed", d.ID, err)

	return &Result{Reservation: d, SMSSent: sent}, nil
}

func (s *Service) Cancel(ctx context.Context, caller access.Identity, id string) (*Detail, error) {
	return s.transition(ctx, caller, id, ActionCancel)
}

func (s *Service) Complete(ctx context.Context, caller access.Identity, id string) (*Detail, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin, access.RoleBusinessOwner); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, ActionComplete)
}

// SendReminder texts the customer about an upcoming active reservation.
func (s *Service) SendReminder(ctx context.Context, caller access.Identity, id string) (*Result, error) {
	d, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !d.IsActive() {
		return nil, core.Errorf(core.ErrInvalidState,
			"reminders are only sent for pending or confirmed reservations")
	}

	sent, err := s.notifier.SendReservationReminder(ctx, message(d))
	s.logNotification(ctx, "reservation_reminder", d.ID, err)

	return &Result{Reservation: d, SMSSent: sent}, nil
}

func (s *Service) transition(
	ctx context.Context,
	caller access.Identity,
	id string,
	action Action,
) (*Detail, error) {
	ctx, span := core.StartSpan(ctx, "reservation."+string(action),
		attribute.String("reservation.id", id),
	)
	defer span.End()

	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := caller.CheckBusiness(res.BusinessID); err != nil {
		return nil, err
	}

	if err := res.apply(action, core.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, res); err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "reservation updated",
		"reservation_id", res.ID,
		"action", action,
		"status", res.Status,
	)

	return s.repo.GetDetail(ctx, id)
}

func (s *Service) Get(ctx context.Context, caller access.Identity, id string) (*Detail, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := caller.CheckBusiness(d.BusinessID); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns every reservation to platform admins and the active ones
// of the caller's businesses to everyone else.
func (s *Service) List(ctx context.Context, caller access.Identity) ([]Detail, error) {
	if caller.IsPlatformAdmin() {
		return s.repo.List(ctx, ListFilter{})
	}
	return s.repo.List(ctx, ListFilter{
		BusinessIDs: caller.BusinessIDs,
		ScopeToIDs:  true,
		Statuses:    ActiveStatuses,
	})
}

// ListByBusiness lists one business's reservations on date, or its
// active reservations when date is empty.
func (s *Service) ListByBusiness(
	ctx context.Context,
	caller access.Identity,
	businessID, date string,
) ([]Detail, error) {
	if err := caller.CheckBusiness(businessID); err != nil {
		return nil, err
	}
	if _, err := s.businesses.GetByID(ctx, businessID); err != nil {
		return nil, err
	}

	filter := ListFilter{BusinessIDs: []string{businessID}, ScopeToIDs: true}
	if date != "" {
		d, _, err := ParseSlot(date, "00:00")
		if err != nil {
			return nil, err
		}
		filter.Date = d
	} else {
		filter.Statuses = ActiveStatuses
	}

	return s.repo.List(ctx, filter)
}

func (s *Service) ListByCustomer(
	ctx context.Context,
	caller access.Identity,
	customerID string,
) ([]Detail, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return nil, err
	}

	filter := ListFilter{CustomerID: customerID}
	if !caller.IsPlatformAdmin() {
		filter.ScopeToIDs = true
		filter.BusinessIDs = caller.BusinessIDs
	}

	return s.repo.List(ctx, filter)
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func message(d *Detail) notification.ReservationMessage {
	return notification.ReservationMessage{
		Phone:        d.CustomerPhone,
		CustomerName: d.CustomerName,
		BusinessName: d.BusinessName,
		Date:         d.Date,
		Time:         d.Time,
		PartySize:    d.PartySize,
	}
}

func (s *Service) logNotification(ctx context.Context, kind, reservationID string, err error) {
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "reservation notification failed",
		"kind", kind,
		"reservation_id", reservationID,
		"error", err,
	)
}
