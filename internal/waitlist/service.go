// AngelaMos | 2026
// service.go

package waitlist

import (
	"context"
	"errors"
	"fmt"
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

// Result is a waitlist entry after a mutation together with the outcome
// of the customer notification it triggered.
type Result struct {
	Entry    *Entry
	Business *business.Business
	Customer *customer.Customer
	SMSSent  bool
}

// Enroll appends the customer to the business queue at max position + 1.
func (s *Service) Enroll(
	ctx context.Context,
	caller access.Identity,
	req EnrollRequest,
) (*Result, error) {
	ctx, span := core.StartSpan(ctx, "waitlist.enroll",
		attribute.String("business.id", req.BusinessID),
	)
	defer span.End()

	b, err := s.businesses.GetByID(ctx, req.BusinessID)
	if err != nil {
		return nil, err
	}
	if err := caller.CheckBusiness(b.ID); err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, core.Errorf(core.ErrInvalidState, "business %s is not active", b.Name)
	}

	c, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	if err := s.customers.EnsureLinked(ctx, c.ID, b.ID); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:         uuid.NewString(),
		BusinessID: b.ID,
		CustomerID: c.ID,
		PartySize:  req.PartySize,
		Status:     StatusWaiting,
		Notes:      req.Notes,
	}

	err = s.locks.With(b.ID, func() error {
		return s.repo.WithTx(ctx, func(repo Repository) error {
			if err := repo.LockQueue(ctx, b.ID); err != nil {
				return err
			}

			_, err := repo.FindActiveByCustomer(ctx, b.ID, c.ID)
			switch {
			case err == nil:
				return core.Errorf(core.ErrConflict, "customer is already on the waitlist")
			case !errors.Is(err, core.ErrNotFound):
				return err
			}

			last, err := repo.MaxActivePosition(ctx, b.ID)
			if err != nil {
				return err
			}

			entry.Position = last + 1
			entry.EstimatedWaitTime = EstimatedWait(entry.Position, b.AverageServiceTime)

			return repo.Create(ctx, entry)
		})
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	sent, err := s.notifier.SendWaitlistNotification(ctx, notification.WaitlistMessage{
		Phone:         c.Phone,
		CustomerName:  c.Name,
		BusinessName:  b.Name,
		BusinessPhone: b.Phone,
		Position:      entry.Position,
		EstimatedWait: entry.EstimatedWaitTime,
	})
	s.logNotification(ctx, "waitlist_joined", entry.ID, err)

	s.logger.InfoContext(ctx, "customer joined waitlist",
		"entry_id", entry.ID,
		"business_id", b.ID,
		"position", entry.Position,
		"estimated_wait", entry.EstimatedWaitTime,
	)

	return &Result{Entry: entry, Business: b, Customer: c, SMSSent: sent}, nil
}

// Notify tells a waiting customer their table is ready.
func (s *Service) Notify(ctx context.Context, caller access.Identity, id string) (*Result, error) {
	res, err := s.transition(ctx, caller, id, ActionNotify)
	if err != nil {
		return nil, err
	}

	res.SMSSent, err = s.notifier.SendTableReadyNotification(ctx, notification.WaitlistMessage{
		Phone:         res.Customer.Phone,
		CustomerName:  res.Customer.Name,
		BusinessName:  res.Business.Name,
		BusinessPhone: res.Business.Phone,
		Position:      res.Entry.Position,
		EstimatedWait: res.Entry.EstimatedWaitTime,
	})
	s.logNotification(ctx, "table_ready", res.Entry.ID, err)

	return res, nil
}

func (s *Service) Seat(ctx context.Context, caller access.Identity, id string) (*Result, error) {
	return s.transition(ctx, caller, id, ActionSeat)
}

func (s *Service) Cancel(ctx context.Context, caller access.Identity, id string) (*Result, error) {
	return s.transition(ctx, caller, id, ActionCancel)
}

// UpdateStatus moves an entry to the requested status through the
// matching action.
func (s *Service) UpdateStatus(
	ctx context.Context,
	caller access.Identity,
	id string,
	target Status,
) (*Result, error) {
	if !target.Valid() {
		return nil, core.Errorf(core.ErrInvalidInput, "unknown waitlist status %q", target)
	}

	action, ok := ActionFor(target)
	if !ok {
		return nil, core.Errorf(core.ErrInvalidState, "entries cannot be moved back to %s", target)
	}

	if action == ActionNotify {
		return s.Notify(ctx, caller, id)
	}
	return s.transition(ctx, caller, id, action)
}

// transition applies action under the business queue lock. Seat and
// Cancel free a position, so the entries behind it move up.
func (s *Service) transition(
	ctx context.Context,
	caller access.Identity,
	id string,
	action Action,
) (*Result, error) {
	ctx, span := core.StartSpan(ctx, "waitlist."+string(action),
		attribute.String("waitlist.entry_id", id),
	)
	defer span.End()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := caller.CheckBusiness(current.BusinessID); err != nil {
		return nil, err
	}

	b, err := s.businesses.GetByID(ctx, current.BusinessID)
	if err != nil {
		return nil, err
	}

	var entry *Entry
	err = s.locks.With(b.ID, func() error {
		return s.repo.WithTx(ctx, func(repo Repository) error {
			if err := repo.LockQueue(ctx, b.ID); err != nil {
				return err
			}

			e, err := repo.GetByID(ctx, id)
			if err != nil {
				return err
			}

			if err := e.apply(action, core.Now()); err != nil {
				return err
			}
			if err := repo.Update(ctx, e); err != nil {
				return err
			}

			if !e.IsActive() {
				moved, err := repo.Compact(ctx, b.ID, e.Position, b.AverageServiceTime)
				if err != nil {
					return err
				}
				core.AddSpanEvent(ctx, "waitlist.compacted",
					attribute.Int("waitlist.removed_position", e.Position),
					attribute.Int64("waitlist.moved", moved),
				)
			}

			entry = e
			return nil
		})
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	c, err := s.customers.Get(ctx, entry.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load waitlist customer: %w", err)
	}

	s.logger.InfoContext(ctx, "waitlist entry updated",
		"entry_id", entry.ID,
		"business_id", b.ID,
		"action", action,
		"status", entry.Status,
	)

	return &Result{Entry: entry, Business: b, Customer: c}, nil
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

// List returns the active queues the caller can see.
func (s *Service) List(ctx context.Context, caller access.Identity) ([]Detail, error) {
	filter := ListFilter{}
	if !caller.IsPlatformAdmin() {
		filter.ScopeToIDs = true
		filter.BusinessIDs = caller.BusinessIDs
	}
	return s.repo.ListActive(ctx, filter)
}

func (s *Service) ListByBusiness(
	ctx context.Context,
	caller access.Identity,
	businessID string,
) ([]Detail, error) {
	if _, err := s.queueBusiness(ctx, caller, businessID); err != nil {
		return nil, err
	}
	return s.repo.ListActive(ctx, ListFilter{
		BusinessIDs: []string{businessID},
		ScopeToIDs:  true,
	})
}

func (s *Service) Stats(
	ctx context.Context,
	caller access.Identity,
	businessID string,
) (*Stats, error) {
	if _, err := s.queueBusiness(ctx, caller, businessID); err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, businessID)
}

// Summary reports queue figures without an access check, for the public
// endpoint.
func (s *Service) Summary(ctx context.Context, businessID string) (*Stats, error) {
	return s.repo.Stats(ctx, businessID)
}

// CountByStatus reports entry totals across every business.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// queueBusiness loads a business whose queue the caller may read.
// Inactive businesses are hidden from everyone but platform admins.
func (s *Service) queueBusiness(
	ctx context.Context,
	caller access.Identity,
	businessID string,
) (*business.Business, error) {
	if err := caller.CheckBusiness(businessID); err != nil {
		return nil, err
	}

	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive && !caller.IsPlatformAdmin() {
		return nil, fmt.Errorf("business %s is inactive: %w", businessID, core.ErrNotFound)
	}

	return b, nil
}

func (s *Service) logNotification(ctx context.Context, kind, entryID string, err error) {
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "waitlist notification failed",
		"kind", kind,
		"entry_id", entryID,
		"error", err,
	)
}
