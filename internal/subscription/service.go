// AngelaMos | 2026
// service.go

package subscription

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type BusinessFinder interface {
	GetByID(ctx context.Context, id string) (*business.Business, error)
}

// Service manages billing records. Every operation is platform admin only.
type Service struct {
	repo       Repository
	businesses BusinessFinder
	logger     *slog.Logger
}

func NewService(repo Repository, businesses BusinessFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, businesses: businesses, logger: logger}
}

func (s *Service) List(ctx context.Context, caller access.Identity, status string) ([]Subscription, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}

	st := Status(strings.ToUpper(status))
	if st != "" && !st.Valid() {
		return nil, core.Errorf(core.ErrInvalidInput, "unknown subscription status %q", status)
	}

	return s.repo.List(ctx, st)
}

func (s *Service) Get(ctx context.Context, caller access.Identity, id string) (*Subscription, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByBusiness(
	ctx context.Context,
	caller access.Identity,
	businessID string,
) (*Subscription, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}
	return s.repo.GetByBusinessID(ctx, businessID)
}

// Create opens the single subscription a business may hold.
func (s *Service) Create(
	ctx context.Context,
	caller access.Identity,
	req CreateSubscriptionRequest,
) (*Subscription, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}

	if _, err := s.businesses.GetByID(ctx, req.BusinessID); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByBusinessID(ctx, req.BusinessID)
	switch {
	case err == nil:
		return nil, core.Errorf(core.ErrConflict, "business already has a subscription")
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	sub := New(req.BusinessID)
	if req.Plan != "" {
		sub.Plan = req.Plan
	}
	if req.Status != "" {
		sub.Status = req.Status
	}
	if req.StartDate != nil {
		sub.StartDate = req.StartDate.UTC()
	}
	if req.BillingCycleDays > 0 {
		sub.BillingCycleDays = req.BillingCycleDays
	}
	if req.AutoRenew != nil {
		sub.AutoRenew = *req.AutoRenew
	}
	sub.EndDate = utcPtr(req.EndDate)
	sub.TrialEndDate = utcPtr(req.TrialEndDate)
	sub.MonthlyPrice = req.MonthlyPrice
	sub.Notes = req.Notes

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "subscription created",
		"subscription_id", sub.ID,
		"business_id", sub.BusinessID,
		"plan", sub.Plan,
	)

	return sub, nil
}

// New returns a BASIC trial with the default billing cycle.
func New(businessID string) *Subscription {
	return &Subscription{
		ID:               uuid.NewString(),
		BusinessID:       businessID,
		Plan:             PlanBasic,
		Status:           StatusTrial,
		StartDate:        core.Now(),
		BillingCycleDays: DefaultBillingCycleDays,
		AutoRenew:        true,
	}
}

func (s *Service) Update(
	ctx context.Context,
	caller access.Identity,
	id string,
	req UpdateSubscriptionRequest,
) (*Subscription, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Plan != nil {
		sub.Plan = *req.Plan
	}
	if req.Status != nil {
		sub.Status = *req.Status
	}
	if req.StartDate != nil {
		sub.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		sub.EndDate = utcPtr(req.EndDate)
	}
	if req.BillingCycleDays != nil {
		sub.BillingCycleDays = *req.BillingCycleDays
	}
	if req.MonthlyPrice != nil {
		sub.MonthlyPrice = *req.MonthlyPrice
	}
	if req.AutoRenew != nil {
		sub.AutoRenew = *req.AutoRenew
	}
	if req.TrialEndDate != nil {
		sub.TrialEndDate = utcPtr(req.TrialEndDate)
	}
	if req.Notes != nil {
		sub.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *Service) Activate(ctx context.Context, caller access.Identity, id string) (*Subscription, error) {
	return s.transition(ctx, caller, id, ActionActivate)
}

func (s *Service) Cancel(ctx context.Context, caller access.Identity, id string) (*Subscription, error) {
	return s.transition(ctx, caller, id, ActionCancel)
}

func (s *Service) Suspend(ctx context.Context, caller access.Identity, id string) (*Subscription, error) {
	return s.transition(ctx, caller, id, ActionSuspend)
}

func (s *Service) transition(
	ctx context.Context,
	caller access.Identity,
	id string,
	action Action,
) (*Subscription, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := sub.apply(action, core.Now()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "subscription status changed",
		"subscription_id", sub.ID,
		"action", string(action),
		"status", sub.Status,
	)

	return sub, nil
}

// ExpireOverdue moves every ACTIVE subscription past its end date to
// EXPIRED and returns how many changed.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, core.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "overdue subscriptions expired", "count", n)
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, caller access.Identity, id string) error {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}
