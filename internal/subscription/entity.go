// AngelaMos | 2026
// entity.go

package subscription

import (
	"slices"
	"time"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Plan string

const (
	PlanBasic      Plan = "BASIC"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusTrial     Status = "TRIAL"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
	StatusSuspended Status = "SUSPENDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrial, StatusExpired, StatusCancelled, StatusSuspended:
		return true
	}
	return false
}

const DefaultBillingCycleDays = 30

type Action string

const (
	ActionActivate Action = "activate"
	ActionCancel   Action = "cancel"
	ActionSuspend  Action = "suspend"
	ActionExpire   Action = "expire"
)

var transitionMap = map[Action][]Status{
	ActionActivate: {StatusTrial, StatusSuspended, StatusExpired, StatusCancelled},
	ActionCancel:   {StatusActive, StatusTrial, StatusSuspended},
	ActionSuspend:  {StatusActive, StatusTrial},
	ActionExpire:   {StatusActive, StatusTrial},
}

func ValidTransition(action Action, from Status) bool {
	return slices.Contains(transitionMap[action], from)
}

type Subscription struct {
	ID               string     `db:"id"`
	BusinessID       string     `db:"business_id"`
	Plan             Plan       `db:"plan"`
	Status           Status     `db:"status"`
	StartDate        time.Time  `db:"start_date"`
	EndDate          *time.Time `db:"end_date"`
	BillingCycleDays int        `db:"billing_cycle_days"`
	MonthlyPrice     float64    `db:"monthly_price"`
	AutoRenew        bool       `db:"auto_renew"`
	TrialEndDate     *time.Time `db:"trial_end_date"`
	Notes            string     `db:"notes"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// IsActive reports whether the business currently has service.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive || s.Status == StatusTrial
}

func (s *Subscription) IsOverdue(now time.Time) bool {
	return s.Status == StatusActive && s.EndDate != nil && s.EndDate.Before(now)
}

func (s *Subscription) apply(action Action, now time.Time) error {
	if !ValidTransition(action, s.Status) {
		return core.Errorf(core.ErrInvalidState,
			"cannot %s a subscription that is %s", action, s.Status)
	}

	switch action {
	case ActionActivate:
		// a fresh billing period starts whenever service resumes
		s.Status = StatusActive
		s.StartDate = now
		end := now.AddDate(0, 0, s.BillingCycleDays)
		s.EndDate = &end
	case ActionCancel:
		s.Status = StatusCancelled
		s.AutoRenew = false
	case ActionSuspend:
		s.Status = StatusSuspended
	case ActionExpire:
		s.Status = StatusExpired
	}
	s.UpdatedAt = now

	return nil
}

func (s *Subscription) Activate(now time.Time) error {
	return s.apply(ActionActivate, now)
}

func (s *Subscription) Cancel(now time.Time) error {
	return s.apply(ActionCancel, now)
}

func (s *Subscription) Suspend(now time.Time) error {
	return s.apply(ActionSuspend, now)
}

func (s *Subscription) Expire(now time.Time) error {
	return s.apply(ActionExpire, now)
}
