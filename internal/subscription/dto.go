// AngelaMos | 2026
// dto.go

package subscription

import (
	"time"
)

type CreateSubscriptionRequest struct {
	BusinessID       string     `json:"business_id"        validate:"required"`
	Plan             Plan       `json:"plan"               validate:"omitempty,oneof=BASIC PRO ENTERPRISE"`
	Status           Status     `json:"status"             validate:"omitempty,oneof=ACTIVE TRIAL EXPIRED CANCELLED SUSPENDED"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	BillingCycleDays int        `json:"billing_cycle_days" validate:"omitempty,min=1,max=366"`
	MonthlyPrice     float64    `json:"monthly_price"      validate:"min=0"`
	AutoRenew        *bool      `json:"auto_renew"`
	TrialEndDate     *time.Time `json:"trial_end_date"`
	Notes            string     `json:"notes"              validate:"max=2000"`
}

// UpdateSubscriptionRequest replaces every mutable field; absent pointers
// keep their stored value.
type UpdateSubscriptionRequest struct {
	Plan             *Plan      `json:"plan"               validate:"omitempty,oneof=BASIC PRO ENTERPRISE"`
	Status           *Status    `json:"status"             validate:"omitempty,oneof=ACTIVE TRIAL EXPIRED CANCELLED SUSPENDED"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	BillingCycleDays *int       `json:"billing_cycle_days" validate:"omitempty,min=1,max=366"`
	MonthlyPrice     *float64   `json:"monthly_price"      validate:"omitempty,min=0"`
	AutoRenew        *bool      `json:"auto_renew"`
	TrialEndDate     *time.Time `json:"trial_end_date"`
	Notes            *string    `json:"notes"              validate:"omitempty,max=2000"`
}

type SubscriptionResponse struct {
	ID               string     `json:"id"`
	BusinessID       string     `json:"business_id"`
	Plan             Plan       `json:"plan"`
	Status           Status     `json:"status"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	BillingCycleDays int        `json:"billing_cycle_days"`
	MonthlyPrice     float64    `json:"monthly_price"`
	AutoRenew        bool       `json:"auto_renew"`
	TrialEndDate     *time.Time `json:"trial_end_date"`
	Notes            string     `json:"notes"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ExpireResponse struct {
	Expired int64 `json:"expired"`
}

func ToResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:               s.ID,
		BusinessID:       s.BusinessID,
		Plan:             s.Plan,
		Status:           s.Status,
		StartDate:        s.StartDate,
		EndDate:          s.EndDate,
		BillingCycleDays: s.BillingCycleDays,
		MonthlyPrice:     s.MonthlyPrice,
		AutoRenew:        s.AutoRenew,
		TrialEndDate:     s.TrialEndDate,
		Notes:            s.Notes,
		IsActive:         s.IsActive(),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func ToResponseList(items []Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}
