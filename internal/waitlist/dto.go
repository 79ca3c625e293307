// AngelaMos | 2026
// dto.go

package waitlist

import (
	"time"
)

type EnrollRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	CustomerID string `json:"customer_id" validate:"required"`
	PartySize  int    `json:"party_size"  validate:"required,min=1,max=100"`
	Notes      string `json:"notes"       validate:"max=1000"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type EntryResponse struct {
	ID                string     `json:"id"`
	BusinessID        string     `json:"business_id"`
	CustomerID        string     `json:"customer_id"`
	BusinessName      string     `json:"business_name,omitempty"`
	CustomerName      string     `json:"customer_name,omitempty"`
	CustomerPhone     string     `json:"customer_phone,omitempty"`
	PartySize         int        `json:"party_size"`
	Position          int        `json:"position"`
	EstimatedWaitTime int        `json:"estimated_wait_time"`
	Status            Status     `json:"status"`
	Notes             string     `json:"notes"`
	NotifiedAt        *time.Time `json:"notified_at"`
	SeatedAt          *time.Time `json:"seated_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ActionResponse is returned by mutations that may text the customer.
type ActionResponse struct {
	EntryResponse
	SMSSent bool `json:"sms_sent"`
}

type StatsResponse struct {
	BusinessID      string   `json:"business_id"`
	WaitingCount    int      `json:"waiting_count"`
	NotifiedCount   int      `json:"notified_count"`
	ActiveCount     int      `json:"active_count"`
	AverageWaitTime *float64 `json:"average_wait_time"`
}

func toEntryResponse(e *Entry) EntryResponse {
	return EntryResponse{
		ID:                e.ID,
		BusinessID:        e.BusinessID,
		CustomerID:        e.CustomerID,
		PartySize:         e.PartySize,
		Position:          e.Position,
		EstimatedWaitTime: e.EstimatedWaitTime,
		Status:            e.Status,
		Notes:             e.Notes,
		NotifiedAt:        e.NotifiedAt,
		SeatedAt:          e.SeatedAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func ToDetailResponse(d *Detail) EntryResponse {
	resp := toEntryResponse(&d.Entry)
	resp.BusinessName = d.BusinessName
	resp.CustomerName = d.CustomerName
	resp.CustomerPhone = d.CustomerPhone
	return resp
}

func ToDetailResponseList(items []Detail) []EntryResponse {
	out := make([]EntryResponse, 0, len(items))
	for i := range items {
		out = append(out, ToDetailResponse(&items[i]))
	}
	return out
}

func ToActionResponse(res *Result) ActionResponse {
	resp := toEntryResponse(res.Entry)
	if res.Business != nil {
		resp.BusinessName = res.Business.Name
	}
	if res.Customer != nil {
		resp.CustomerName = res.Customer.Name
		resp.CustomerPhone = res.Customer.Phone
	}
	return ActionResponse{EntryResponse: resp, SMSSent: res.SMSSent}
}

func ToStatsResponse(businessID string, s *Stats) StatsResponse {
	resp := StatsResponse{
		BusinessID:    businessID,
		WaitingCount:  s.WaitingCount,
		NotifiedCount: s.NotifiedCount,
		ActiveCount:   s.ActiveCount,
	}
	if s.AverageWaitTime.Valid {
		avg := s.AverageWaitTime.Float64
		resp.AverageWaitTime = &avg
	}
	return resp
}
