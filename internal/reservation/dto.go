// AngelaMos | 2026
// dto.go

package reservation

import (
	"time"
)

type CreateReservationRequest struct {
	BusinessID      string `json:"business_id"      validate:"required"`
	CustomerID      string `json:"customer_id"      validate:"required"`
	Date            string `json:"reservation_date" validate:"required"`
	Time            string `json:"reservation_time" validate:"required"`
	PartySize       int    `json:"party_size"       validate:"required,min=1,max=100"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
}

type ReservationResponse struct {
	ID              string    `json:"id"`
	BusinessID      string    `json:"business_id"`
	BusinessName    string    `json:"business_name"`
	CustomerID      string    `json:"customer_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone"`
	Date            string    `json:"reservation_date"`
	Time            string    `json:"reservation_time"`
	PartySize       int       `json:"party_size"`
	Status          Status    `json:"status"`
	SpecialRequests string    `json:"special_requests"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type NotifiedResponse struct {
	ReservationResponse
	SMSSent bool `json:"sms_sent"`
}

func ToResponse(d *Detail) ReservationResponse {
	return ReservationResponse{
		ID:              d.ID,
		BusinessID:      d.BusinessID,
		BusinessName:    d.BusinessName,
		CustomerID:      d.CustomerID,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		Date:            d.Date,
		Time:            d.Time,
		PartySize:       d.PartySize,
		Status:          d.Status,
		SpecialRequests: d.SpecialRequests,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func ToResponseList(items []Detail) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}

func ToNotifiedResponse(res *Result) NotifiedResponse {
	return NotifiedResponse{
		ReservationResponse: ToResponse(res.Reservation),
		SMSSent:             res.SMSSent,
	}
}
