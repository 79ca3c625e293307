// AngelaMos | 2026
// dto.go

package business

import (
	"time"
)

type CreateBusinessRequest struct {
	Name               string `json:"name"                 validate:"required,min=1,max=255"`
	Type               Type   `json:"type"                 validate:"required,oneof=RESTAURANT CAFE BAR SALON CLINIC OTHER"`
	Address            string `json:"address"              validate:"max=500"`
	Phone              string `json:"phone"                validate:"max=32"`
	Email              string `json:"email"                validate:"omitempty,email,max=255"`
	Capacity           *int   `json:"capacity"             validate:"omitempty,gte=0"`
	AverageServiceTime *int   `json:"average_service_time" validate:"omitempty,gte=0"`
}

type UpdateBusinessRequest struct {
	Name               *string `json:"name,omitempty"                 validate:"omitempty,min=1,max=255"`
	Type               *Type   `json:"type,omitempty"                 validate:"omitempty,oneof=RESTAURANT CAFE BAR SALON CLINIC OTHER"`
	Address            *string `json:"address,omitempty"              validate:"omitempty,max=500"`
	Phone              *string `json:"phone,omitempty"                validate:"omitempty,max=32"`
	Email              *string `json:"email,omitempty"                validate:"omitempty,email,max=255"`
	Capacity           *int    `json:"capacity,omitempty"             validate:"omitempty,gte=0"`
	AverageServiceTime *int    `json:"average_service_time,omitempty" validate:"omitempty,gte=0"`
}

type BusinessResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Type               Type      `json:"type"`
	Address            string    `json:"address"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email"`
	Capacity           int       `json:"capacity"`
	AverageServiceTime int       `json:"average_service_time"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ListParams struct {
	Page       int
	PageSize   int
	Search     string
	Type       Type
	IDs        []string
	ScopeToIDs bool
	ActiveOnly bool
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToResponse(b *Business) BusinessResponse {
	return BusinessResponse{
		ID:                 b.ID,
		Name:               b.Name,
		Type:               b.Type,
		Address:            b.Address,
		Phone:              b.Phone,
		Email:              b.Email,
		Capacity:           b.Capacity,
		AverageServiceTime: b.AverageServiceTime,
		IsActive:           b.IsActive,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func ToResponseList(items []Business) []BusinessResponse {
	out := make([]BusinessResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}
