// AngelaMos | 2026
// dto.go

package customer

import (
	"time"
)

type CreateCustomerRequest struct {
	Phone string `json:"phone" validate:"required,min=5,max=32"`
	Name  string `json:"name"  validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

type UpdateCustomerRequest struct {
	Name  string `json:"name"  validate:"omitempty,min=1,max=255"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

type CustomerResponse struct {
	ID          string    `json:"id"`
	Phone       string    `json:"phone"`
	Name        string    `json:"name"`
	Email       *string   `json:"email"`
	BusinessIDs []string  `json:"business_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListParams struct {
	Page        int
	PageSize    int
	Search      string
	BusinessIDs []string
	ScopeToIDs  bool
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

func ToResponse(c *Customer) CustomerResponse {
	ids := c.BusinessIDs
	if ids == nil {
		ids = []string{}
	}
	return CustomerResponse{
		ID:          c.ID,
		Phone:       c.Phone,
		Name:        c.Name,
		Email:       c.Email,
		BusinessIDs: ids,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func ToResponseList(items []Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}
