// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
)

type CreateUserRequest struct {
	Username    string      `json:"username"     validate:"required,min=3,max=255"`
	Email       string      `json:"email"        validate:"required,email,max=255"`
	Password    string      `json:"password"     validate:"required,min=6,max=128"`
	Role        access.Role `json:"role"         validate:"required,oneof=PLATFORM_ADMIN BUSINESS_OWNER BUSINESS_STAFF"`
	BusinessIDs []string    `json:"business_ids" validate:"required,min=1,dive,required"`
	IsActive    *bool       `json:"is_active"`
}

// UpdateUserRequest leaves fields that are absent untouched. An empty
// password keeps the current one.
type UpdateUserRequest struct {
	Username    *string      `json:"username"     validate:"omitempty,min=3,max=255"`
	Email       *string      `json:"email"        validate:"omitempty,email,max=255"`
	Password    *string      `json:"password"     validate:"omitempty,min=6,max=128"`
	Role        *access.Role `json:"role"         validate:"omitempty,oneof=PLATFORM_ADMIN BUSINESS_OWNER BUSINESS_STAFF"`
	BusinessIDs *[]string    `json:"business_ids" validate:"omitempty,dive,required"`
	IsActive    *bool        `json:"is_active"`
}

type UserResponse struct {
	ID            string      `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	Role          access.Role `json:"role"`
	BusinessIDs   []string    `json:"business_ids"`
	BusinessNames []string    `json:"business_names"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type ListParams struct {
	Page        int
	PageSize    int
	Search      string
	Role        access.Role
	ActiveOnly  bool
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

func ToUserResponse(u *User) UserResponse {
	ids := make([]string, 0, len(u.Businesses))
	names := make([]string, 0, len(u.Businesses))
	for _, m := range u.Businesses {
		ids = append(ids, m.BusinessID)
		if m.BusinessName != "" {
			names = append(names, m.BusinessName)
		}
	}

	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		BusinessIDs:   ids,
		BusinessNames: names,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
