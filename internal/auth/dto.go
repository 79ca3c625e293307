// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// RegisterRequest signs up a business together with its owner account.
type RegisterRequest struct {
	Username           string `json:"username"             validate:"required,min=3,max=255"`
	Password           string `json:"password"             validate:"required,min=6,max=128"`
	Email              string `json:"email"                validate:"required,email,max=255"`
	BusinessName       string `json:"business_name"        validate:"required,min=2,max=100"`
	BusinessType       string `json:"business_type"        validate:"required,oneof=RESTAURANT CAFE BAR SALON CLINIC OTHER"`
	BusinessAddress    string `json:"business_address"     validate:"max=500"`
	BusinessPhone      string `json:"business_phone"       validate:"max=20"`
	BusinessEmail      string `json:"business_email"       validate:"omitempty,email,max=255"`
	Capacity           *int   `json:"capacity"             validate:"omitempty,min=0,max=10000"`
	AverageServiceTime *int   `json:"average_service_time" validate:"omitempty,min=0,max=1440"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ValidateRequest struct {
	Token string `json:"token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,max=128"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type BusinessRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type UserResponse struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Email       string        `json:"email"`
	Role        string        `json:"role"`
	BusinessIDs []string      `json:"business_ids"`
	Businesses  []BusinessRef `json:"businesses"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type AuthResponse struct {
	User   UserResponse  `json:"user"`
	Tokens TokenResponse `json:"tokens"`
}

type ValidateResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username,omitempty"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

func toUserResponse(u *UserInfo) UserResponse {
	businesses := u.Businesses
	if businesses == nil {
		businesses = []BusinessRef{}
	}
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		BusinessIDs: u.BusinessIDs(),
		Businesses:  businesses,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
