// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/auth"
	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type BusinessFinder interface {
	GetByIDs(ctx context.Context, ids []string) ([]business.Business, error)
}

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

// List returns every account to platform admins and the active staff of
// their own businesses to owners.
func (s *Service) List(
	ctx context.Context,
	caller access.Identity,
	params ListParams,
) ([]User, int, error) {
	switch caller.Role {
	case access.RolePlatformAdmin:
		params.ScopeToIDs = false
	case access.RoleBusinessOwner:
		params.Role = access.RoleBusinessStaff
		params.ActiveOnly = true
		params.BusinessIDs = caller.BusinessIDs
		params.ScopeToIDs = true
	default:
		return nil, 0, core.Errorf(core.ErrForbidden, "staff cannot list users")
	}

	return s.repo.List(ctx, params)
}

// Get allows owners to read staff who share one of their businesses.
func (s *Service) Get(ctx context.Context, caller access.Identity, id string) (*User, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin, access.RoleBusinessOwner); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.IsOwner() && u.ID != caller.UserID {
		if u.Role != access.RoleBusinessStaff || !slices.ContainsFunc(u.BusinessIDs(), caller.HasBusiness) {
			return nil, core.Errorf(core.ErrForbidden, "user is not on your staff")
		}
	}

	return u, nil
}

func (s *Service) ListByBusiness(
	ctx context.Context,
	caller access.Identity,
	businessID string,
) ([]User, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}

	users, _, err := s.repo.List(ctx, ListParams{
		PageSize:    100,
		ActiveOnly:  true,
		BusinessIDs: []string{businessID},
		ScopeToIDs:  true,
	})
	return users, err
}

// Create lets platform admins add owners and owners add staff to their own
// businesses, up to MaxStaffPerOwner active staff.
func (s *Service) Create(
	ctx context.Context,
	caller access.Identity,
	req CreateUserRequest,
) (*User, error) {
	switch caller.Role {
	case access.RolePlatformAdmin:
		if req.Role != access.RoleBusinessOwner {
			return nil, core.Errorf(core.ErrForbidden, "platform admins can only create business owners")
		}
	case access.RoleBusinessOwner:
		if req.Role != access.RoleBusinessStaff {
			return nil, core.Errorf(core.ErrForbidden, "business owners can only create staff")
		}
		for _, id := range req.BusinessIDs {
			if !caller.HasBusiness(id) {
				return nil, core.Errorf(core.ErrForbidden, "access denied to business %s", id)
			}
		}
		staff, err := s.repo.CountStaff(ctx, caller.BusinessIDs)
		if err != nil {
			return nil, err
		}
		if staff >= MaxStaffPerOwner {
			return nil, core.Errorf(core.ErrInvalidInput,
				"staff limit of %d reached", MaxStaffPerOwner)
		}
	default:
		return nil, core.Errorf(core.ErrForbidden, "staff cannot create users")
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.checkUnique(ctx, username, email); err != nil {
		return nil, err
	}

	memberships, err := s.memberships(ctx, req.BusinessIDs)
	if err != nil {
		return nil, err
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     req.IsActive == nil || *req.IsActive,
		Businesses:   memberships,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, duplicateAsConflict(err)
	}

	s.logger.InfoContext(ctx, "user created",
		"user_id", u.ID,
		"role", u.Role,
		"created_by", caller.UserID,
	)

	return u, nil
}

// Update changes any provided field. Changes that alter what an access
// token asserts bump the token version so outstanding tokens stop working.
func (s *Service) Update(
	ctx context.Context,
	caller access.Identity,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	revoke := false

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != u.Username {
			if err := s.checkUnique(ctx, username, ""); err != nil {
				return nil, err
			}
			u.Username = username
			revoke = true
		}
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != u.Email {
			if err := s.checkUnique(ctx, "", email); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}

	if req.Role != nil && *req.Role != u.Role {
		u.Role = *req.Role
		revoke = true
	}

	if req.IsActive != nil && *req.IsActive != u.IsActive {
		u.IsActive = *req.IsActive
		revoke = true
	}

	if req.BusinessIDs != nil {
		memberships, err := s.memberships(ctx, *req.BusinessIDs)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SetBusinesses(ctx, u.ID, *req.BusinessIDs); err != nil {
			return nil, err
		}
		u.Businesses = memberships
		revoke = true
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, duplicateAsConflict(err)
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := core.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := s.repo.UpdatePassword(ctx, u.ID, hash); err != nil {
			return nil, err
		}
		revoke = true
	}

	if revoke {
		if err := s.repo.IncrementTokenVersion(ctx, u.ID); err != nil {
			return nil, err
		}
		u.TokenVersion++
	}

	return u, nil
}

func (s *Service) Activate(ctx context.Context, caller access.Identity, id string) (*User, error) {
	active := true
	return s.Update(ctx, caller, id, UpdateUserRequest{IsActive: &active})
}

func (s *Service) Deactivate(ctx context.Context, caller access.Identity, id string) (*User, error) {
	if id == caller.UserID {
		return nil, core.Errorf(core.ErrInvalidState, "you cannot deactivate your own account")
	}
	inactive := false
	return s.Update(ctx, caller, id, UpdateUserRequest{IsActive: &inactive})
}

// Delete deactivates the account. Rows stay for audit and foreign keys.
func (s *Service) Delete(ctx context.Context, caller access.Identity, id string) error {
	_, err := s.Deactivate(ctx, caller, id)
	return err
}

func (s *Service) CountByRole(ctx context.Context) (map[access.Role]int, error) {
	return s.repo.CountByRole(ctx)
}

func (s *Service) checkUnique(ctx context.Context, username, email string) error {
	if username != "" {
		taken, err := s.repo.ExistsByUsername(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return core.Errorf(core.ErrConflict, "username %s is already taken", username)
		}
	}

	if email != "" {
		taken, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return core.Errorf(core.ErrConflict, "email %s is already registered", email)
		}
	}

	return nil
}

// memberships loads the named businesses; any unknown id is invalid input.
func (s *Service) memberships(ctx context.Context, ids []string) ([]Membership, error) {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.businesses.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, core.Errorf(core.ErrInvalidInput, "one or more businesses do not exist")
	}

	out := make([]Membership, 0, len(found))
	for _, b := range found {
		out = append(out, Membership{
			BusinessID:   b.ID,
			BusinessName: b.Name,
			BusinessType: string(b.Type),
		})
	}

	return out, nil
}

func duplicateAsConflict(err error) error {
	if errors.Is(err, core.ErrDuplicateKey) {
		return core.Errorf(core.ErrConflict, "username or email already exists")
	}
	return err
}

// The methods below serve the auth package.

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

// RegisterOwner creates a business and its BUSINESS_OWNER account in one
// transaction.
func (s *Service) RegisterOwner(
	ctx context.Context,
	req auth.RegisterRequest,
	passwordHash string,
) (*auth.UserInfo, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.checkUnique(ctx, username, email); err != nil {
		return nil, err
	}

	b := business.New(req.BusinessName, business.Type(strings.ToUpper(req.BusinessType)))
	b.Address = req.BusinessAddress
	b.Phone = req.BusinessPhone
	b.Email = req.BusinessEmail
	if req.Capacity != nil {
		b.Capacity = *req.Capacity
	}
	if req.AverageServiceTime != nil {
		b.AverageServiceTime = *req.AverageServiceTime
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         access.RoleBusinessOwner,
		IsActive:     true,
	}

	if err := s.repo.CreateOwner(ctx, u, b); err != nil {
		return nil, duplicateAsConflict(err)
	}

	s.logger.InfoContext(ctx, "business registered",
		"user_id", u.ID,
		"business_id", b.ID,
	)

	return toUserInfo(u), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID string) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func toUserInfo(u *User) *auth.UserInfo {
	refs := make([]auth.BusinessRef, 0, len(u.Businesses))
	for _, m := range u.Businesses {
		refs = append(refs, auth.BusinessRef{
			ID:   m.BusinessID,
			Name: m.BusinessName,
			Type: m.BusinessType,
		})
	}

	return &auth.UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		TokenVersion: u.TokenVersion,
		Businesses:   refs,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
