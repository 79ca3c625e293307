// AngelaMos | 2026
// service.go

package business

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every business to platform admins and the caller's own
// businesses to everyone else.
func (s *Service) List(
	ctx context.Context,
	caller access.Identity,
	params ListParams,
) ([]Business, int, error) {
	if !caller.IsPlatformAdmin() {
		params.ScopeToIDs = true
		params.IDs = caller.BusinessIDs
	}
	return s.repo.List(ctx, params)
}

// Get allows any caller to read an active business; inactive ones are
// visible to platform admins and members only.
func (s *Service) Get(
	ctx context.Context,
	caller access.Identity,
	id string,
) (*Business, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !b.IsActive {
		if err := caller.CheckBusiness(b.ID); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Business, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]Business, error) {
	return s.repo.GetByIDs(ctx, ids)
}

func (s *Service) Search(ctx context.Context, term string, params ListParams) ([]Business, int, error) {
	params.Search = strings.TrimSpace(term)
	params.ActiveOnly = true
	return s.repo.List(ctx, params)
}

func (s *Service) ListByType(ctx context.Context, t Type, params ListParams) ([]Business, int, error) {
	if !t.Valid() {
		return nil, 0, core.Errorf(core.ErrInvalidInput, "unknown business type %q", t)
	}
	params.Type = t
	params.ActiveOnly = true
	return s.repo.List(ctx, params)
}

func (s *Service) Create(
	ctx context.Context,
	caller access.Identity,
	req CreateBusinessRequest,
) (*Business, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)

	exists, err := s.repo.ExistsActiveByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, core.Errorf(core.ErrConflict, "an active business named %q already exists", name)
	}

	b := New(name, req.Type)
	b.Address = req.Address
	b.Phone = req.Phone
	b.Email = strings.ToLower(req.Email)
	if req.Capacity != nil {
		b.Capacity = *req.Capacity
	}
	if req.AverageServiceTime != nil {
		b.AverageServiceTime = *req.AverageServiceTime
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// New returns an active business carrying the registration defaults.
func New(name string, t Type) *Business {
	if !t.Valid() {
		t = TypeRestaurant
	}
	return &Business{
		ID:                 uuid.NewString(),
		Name:               name,
		Type:               t,
		Capacity:           DefaultCapacity,
		AverageServiceTime: DefaultServiceTime,
		IsActive:           true,
	}
}

func (s *Service) Update(
	ctx context.Context,
	caller access.Identity,
	id string,
	req UpdateBusinessRequest,
) (*Business, error) {
	b, err := s.managed(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		b.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		b.Type = *req.Type
	}
	if req.Address != nil {
		b.Address = *req.Address
	}
	if req.Phone != nil {
		b.Phone = *req.Phone
	}
	if req.Email != nil {
		b.Email = strings.ToLower(*req.Email)
	}
	if req.Capacity != nil {
		b.Capacity = *req.Capacity
	}
	if req.AverageServiceTime != nil {
		b.AverageServiceTime = *req.AverageServiceTime
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *Service) Deactivate(
	ctx context.Context,
	caller access.Identity,
	id string,
) error {
	b, err := s.managed(ctx, caller, id)
	if err != nil {
		return err
	}

	b.Deactivate()
	return s.repo.Update(ctx, b)
}

func (s *Service) Count(ctx context.Context) (int, int, error) {
	return s.repo.Count(ctx)
}

// managed loads an active business the caller may administer: platform
// admins anywhere, owners within their own businesses.
func (s *Service) managed(
	ctx context.Context,
	caller access.Identity,
	id string,
) (*Business, error) {
	if err := caller.RequireRole(access.RolePlatformAdmin, access.RoleBusinessOwner); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, fmt.Errorf("business %s is inactive: %w", id, core.ErrNotFound)
	}

	if err := caller.CheckBusiness(b.ID); err != nil {
		return nil, err
	}

	return b, nil
}
