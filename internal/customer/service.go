// AngelaMos | 2026
// service.go

package customer

import (
	"context"
	"errors"
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

// List returns all customers to platform admins and customers linked to
// the caller's businesses to everyone else.
func (s *Service) List(
	ctx context.Context,
	caller access.Identity,
	params ListParams,
) ([]Customer, int, error) {
	if !caller.IsPlatformAdmin() {
		params.ScopeToIDs = true
		params.BusinessIDs = caller.BusinessIDs
	}
	return s.repo.List(ctx, params)
}

func (s *Service) Search(
	ctx context.Context,
	caller access.Identity,
	term string,
	params ListParams,
) ([]Customer, int, error) {
	params.Search = strings.TrimSpace(term)
	return s.List(ctx, caller, params)
}

func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (*Customer, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, core.Errorf(core.ErrInvalidInput, "phone is required")
	}
	return s.repo.GetByPhone(ctx, normalized)
}

// Create registers a customer and links it to every business of the
// caller. A phone number already on file is reused rather than rejected.
func (s *Service) Create(
	ctx context.Context,
	caller access.Identity,
	req CreateCustomerRequest,
) (*Customer, error) {
	if len(caller.BusinessIDs) == 0 {
		return nil, core.Errorf(core.ErrInvalidInput, "caller is not assigned to any business")
	}

	phone := NormalizePhone(req.Phone)
	if phone == "" {
		return nil, core.Errorf(core.ErrInvalidInput, "phone is required")
	}

	var out *Customer
	err := s.repo.WithTx(ctx, func(repo Repository) error {
		c, err := repo.GetByPhone(ctx, phone)
		switch {
		case errors.Is(err, core.ErrNotFound):
			c = newCustomer(phone, req.Name, req.Email)
			if err := repo.Create(ctx, c); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		for _, id := range caller.BusinessIDs {
			if err := repo.LinkBusiness(ctx, c.ID, id); err != nil {
				return err
			}
		}

		out, err = repo.GetByID(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// FindOrCreate looks a customer up by phone, refreshing name and email
// when given, and creates it otherwise. The result is always linked to
// the caller's businesses.
func (s *Service) FindOrCreate(
	ctx context.Context,
	caller access.Identity,
	req CreateCustomerRequest,
) (*Customer, error) {
	if len(caller.BusinessIDs) == 0 {
		return nil, core.Errorf(core.ErrInvalidInput, "caller is not assigned to any business")
	}

	phone := NormalizePhone(req.Phone)
	if phone == "" {
		return nil, core.Errorf(core.ErrInvalidInput, "phone is required")
	}

	var out *Customer
	err := s.repo.WithTx(ctx, func(repo Repository) error {
		c, err := repo.GetByPhone(ctx, phone)
		switch {
		case errors.Is(err, core.ErrNotFound):
			c = newCustomer(phone, req.Name, req.Email)
			if err := repo.Create(ctx, c); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			c.UpdateContactInfo(req.Name, req.Email)
			if err := repo.Update(ctx, c); err != nil {
				return err
			}
		}

		for _, id := range caller.BusinessIDs {
			if err := repo.LinkBusiness(ctx, c.ID, id); err != nil {
				return err
			}
		}

		out, err = repo.GetByID(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateCustomerRequest,
) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.UpdateContactInfo(req.Name, req.Email)

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// EnsureLinked records that the customer has dealt with the business.
func (s *Service) EnsureLinked(ctx context.Context, customerID, businessID string) error {
	return s.repo.LinkBusiness(ctx, customerID, businessID)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func newCustomer(phone, name, email string) *Customer {
	c := &Customer{
		ID:    uuid.NewString(),
		Phone: phone,
		Name:  strings.TrimSpace(name),
	}
	c.UpdateContactInfo("", email)
	return c
}
