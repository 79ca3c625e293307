// AngelaMos | 2026
// access.go

package access

import (
	"context"
	"fmt"
	"slices"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type Role string

const (
	RolePlatformAdmin Role = "PLATFORM_ADMIN"
	RoleBusinessOwner Role = "BUSINESS_OWNER"
	RoleBusinessStaff Role = "BUSINESS_STAFF"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlatformAdmin, RoleBusinessOwner, RoleBusinessStaff:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Identity is the authenticated caller as carried by the access token.
type Identity struct {
	UserID      string
	Username    string
	Role        Role
	BusinessIDs []string
}

func (i Identity) IsPlatformAdmin() bool {
	return i.Role == RolePlatformAdmin
}

func (i Identity) IsOwner() bool {
	return i.Role == RoleBusinessOwner
}

func (i Identity) HasRole(roles ...Role) bool {
	return slices.Contains(roles, i.Role)
}

// HasBusiness reports membership without the admin bypass.
func (i Identity) HasBusiness(businessID string) bool {
	return slices.Contains(i.BusinessIDs, businessID)
}

// CanAccess reports whether the caller may act on the given business.
func (i Identity) CanAccess(businessID string) bool {
	return i.IsPlatformAdmin() || i.HasBusiness(businessID)
}

// CheckBusiness returns core.ErrForbidden when the caller is out of scope.
func (i Identity) CheckBusiness(businessID string) error {
	if i.CanAccess(businessID) {
		return nil
	}
	return core.Errorf(core.ErrForbidden, "access denied to business %s", businessID)
}

// RequireRole returns core.ErrForbidden unless the caller holds one of roles.
func (i Identity) RequireRole(roles ...Role) error {
	if i.HasRole(roles...) {
		return nil
	}
	return core.Errorf(core.ErrForbidden, "role %s is not permitted", i.Role)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// MustFromContext is for handlers mounted behind the authenticator.
func MustFromContext(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok || id.UserID == "" {
		return Identity{}, fmt.Errorf("identity missing: %w", core.ErrUnauthorized)
	}
	return id, nil
}
