// AngelaMos | 2026
// business_test.go

package business

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/migrate"
)

var admin = access.Identity{UserID: "admin", Role: access.RolePlatformAdmin}

func newService(t *testing.T) *Service {
	t.Helper()

	db, err := migrate.OpenInMemory(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewService(NewRepository(db.DB))
}

func intPtr(v int) *int { return &v }

func TestBusiness_EstimatedWait(t *testing.T) {
	b := &Business{AverageServiceTime: 15, Capacity: 4, IsActive: true}

	assert.Equal(t, 0, b.EstimatedWait(0))
	assert.Equal(t, 15, b.EstimatedWait(1))
	assert.Equal(t, 45, b.EstimatedWait(3))
	assert.True(t, b.CanAccommodate(4))
	assert.False(t, b.CanAccommodate(5))

	b.Deactivate()
	assert.False(t, b.CanAccommodate(1))
}

func TestService_CreateAndDuplicateName(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, admin, CreateBusinessRequest{
		Name:     "Trattoria",
		Type:     TypeRestaurant,
		Capacity: intPtr(20),
	})
	require.NoError(t, err)
	assert.Equal(t, 20, b.Capacity)
	assert.Equal(t, DefaultServiceTime, b.AverageServiceTime)

	_, err = svc.Create(ctx, admin, CreateBusinessRequest{Name: "Trattoria", Type: TypeCafe})
	assert.ErrorIs(t, err, core.ErrConflict)

	owner := access.Identity{UserID: "o", Role: access.RoleBusinessOwner}
	_, err = svc.Create(ctx, owner, CreateBusinessRequest{Name: "Other", Type: TypeBar})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestService_ListScopesNonAdmins(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, admin, CreateBusinessRequest{Name: "Alpha", Type: TypeCafe})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CreateBusinessRequest{Name: "Beta", Type: TypeBar})
	require.NoError(t, err)

	all, total, err := svc.List(ctx, admin, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	staff := access.Identity{UserID: "s", Role: access.RoleBusinessStaff, BusinessIDs: []string{a.ID}}
	mine, total, err := svc.List(ctx, staff, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Alpha", mine[0].Name)

	none, total, err := svc.List(ctx, access.Identity{UserID: "x", Role: access.RoleBusinessOwner}, ListParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestService_SearchActiveOnly(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	open, err := svc.Create(ctx, admin, CreateBusinessRequest{Name: "Sushi Bar", Type: TypeBar, Address: "1 Main St"})
	require.NoError(t, err)
	closed, err := svc.Create(ctx, admin, CreateBusinessRequest{Name: "Sushi Place", Type: TypeRestaurant})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, admin, closed.ID))

	found, _, err := svc.Search(ctx, "sushi", ListParams{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, open.ID, found[0].ID)

	byAddress, _, err := svc.Search(ctx, "main st", ListParams{})
	require.NoError(t, err)
	assert.Len(t, byAddress, 1)

	literal, _, err := svc.Search(ctx, "100%", ListParams{})
	require.NoError(t, err)
	assert.Empty(t, literal)
}

func TestService_UpdateScope(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, admin, CreateBusinessRequest{Name: "Clinic", Type: TypeClinic})
	require.NoError(t, err)

	name := "Clinic Two"
	outsider := access.Identity{UserID: "o", Role: access.RoleBusinessOwner, BusinessIDs: []string{"other"}}
	_, err = svc.Update(ctx, outsider, b.ID, UpdateBusinessRequest{Name: &name})
	assert.ErrorIs(t, err, core.ErrForbidden)

	owner := access.Identity{UserID: "o", Role: access.RoleBusinessOwner, BusinessIDs: []string{b.ID}}
	updated, err := svc.Update(ctx, owner, b.ID, UpdateBusinessRequest{
		Name:               &name,
		AverageServiceTime: intPtr(25),
	})
	require.NoError(t, err)
	assert.Equal(t, "Clinic Two", updated.Name)
	assert.Equal(t, 25, updated.AverageServiceTime)

	staff := access.Identity{UserID: "s", Role: access.RoleBusinessStaff, BusinessIDs: []string{b.ID}}
	assert.ErrorIs(t, svc.Deactivate(ctx, staff, b.ID), core.ErrForbidden)

	require.NoError(t, svc.Deactivate(ctx, owner, b.ID))
	assert.ErrorIs(t, svc.Deactivate(ctx, owner, b.ID), core.ErrNotFound)

	_, err = svc.Get(ctx, access.Identity{UserID: "z", Role: access.RoleBusinessStaff}, b.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	got, err := svc.Get(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestRepository_Count(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, admin, CreateBusinessRequest{Name: "One", Type: TypeOther})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CreateBusinessRequest{Name: "Two", Type: TypeOther})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, admin, b.ID))

	total, active, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, active)
}
