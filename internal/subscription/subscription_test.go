// AngelaMos | 2026
// subscription_test.go

package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/migrate"
)

var (
	admin = access.Identity{UserID: "admin", Role: access.RolePlatformAdmin}
	owner = access.Identity{UserID: "owner", Role: access.RoleBusinessOwner}
)

type fixture struct {
	svc  *Service
	repo Repository
	biz  *business.Business
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := migrate.OpenInMemory(ctx, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	businessRepo := business.NewRepository(db.DB)
	biz := business.New("Casa Lupe", business.TypeRestaurant)
	require.NoError(t, businessRepo.Create(ctx, biz))

	repo := NewRepository(db.DB)

	return &fixture{
		svc:  NewService(repo, business.NewService(businessRepo), logger),
		repo: repo,
		biz:  biz,
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action Action
		from   Status
		valid  bool
	}{
		{ActionActivate, StatusTrial, true},
		{ActionActivate, StatusActive, false},
		{ActionActivate, StatusCancelled, true},
		{ActionCancel, StatusSuspended, true},
		{ActionCancel, StatusCancelled, false},
		{ActionSuspend, StatusActive, true},
		{ActionSuspend, StatusExpired, false},
		{ActionExpire, StatusTrial, true},
		{ActionExpire, StatusCancelled, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.action)+"_"+string(tc.from), func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidTransition(tc.action, tc.from))
		})
	}
}

func TestSubscription_Activate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := New("b1")
	assert.True(t, sub.IsActive())

	require.NoError(t, sub.Activate(now))
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, now, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, now.AddDate(0, 0, 30), *sub.EndDate)

	assert.False(t, sub.IsOverdue(now))
	assert.True(t, sub.IsOverdue(now.AddDate(0, 0, 31)))

	err := sub.Activate(now)
	assert.True(t, errors.Is(err, core.ErrInvalidState))

	require.NoError(t, sub.Cancel(now))
	assert.False(t, sub.AutoRenew)
	assert.False(t, sub.IsActive())
}

func TestService_CreateDefaultsAndConflict(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, admin, CreateSubscriptionRequest{
		BusinessID:   f.biz.ID,
		MonthlyPrice: 49.5,
	})
	require.NoError(t, err)
	assert.Equal(t, PlanBasic, sub.Plan)
	assert.Equal(t, StatusTrial, sub.Status)
	assert.Equal(t, DefaultBillingCycleDays, sub.BillingCycleDays)
	assert.True(t, sub.AutoRenew)

	stored, err := f.svc.GetByBusiness(ctx, admin, f.biz.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, stored.ID)
	assert.InDelta(t, 49.5, stored.MonthlyPrice, 0.001)

	_, err = f.svc.Create(ctx, admin, CreateSubscriptionRequest{BusinessID: f.biz.ID})
	assert.True(t, errors.Is(err, core.ErrConflict))

	_, err = f.svc.Create(ctx, admin, CreateSubscriptionRequest{BusinessID: "missing"})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_AdminOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, owner, "")
	assert.True(t, errors.Is(err, core.ErrForbidden))

	_, err = f.svc.Create(ctx, owner, CreateSubscriptionRequest{BusinessID: f.biz.ID})
	assert.True(t, errors.Is(err, core.ErrForbidden))
}

func TestService_LifecycleAndList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, admin, CreateSubscriptionRequest{BusinessID: f.biz.ID})
	require.NoError(t, err)

	sub, err = f.svc.Activate(ctx, admin, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, sub.Status)

	active, err := f.svc.List(ctx, admin, "active")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	sub, err = f.svc.Suspend(ctx, admin, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, sub.Status)

	_, err = f.svc.Suspend(ctx, admin, sub.ID)
	assert.True(t, errors.Is(err, core.ErrInvalidState))

	_, err = f.svc.List(ctx, admin, "bogus")
	assert.True(t, errors.Is(err, core.ErrInvalidInput))

	plan := PlanEnterprise
	notes := "annual contract"
	sub, err = f.svc.Update(ctx, admin, sub.ID, UpdateSubscriptionRequest{Plan: &plan, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, PlanEnterprise, sub.Plan)
	assert.Equal(t, StatusSuspended, sub.Status)

	require.NoError(t, f.svc.Delete(ctx, admin, sub.ID))
	_, err = f.svc.Get(ctx, admin, sub.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_ExpireOverdue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, admin, CreateSubscriptionRequest{BusinessID: f.biz.ID})
	require.NoError(t, err)

	past := core.Now().AddDate(0, 0, -3)
	sub.Status = StatusActive
	sub.EndDate = &past
	require.NoError(t, f.repo.Update(ctx, sub))

	n, err := f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.svc.Get(ctx, admin, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)

	n, err = f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandler_Routes(t *testing.T) {
	f := setup(t)

	serve := func(caller access.Identity, method, path, body string) *httptest.ResponseRecorder {
		router := chi.NewRouter()
		withCaller := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), caller)))
			})
		}
		NewHandler(f.svc).RegisterRoutes(router, withCaller)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	rec := serve(owner, http.MethodGet, "/subscriptions", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(admin, http.MethodPost, "/subscriptions", `{"business_id":"`+f.biz.ID+`","plan":"GOLD"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(admin, http.MethodPost, "/subscriptions", `{"business_id":"`+f.biz.ID+`","plan":"PRO"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"plan":"PRO"`)

	rec = serve(admin, http.MethodPost, "/subscriptions", `{"business_id":"`+f.biz.ID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(admin, http.MethodGet, "/subscriptions/business/"+f.biz.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(admin, http.MethodPost, "/subscriptions/expire-overdue", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expired":0`)
}
