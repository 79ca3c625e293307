// AngelaMos | 2026
// reservation_test.go

package reservation

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
	"github.com/carterperez-dev/waitlist-backend/internal/customer"
	"github.com/carterperez-dev/waitlist-backend/internal/migrate"
	"github.com/carterperez-dev/waitlist-backend/internal/notification"
)

type stubGateway struct {
	confirmations []notification.ReservationMessage
	reminders     []notification.ReservationMessage
	err           error
}

func (g *stubGateway) SendWaitlistNotification(context.Context, notification.WaitlistMessage) (bool, error) {
	return true, nil
}

func (g *stubGateway) SendTableReadyNotification(context.Context, notification.WaitlistMessage) (bool, error) {
	return true, nil
}

func (g *stubGateway) SendReservationConfirmation(_ context.Context, m notification.ReservationMessage) (bool, error) {
	g.confirmations = append(g.confirmations, m)
	return g.err == nil, g.err
}

func (g *stubGateway) SendReservationReminder(_ context.Context, m notification.ReservationMessage) (bool, error) {
	g.reminders = append(g.reminders, m)
	return g.err == nil, g.err
}

func (g *stubGateway) SendSMS(context.Context, string, string) (bool, error) {
	return true, nil
}

type fixture struct {
	svc      *Service
	gateway  *stubGateway
	biz      *business.Business
	other    *business.Business
	customer *customer.Customer
	owner    access.Identity
	staff    access.Identity
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := migrate.OpenInMemory(ctx, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	businessRepo := business.NewRepository(db.DB)
	biz := business.New("Bistro Nueve", business.TypeRestaurant)
	require.NoError(t, businessRepo.Create(ctx, biz))
	other := business.New("Otro Bar", business.TypeBar)
	require.NoError(t, businessRepo.Create(ctx, other))

	owner := access.Identity{UserID: "owner", Role: access.RoleBusinessOwner, BusinessIDs: []string{biz.ID}}
	staff := access.Identity{UserID: "staff", Role: access.RoleBusinessStaff, BusinessIDs: []string{biz.ID}}

	customers := customer.NewService(customer.NewRepository(db.DB))
	c, err := customers.Create(ctx, staff, customer.CreateCustomerRequest{Phone: "+15550123", Name: "Iris"})
	require.NoError(t, err)

	gateway := &stubGateway{}

	return &fixture{
		svc:      NewService(NewRepository(db.DB), business.NewService(businessRepo), customers, gateway, logger),
		gateway:  gateway,
		biz:      biz,
		other:    other,
		customer: c,
		owner:    owner,
		staff:    staff,
	}
}

func (f *fixture) request(date, clock string) CreateReservationRequest {
	return CreateReservationRequest{
		BusinessID: f.biz.ID,
		CustomerID: f.customer.ID,
		Date:       date,
		Time:       clock,
		PartySize:  4,
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action Action
		from   Status
		valid  bool
	}{
		{ActionConfirm, StatusPending, true},
		{ActionConfirm, StatusConfirmed, false},
		{ActionConfirm, StatusCancelled, false},
		{ActionCancel, StatusPending, true},
		{ActionCancel, StatusConfirmed, true},
		{ActionCancel, StatusCompleted, false},
		{ActionCancel, StatusCancelled, false},
		{ActionComplete, StatusConfirmed, true},
		{ActionComplete, StatusPending, false},
		{ActionComplete, StatusCompleted, false},
	}

	for _, tt := range cases {
		assert.Equal(t, tt.valid, ValidTransition(tt.action, tt.from),
			"ValidTransition(%q, %q)", tt.action, tt.from)
	}
}

func TestParseSlot(t *testing.T) {
	d, c, err := ParseSlot("2026-11-02", "19:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02", d)
	assert.Equal(t, "19:30", c)

	_, _, err = ParseSlot("11/02/2026", "19:30")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, _, err = ParseSlot("2026-11-02", "7pm")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestService_CreateConflictIsExactMatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.staff, f.request("2026-11-02", "19:30"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, first.Status)
	assert.Equal(t, "2026-11-02", first.Date)
	assert.Equal(t, "Iris", first.CustomerName)

	_, err = f.svc.Create(ctx, f.staff, f.request("2026-11-02", "19:30"))
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = f.svc.Create(ctx, f.staff, f.request("2026-11-02", "19:45"))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.staff, first.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.staff, f.request("2026-11-02", "19:30"))
	assert.NoError(t, err)
}

func TestService_CreateChecks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := f.request("2026-11-03", "20:00")
	req.BusinessID = "missing"
	_, err := f.svc.Create(ctx, f.staff, req)
	assert.ErrorIs(t, err, core.ErrNotFound)

	req = f.request("2026-11-03", "20:00")
	req.BusinessID = f.other.ID
	_, err = f.svc.Create(ctx, f.staff, req)
	assert.ErrorIs(t, err, core.ErrForbidden)

	req = f.request("2026-11-03", "20:00")
	req.CustomerID = "missing"
	_, err = f.svc.Create(ctx, f.staff, req)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.Create(ctx, f.staff, f.request("tomorrow", "20:00"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestService_Lifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	d, err := f.svc.Create(ctx, f.staff, f.request("2026-12-24", "21:00"))
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.staff, d.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.Complete(ctx, f.owner, d.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	res, err := f.svc.Confirm(ctx, f.owner, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Reservation.Status)
	assert.True(t, res.SMSSent)
	require.Len(t, f.gateway.confirmations, 1)
	assert.Equal(t, "Bistro Nueve", f.gateway.confirmations[0].BusinessName)
	assert.Equal(t, 4, f.gateway.confirmations[0].PartySize)

	reminder, err := f.svc.SendReminder(ctx, f.staff, d.ID)
	require.NoError(t, err)
	assert.True(t, reminder.SMSSent)

	done, err := f.svc.Complete(ctx, f.owner, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	_, err = f.svc.Cancel(ctx, f.staff, d.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	_, err = f.svc.SendReminder(ctx, f.staff, d.ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestService_ConfirmSurvivesNotificationFailure(t *testing.T) {
	f := setup(t)
	f.gateway.err = errors.New("provider down")
	ctx := context.Background()

	d, err := f.svc.Create(ctx, f.staff, f.request("2026-12-31", "22:00"))
	require.NoError(t, err)

	res, err := f.svc.Confirm(ctx, f.owner, d.ID)
	require.NoError(t, err)
	assert.False(t, res.SMSSent)
	assert.Equal(t, StatusConfirmed, res.Reservation.Status)
}

func TestService_Listings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.staff, f.request("2026-11-10", "18:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.staff, f.request("2026-11-11", "18:00"))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.staff, a.ID)
	require.NoError(t, err)

	items, err := f.svc.List(ctx, f.staff)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	admin := access.Identity{UserID: "root", Role: access.RolePlatformAdmin}
	items, err = f.svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = f.svc.ListByBusiness(ctx, f.staff, f.biz.ID, "2026-11-10")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, StatusCancelled, items[0].Status)

	items, err = f.svc.ListByBusiness(ctx, f.staff, f.biz.ID, "")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = f.svc.ListByBusiness(ctx, f.staff, f.other.ID, "")
	assert.ErrorIs(t, err, core.ErrForbidden)

	outsider := access.Identity{UserID: "x", Role: access.RoleBusinessStaff, BusinessIDs: []string{f.other.ID}}
	items, err = f.svc.ListByCustomer(ctx, outsider, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	counts, err := f.svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusPending])
	assert.Equal(t, 1, counts[StatusCancelled])
}

func TestHandler_DuplicateSlotReturnsConflict(t *testing.T) {
	f := setup(t)

	router := chi.NewRouter()
	withCaller := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), f.staff)))
		})
	}
	NewHandler(f.svc).RegisterRoutes(router, withCaller)

	body := `{"business_id":"` + f.biz.ID + `","customer_id":"` + f.customer.ID +
		`","reservation_date":"` + time.Now().AddDate(0, 0, 7).Format(DateLayout) +
		`","reservation_time":"20:15","party_size":2}`

	post := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body)))
		return rec
	}

	assert.Equal(t, http.StatusCreated, post().Code)

	rec := post()
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"CONFLICT"`)
}
