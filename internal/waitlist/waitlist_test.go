// AngelaMos | 2026
// waitlist_test.go

package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
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

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action Action
		from   Status
		valid  bool
	}{
		{ActionNotify, StatusWaiting, true},
		{ActionNotify, StatusNotified, false},
		{ActionNotify, StatusSeated, false},
		{ActionNotify, StatusCancelled, false},
		{ActionSeat, StatusNotified, true},
		{ActionSeat, StatusWaiting, false},
		{ActionSeat, StatusCancelled, false},
		{ActionSeat, StatusSeated, false},
		{ActionCancel, StatusWaiting, true},
		{ActionCancel, StatusNotified, true},
		{ActionCancel, StatusSeated, false},
		{ActionCancel, StatusCancelled, false},
		{Action("unknown"), StatusWaiting, false},
	}

	for _, tt := range cases {
		assert.Equal(t, tt.valid, ValidTransition(tt.action, tt.from),
			"ValidTransition(%q, %q)", tt.action, tt.from)
	}
}

func TestEntry_TransitionsLeaveStateOnFailure(t *testing.T) {
	now := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	e := &Entry{Status: StatusWaiting}

	err := e.Seat(now)
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.Equal(t, StatusWaiting, e.Status)
	assert.Nil(t, e.SeatedAt)

	require.NoError(t, e.Notify(now))
	assert.Equal(t, StatusNotified, e.Status)
	require.NotNil(t, e.NotifiedAt)
	assert.Equal(t, now, *e.NotifiedAt)

	require.NoError(t, e.Seat(now))
	assert.Equal(t, StatusSeated, e.Status)
	assert.NotNil(t, e.SeatedAt)

	assert.ErrorIs(t, e.Cancel(now), core.ErrInvalidState)
	assert.Equal(t, StatusSeated, e.Status)
}

func TestEstimatedWait(t *testing.T) {
	assert.Equal(t, 180, EstimatedWait(3, 60))
	assert.Equal(t, 45, EstimatedWait(1, 45))
	assert.Equal(t, 0, EstimatedWait(0, 45))
	assert.Equal(t, 0, EstimatedWait(4, 0))
}

func TestActionFor(t *testing.T) {
	a, ok := ActionFor(StatusSeated)
	assert.True(t, ok)
	assert.Equal(t, ActionSeat, a)

	_, ok = ActionFor(StatusWaiting)
	assert.False(t, ok)
}

type stubGateway struct {
	mu      sync.Mutex
	joined  []notification.WaitlistMessage
	ready   []notification.WaitlistMessage
	failing bool
}

func (g *stubGateway) result() (bool, error) {
	if g.failing {
		return false, errors.New("sms provider unavailable")
	}
	return true, nil
}

func (g *stubGateway) SendWaitlistNotification(_ context.Context, m notification.WaitlistMessage) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.joined = append(g.joined, m)
	return g.result()
}

func (g *stubGateway) SendTableReadyNotification(_ context.Context, m notification.WaitlistMessage) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = append(g.ready, m)
	return g.result()
}

func (g *stubGateway) SendReservationConfirmation(context.Context, notification.ReservationMessage) (bool, error) {
	return g.result()
}

func (g *stubGateway) SendReservationReminder(context.Context, notification.ReservationMessage) (bool, error) {
	return g.result()
}

func (g *stubGateway) SendSMS(context.Context, string, string) (bool, error) {
	return g.result()
}

type fixture struct {
	svc        *Service
	gateway    *stubGateway
	customers  *customer.Service
	businesses *business.Service
	biz        *business.Business
	other      *business.Business
	staff      access.Identity
}

func setup(t *testing.T, averageServiceTime int) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := migrate.OpenInMemory(ctx, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	businessRepo := business.NewRepository(db.DB)
	biz := business.New("Casa Luna", business.TypeRestaurant)
	biz.AverageServiceTime = averageServiceTime
	biz.Phone = "555-1000"
	require.NoError(t, businessRepo.Create(ctx, biz))

	other := business.New("El Otro", business.TypeBar)
	require.NoError(t, businessRepo.Create(ctx, other))

	customers := customer.NewService(customer.NewRepository(db.DB))
	businesses := business.NewService(businessRepo)
	gateway := &stubGateway{}

	return &fixture{
		svc: NewService(
			NewRepository(db),
			businesses,
			customers,
			gateway,
			logger,
		),
		gateway:    gateway,
		customers:  customers,
		businesses: businesses,
		biz:        biz,
		other:      other,
		staff: access.Identity{
			UserID:      "staff-1",
			Role:        access.RoleBusinessStaff,
			BusinessIDs: []string{biz.ID},
		},
	}
}

func (f *fixture) newCustomer(t *testing.T, phone, name string) *customer.Customer {
	t.Helper()
	c, err := f.customers.Create(context.Background(), f.staff, customer.CreateCustomerRequest{
		Phone: phone,
		Name:  name,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) enroll(t *testing.T, c *customer.Customer) *Result {
	t.Helper()
	res, err := f.svc.Enroll(context.Background(), f.staff, EnrollRequest{
		BusinessID: f.biz.ID,
		CustomerID: c.ID,
		PartySize:  2,
	})
	require.NoError(t, err)
	return res
}

func assertDensePositions(t *testing.T, f *fixture) {
	t.Helper()

	items, err := f.svc.ListByBusiness(context.Background(), f.staff, f.biz.ID)
	require.NoError(t, err)

	for i, d := range items {
		assert.Equal(t, i+1, d.Position, "entry %s", d.ID)
		assert.Equal(t, EstimatedWait(d.Position, f.biz.AverageServiceTime), d.EstimatedWaitTime)
	}
}

func TestService_EnrollSeatScenario(t *testing.T) {
	f := setup(t, 60)
	ctx := context.Background()

	a := f.newCustomer(t, "5550001", "Ana")
	b := f.newCustomer(t, "5550002", "Beto")

	resA := f.enroll(t, a)
	assert.Equal(t, 1, resA.Entry.Position)
	assert.Equal(t, 60, resA.Entry.EstimatedWaitTime)
	assert.Equal(t, StatusWaiting, resA.Entry.Status)
	assert.True(t, resA.SMSSent)

	resB := f.enroll(t, b)
	assert.Equal(t, 2, resB.Entry.Position)
	assert.Equal(t, 120, resB.Entry.EstimatedWaitTime)

	_, err := f.svc.Notify(ctx, f.staff, resA.Entry.ID)
	require.NoError(t, err)
	_, err = f.svc.Seat(ctx, f.staff, resA.Entry.ID)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.staff, resB.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Position)
	assert.Equal(t, 60, got.EstimatedWaitTime)
	assert.Equal(t, "Beto", got.CustomerName)

	require.Len(t, f.gateway.joined, 2)
	assert.Equal(t, 2, f.gateway.joined[1].Position)
	require.Len(t, f.gateway.ready, 1)
	assert.Equal(t, "555-1000", f.gateway.ready[0].BusinessPhone)
}

func TestService_EnrollConflictAndValidation(t *testing.T) {
	f := setup(t, 30)
	ctx := context.Background()
	c := f.newCustomer(t, "5550003", "Cris")

	f.enroll(t, c)

	_, err := f.svc.Enroll(ctx, f.staff, EnrollRequest{BusinessID: f.biz.ID, CustomerID: c.ID, PartySize: 3})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = f.svc.Enroll(ctx, f.staff, EnrollRequest{BusinessID: "missing", CustomerID: c.ID, PartySize: 3})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.Enroll(ctx, f.staff, EnrollRequest{BusinessID: f.biz.ID, CustomerID: "missing", PartySize: 3})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.Enroll(ctx, f.staff, EnrollRequest{BusinessID: f.other.ID, CustomerID: c.ID, PartySize: 3})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestService_EnrollInactiveBusiness(t *testing.T) {
	f := setup(t, 30)
	ctx := context.Background()
	c := f.newCustomer(t, "5550004", "Dani")

	admin := access.Identity{UserID: "root", Role: access.RolePlatformAdmin}
	require.NoError(t, f.businesses.Deactivate(ctx, admin, f.biz.ID))

	_, err := f.svc.Enroll(ctx, f.staff, EnrollRequest{BusinessID: f.biz.ID, CustomerID: c.ID, PartySize: 2})
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestService_CancelCompactsAndRejectsTerminal(t *testing.T) {
	f := setup(t, 15)
	ctx := context.Background()

	var entries []*Entry
	for i := range 4 {
		c := f.newCustomer(t, fmt.Sprintf("55510%02d", i), fmt.Sprintf("Guest %d", i))
		entries = append(entries, f.enroll(t, c).Entry)
	}

	_, err := f.svc.Cancel(ctx, f.staff, entries[1].ID)
	require.NoError(t, err)
	assertDensePositions(t, f)

	_, err = f.svc.Notify(ctx, f.staff, entries[3].ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.staff, entries[3].ID)
	require.NoError(t, err)
	assertDensePositions(t, f)

	_, err = f.svc.Cancel(ctx, f.staff, entries[1].ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	_, err = f.svc.Seat(ctx, f.staff, entries[0].ID)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	stats, err := f.svc.Stats(ctx, f.staff, f.biz.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.WaitingCount)
	assert.Equal(t, 2, stats.ActiveCount)
	require.True(t, stats.AverageWaitTime.Valid)
	assert.InDelta(t, 22.5, stats.AverageWaitTime.Float64, 0.001)
}

func TestService_UpdateStatus(t *testing.T) {
	f := setup(t, 20)
	ctx := context.Background()
	e := f.enroll(t, f.newCustomer(t, "5550005", "Eva")).Entry

	_, err := f.svc.UpdateStatus(ctx, f.staff, e.ID, StatusWaiting)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	_, err = f.svc.UpdateStatus(ctx, f.staff, e.ID, Status("LOST"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	res, err := f.svc.UpdateStatus(ctx, f.staff, e.ID, StatusNotified)
	require.NoError(t, err)
	assert.Equal(t, StatusNotified, res.Entry.Status)
	assert.True(t, res.SMSSent)

	res, err = f.svc.UpdateStatus(ctx, f.staff, e.ID, StatusSeated)
	require.NoError(t, err)
	assert.Equal(t, StatusSeated, res.Entry.Status)
}

func TestService_NotificationFailureDoesNotFailRequest(t *testing.T) {
	f := setup(t, 10)
	f.gateway.failing = true
	ctx := context.Background()

	res := f.enroll(t, f.newCustomer(t, "5550006", "Fer"))
	assert.False(t, res.SMSSent)
	assert.Equal(t, 1, res.Entry.Position)

	notified, err := f.svc.Notify(ctx, f.staff, res.Entry.ID)
	require.NoError(t, err)
	assert.False(t, notified.SMSSent)
	assert.Equal(t, StatusNotified, notified.Entry.Status)
}

func TestService_ConcurrentEnrollKeepsPositionsDense(t *testing.T) {
	f := setup(t, 5)

	const n = 12
	customers := make([]*customer.Customer, n)
	for i := range n {
		customers[i] = f.newCustomer(t, fmt.Sprintf("55520%02d", i), fmt.Sprintf("Walk-in %d", i))
	}

	var wg sync.WaitGroup
	positions := make([]int, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Enroll(context.Background(), f.staff, EnrollRequest{
				BusinessID: f.biz.ID,
				CustomerID: customers[i].ID,
				PartySize:  1,
			})
			errs[i] = err
			if err == nil {
				positions[i] = res.Entry.Position
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	sort.Ints(positions)
	for i, p := range positions {
		assert.Equal(t, i+1, p)
	}
	assertDensePositions(t, f)
}

func TestService_StaffForbiddenOnForeignBusiness(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	e := f.enroll(t, f.newCustomer(t, "5550007", "Gil")).Entry

	foreign := access.Identity{
		UserID:      "staff-2",
		Role:        access.RoleBusinessStaff,
		BusinessIDs: []string{f.other.ID},
	}

	_, err := f.svc.Get(ctx, foreign, e.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
	_, err = f.svc.Seat(ctx, foreign, e.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
	_, err = f.svc.ListByBusiness(ctx, foreign, f.biz.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	items, err := f.svc.List(ctx, foreign)
	require.NoError(t, err)
	assert.Empty(t, items)

	admin := access.Identity{UserID: "root", Role: access.RolePlatformAdmin}
	items, err = f.svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestHandler_Routes(t *testing.T) {
	f := setup(t, 25)
	e := f.enroll(t, f.newCustomer(t, "5550008", "Hugo")).Entry

	serve := func(caller access.Identity, method, target, body string) *httptest.ResponseRecorder {
		router := chi.NewRouter()
		withCaller := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), caller)))
			})
		}
		NewHandler(f.svc).RegisterRoutes(router, withCaller)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
		return rec
	}

	foreign := access.Identity{UserID: "x", Role: access.RoleBusinessStaff, BusinessIDs: []string{f.other.ID}}
	assert.Equal(t, http.StatusForbidden, serve(foreign, http.MethodGet, "/waitlist/"+e.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(f.staff, http.MethodGet, "/waitlist/nope", "").Code)

	rec := serve(f.staff, http.MethodPut, "/waitlist/"+e.ID+"/seat", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.staff, http.MethodPatch, "/waitlist/"+e.ID+"/status?status=notified", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data ActionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusNotified, body.Data.Status)
	assert.True(t, body.Data.SMSSent)
	assert.Equal(t, "Casa Luna", body.Data.BusinessName)

	assert.Equal(t, http.StatusNoContent, serve(f.staff, http.MethodDelete, "/waitlist/"+e.ID, "").Code)

	rec = serve(f.staff, http.MethodPost, "/waitlist",
		`{"business_id":"`+f.biz.ID+`","customer_id":"`+e.CustomerID+`","party_size":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.staff, http.MethodPost, "/waitlist",
		`{"business_id":"`+f.biz.ID+`","customer_id":"`+e.CustomerID+`","party_size":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Position)
	assert.Equal(t, "Hugo", body.Data.CustomerName)

	rec = serve(f.staff, http.MethodGet, "/waitlist/business/"+f.biz.ID+"/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"waiting_count":1`)
}

func TestHandler_RemoveIsIdempotent(t *testing.T) {
	f := setup(t, 15)
	ctx := context.Background()

	seated := f.enroll(t, f.newCustomer(t, "5550009", "Ines")).Entry
	_, err := f.svc.Notify(ctx, f.staff, seated.ID)
	require.NoError(t, err)
	_, err = f.svc.Seat(ctx, f.staff, seated.ID)
	require.NoError(t, err)

	waiting := f.enroll(t, f.newCustomer(t, "5550010", "Jon")).Entry

	router := chi.NewRouter()
	withCaller := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(access.WithIdentity(r.Context(), f.staff)))
		})
	}
	NewHandler(f.svc).RegisterRoutes(router, withCaller)

	remove := func(id string) int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/waitlist/"+id, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, remove(seated.ID))
	d, err := f.svc.Get(ctx, f.staff, seated.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSeated, d.Status)

	assert.Equal(t, http.StatusNoContent, remove(waiting.ID))
	assert.Equal(t, http.StatusNoContent, remove(waiting.ID))
	d, err = f.svc.Get(ctx, f.staff, waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, d.Status)

	assert.Equal(t, http.StatusNotFound, remove("missing"))
}
