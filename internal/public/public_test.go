// AngelaMos | 2026
// public_test.go

package public

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/waitlist"
)

type stubBusinesses map[string]*business.Business

func (s stubBusinesses) GetByID(_ context.Context, id string) (*business.Business, error) {
	b, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("get business: %w", core.ErrNotFound)
	}
	return b, nil
}

type stubQueues struct {
	stats *waitlist.Stats
	calls int
}

func (q *stubQueues) Summary(context.Context, string) (*waitlist.Stats, error) {
	q.calls++
	return q.stats, nil
}

func newRouter(businesses stubBusinesses, queues *stubQueues) http.Handler {
	svc := NewService(businesses, queues, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(router, nil)
	return router
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestWaitlistSummary(t *testing.T) {
	open := business.New("Pho 24", business.TypeRestaurant)
	open.Capacity = 30
	open.AverageServiceTime = 20

	closed := business.New("Shuttered", business.TypeCafe)
	closed.Deactivate()

	businesses := stubBusinesses{open.ID: open, closed.ID: closed}

	t.Run("active business with waiting parties", func(t *testing.T) {
		queues := &stubQueues{stats: &waitlist.Stats{
			WaitingCount:    2,
			ActiveCount:     3,
			AverageWaitTime: sql.NullFloat64{Float64: 30, Valid: true},
		}}

		rec := get(newRouter(businesses, queues), "/public/waitlist/"+open.ID)
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Contains(t, body, `"business_name":"Pho 24"`)
		assert.Contains(t, body, `"business_type":"RESTAURANT"`)
		assert.Contains(t, body, `"total_waiting":2`)
		assert.Contains(t, body, `"average_wait_time":30`)
		assert.Contains(t, body, `"average_service_time":20`)
		assert.Contains(t, body, `"capacity":30`)
		assert.Contains(t, body, `"is_active":true`)
	})

	t.Run("average wait is truncated to whole minutes", func(t *testing.T) {
		queues := &stubQueues{stats: &waitlist.Stats{
			WaitingCount:    2,
			AverageWaitTime: sql.NullFloat64{Float64: 22.5, Valid: true},
		}}

		rec := get(newRouter(businesses, queues), "/public/waitlist/"+open.ID)
		require.Equal(t, http.StatusOK, rec.Code)

		var envelope struct {
			Data WaitlistSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		require.NotNil(t, envelope.Data.AverageWaitTime)
		assert.Equal(t, 22, *envelope.Data.AverageWaitTime)
		assert.Contains(t, rec.Body.String(), `"average_wait_time":22,`)
	})

	t.Run("empty queue reports null average", func(t *testing.T) {
		queues := &stubQueues{stats: &waitlist.Stats{}}

		rec := get(newRouter(businesses, queues), "/public/waitlist/"+open.ID)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"average_wait_time":null`)
		assert.Contains(t, rec.Body.String(), `"total_waiting":0`)
	})

	t.Run("inactive business is hidden", func(t *testing.T) {
		queues := &stubQueues{stats: &waitlist.Stats{}}

		rec := get(newRouter(businesses, queues), "/public/waitlist/"+closed.ID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Zero(t, queues.calls)
	})

	t.Run("unknown business", func(t *testing.T) {
		rec := get(newRouter(businesses, &stubQueues{}), "/public/waitlist/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
