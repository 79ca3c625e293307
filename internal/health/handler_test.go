// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy() Checker {
	return pingFunc(func(context.Context) error { return nil })
}

func failing() Checker {
	return pingFunc(func(context.Context) error { return errors.New("refused") })
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		db     Checker
		redis  Checker
		status int
		want   string
		checks int
	}{
		{"all healthy", healthy(), healthy(), http.StatusOK, StatusOK, 2},
		{"redis disabled", healthy(), nil, http.StatusOK, StatusOK, 1},
		{"redis down", healthy(), failing(), http.StatusOK, StatusDegraded, 2},
		{"database down", failing(), healthy(), http.StatusServiceUnavailable, StatusUnavailable, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.db, tt.redis)

			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.status, rec.Code)

			var body ReadinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Status)
			assert.Len(t, body.Checks, tt.checks)
		})
	}
}

func TestReadinessNotReady(t *testing.T) {
	h := NewHandlerWith(Dependency{Name: "database", Checker: healthy()})
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), StatusNotReady)
}

func TestLiveness_ShuttingDown(t *testing.T) {
	h := NewHandler(healthy(), nil)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetShutdown(true)

	rec = httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
