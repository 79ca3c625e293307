// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/waitlist-backend/internal/config"
)

func TestNewTelemetry_Disabled(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.OtelConfig{}, config.AppConfig{})
	require.NoError(t, err)
	assert.False(t, tel.Enabled())
	assert.NoError(t, tel.Shutdown(context.Background()))

	var nilTel *Telemetry
	assert.NoError(t, nilTel.Shutdown(context.Background()))
}

func TestSampler_ClampsRate(t *testing.T) {
	assert.Contains(t, sampler(0).Description(), "TraceIDRatioBased{0.1}")
	assert.Contains(t, sampler(3).Description(), "TraceIDRatioBased{0.1}")
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased{0.5}")
}

func TestSpanHelpers(t *testing.T) {
	prev := otel.GetTracerProvider()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	install(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	assert.Empty(t, TraceIDFromContext(context.Background()))

	ctx, span := StartSpan(context.Background(), "waitlist.enroll",
		attribute.String("business_id", "b1"))
	assert.NotEmpty(t, TraceIDFromContext(ctx))

	AddSpanEvent(ctx, "waitlist.compacted", attribute.Int("moved", 2))
	SetSpanError(ctx, errors.New("queue closed"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "waitlist.enroll", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "queue closed", got.Status().Description)
	assert.Contains(t, got.Attributes(), attribute.String("business_id", "b1"))

	var names []string
	for _, ev := range got.Events() {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "waitlist.compacted")
}
