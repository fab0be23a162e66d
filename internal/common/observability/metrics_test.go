package observability

import (
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_SpansAndTasks(t *testing.T) {
	registry := promclient.NewRegistry()
	spans := tracetest.NewInMemoryExporter()

	obs, err := New(Options{ServiceName: "stayease-test", Registerer: registry, SpanExporter: spans})
	require.NoError(t, err)

	ctx, span := obs.StartSpan(context.Background(), "GET /api/v1/state", attribute.String("route", "/api/v1/state"))
	obs.RecordTask(ctx, "wishlist", "done", 600*time.Millisecond)
	span.End()

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tasks_completed_total")

	require.NoError(t, obs.Shutdown(context.Background()))

	got := spans.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, "GET /api/v1/state", got[0].Name)
}

func TestObservability_NoTracerIsNoop(t *testing.T) {
	obs, err := New(Options{ServiceName: "stayease-test", Registerer: promclient.NewRegistry()})
	require.NoError(t, err)

	_, span := obs.StartSpan(context.Background(), "noop")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, obs.Shutdown(context.Background()))
}
