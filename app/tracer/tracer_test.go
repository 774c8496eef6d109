package tracer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracingAndMetricsExportsInstruments(t *testing.T) {
	tel, err := InitTracingAndMetrics("wanderplan-test", "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	counter, err := otel.Meter("tracer_test").Int64Counter("tracer_test_requests")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	_, span := otel.Tracer("tracer_test").Start(context.Background(), "probe")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	srv := tel.MetricsServer("0", slog.New(slog.NewTextHandler(io.Discard, nil)))
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "tracer_test_requests_total")
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, `service_name="wanderplan-test"`)
}
