package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/config"
)

func TestManagerPrometheusScrape(t *testing.T) {
	cfg := config.Config{Observability: config.Observability{
		ServiceName:     "accounting-management",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}}

	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, mgr.MetricsEnabled())
	assert.False(t, mgr.TracingEnabled())
	require.NotNil(t, mgr.MetricsHandler())

	rec, err := NewRecorder(mgr)
	require.NoError(t, err)
	rec.Write(context.Background(), "transaction", "created")

	resp := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "accounting_entity_writes")
	assert.Contains(t, resp.Body.String(), "go_goroutines")

	lc.RequireStart()
	lc.RequireStop()
}

func TestManagerDisabled(t *testing.T) {
	mgr, err := NewManager(fxtest.NewLifecycle(t), config.Config{Observability: config.Observability{
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	}}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
	assert.NotNil(t, mgr.Meter("ledger"))
	assert.NoError(t, mgr.Shutdown(context.Background()))
}

func TestManagerRequiresOTLPEndpoint(t *testing.T) {
	_, err := NewManager(fxtest.NewLifecycle(t), config.Config{Observability: config.Observability{
		EnableTracing: true,
		TraceExporter: "otlp",
	}}, zap.NewNop())
	assert.ErrorContains(t, err, "OBS_OTLP_ENDPOINT")
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "root:AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "root:AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
