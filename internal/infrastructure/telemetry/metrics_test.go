package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/batchline/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// disabledMetricsConfig is the base for unit tests that must not reach a
// real collector.
func disabledMetricsConfig() telemetry.MetricsConfig {
	return telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    60 * time.Second,
		ServiceName:       "batchline-ledger",
	}
}

// newMeterProvider constructs a provider, failing the test on error.
func newMeterProvider(t *testing.T, cfg telemetry.MetricsConfig) *telemetry.MeterProvider {
	t.Helper()

	mp, err := telemetry.NewMeterProvider(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)
	return mp
}

// noopMeter returns a meter from a disabled provider, enough for
// exercising instrument wrappers without an exporter.
func noopMeter(t *testing.T) metric.Meter {
	t.Helper()
	return newMeterProvider(t, disabledMetricsConfig()).Meter("test")
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	cfg := disabledMetricsConfig()
	mp := newMeterProvider(t, cfg)

	assert.False(t, mp.IsEnabled())

	gotCfg := mp.GetConfig()
	assert.Equal(t, cfg.ServiceName, gotCfg.ServiceName)
	assert.False(t, gotCfg.Enabled)

	// Shutdown on a disabled provider is a no-op.
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	// Needs a running OTLP collector, so only runs outside short mode.
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := disabledMetricsConfig()
	cfg.Enabled = true
	cfg.ExportInterval = 1 * time.Second
	cfg.Insecure = true

	mp := newMeterProvider(t, cfg)

	assert.True(t, mp.IsEnabled())

	meter := mp.Meter("test")
	require.NotNil(t, meter)

	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestMeterProvider_Meter(t *testing.T) {
	mp := newMeterProvider(t, disabledMetricsConfig())

	// A disabled provider still hands out a usable no-op meter.
	meter := mp.Meter("test-meter")
	require.NotNil(t, meter)
}

func TestMeterProvider_ForceFlush_Disabled(t *testing.T) {
	mp := newMeterProvider(t, disabledMetricsConfig())

	assert.NoError(t, mp.ForceFlush(context.Background()))
}

func TestMeterProvider_ShutdownTimeout(t *testing.T) {
	mp := newMeterProvider(t, disabledMetricsConfig())

	// A cancelled context does not fail shutdown of a disabled provider.
	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, mp.Shutdown(cancelledCtx))
}

func TestMetricsConfig_Defaults(t *testing.T) {
	cfg := telemetry.MetricsConfig{}

	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.CollectorEndpoint)
	assert.Zero(t, cfg.ExportInterval)
	assert.Empty(t, cfg.ServiceName)
}

func TestMeterProvider_DefaultExportInterval(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// A zero interval falls back to the 60s default.
	cfg := disabledMetricsConfig()
	cfg.Enabled = true
	cfg.ExportInterval = 0
	cfg.Insecure = true

	mp := newMeterProvider(t, cfg)
	_ = mp.Shutdown(context.Background())
}

func TestNewMeterProvider_InvalidEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cfg := telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "invalid-host:99999",
		ExportInterval:    1 * time.Second,
		ServiceName:       "batchline-ledger",
	}

	// The exporter connects lazily, so construction can succeed even with a
	// bad endpoint.
	mp, err := telemetry.NewMeterProvider(ctx, cfg, logger)
	if err != nil {
		t.Logf("Expected connection error: %v", err)
		return
	}

	_ = mp.Shutdown(context.Background())
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	meter := noopMeter(t)

	t.Run("add", func(t *testing.T) {
		counter, err := telemetry.NewCounter(meter, "stock_movements_total", "Recorded stock movements", "1")
		require.NoError(t, err)
		require.NotNil(t, counter)

		counter.Add(ctx, 5, attribute.String("method", "GET"))
		counter.Add(ctx, 10, attribute.String("method", "POST"))

		counter.Inc(ctx, attribute.String("method", "DELETE"))
	})

	t.Run("inc", func(t *testing.T) {
		counter, err := telemetry.NewCounter(meter, "request_count", "Request count", "{request}")
		require.NoError(t, err)

		counter.Inc(ctx)
		counter.Inc(ctx, attribute.String("status", "success"))
		counter.Inc(ctx, attribute.String("status", "error"))
	})
}

func TestHistogram_Record(t *testing.T) {
	ctx := context.Background()
	histogram, err := telemetry.NewHistogram(noopMeter(t), telemetry.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Description: "HTTP request duration",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)
	require.NotNil(t, histogram)

	histogram.Record(ctx, 0.005)
	histogram.Record(ctx, 0.1, attribute.String("route", "/api/v1/stock-records"))
	histogram.Record(ctx, 2.5, attribute.String("route", "/api/v1/reservations"))
}

func TestHistogram_RecordDuration(t *testing.T) {
	ctx := context.Background()
	histogram, err := telemetry.NewHistogram(noopMeter(t), telemetry.HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Boundaries:  telemetry.DBDurationBuckets,
	})
	require.NoError(t, err)

	histogram.RecordDuration(ctx, 5*time.Millisecond)
	histogram.RecordDuration(ctx, 100*time.Millisecond, attribute.String("operation", "SELECT"))
	histogram.RecordDuration(ctx, 1*time.Second, attribute.String("operation", "INSERT"))
}

func TestHistogram_CustomBoundaries(t *testing.T) {
	ctx := context.Background()
	histogram, err := telemetry.NewHistogram(noopMeter(t), telemetry.HistogramOpts{
		Name:        "custom_histogram",
		Description: "Custom histogram with specific boundaries",
		Unit:        "s",
		Boundaries:  []float64{0.1, 0.5, 1.0, 5.0, 10.0},
	})
	require.NoError(t, err)
	require.NotNil(t, histogram)

	histogram.Record(ctx, 0.25)
}

func TestHistogram_NoBoundaries(t *testing.T) {
	ctx := context.Background()

	// Without explicit boundaries the SDK defaults apply.
	histogram, err := telemetry.NewHistogram(noopMeter(t), telemetry.HistogramOpts{
		Name:        "default_histogram",
		Description: "Histogram with default boundaries",
		Unit:        "s",
	})
	require.NoError(t, err)
	require.NotNil(t, histogram)

	histogram.Record(ctx, 1.5)
}

func TestGauge_Record(t *testing.T) {
	ctx := context.Background()
	gauge, err := telemetry.NewGauge(noopMeter(t), "active_connections", "Number of active connections", "{connection}")
	require.NoError(t, err)
	require.NotNil(t, gauge)

	gauge.Record(ctx, 10)
	gauge.Record(ctx, 15, attribute.String("pool", "db"))
	gauge.Record(ctx, 5, attribute.String("pool", "redis"))
}

func TestFloatGauge_Record(t *testing.T) {
	ctx := context.Background()
	gauge, err := telemetry.NewFloatGauge(noopMeter(t), "cpu_usage_percent", "CPU usage percentage", "%")
	require.NoError(t, err)
	require.NotNil(t, gauge)

	gauge.Record(ctx, 45.5)
	gauge.Record(ctx, 78.2, attribute.String("core", "0"))
	gauge.Record(ctx, 23.1, attribute.String("core", "1"))
}

func TestCommonAttributes(t *testing.T) {
	want := map[attribute.Key]string{
		telemetry.AttrTenantID:       "tenant_id",
		telemetry.AttrUserID:         "user_id",
		telemetry.AttrHTTPMethod:     "http.method",
		telemetry.AttrHTTPStatusCode: "http.status_code",
		telemetry.AttrHTTPRoute:      "http.route",
		telemetry.AttrDBOperation:    "db.operation",
		telemetry.AttrDBTable:        "db.table",
		telemetry.AttrDBState:        "db.pool.state",
		telemetry.AttrMovementType:   "movement_type",
		telemetry.AttrSaleStatus:     "sale_status",
		telemetry.AttrIngredientName: "ingredient_name",
		telemetry.AttrUnit:           "unit",
		telemetry.AttrBatchStatus:    "batch_status",
	}
	for key, name := range want {
		assert.Equal(t, name, string(key))
	}
}

func TestDefaultBuckets(t *testing.T) {
	assert.Equal(t, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, telemetry.HTTPDurationBuckets)

	assert.Equal(t, []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}, telemetry.DBDurationBuckets)

	assert.Equal(t, []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}, telemetry.SmallDurationBuckets)
}

func TestHistogram_WithHTTPDurationBuckets(t *testing.T) {
	ctx := context.Background()
	histogram, err := telemetry.NewHistogram(noopMeter(t), telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP server request duration",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)

	histogram.Record(ctx, 0.005, telemetry.AttrHTTPMethod.String("GET"))
	histogram.Record(ctx, 0.05, telemetry.AttrHTTPMethod.String("POST"))
	histogram.Record(ctx, 0.5, telemetry.AttrHTTPMethod.String("PUT"))
	histogram.Record(ctx, 5.0, telemetry.AttrHTTPMethod.String("DELETE"))
}

func TestHistogram_WithDBDurationBuckets(t *testing.T) {
	ctx := context.Background()
	histogram, err := telemetry.NewHistogram(noopMeter(t), telemetry.HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Boundaries:  telemetry.DBDurationBuckets,
	})
	require.NoError(t, err)

	histogram.Record(ctx, 0.001, telemetry.AttrDBOperation.String("SELECT"))
	histogram.Record(ctx, 0.01, telemetry.AttrDBOperation.String("INSERT"))
	histogram.Record(ctx, 0.1, telemetry.AttrDBOperation.String("UPDATE"))
	histogram.Record(ctx, 1.0, telemetry.AttrDBOperation.String("DELETE"))
}
