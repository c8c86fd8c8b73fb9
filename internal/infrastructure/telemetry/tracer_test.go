package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/batchline/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// disabledTracerConfig is the base for unit tests that must not reach a
// real collector.
func disabledTracerConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "batchline-ledger",
	}
}

// newTracerProvider constructs a provider, failing the test on error.
func newTracerProvider(t *testing.T, cfg telemetry.Config) *telemetry.TracerProvider {
	t.Helper()

	tp, err := telemetry.NewTracerProvider(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tp)
	return tp
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	cfg := disabledTracerConfig()
	tp := newTracerProvider(t, cfg)

	assert.False(t, tp.IsEnabled())

	gotCfg := tp.GetConfig()
	assert.Equal(t, cfg.ServiceName, gotCfg.ServiceName)
	assert.False(t, gotCfg.Enabled)

	// Shutdown on a disabled provider is a no-op.
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	// Needs a running OTLP collector, so only runs outside short mode.
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := disabledTracerConfig()
	cfg.Enabled = true
	tp := newTracerProvider(t, cfg)

	assert.True(t, tp.IsEnabled())

	tracer := tp.Tracer("test")
	_, span := tracer.Start(ctx, "test-span")
	span.End()

	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_SamplingRatios(t *testing.T) {
	tests := []struct {
		name          string
		samplingRatio float64
		wantEnabled   bool
	}{
		{"always_sample", 1.0, false},
		{"never_sample", 0.0, false},
		{"ratio_sample", 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := disabledTracerConfig()
			cfg.SamplingRatio = tt.samplingRatio
			tp := newTracerProvider(t, cfg)

			assert.Equal(t, tt.wantEnabled, tp.IsEnabled())
			assert.NoError(t, tp.Shutdown(context.Background()))
		})
	}
}

func TestTracerProvider_Tracer(t *testing.T) {
	tp := newTracerProvider(t, disabledTracerConfig())

	// A disabled provider still hands out a usable no-op tracer.
	tracer := tp.Tracer("test-tracer")
	require.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "test-span")
	span.End()
}

func TestTracerProvider_ForceFlush_Disabled(t *testing.T) {
	tp := newTracerProvider(t, disabledTracerConfig())

	assert.NoError(t, tp.ForceFlush(context.Background()))
}

func TestTracerProvider_ShutdownTimeout(t *testing.T) {
	tp := newTracerProvider(t, disabledTracerConfig())

	// A cancelled context does not fail shutdown of a disabled provider.
	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, tp.Shutdown(cancelledCtx))
}

func TestConfig_Defaults(t *testing.T) {
	cfg := telemetry.Config{}

	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.CollectorEndpoint)
	assert.Zero(t, cfg.SamplingRatio)
	assert.Empty(t, cfg.ServiceName)
}

func TestNewTracerProvider_InvalidEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cfg := telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "invalid-host:99999",
		SamplingRatio:     1.0,
		ServiceName:       "batchline-ledger",
	}

	// The exporter connects lazily, so construction can succeed even with a
	// bad endpoint.
	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	if err != nil {
		t.Logf("Expected connection error: %v", err)
		return
	}

	_ = tp.Shutdown(context.Background())
}

func TestTracerProvider_EnableSpanProfiles_Disabled(t *testing.T) {
	tp := newTracerProvider(t, disabledTracerConfig())
	ctx := context.Background()

	// EnableSpanProfiles is a silent no-op while telemetry is off.
	assert.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())

	assert.NoError(t, tp.Shutdown(ctx))
}

func TestTracerProvider_EnableSpanProfiles_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := disabledTracerConfig()
	cfg.Enabled = true
	cfg.ServiceName = "batchline-ledger-span-profiles"

	tp := newTracerProvider(t, cfg)
	defer func() {
		_ = tp.Shutdown(ctx)
	}()

	assert.False(t, tp.IsSpanProfilesEnabled())

	assert.NoError(t, tp.EnableSpanProfiles())
	assert.True(t, tp.IsSpanProfilesEnabled())

	// A second call changes nothing.
	assert.NoError(t, tp.EnableSpanProfiles())
	assert.True(t, tp.IsSpanProfilesEnabled())
}

func TestTracerProvider_IsSpanProfilesEnabled_Default(t *testing.T) {
	tp := newTracerProvider(t, disabledTracerConfig())

	assert.False(t, tp.IsSpanProfilesEnabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracerProvider_SpanProfilesWithTracer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := disabledTracerConfig()
	cfg.Enabled = true
	cfg.ServiceName = "batchline-ledger-span-profiles-tracer"

	tp := newTracerProvider(t, cfg)
	defer func() {
		_ = tp.Shutdown(ctx)
	}()

	require.NoError(t, tp.EnableSpanProfiles())

	// With span profiles on, spans carry span_id as a pprof label.
	tracer := tp.Tracer("test-span-profiles")
	_, span := tracer.Start(ctx, "test-span-with-profile")

	// Keep the span alive long enough for the CPU profiler to see it.
	time.Sleep(15 * time.Millisecond)

	span.End()

	assert.NoError(t, tp.ForceFlush(ctx))
}

func TestTracerProvider_SpanProfilesConcurrentAccess(t *testing.T) {
	cfg := disabledTracerConfig()
	cfg.ServiceName = "batchline-ledger-concurrent"

	tp := newTracerProvider(t, cfg)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	done := make(chan struct{})
	for range 10 {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = tp.EnableSpanProfiles()
			_ = tp.IsSpanProfilesEnabled()
		}()
	}

	for range 10 {
		<-done
	}

	// Telemetry is off, so span profiles must still be off.
	assert.False(t, tp.IsSpanProfilesEnabled())
}
