package telemetry_test

import (
	"sync"
	"testing"

	"github.com/batchline/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// disabledProfilerConfig is the base for unit tests that must not reach a
// real Pyroscope server.
func disabledProfilerConfig() telemetry.ProfilerConfig {
	return telemetry.ProfilerConfig{
		Enabled:         false,
		ServerAddress:   "http://localhost:4040",
		ApplicationName: "batchline-ledger",
	}
}

// newDisabledProfiler builds a profiler from the config and stops it when
// the test ends.
func newDisabledProfiler(t *testing.T, cfg telemetry.ProfilerConfig) *telemetry.Profiler {
	t.Helper()

	profiler, err := telemetry.NewProfiler(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, profiler)
	t.Cleanup(func() {
		assert.NoError(t, profiler.Stop())
	})
	return profiler
}

func TestNewProfiler_Disabled(t *testing.T) {
	cfg := disabledProfilerConfig()
	profiler := newDisabledProfiler(t, cfg)

	assert.False(t, profiler.IsEnabled())

	gotCfg := profiler.GetConfig()
	assert.Equal(t, cfg.ApplicationName, gotCfg.ApplicationName)
	assert.False(t, gotCfg.Enabled)

	// Stop on a disabled profiler is a no-op.
	assert.NoError(t, profiler.Stop())
}

func TestNewProfiler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*telemetry.ProfilerConfig)
		wantErr string
	}{
		{
			name:    "missing server address",
			mutate:  func(cfg *telemetry.ProfilerConfig) { cfg.ServerAddress = "" },
			wantErr: "server address is required",
		},
		{
			name:    "missing application name",
			mutate:  func(cfg *telemetry.ProfilerConfig) { cfg.ApplicationName = "" },
			wantErr: "application name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := disabledProfilerConfig()
			cfg.Enabled = true
			tt.mutate(&cfg)

			profiler, err := telemetry.NewProfiler(cfg, zaptest.NewLogger(t))

			require.Error(t, err)
			assert.Nil(t, profiler)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewProfiler_EnabledIntegration(t *testing.T) {
	// Needs a Pyroscope server on localhost, so only runs outside short mode.
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := telemetry.ProfilerConfig{
		Enabled:             true,
		ServerAddress:       "http://localhost:4040",
		ApplicationName:     "batchline-ledger",
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}

	profiler, err := telemetry.NewProfiler(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, profiler)

	assert.True(t, profiler.IsEnabled())
	assert.NoError(t, profiler.Stop())
}

func TestProfiler_StopIdempotent(t *testing.T) {
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	// Repeated Stop calls must not panic.
	for range 3 {
		assert.NoError(t, profiler.Stop())
	}
}

func TestProfiler_StopConcurrent(t *testing.T) {
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	// Concurrent Stop calls must not panic or deadlock.
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = profiler.Stop()
		}()
	}
	wg.Wait()
}

func TestProfiler_GetConfigReturnsACopy(t *testing.T) {
	profiler := newDisabledProfiler(t, disabledProfilerConfig())

	gotCfg := profiler.GetConfig()
	originalName := gotCfg.ApplicationName

	gotCfg2 := profiler.GetConfig()
	assert.Equal(t, originalName, gotCfg2.ApplicationName)
	assert.Equal(t, "batchline-ledger", gotCfg2.ApplicationName)
}

func TestProfiler_ProfileTypesConfiguration(t *testing.T) {
	// Each case keeps Enabled false so no server connection is attempted.
	tests := []struct {
		name   string
		mutate func(*telemetry.ProfilerConfig)
	}{
		{
			name:   "all_profiles_disabled",
			mutate: func(cfg *telemetry.ProfilerConfig) {},
		},
		{
			name: "cpu_only",
			mutate: func(cfg *telemetry.ProfilerConfig) {
				cfg.ProfileCPU = true
			},
		},
		{
			name: "memory_only",
			mutate: func(cfg *telemetry.ProfilerConfig) {
				cfg.ProfileAllocObjects = true
				cfg.ProfileAllocSpace = true
			},
		},
		{
			name: "mutex_profiling",
			mutate: func(cfg *telemetry.ProfilerConfig) {
				cfg.ProfileMutexCount = true
				cfg.ProfileMutexDuration = true
				cfg.MutexProfileFraction = 10
			},
		},
		{
			name: "block_profiling",
			mutate: func(cfg *telemetry.ProfilerConfig) {
				cfg.ProfileBlockCount = true
				cfg.ProfileBlockDuration = true
				cfg.BlockProfileRate = 10
			},
		},
		{
			name: "all_profiles_enabled",
			mutate: func(cfg *telemetry.ProfilerConfig) {
				cfg.ProfileCPU = true
				cfg.ProfileAllocObjects = true
				cfg.ProfileAllocSpace = true
				cfg.ProfileInuseObjects = true
				cfg.ProfileInuseSpace = true
				cfg.ProfileGoroutines = true
				cfg.ProfileMutexCount = true
				cfg.ProfileMutexDuration = true
				cfg.ProfileBlockCount = true
				cfg.ProfileBlockDuration = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := disabledProfilerConfig()
			cfg.ApplicationName = "test"
			tt.mutate(&cfg)

			profiler := newDisabledProfiler(t, cfg)
			assert.False(t, profiler.IsEnabled())
		})
	}
}

func TestProfiler_DisableGCRuns(t *testing.T) {
	cfg := disabledProfilerConfig()
	cfg.DisableGCRuns = true

	profiler := newDisabledProfiler(t, cfg)

	assert.True(t, profiler.GetConfig().DisableGCRuns)
}

func TestProfiler_BasicAuth(t *testing.T) {
	cfg := disabledProfilerConfig()
	cfg.BasicAuthUser = "user"
	cfg.BasicAuthPassword = "password"

	profiler := newDisabledProfiler(t, cfg)

	gotCfg := profiler.GetConfig()
	assert.Equal(t, "user", gotCfg.BasicAuthUser)
	assert.Equal(t, "password", gotCfg.BasicAuthPassword)
}

func TestProfiler_RuntimeSettings(t *testing.T) {
	t.Run("mutex profiling", func(t *testing.T) {
		cfg := disabledProfilerConfig()
		cfg.ProfileMutexCount = true
		cfg.ProfileMutexDuration = true
		cfg.MutexProfileFraction = 10

		profiler := newDisabledProfiler(t, cfg)

		gotCfg := profiler.GetConfig()
		assert.True(t, gotCfg.ProfileMutexCount)
		assert.True(t, gotCfg.ProfileMutexDuration)
		assert.Equal(t, 10, gotCfg.MutexProfileFraction)
	})

	t.Run("block profiling", func(t *testing.T) {
		cfg := disabledProfilerConfig()
		cfg.ProfileBlockCount = true
		cfg.ProfileBlockDuration = true
		cfg.BlockProfileRate = 10

		profiler := newDisabledProfiler(t, cfg)

		gotCfg := profiler.GetConfig()
		assert.True(t, gotCfg.ProfileBlockCount)
		assert.True(t, gotCfg.ProfileBlockDuration)
		assert.Equal(t, 10, gotCfg.BlockProfileRate)
	})
}
