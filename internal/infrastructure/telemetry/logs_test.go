package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func disabledLogsConfig() LogsConfig {
	return LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "batchline-ledger",
		Insecure:          true,
	}
}

// enabledLogsConfig points at a port nothing listens on. The exporter
// buffers records, so construction still succeeds.
func enabledLogsConfig() LogsConfig {
	return LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:19999",
		ServiceName:       "batchline-ledger",
		Insecure:          true,
	}
}

func jsonBaseLoggerConfig(level string) *BaseLoggerConfig {
	return &BaseLoggerConfig{
		Level:      level,
		Format:     "json",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, disabledLogsConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.False(t, provider.IsEnabled())
	assert.Nil(t, provider.GetLoggerProvider())

	// Shutdown of a provider that never exported is a no-op.
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestLoggerProvider_GetConfig(t *testing.T) {
	ctx := context.Background()
	cfg := disabledLogsConfig()

	provider, err := NewLoggerProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	got := provider.GetConfig()
	assert.Equal(t, cfg.Enabled, got.Enabled)
	assert.Equal(t, cfg.CollectorEndpoint, got.CollectorEndpoint)
	assert.Equal(t, cfg.ServiceName, got.ServiceName)
	assert.Equal(t, cfg.Insecure, got.Insecure)
}

func TestLoggerProvider_ForceFlush_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	// Nothing to flush when export is off.
	assert.NoError(t, provider.ForceFlush(ctx))
}

func TestNewZapOTELCore_NilProvider(t *testing.T) {
	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "batchline-ledger",
		LoggerProvider: nil,
		Level:          zapcore.InfoLevel,
	})
	assert.NotNil(t, core)

	// Without a provider the bridge degrades to a nop core.
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestNewZapOTELCore_DisabledProvider(t *testing.T) {
	ctx := context.Background()

	logsProvider, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "batchline-ledger",
		LoggerProvider: logsProvider,
		Level:          zapcore.InfoLevel,
	})
	assert.NotNil(t, core)

	// A disabled provider also yields a nop core.
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestNewBridgedLogger(t *testing.T) {
	observedZapCore, observedLogs := observer.New(zapcore.InfoLevel)

	// No collector in unit tests, so the OTEL side is a nop core.
	logger := NewBridgedLogger(observedZapCore, zapcore.NewNopCore(), zap.AddCaller())

	logger.Info("movement recorded", zap.String("sku", "FLOUR-001"))
	logger.Debug("cache probe") // below InfoLevel, dropped
	logger.Warn("stock below reorder point")

	logs := observedLogs.All()
	assert.Len(t, logs, 2) // Info and Warn only

	assert.Equal(t, "movement recorded", logs[0].Message)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
	assert.Contains(t, logs[0].Context, zap.String("sku", "FLOUR-001"))

	assert.Equal(t, "stock below reorder point", logs[1].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
}

func TestCreateBridgedLoggerFromConfig(t *testing.T) {
	ctx := context.Background()

	logsProvider, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	logger, err := CreateBridgedLoggerFromConfig(jsonBaseLoggerConfig("info"), logsProvider, "batchline-ledger")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestDefaultBaseLoggerConfig(t *testing.T) {
	cfg := DefaultBaseLoggerConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestParseLogLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel}, // default
		{"", zapcore.InfoLevel},        // default
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseLogLevel(tc.input))
		})
	}
}

func TestCreateLogEncoder_JSON(t *testing.T) {
	encoder := createLogEncoder(&BaseLoggerConfig{
		Format:     "json",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	assert.NotNil(t, encoder)

	buf, err := encoder.EncodeEntry(
		zapcore.Entry{
			Level:   zapcore.InfoLevel,
			Message: "test",
		},
		nil,
	)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"level":"info"`)
	assert.Contains(t, buf.String(), `"msg":"test"`)
}

func TestCreateLogEncoder_Console(t *testing.T) {
	encoder := createLogEncoder(&BaseLoggerConfig{
		Format:     "console",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	assert.NotNil(t, encoder)

	buf, err := encoder.EncodeEntry(
		zapcore.Entry{
			Level:   zapcore.InfoLevel,
			Message: "test",
		},
		nil,
	)
	require.NoError(t, err)
	// The console encoder emits plain text, no JSON keys.
	assert.NotContains(t, buf.String(), `"level"`)
}

func TestCreateLogWriter(t *testing.T) {
	assert.NotNil(t, createLogWriter("stdout"))
	assert.NotNil(t, createLogWriter("stderr"))

	// File paths fall back to stdout.
	assert.NotNil(t, createLogWriter("/tmp/test.log"))
}

func TestCreateBaseCore(t *testing.T) {
	core := createBaseCore(jsonBaseLoggerConfig("info"))
	assert.NotNil(t, core)

	assert.True(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.False(t, core.Enabled(zapcore.DebugLevel))
}

func TestLevelFilterCore(t *testing.T) {
	observedZapCore, observedLogs := observer.New(zapcore.DebugLevel)

	filteredCore := &levelFilterCore{
		Core:     observedZapCore,
		minLevel: zapcore.WarnLevel,
	}

	assert.True(t, filteredCore.Enabled(zapcore.WarnLevel))
	assert.True(t, filteredCore.Enabled(zapcore.ErrorLevel))
	assert.False(t, filteredCore.Enabled(zapcore.InfoLevel))
	assert.False(t, filteredCore.Enabled(zapcore.DebugLevel))

	logger := zap.New(filteredCore)
	logger.Debug("debug") // filtered out
	logger.Info("info")   // filtered out
	logger.Warn("warn")
	logger.Error("error")

	logs := observedLogs.All()
	assert.Len(t, logs, 2)
	assert.Equal(t, "warn", logs[0].Message)
	assert.Equal(t, "error", logs[1].Message)
}

func TestLevelFilterCore_With(t *testing.T) {
	observedZapCore, observedLogs := observer.New(zapcore.DebugLevel)

	filteredCore := &levelFilterCore{
		Core:     observedZapCore,
		minLevel: zapcore.WarnLevel,
	}

	childCore := filteredCore.With([]zapcore.Field{zap.String("service", "test")})
	assert.NotNil(t, childCore)

	// With must preserve the filter wrapper and its threshold.
	lfCore, ok := childCore.(*levelFilterCore)
	assert.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, lfCore.minLevel)

	logger := zap.New(childCore)
	logger.Warn("test message")

	logs := observedLogs.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "test message", logs[0].Message)

	hasServiceField := false
	for _, field := range logs[0].Context {
		if field.Key == "service" && field.String == "test" {
			hasServiceField = true
			break
		}
	}
	assert.True(t, hasServiceField, "service field should be present")
}

func TestCreateLogWriter_Stdout(t *testing.T) {
	assert.NotNil(t, createLogWriter("stdout"))
}

func TestCreateLogWriter_Stderr(t *testing.T) {
	assert.NotNil(t, createLogWriter("stderr"))
}

func TestLoggerBridge_LevelMapping(t *testing.T) {
	// Without a collector we cannot inspect OTEL output, but level
	// gating on the zap side is observable.
	testCases := []struct {
		name          string
		configLevel   zapcore.Level
		testLevel     zapcore.Level
		shouldBeValid bool
	}{
		{"debug config, debug test", zapcore.DebugLevel, zapcore.DebugLevel, true},
		{"debug config, info test", zapcore.DebugLevel, zapcore.InfoLevel, true},
		{"info config, debug test", zapcore.InfoLevel, zapcore.DebugLevel, false},
		{"info config, info test", zapcore.InfoLevel, zapcore.InfoLevel, true},
		{"warn config, info test", zapcore.WarnLevel, zapcore.InfoLevel, false},
		{"warn config, warn test", zapcore.WarnLevel, zapcore.WarnLevel, true},
		{"error config, warn test", zapcore.ErrorLevel, zapcore.WarnLevel, false},
		{"error config, error test", zapcore.ErrorLevel, zapcore.ErrorLevel, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			core := zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(&bytes.Buffer{}),
				tc.configLevel,
			)

			assert.Equal(t, tc.shouldBeValid, core.Enabled(tc.testLevel))
		})
	}
}

func TestLoggerBridge_Integration(t *testing.T) {
	// Full setup flow with a disabled provider, no collector needed.
	ctx := context.Background()

	logsProvider, err := NewLoggerProvider(ctx, disabledLogsConfig(), zap.NewNop())
	require.NoError(t, err)

	logger, err := CreateBridgedLoggerFromConfig(jsonBaseLoggerConfig("debug"), logsProvider, "integration-test")
	require.NoError(t, err)
	require.NotNil(t, logger)

	// Stdout side works, OTEL side is a nop.
	logger.Info("reservation committed",
		zap.String("request_id", "req-123"),
		zap.String("tenant_id", "tenant-456"),
		zap.String("work_order_id", "WO-1042"),
	)

	logger.Sync()
}

func TestLoggerProvider_Shutdown_MultipleCalls(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, provider.Shutdown(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestZapBridgeConfig_AllFields(t *testing.T) {
	cfg := ZapBridgeConfig{
		ServiceName:    "batchline-ledger",
		LoggerProvider: nil,
		Level:          zapcore.WarnLevel,
	}

	assert.Equal(t, "batchline-ledger", cfg.ServiceName)
	assert.Nil(t, cfg.LoggerProvider)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level)
}

func TestLogsConfig_AllFields(t *testing.T) {
	cfg := LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "batchline-ledger",
		Insecure:          false,
	}

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "localhost:14317", cfg.CollectorEndpoint)
	assert.Equal(t, "batchline-ledger", cfg.ServiceName)
	assert.False(t, cfg.Insecure)
}

func TestNewLoggerProvider_EnabledButNoCollector(t *testing.T) {
	ctx := context.Background()

	// Records buffer until a collector shows up, so this succeeds.
	provider, err := NewLoggerProvider(ctx, enabledLogsConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.True(t, provider.IsEnabled())
	assert.NotNil(t, provider.GetLoggerProvider())

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewZapOTELCore_WithEnabledProvider(t *testing.T) {
	ctx := context.Background()

	logsProvider, err := NewLoggerProvider(ctx, enabledLogsConfig(), zap.NewNop())
	require.NoError(t, err)
	defer logsProvider.Shutdown(ctx)

	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "batchline-ledger",
		LoggerProvider: logsProvider,
		Level:          zapcore.DebugLevel,
	})
	assert.NotNil(t, core)

	// At the default DebugLevel every level passes through.
	assert.True(t, core.Enabled(zapcore.DebugLevel))
	assert.True(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_WithLevelFilter(t *testing.T) {
	ctx := context.Background()

	logsProvider, err := NewLoggerProvider(ctx, enabledLogsConfig(), zap.NewNop())
	require.NoError(t, err)
	defer logsProvider.Shutdown(ctx)

	core := NewZapOTELCore(ZapBridgeConfig{
		ServiceName:    "batchline-ledger",
		LoggerProvider: logsProvider,
		Level:          zapcore.WarnLevel,
	})
	assert.NotNil(t, core)

	_, isFiltered := core.(*levelFilterCore)
	assert.True(t, isFiltered, "core should be wrapped with levelFilterCore")

	assert.False(t, core.Enabled(zapcore.DebugLevel))
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}

func TestLogAttributeMapping(t *testing.T) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	logger := zap.New(core)

	logger.Info("test",
		zap.String("string_field", "value"),
		zap.Int("int_field", 42),
		zap.Float64("float_field", 3.14),
		zap.Bool("bool_field", true),
		zap.Strings("strings_field", []string{"a", "b"}),
	)

	output := buf.String()

	assert.Contains(t, output, `"string_field":"value"`)
	assert.Contains(t, output, `"int_field":42`)
	assert.True(t, strings.Contains(output, `"float_field":3.14`) || strings.Contains(output, `"float_field":3.1`))
	assert.Contains(t, output, `"bool_field":true`)
	assert.Contains(t, output, `"strings_field":["a","b"]`)
}
