package telemetry_test

import (
	"context"
	"strings"
	"testing"

	"github.com/batchline/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelWrapper matches both WithProfilingLabels and WithPprofLabels.
type labelWrapper func(context.Context, map[string]string, func(context.Context))

// assertCallsThrough checks that the wrapped function runs exactly once
// regardless of what the label map contains.
func assertCallsThrough(t *testing.T, wrap labelWrapper, labels map[string]string, msg string) {
	t.Helper()

	called := false
	wrap(context.Background(), labels, func(c context.Context) {
		called = true
		assert.NotNil(t, c)
	})
	assert.True(t, called, msg)
}

func TestLabelWrappers_EmptyLabels(t *testing.T) {
	wrappers := map[string]labelWrapper{
		"profiling": telemetry.WithProfilingLabels,
		"pprof":     telemetry.WithPprofLabels,
	}

	for name, wrap := range wrappers {
		t.Run(name, func(t *testing.T) {
			assertCallsThrough(t, wrap, nil, "function should be called even with nil labels")
			assertCallsThrough(t, wrap, map[string]string{}, "function should be called with empty map")
		})
	}
}

func TestWithProfilingLabels_BasicLabels(t *testing.T) {
	assertCallsThrough(t, telemetry.WithProfilingLabels, map[string]string{
		"controller": "StockRecordHandler",
		"method":     "GET",
		"route":      "/api/v1/stock-records",
	}, "function should be called")
}

func TestWithPprofLabels_BasicLabels(t *testing.T) {
	assertCallsThrough(t, telemetry.WithPprofLabels, map[string]string{
		"controller": "StockRecordHandler",
		"method":     "POST",
	}, "function should be called")
}

func TestWithProfilingLabels_FiltersInputs(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		msg    string
	}{
		{
			// Only the controller label survives filtering here.
			name: "high cardinality keys dropped",
			labels: map[string]string{
				"controller": "StockRecordHandler",
				"user_id":    "user-123",
				"request_id": "req-abc",
				"batch_id":   "batch-456",
			},
			msg: "function should be called",
		},
		{
			name:   "long values truncated",
			labels: map[string]string{"controller": strings.Repeat("x", 200)},
			msg:    "function should be called with truncated value",
		},
		{
			name: "empty keys and values skipped",
			labels: map[string]string{
				"controller": "StockRecordHandler",
				"method":     "",
				"":           "value",
			},
			msg: "function should be called",
		},
		{
			name:   "spaces in key sanitized",
			labels: map[string]string{"my key": "value", "controller": "test"},
			msg:    "keys with spaces should be sanitized",
		},
		{
			name:   "dashes in key sanitized",
			labels: map[string]string{"my-key": "value", "controller": "test"},
			msg:    "keys with dashes should be sanitized",
		},
		{
			name:   "uppercase key lowercased",
			labels: map[string]string{"MyKey": "value", "controller": "test"},
			msg:    "keys should be lowercased",
		},
		{
			name:   "mixed case with spaces normalized",
			labels: map[string]string{"My Custom Key": "value", "controller": "test"},
			msg:    "mixed case with spaces should be normalized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCallsThrough(t, telemetry.WithProfilingLabels, tt.labels, tt.msg)
		})
	}
}

func TestProfilingScope_Builder(t *testing.T) {
	scope := telemetry.NewProfilingScope(nil)

	scope.WithController("StockRecordHandler").
		WithRoute("/api/v1/stock-records").
		WithMethod("GET").
		WithTenantID("tenant-123").
		WithOperation("ListStockRecords").
		WithRegion("db_query")

	labels := scope.Labels()

	assert.Equal(t, "StockRecordHandler", labels[telemetry.ProfilingLabelController])
	assert.Equal(t, "/api/v1/stock-records", labels[telemetry.ProfilingLabelRoute])
	assert.Equal(t, "GET", labels[telemetry.ProfilingLabelMethod])
	assert.Equal(t, "tenant-123", labels[telemetry.ProfilingLabelTenantID])
	assert.Equal(t, "ListStockRecords", labels[telemetry.ProfilingLabelOperation])
	assert.Equal(t, "db_query", labels[telemetry.ProfilingLabelRegion])
}

func TestProfilingScope_WithInitialLabels(t *testing.T) {
	initial := map[string]string{
		"controller": "InitialController",
		"method":     "GET",
	}

	scope := telemetry.NewProfilingScope(initial)
	scope.WithRoute("/api/v1/ledger")

	labels := scope.Labels()

	assert.Equal(t, "InitialController", labels["controller"])
	assert.Equal(t, "GET", labels["method"])
	assert.Equal(t, "/api/v1/ledger", labels["route"])
}

func TestProfilingScope_OverwriteLabel(t *testing.T) {
	scope := telemetry.NewProfilingScope(map[string]string{
		"controller": "InitialController",
	})
	scope.WithController("NewController")

	assert.Equal(t, "NewController", scope.Labels()["controller"])
}

func TestProfilingScope_LabelsReturnsACopy(t *testing.T) {
	scope := telemetry.NewProfilingScope(nil)
	scope.WithController("StockRecordHandler")

	labels1 := scope.Labels()
	labels1["controller"] = "Modified"

	labels2 := scope.Labels()
	assert.Equal(t, "StockRecordHandler", labels2["controller"], "original should not be modified")
}

func TestProfilingScope_ImmutableInitialLabels(t *testing.T) {
	initial := map[string]string{
		"controller": "InitialController",
	}

	scope := telemetry.NewProfilingScope(initial)

	initial["controller"] = "Modified"

	assert.Equal(t, "InitialController", scope.Labels()["controller"],
		"scope should have a copy of initial labels")
}

func TestProfilingScope_Run(t *testing.T) {
	called := false

	scope := telemetry.NewProfilingScope(nil)
	scope.WithController("ReservationHandler").
		WithMethod("POST")

	scope.Run(context.Background(), func(c context.Context) {
		called = true
	})

	assert.True(t, called, "function should be called via Run")
}

func TestProfilingScope_WithCustomLabel(t *testing.T) {
	scope := telemetry.NewProfilingScope(nil)
	scope.WithLabel("custom_key", "custom_value")

	assert.Equal(t, "custom_value", scope.Labels()["custom_key"])
}

func TestHTTPRequestLabels(t *testing.T) {
	tests := []struct {
		name       string
		controller string
		route      string
		method     string
		tenantID   string
		wantLen    int
	}{
		{"all_fields", "StockRecordHandler", "/api/v1/stock-records", "GET", "tenant-123", 4},
		{"empty_tenant", "StockRecordHandler", "/api/v1/stock-records", "GET", "", 3},
		{"only_controller", "StockRecordHandler", "", "", "", 1},
		{"all_empty", "", "", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := telemetry.HTTPRequestLabels(tt.controller, tt.route, tt.method, tt.tenantID)
			assert.Len(t, labels, tt.wantLen)

			if tt.controller != "" {
				assert.Equal(t, tt.controller, labels[telemetry.ProfilingLabelController])
			}
			if tt.route != "" {
				assert.Equal(t, tt.route, labels[telemetry.ProfilingLabelRoute])
			}
			if tt.method != "" {
				assert.Equal(t, tt.method, labels[telemetry.ProfilingLabelMethod])
			}
			if tt.tenantID != "" {
				assert.Equal(t, tt.tenantID, labels[telemetry.ProfilingLabelTenantID])
			}
		})
	}
}

func TestOperationLabels(t *testing.T) {
	t.Run("operation_only", func(t *testing.T) {
		labels := telemetry.OperationLabels("ReserveStock", nil)

		assert.Equal(t, "ReserveStock", labels[telemetry.ProfilingLabelOperation])
		assert.Len(t, labels, 1)
	})

	t.Run("with_extra_labels", func(t *testing.T) {
		labels := telemetry.OperationLabels("ReserveStock", map[string]string{
			"controller": "ReservationHandler",
			"method":     "POST",
		})

		assert.Equal(t, "ReserveStock", labels[telemetry.ProfilingLabelOperation])
		assert.Equal(t, "ReservationHandler", labels["controller"])
		assert.Equal(t, "POST", labels["method"])
		assert.Len(t, labels, 3)
	})
}

func TestRegionLabels(t *testing.T) {
	t.Run("region_only", func(t *testing.T) {
		labels := telemetry.RegionLabels("db_query", nil)

		assert.Equal(t, "db_query", labels[telemetry.ProfilingLabelRegion])
		assert.Len(t, labels, 1)
	})

	t.Run("with_extra_labels", func(t *testing.T) {
		labels := telemetry.RegionLabels("db_query", map[string]string{
			"operation": "GetStockLevels",
			"table":     "stock_records",
		})

		assert.Equal(t, "db_query", labels[telemetry.ProfilingLabelRegion])
		assert.Equal(t, "GetStockLevels", labels["operation"])
		assert.Equal(t, "stock_records", labels["table"])
		assert.Len(t, labels, 3)
	})
}

func TestProfilingLabelConstants(t *testing.T) {
	assert.Equal(t, "controller", telemetry.ProfilingLabelController)
	assert.Equal(t, "route", telemetry.ProfilingLabelRoute)
	assert.Equal(t, "method", telemetry.ProfilingLabelMethod)
	assert.Equal(t, "tenant_id", telemetry.ProfilingLabelTenantID)
	assert.Equal(t, "operation", telemetry.ProfilingLabelOperation)
	assert.Equal(t, "region", telemetry.ProfilingLabelRegion)
	assert.Equal(t, 128, telemetry.MaxLabelValueLength)
}

func TestHighCardinalityLabels(t *testing.T) {
	for _, label := range []string{
		"user_id",
		"request_id",
		"batch_id",
		"trace_id",
		"span_id",
		"session_id",
	} {
		assert.True(t, telemetry.HighCardinalityLabels[label],
			"label %s should be marked as high cardinality", label)
	}
}

func TestNestedProfilingLabels(t *testing.T) {
	outerCalled := false
	innerCalled := false

	telemetry.WithProfilingLabels(context.Background(), map[string]string{
		"controller": "StockRecordHandler",
	}, func(outerCtx context.Context) {
		outerCalled = true

		telemetry.WithProfilingLabels(outerCtx, map[string]string{
			"operation": "QueryDB",
			"region":    "db_query",
		}, func(innerCtx context.Context) {
			innerCalled = true
		})
	})

	assert.True(t, outerCalled, "outer function should be called")
	assert.True(t, innerCalled, "inner function should be called")
}

func TestContextPropagation(t *testing.T) {
	type contextKey string
	key := contextKey("test-key")
	ctx := context.WithValue(context.Background(), key, "test-value")

	telemetry.WithProfilingLabels(ctx, map[string]string{
		"controller": "ReservationHandler",
	}, func(c context.Context) {
		// Values from the parent context survive the label wrapping.
		value := c.Value(key)
		require.NotNil(t, value)
		assert.Equal(t, "test-value", value)
	})
}

func TestConcurrentProfilingLabels(t *testing.T) {
	const goroutines = 10
	done := make(chan bool, goroutines)

	for range goroutines {
		go func() {
			telemetry.WithProfilingLabels(context.Background(), map[string]string{
				"controller": "StockRecordHandler",
				"goroutine":  "test",
			}, func(c context.Context) {})
			done <- true
		}()
	}

	for range goroutines {
		<-done
	}
}
