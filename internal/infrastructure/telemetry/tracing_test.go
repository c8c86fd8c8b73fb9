package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/batchline/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordedTracer installs an in-memory span recorder as the global tracer
// provider and restores the original when the test ends.
func recordedTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sr),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(originalProvider)
		_ = tp.Shutdown(context.Background())
	})

	return sr
}

// endedSpan ends the span and returns the single recorded result.
func endedSpan(t *testing.T, sr *tracetest.SpanRecorder, span trace.Span) sdktrace.ReadOnlySpan {
	t.Helper()
	span.End()
	spans := sr.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func hasStringAttr(span sdktrace.ReadOnlySpan, key, value string) bool {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key && attr.Value.AsString() == value {
			return true
		}
	}
	return false
}

func attrValueMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{}, len(attrs))
	for _, attr := range attrs {
		m[string(attr.Key)] = attr.Value.AsInterface()
	}
	return m
}

func TestStartSpan(t *testing.T) {
	sr := recordedTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")
	require.NotNil(t, span)

	recorded := endedSpan(t, sr, span)
	assert.Equal(t, "ledger.record_movement", recorded.Name())
	assert.Equal(t, trace.SpanKindInternal, recorded.SpanKind())
}

func TestStartSpan_WithOptions(t *testing.T) {
	sr := recordedTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement",
		telemetry.WithAttribute("test_key", "test_value"),
		telemetry.WithSpanKind(trace.SpanKindClient),
	)
	require.NotNil(t, span)

	recorded := endedSpan(t, sr, span)
	assert.Equal(t, trace.SpanKindClient, recorded.SpanKind())
	assert.True(t, hasStringAttr(recorded, "test_key", "test_value"),
		"expected attribute 'test_key' not found")
}

func TestStartServiceSpan(t *testing.T) {
	sr := recordedTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "stock_record", "reserve")
	require.NotNil(t, span)

	// Span names follow the service.operation convention.
	assert.Equal(t, "stock_record.reserve", endedSpan(t, sr, span).Name())
}

func TestSetAttributes(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	telemetry.SetAttributes(span,
		"string_attr", "value",
		"int_attr", 42,
		"bool_attr", true,
	)

	attrMap := attrValueMap(endedSpan(t, sr, span).Attributes())
	assert.Equal(t, "value", attrMap["string_attr"])
	assert.Equal(t, int64(42), attrMap["int_attr"])
	assert.Equal(t, true, attrMap["bool_attr"])
}

func TestSetAttribute(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	telemetry.SetAttribute(span, "work_order_id", "WO-1042")

	assert.True(t, hasStringAttr(endedSpan(t, sr, span), "work_order_id", "WO-1042"),
		"expected attribute 'work_order_id' not found")
}

func TestSetAttribute_WithUUID(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	// UUIDs go through the fmt.Stringer path.
	recordID := uuid.New()
	telemetry.SetAttribute(span, "stock_record_id", recordID)

	assert.True(t, hasStringAttr(endedSpan(t, sr, span), "stock_record_id", recordID.String()),
		"expected attribute 'stock_record_id' with UUID value not found")
}

func TestRecordError(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	telemetry.RecordError(span, errors.New("test error"))

	recorded := endedSpan(t, sr, span)
	assert.Equal(t, codes.Error, recorded.Status().Code)
	assert.Equal(t, "test error", recorded.Status().Description)

	// The error also shows up as an exception event.
	events := recorded.Events()
	require.GreaterOrEqual(t, len(events), 1)
	assert.Equal(t, "exception", events[0].Name)
}

func TestRecordError_NilError(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	telemetry.RecordError(span, nil)

	assert.NotEqual(t, codes.Error, endedSpan(t, sr, span).Status().Code)
}

func TestSetOK(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	telemetry.SetOK(span)

	assert.Equal(t, codes.Ok, endedSpan(t, sr, span).Status().Code)
}

func TestAddEvent(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	telemetry.AddEvent(span, "stock_reserved",
		"sku", "FLOUR-001",
		"quantity", 10,
	)

	events := endedSpan(t, sr, span).Events()
	require.Len(t, events, 1)
	assert.Equal(t, "stock_reserved", events[0].Name)

	attrMap := attrValueMap(events[0].Attributes)
	assert.Equal(t, "FLOUR-001", attrMap["sku"])
	assert.Equal(t, int64(10), attrMap["quantity"])
}

func TestSpanFromContext(t *testing.T) {
	recordedTracer(t)
	ctx := context.Background()

	// Without a span in context a no-op span comes back.
	span := telemetry.SpanFromContext(ctx)
	assert.NotNil(t, span)

	ctx, createdSpan := telemetry.StartSpan(ctx, "ledger.record_movement")
	defer createdSpan.End()

	retrievedSpan := telemetry.SpanFromContext(ctx)
	assert.Equal(t, createdSpan.SpanContext().SpanID(), retrievedSpan.SpanContext().SpanID())
}

func TestGetTraceID(t *testing.T) {
	recordedTracer(t)
	ctx := context.Background()

	assert.Empty(t, telemetry.GetTraceID(ctx))

	ctx, span := telemetry.StartSpan(ctx, "ledger.record_movement")
	defer span.End()

	traceID := telemetry.GetTraceID(ctx)
	assert.NotEmpty(t, traceID)
	// 16 bytes rendered as hex.
	assert.Len(t, traceID, 32)
}

func TestGetSpanID(t *testing.T) {
	recordedTracer(t)
	ctx := context.Background()

	assert.Empty(t, telemetry.GetSpanID(ctx))

	ctx, span := telemetry.StartSpan(ctx, "ledger.record_movement")
	defer span.End()

	spanID := telemetry.GetSpanID(ctx)
	assert.NotEmpty(t, spanID)
	// 8 bytes rendered as hex.
	assert.Len(t, spanID, 16)
}

func TestContextWithSpan(t *testing.T) {
	recordedTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")
	defer span.End()

	newCtx := telemetry.ContextWithSpan(context.Background(), span)

	retrievedSpan := telemetry.SpanFromContext(newCtx)
	assert.Equal(t, span.SpanContext().SpanID(), retrievedSpan.SpanContext().SpanID())
}

func TestNestedSpans(t *testing.T) {
	sr := recordedTracer(t)

	ctx, parentSpan := telemetry.StartSpan(context.Background(), "parent.operation")
	_, childSpan := telemetry.StartSpan(ctx, "child.operation")
	childSpan.End()
	parentSpan.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)

	byName := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		byName[s.Name()] = s
	}
	parent, ok := byName["parent.operation"]
	require.True(t, ok, "parent span not found")
	child, ok := byName["child.operation"]
	require.True(t, ok, "child span not found")

	assert.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
}

func TestNilSpanHelpers(t *testing.T) {
	// None of the helpers may panic on a nil span.
	telemetry.RecordError(nil, errors.New("test error"))
	telemetry.SetAttributes(nil, "key", "value")
	telemetry.SetAttribute(nil, "key", "value")
	telemetry.SetOK(nil)
	telemetry.AddEvent(nil, "event_name", "key", "value")
}

func TestAttributeTypes(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	telemetry.SetAttributes(span,
		"string", "value",
		"int", 42,
		"int64", int64(100),
		"float64", 3.14,
		"bool", true,
		"string_slice", []string{"a", "b"},
		"int_slice", []int{1, 2, 3},
		"int64_slice", []int64{10, 20},
		"float64_slice", []float64{1.1, 2.2},
		"bool_slice", []bool{true, false},
	)

	assert.GreaterOrEqual(t, len(endedSpan(t, sr, span).Attributes()), 10)
}

func TestSetAttributes_OddKeyValues(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	// A trailing key without a value is dropped.
	telemetry.SetAttributes(span,
		"key1", "value1",
		"key2", "value2",
		"orphan_key",
	)

	assert.Len(t, endedSpan(t, sr, span).Attributes(), 2)
}

func TestSetAttributes_NonStringKey(t *testing.T) {
	sr := recordedTracer(t)
	_, span := telemetry.StartSpan(context.Background(), "ledger.record_movement")

	// Pairs with a non-string key are dropped.
	telemetry.SetAttributes(span,
		"valid_key", "value",
		123, "invalid_key",
	)

	assert.Len(t, endedSpan(t, sr, span).Attributes(), 1)
}
