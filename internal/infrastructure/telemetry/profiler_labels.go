// Package telemetry provides Pyroscope continuous profiling integration.
package telemetry

import (
	"context"
	"maps"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys attached to profiles. Keep these low cardinality so the
// Pyroscope UI stays usable.
const (
	// ProfilingLabelController names the HTTP handler type.
	ProfilingLabelController = "controller"
	// ProfilingLabelRoute holds the matched route pattern.
	ProfilingLabelRoute = "route"
	// ProfilingLabelMethod holds the HTTP method.
	ProfilingLabelMethod = "method"
	// ProfilingLabelTenantID holds the tenant identifier.
	ProfilingLabelTenantID = "tenant_id"
	// ProfilingLabelOperation names a logical operation.
	ProfilingLabelOperation = "operation"
	// ProfilingLabelRegion names a code region such as "db_query".
	ProfilingLabelRegion = "region"
)

// MaxLabelValueLength caps label values. Longer values are truncated
// before they reach the profiler.
const MaxLabelValueLength = 128

// HighCardinalityLabels lists keys that sanitizeLabels drops outright.
// Unbounded values like request IDs blow up Pyroscope's series count.
//
// Do not mutate this map at runtime.
//
// tenant_id stays off this list. Tenant counts are typically modest;
// installations with thousands of tenants should disable tenant labeling
// instead.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"batch_id":   true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn under the given profiling labels so its CPU
// samples can be filtered by those dimensions in Pyroscope.
//
//	telemetry.WithProfilingLabels(ctx, map[string]string{
//	    "controller": "StockRecordHandler",
//	    "operation":  "RecordMovement",
//	}, func(c context.Context) {
//	    applyMovement(c)
//	})
//
// The labels map is copied before use; callers may reuse or mutate their
// map afterwards. Keys listed in HighCardinalityLabels are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := preparedLabelPairs(labels)
	if pairs == nil {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels is the same idea built on Go's native pprof label API.
// Use it when profiles are consumed by standard Go tooling rather than the
// Pyroscope SDK; the resulting label semantics are identical.
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := preparedLabelPairs(labels)
	if pairs == nil {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

// preparedLabelPairs copies, sanitizes, and flattens a label map. A nil
// return means there is nothing worth labeling.
func preparedLabelPairs(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	labelsCopy := make(map[string]string, len(labels))
	maps.Copy(labelsCopy, labels)

	pairs := sanitizeLabels(labelsCopy)
	if len(pairs) == 0 {
		return nil
	}
	return pairs
}

// ProfilingScope accumulates labels incrementally before running a
// labeled function.
type ProfilingScope struct {
	labels map[string]string
}

// NewProfilingScope seeds a scope with an initial label set.
func NewProfilingScope(labels map[string]string) *ProfilingScope {
	scope := &ProfilingScope{
		labels: make(map[string]string),
	}
	maps.Copy(scope.labels, labels)
	return scope
}

// WithLabel adds one label and returns the scope for chaining.
func (s *ProfilingScope) WithLabel(key, value string) *ProfilingScope {
	s.labels[key] = value
	return s
}

// WithController sets the controller label.
func (s *ProfilingScope) WithController(controller string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelController, controller)
}

// WithRoute sets the route label.
func (s *ProfilingScope) WithRoute(route string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRoute, route)
}

// WithMethod sets the method label.
func (s *ProfilingScope) WithMethod(method string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelMethod, method)
}

// WithTenantID sets the tenant_id label.
func (s *ProfilingScope) WithTenantID(tenantID string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelTenantID, tenantID)
}

// WithOperation sets the operation label.
func (s *ProfilingScope) WithOperation(operation string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelOperation, operation)
}

// WithRegion sets the region label.
func (s *ProfilingScope) WithRegion(region string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRegion, region)
}

// Labels returns a copy of the accumulated labels.
func (s *ProfilingScope) Labels() map[string]string {
	result := make(map[string]string, len(s.labels))
	maps.Copy(result, s.labels)
	return result
}

// Run executes fn under the accumulated labels.
func (s *ProfilingScope) Run(ctx context.Context, fn func(context.Context)) {
	WithProfilingLabels(ctx, s.labels, fn)
}

// sanitizeLabels turns a label map into a deterministic key-value slice.
// High-cardinality keys are dropped silently, empty keys and values are
// skipped, and values past MaxLabelValueLength are truncated.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]

		if key == "" || value == "" {
			continue
		}
		if HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}

		sanitizedKey := sanitizeLabelKey(key)
		if sanitizedKey == "" {
			continue
		}

		pairs = append(pairs, sanitizedKey, value)
	}

	return pairs
}

// sanitizeLabelKey normalizes a key to snake_case ASCII.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	result := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			result = append(result, c)
		}
	}

	return string(result)
}

// HTTPRequestLabels assembles the standard request label set. Empty
// values stay out of the map.
func HTTPRequestLabels(controller, route, method, tenantID string) map[string]string {
	labels := make(map[string]string, 4)

	if controller != "" {
		labels[ProfilingLabelController] = controller
	}
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	if tenantID != "" {
		labels[ProfilingLabelTenantID] = tenantID
	}

	return labels
}

// OperationLabels builds a label set for a named operation.
func OperationLabels(operation string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelOperation] = operation
	maps.Copy(labels, extraLabels)

	return labels
}

// RegionLabels builds a label set for a code region.
func RegionLabels(region string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelRegion] = region
	maps.Copy(labels, extraLabels)

	return labels
}
