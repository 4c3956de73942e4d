package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelTenantID   = "tenant_id"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelEntityKind = "entity_kind"
	ProfilingLabelRegion     = "region"
)

// MaxLabelValueLength bounds label values.
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped from profiling labels. Must not be
// modified at runtime.
var HighCardinalityLabels = map[string]bool{
	"user_id":       true,
	"request_id":    true,
	"sale_id":       true,
	"refund_id":     true,
	"stock_item_id": true,
	"trace_id":      true,
	"span_id":       true,
}

// WithProfilingLabels runs fn under Pyroscope labels. Labels are copied and
// sanitized first; when none survive, fn runs unlabelled.
//
//	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("sale.create", map[string]string{
//	    telemetry.ProfilingLabelTenantID: tenantID.String(),
//	}), func(c context.Context) {
//	    sale, err = s.createSale(c, req)
//	})
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(maps.Clone(labels))
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels creates labels for a named operation.
func OperationLabels(operation string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	labels[ProfilingLabelOperation] = operation
	maps.Copy(labels, extra)
	return labels
}

// sanitizeLabels returns sorted key/value pairs, dropping empty entries and
// high-cardinality keys and truncating long values.
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
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		if k := sanitizeLabelKey(key); k != "" {
			pairs = append(pairs, k, value)
		}
	}
	return pairs
}

// sanitizeLabelKey lowercases key and keeps only [a-z0-9_].
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(key)

	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
