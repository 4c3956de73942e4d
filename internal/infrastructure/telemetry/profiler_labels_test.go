package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"operation":   "sale.create",
		"Tenant-ID":   "abc",
		"user_id":     "dropped",
		"empty":       "",
		"entity kind": strings.Repeat("x", MaxLabelValueLength+10),
	})

	assert.Equal(t, []string{
		"entity_kind", strings.Repeat("x", MaxLabelValueLength),
		"operation", "sale.create",
		"tenant_id", "abc",
	}, pairs)
	assert.Nil(t, sanitizeLabels(nil))
}

func TestWithProfilingLabels(t *testing.T) {
	var got string
	WithProfilingLabels(context.Background(), OperationLabels("refund.process", map[string]string{
		ProfilingLabelTenantID: "t1",
	}), func(ctx context.Context) {
		got, _ = pprof.Label(ctx, ProfilingLabelOperation)
	})
	assert.Equal(t, "refund.process", got)
}

func TestWithProfilingLabels_NoLabels(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), map[string]string{"user_id": "u"}, func(ctx context.Context) {
		called = true
		_, ok := pprof.Label(ctx, "user_id")
		assert.False(t, ok)
	})
	assert.True(t, called)
}
