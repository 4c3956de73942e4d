package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	log, _ := observed()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

func TestWithTenant(t *testing.T) {
	log, logs := observed()
	tenantID := uuid.New()

	ctx, enriched := WithTenant(context.Background(), log, tenantID)
	enriched.Info("Sale completed")

	assert.Equal(t, tenantID, TenantID(ctx))
	assert.Equal(t, uuid.Nil, TenantID(context.Background()))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, tenantID.String(), logs.All()[0].ContextMap()["tenant_id"])
}

func TestWithOperation(t *testing.T) {
	log, logs := observed()

	ctx, enriched := WithOperation(context.Background(), log, "rates.refresh")
	_, second := WithOperation(context.Background(), log, "rates.refresh")
	enriched.Info("first")
	second.Info("second")

	assert.Equal(t, "rates.refresh", Operation(ctx))
	assert.NotEmpty(t, RunID(ctx))
	entries := logs.All()
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].ContextMap()["run_id"], entries[1].ContextMap()["run_id"])
}

func TestTraceFields(t *testing.T) {
	assert.Empty(t, TraceFields(context.Background()))

	fields := TraceFields(spanContext(t))
	require.Len(t, fields, 2)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields[0].String)
	assert.Equal(t, "00f067aa0ba902b7", fields[1].String)
}

func TestContextLogger(t *testing.T) {
	log, logs := observed()
	ctx := WithContext(spanContext(t), log)

	L(ctx).Warn("Lock contention", zap.Int("attempt", 2))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry.ContextMap()["trace_id"])
	assert.Equal(t, int64(2), entry.ContextMap()["attempt"])

	WithLogger(context.Background(), nil).Info("dropped")
	assert.Equal(t, 1, logs.Len())
}
