package logger

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	tenantIDKey  contextKey = "tenant_id"
	operationKey contextKey = "operation"
	runIDKey     contextKey = "run_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the attached logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithTenant scopes ctx and its logger to one tenant.
func WithTenant(ctx context.Context, logger *zap.Logger, tenantID uuid.UUID) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, tenantIDKey, tenantID)
	enriched := logger.With(zap.String("tenant_id", tenantID.String()))
	return WithContext(ctx, enriched), enriched
}

// WithOperation starts a named unit of work, such as a CLI command or a
// scheduled rate refresh, and tags it with a fresh run ID.
func WithOperation(ctx context.Context, logger *zap.Logger, operation string) (context.Context, *zap.Logger) {
	runID := uuid.NewString()
	ctx = context.WithValue(ctx, operationKey, operation)
	ctx = context.WithValue(ctx, runIDKey, runID)
	enriched := logger.With(zap.String("operation", operation), zap.String("run_id", runID))
	return WithContext(ctx, enriched), enriched
}

// TenantID returns the tenant set by WithTenant, or uuid.Nil.
func TenantID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(tenantIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// Operation returns the operation set by WithOperation.
func Operation(ctx context.Context) string {
	op, _ := ctx.Value(operationKey).(string)
	return op
}

// RunID returns the run ID set by WithOperation.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// TraceFields returns trace_id and span_id for the active span, if any.
func TraceFields(ctx context.Context) []zap.Field {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	}
}

// contextFields collects every correlation field carried by ctx.
func contextFields(ctx context.Context) []zap.Field {
	fields := TraceFields(ctx)
	if id := TenantID(ctx); id != uuid.Nil {
		fields = append(fields, zap.String("tenant_id", id.String()))
	}
	if op := Operation(ctx); op != "" {
		fields = append(fields, zap.String("operation", op))
	}
	if run := RunID(ctx); run != "" {
		fields = append(fields, zap.String("run_id", run))
	}
	return fields
}

// ContextLogger logs with the trace and correlation fields of its context.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger for the logger attached to ctx.
//
//	logger.L(ctx).Info("Rates refreshed", zap.Int("pairs", n))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger returns a ContextLogger around an explicit logger.
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: logger}
}

// Zap returns the underlying logger with trace fields attached. Tenant and
// operation fields are already present when the logger came from
// WithTenant or WithOperation.
func (cl *ContextLogger) Zap() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	if fields := TraceFields(cl.ctx); len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }
