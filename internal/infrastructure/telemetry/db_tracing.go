package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bind variables in span statements
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns disabled tracing with a 200ms slow threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm plus callbacks that flag slow queries
// and row-locking statements on the active span.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs the plugin on db. It is a no-op when disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	hooks := []struct {
		callback gormRegister
		hook     func(*gorm.DB)
		name     string
	}{
		{cb.Create().Before("gorm:create"), markQueryStart, "before:create"},
		{cb.Query().Before("gorm:query"), markQueryStart, "before:select"},
		{cb.Update().Before("gorm:update"), markQueryStart, "before:update"},
		{cb.Delete().Before("gorm:delete"), markQueryStart, "before:delete"},
		{cb.Row().Before("gorm:row"), markQueryStart, "before:row"},
		{cb.Raw().Before("gorm:raw"), markQueryStart, "before:raw"},
		// after callbacks must run while otelgorm's span is still open
		{cb.Create().After("gorm:create").Before("otel:after:create"), p.annotate, "after:create"},
		{cb.Query().After("gorm:query").Before("otel:after:select"), p.annotate, "after:select"},
		{cb.Update().After("gorm:update").Before("otel:after:update"), p.annotate, "after:update"},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), p.annotate, "after:delete"},
		{cb.Row().After("gorm:row").Before("otel:after:row"), p.annotate, "after:row"},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), p.annotate, "after:raw"},
	}
	for _, h := range hooks {
		if err := h.callback.Register("pos_timing:"+h.name, h.hook); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

type contextKey string

const queryStartTimeKey contextKey = "pos_query_start_time"

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if strings.Contains(db.Statement.SQL.String(), "FOR UPDATE") {
		span.SetAttributes(attribute.Bool("db.row_lock", true))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}
