package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultMaxSQLLength  = 2048
	defaultSlowThreshold = 200 * time.Millisecond
)

// GormLogger writes GORM statements to zap with the tenant and operation
// fields carried by the statement context.
//
// Lock waits that the caller will retry are logged at warn under
// "SQL lock contention" instead of as errors, once a classifier is set.
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	maxSQLLength  int
	isContention  func(error) bool
}

// GormLoggerOption configures a GormLogger.
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow statement threshold; zero turns it off.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowThreshold = threshold }
}

// WithFullSQL stops long statements from being truncated.
func WithFullSQL(full bool) GormLoggerOption {
	return func(l *GormLogger) {
		if full {
			l.maxSQLLength = 0
		}
	}
}

// WithContentionClassifier marks errors for which fn returns true as lock
// contention.
func WithContentionClassifier(fn func(error) bool) GormLoggerOption {
	return func(l *GormLogger) { l.isContention = fn }
}

// NewGormLogger returns a GormLogger named "gorm" under zapLogger.
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		level:         level,
		slowThreshold: defaultSlowThreshold,
		maxSQLLength:  defaultMaxSQLLength,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, at gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.level < at {
		return
	}
	l.logger.Log(lvl, fmt.Sprintf(msg, data...), contextFields(ctx)...)
}

// Trace logs one executed statement. Record-not-found is never logged since
// every repository turns it into a domain error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	var (
		lvl zapcore.Level
		msg string
	)
	switch {
	case err != nil && l.isContention != nil && l.isContention(err):
		if l.level < gormlogger.Warn {
			return
		}
		lvl, msg = zapcore.WarnLevel, "SQL lock contention"
	case err != nil:
		lvl, msg = zapcore.ErrorLevel, "SQL error"
	case slow && l.level >= gormlogger.Warn:
		lvl, msg = zapcore.WarnLevel, "Slow SQL"
	case l.level >= gormlogger.Info:
		lvl, msg = zapcore.DebugLevel, "SQL query"
	default:
		return
	}

	sql, rows := fc()
	fields := append(contextFields(ctx),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", l.truncate(sql)),
	)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if slow {
		fields = append(fields, zap.Duration("threshold", l.slowThreshold))
	}
	l.logger.Log(lvl, msg, fields...)
}

func (l *GormLogger) truncate(sql string) string {
	if l.maxSQLLength <= 0 || len(sql) <= l.maxSQLLength {
		return sql
	}
	return sql[:l.maxSQLLength] + "...(truncated)"
}

// MapGormLogLevel maps an application log level to a GORM log level. Only
// debug turns on per-statement logs.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
