package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTracedDB(t *testing.T, cfg DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	require.NoError(t, NewDBTracingPlugin(cfg, zaptest.NewLogger(t)).Register(db))
	return db
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := setupTracedDB(t, DefaultDBTracingConfig())
	assert.Nil(t, db.Callback().Query().Get("pos_timing:after:select"))
}

func TestDBTracingPlugin_AnnotatesSpans(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = time.Nanosecond
	cfg.DBSystem = "sqlite"

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	db := setupTracedDB(t, cfg)
	assert.NotNil(t, db.Callback().Query().Get("pos_timing:after:select"))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	parent.End()

	var slow, table bool
	for _, s := range sr.Ended() {
		for _, a := range s.Attributes() {
			switch a.Key {
			case attribute.Key("db.slow_query"):
				slow = slow || a.Value.AsBool()
			case attribute.Key("db.sql.table"):
				table = table || a.Value.AsString() == "traced_rows"
			}
		}
	}
	assert.True(t, slow)
	assert.True(t, table)
}
