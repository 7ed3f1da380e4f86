package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/otec/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func recordingSpan(t *testing.T) (context.Context, func() sdktrace.ReadOnlySpan) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "db-test")
	return ctx, func() sdktrace.ReadOnlySpan {
		span.End()
		spans := sr.Ended()
		require.Len(t, spans, 1)
		return spans[0]
	}
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
	assert.True(t, cfg.WithoutVariables)
}

func TestDBTracingConfigFrom(t *testing.T) {
	cfg := DBTracingConfigFrom(config.TelemetryConfig{Enabled: true, DBTraceEnabled: true})
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.WithoutVariables)

	cfg = DBTracingConfigFrom(config.TelemetryConfig{Enabled: false, DBTraceEnabled: true, DBLogFullSQL: true})
	assert.False(t, cfg.Enabled)
	assert.True(t, cfg.LogFullSQL)
	assert.False(t, cfg.WithoutVariables)
}

func TestDBTracingPlugin_RegisterOtelGorm(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		db := setupTestDB(t)
		plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
		assert.NoError(t, plugin.RegisterOtelGorm(db))
	})

	t.Run("enabled registers callbacks", func(t *testing.T) {
		db := setupTestDB(t)
		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true
		cfg.DBSystem = "sqlite"

		plugin := NewDBTracingPlugin(cfg, zap.NewNop())
		require.NoError(t, plugin.RegisterOtelGorm(db))

		assert.NotNil(t, db.Callback().Query().Get("otel_slow_query:query"))
		require.NoError(t, db.Create(&tracedRow{Name: "x"}).Error)
	})

	t.Run("double registration fails", func(t *testing.T) {
		db := setupTestDB(t)
		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true

		plugin := NewDBTracingPlugin(cfg, zap.NewNop())
		require.NoError(t, plugin.RegisterOtelGorm(db))
		assert.Error(t, plugin.RegisterOtelGorm(db))
	})
}

func TestSlowQueryCallback_MarksSpan(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	cfg.SlowQueryThresh = time.Nanosecond
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	ctx, finish := recordingSpan(t)
	ctx = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))

	tx := setupTestDB(t).WithContext(ctx)
	tx.Statement.Table = "cost_lines"
	tx.Statement.RowsAffected = 2
	plugin.slowQueryCallback(tx)

	span := finish()
	attrs := make(map[string]interface{})
	for _, a := range span.Attributes() {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}
	assert.Equal(t, "cost_lines", attrs["db.sql.table"])
	assert.Equal(t, int64(2), attrs["db.rows_affected"])
	assert.Equal(t, true, attrs["db.slow_query"])
	require.Len(t, span.Events(), 1)
	assert.Equal(t, "slow_query_warning", span.Events()[0].Name)
}

func TestSlowQueryCallback_Errors(t *testing.T) {
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	t.Run("query error marks span", func(t *testing.T) {
		ctx, finish := recordingSpan(t)
		tx := setupTestDB(t).WithContext(ctx)
		tx.Error = errors.New("deadlock detected")
		plugin.slowQueryCallback(tx)

		span := finish()
		assert.Equal(t, codes.Error, span.Status().Code)
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		ctx, finish := recordingSpan(t)
		tx := setupTestDB(t).WithContext(ctx)
		tx.Error = gorm.ErrRecordNotFound
		plugin.slowQueryCallback(tx)

		span := finish()
		assert.Equal(t, codes.Unset, span.Status().Code)
	})

	t.Run("no span in context", func(t *testing.T) {
		tx := setupTestDB(t).WithContext(context.Background())
		assert.NotPanics(t, func() { plugin.slowQueryCallback(tx) })
	})
}

func TestWithQueryStartTime(t *testing.T) {
	ctx := withQueryStartTime(context.Background())
	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), start, time.Second)
}
