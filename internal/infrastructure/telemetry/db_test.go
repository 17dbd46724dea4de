package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type sampleRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&sampleRow{}))
	return db
}

func TestDBMetrics_Register(t *testing.T) {
	provider, reader := newTestMeter(t)
	db := openTestDB(t)

	m, err := NewDBMetrics(provider.Meter("db.client"), time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, m.Register(db))

	require.NoError(t, db.Create(&sampleRow{Name: "a"}).Error)
	var rows []sampleRow
	require.NoError(t, db.Find(&rows).Error)

	assert.GreaterOrEqual(t, sumValue(t, collect(t, reader, "db_query_total")), int64(2))
	assert.NotEmpty(t, collect(t, reader, "db_pool_connections").Data)
}

func TestDBMetrics_SlowQuery(t *testing.T) {
	provider, reader := newTestMeter(t)

	m, err := NewDBMetrics(provider.Meter("db.client"), time.Millisecond, nil)
	require.NoError(t, err)

	m.RecordQuery(context.Background(), "select", "invoices", time.Second)
	m.RecordQuery(context.Background(), "", "", time.Second)

	assert.Equal(t, int64(2), sumValue(t, collect(t, reader, "db_slow_query_total")))
}

func TestNewDBMetrics_NilMeter(t *testing.T) {
	_, err := NewDBMetrics(nil, 0, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestDetectOperationType(t *testing.T) {
	assert.Equal(t, "SELECT", detectOperationType("  select * from invoices"))
	assert.Equal(t, "DELETE", detectOperationType("DELETE FROM payments"))
	assert.Equal(t, "OTHER", detectOperationType("VACUUM"))
}

func TestDBTracingPlugin(t *testing.T) {
	t.Run("disabled registers nothing", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, NewDBTracingPlugin(DBTracingConfig{}, nil).Register(db))
		assert.Nil(t, db.Callback().Query().Get("otel_slow_query:after_query"))
	})

	t.Run("enabled records query spans", func(t *testing.T) {
		recorder := useSpanRecorder(t)
		db := openTestDB(t)
		plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBName: "ispbill"}, nil)
		require.NoError(t, plugin.Register(db))
		assert.NotNil(t, db.Callback().Query().Get("otel_slow_query:after_query"))

		ctx, span := otel.Tracer("test").Start(context.Background(), "parent")
		var rows []sampleRow
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		span.End()

		assert.GreaterOrEqual(t, len(recorder.Ended()), 2)
	})
}
