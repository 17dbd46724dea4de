package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDialector(t *testing.T) (gorm.Dialector, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return postgres.New(postgres.Config{
		Conn:                 mockDB,
		DriverName:           "postgres",
		PreferSimpleProtocol: true,
	}), mock
}

func TestOpen(t *testing.T) {
	t.Run("applies pool settings and pings", func(t *testing.T) {
		dialector, mock := newMockDialector(t)
		mock.ExpectPing()

		db, err := Open(dialector, &config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 3})
		require.NoError(t, err)

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 7, stats.MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fails when ping fails", func(t *testing.T) {
		dialector, mock := newMockDialector(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		_, err := Open(dialector, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to ping database")
	})

	t.Run("fails when a plugin cannot register", func(t *testing.T) {
		dialector, _ := newMockDialector(t)

		_, err := Open(dialector, nil, WithPlugin(func(*gorm.DB) error {
			return errors.New("duplicate callback")
		}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to register database plugin")
	})

	t.Run("runs plugins against the opened connection", func(t *testing.T) {
		dialector, mock := newMockDialector(t)
		mock.ExpectPing()

		var seen *gorm.DB
		db, err := Open(dialector, nil, WithPlugin(func(g *gorm.DB) error {
			seen = g
			return nil
		}))
		require.NoError(t, err)
		assert.Same(t, db.DB, seen)
	})
}

func TestDatabase_Ping(t *testing.T) {
	dialector, mock := newMockDialector(t)
	mock.ExpectPing()
	db, err := Open(dialector, nil)
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("gone"))
	assert.Error(t, db.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPaymentRepository_RecordRollsBackOnInsertError(t *testing.T) {
	dialector, mock := newMockDialector(t)
	mock.ExpectPing()
	db, err := Open(dialector, nil)
	require.NoError(t, err)
	repo := NewGormPaymentRepository(db.DB)

	customer := newTestCustomer(t, "Budi", 100000)
	customer.IncrementVersion()
	payment := newTestPayment(t, customer.ID, day(2026, 1, 8), 100000, customer.ID)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "payments"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = repo.Record(context.Background(), payment, customer)
	assert.EqualError(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateSort(t *testing.T) {
	assert.Equal(t, "ASC", ValidateSortOrder(" asc "))
	assert.Equal(t, "DESC", ValidateSortOrder("sideways"))
	assert.Equal(t, "name", ValidateSortField("name", CustomerSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("name; DROP TABLE customers", CustomerSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", InvoiceSortFields, "created_at"))
}
