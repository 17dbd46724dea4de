package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// newTestDatabase opens a private in-memory SQLite database with the billing
// tables. A single connection keeps every query on the same database.
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"), &config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func moneyOf(v int64) valueobject.Money {
	return valueobject.Money(v)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func newTestCustomer(t *testing.T, name string, price int64) *billing.Customer {
	t.Helper()
	c, err := billing.NewCustomer(billing.CustomerProfile{
		Name:         name,
		Phone:        "0812",
		Address:      "Jl. Melati 1",
		PackageTier:  "10 Mbps",
		PackagePrice: moneyOf(price),
		DueDay:       10,
		InstalledAt:  day(2025, time.June, 1),
	})
	require.NoError(t, err)
	return c
}

func newTestInvoice(t *testing.T, customerID uuid.UUID, year int, month time.Month, amount int64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(customerID, day(year, month, 1), day(year, month, 10), moneyOf(amount))
	require.NoError(t, err)
	return inv
}

func newTestPayment(t *testing.T, customerID uuid.UUID, paidAt time.Time, total int64, ids ...uuid.UUID) *billing.Payment {
	t.Helper()
	p, err := billing.NewPayment(customerID, paidAt, billing.PaymentMethodCash, ids, billing.Settlement{
		TotalBill:    moneyOf(total),
		AmountDue:    moneyOf(total),
		TotalPayment: moneyOf(total),
		Paid:         moneyOf(total),
	})
	require.NoError(t, err)
	return p
}

func newTestTemplate(t *testing.T, name string, category finance.ExpenseCategory, tenor int) *finance.Expense {
	t.Helper()
	e, err := finance.NewExpense(finance.ExpenseInput{
		Name:     name,
		Category: category,
		Amount:   moneyOf(500000),
		DueDay:   31,
		Tenor:    tenor,
	})
	require.NoError(t, err)
	return e
}

func paymentRow(p *billing.Payment) *models.PaymentModel {
	return models.PaymentModelFromDomain(p)
}
