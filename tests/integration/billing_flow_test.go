package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	financeapp "github.com/ispbill/backend/internal/application/finance"
	"github.com/ispbill/backend/internal/bootstrap"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContainer(t *testing.T, db *TestDB, redisCfg config.RedisConfig) *bootstrap.Container {
	t.Helper()
	if redisCfg.SummaryTTL == 0 {
		redisCfg.SummaryTTL = time.Minute
	}
	cfg := &config.Config{
		Redis: redisCfg,
		Billing: config.BillingConfig{
			Timezone:               "Asia/Jakarta",
			RevenueMonths:          6,
			CountAdjustments:       true,
			ArchiveRetentionMonths: 24,
		},
		Storage: config.StorageConfig{LocalDir: t.TempDir()},
	}
	c, err := bootstrap.New(context.Background(), cfg, zap.NewNop(), bootstrap.Options{Database: db.Database})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Cache.Close() })
	return c
}

func TestBillingFlow_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := NewTestDB(t)
	c := newContainer(t, db, config.RedisConfig{})
	ctx := context.Background()
	loc := c.Location

	customer, err := c.Customers.CreateCustomer(ctx, billingapp.CustomerRequest{
		Name:         "Sri Wahyuni",
		PackageTier:  "10 Mbps",
		PackagePrice: valueobject.Money(150000),
		DueDay:       10,
		InstalledAt:  time.Date(2026, time.January, 5, 0, 0, 0, 0, loc),
	})
	require.NoError(t, err)

	for _, month := range []time.Month{time.February, time.March} {
		gen, err := c.Invoices.GenerateMonthly(ctx, billing.Period{Year: 2026, Month: month})
		require.NoError(t, err)
		assert.Equal(t, 1, gen.Created, "period %s", gen.Period)
	}

	t.Run("generation is idempotent on the unique period index", func(t *testing.T) {
		gen, err := c.Invoices.GenerateMonthly(ctx, billing.Period{Year: 2026, Month: time.March})
		require.NoError(t, err)
		assert.Equal(t, 0, gen.Created)
		require.Len(t, gen.Skipped, 1)
		assert.Equal(t, customer.ID, gen.Skipped[0].CustomerID)
	})

	invoices, total, err := c.Invoices.ListInvoices(ctx, billingapp.InvoiceListFilter{CustomerID: customer.ID.String(), Period: "2026-02"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	february := invoices[0]
	assert.Equal(t, "unpaid", february.Status)

	paidAt := time.Date(2026, time.February, 12, 9, 30, 0, 0, loc)
	payment, err := c.Payments.RecordPayment(ctx, billingapp.RecordPaymentRequest{
		QuotePaymentRequest: billingapp.QuotePaymentRequest{
			CustomerID: customer.ID,
			InvoiceIDs: []uuid.UUID{february.ID},
			Paid:       valueobject.Money(200000),
		},
		Method:         "cash",
		PaidAt:         &paidAt,
		ChangeToCredit: true,
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.Money(150000), payment.TotalPayment)

	t.Run("change moved to credit", func(t *testing.T) {
		got, err := c.Customers.GetCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, valueobject.Money(50000), got.CreditBalance)
	})

	_, err = c.Finance.CreateIncome(ctx, financeapp.CreateIncomeRequest{
		Name:   "Pemasangan baru",
		Amount: valueobject.Money(75000),
		Date:   time.Date(2026, time.March, 3, 0, 0, 0, 0, loc),
	})
	require.NoError(t, err)

	asOf := time.Date(2026, time.March, 31, 23, 59, 59, 0, loc)
	summary, err := c.Summary.Recompute(ctx, asOf)
	require.NoError(t, err)

	t.Run("summary reflects postgres data", func(t *testing.T) {
		assert.Equal(t, 1, summary.CustomerCount)
		assert.Equal(t, valueobject.Money(150000), summary.Global.PaymentIncome)
		assert.Equal(t, valueobject.Money(75000), summary.Global.OtherIncome)
		assert.Equal(t, valueobject.Money(225000), summary.Global.Income)
		assert.Equal(t, "2026-03", summary.Month.Period)
		assert.Equal(t, valueobject.Money(75000), summary.Month.Income)
		assert.True(t, summary.Arrears.Total.IsZero())
		assert.Equal(t, 1, summary.Invoices.Unpaid.Count)
		assert.Equal(t, valueobject.Money(150000), summary.Invoices.Outstanding)
	})

	t.Run("latest summary is persisted", func(t *testing.T) {
		require.NoError(t, c.Summary.Invalidate(ctx))
		got, err := c.Summary.GetSummary(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CustomerCount)
	})

	t.Run("archive removes the settled february invoice and keeps its payment", func(t *testing.T) {
		archiveAsOf := time.Date(2028, time.May, 15, 0, 0, 0, 0, loc)
		resp, err := c.Archive.RunArchive(ctx, billingapp.ArchiveRequest{AsOf: &archiveAsOf})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Invoices)
		assert.Equal(t, 1, resp.Payments)
		assert.NotEmpty(t, resp.Key)

		_, remaining, err := c.Invoices.ListInvoices(ctx, billingapp.InvoiceListFilter{CustomerID: customer.ID.String()})
		require.NoError(t, err)
		assert.EqualValues(t, 1, remaining)

		after, err := c.Summary.Recompute(ctx, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, valueobject.Money(150000), after.Global.PaymentIncome)
		assert.Zero(t, after.DataQuality.UnappliedPayments)
	})
}
