package bootstrap

import (
	"context"
	"testing"
	"time"

	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/ispbill/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Redis:   config.RedisConfig{SummaryTTL: time.Minute},
		Billing: config.BillingConfig{Timezone: "Asia/Jakarta", RevenueMonths: 6, CountAdjustments: true, ArchiveRetentionMonths: 24},
		Storage: config.StorageConfig{LocalDir: t.TempDir()},
	}
}

func testDatabase(t *testing.T) *persistence.Database {
	t.Helper()
	db, err := persistence.Open(sqlite.Open(":memory:"), &config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	return db
}

func TestNew_WiresServices(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	c, err := New(ctx, testConfig(t), zap.NewNop(), Options{Meter: meter, Database: testDatabase(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.False(t, c.Cache.Distributed)
	assert.Equal(t, "Asia/Jakarta", c.Location.String())
	require.NotNil(t, c.Executor)

	customer, err := c.Customers.CreateCustomer(ctx, billingapp.CustomerRequest{
		Name:         "Wati",
		PackageTier:  "20 Mbps",
		PackagePrice: valueobject.Money(250000),
		DueDay:       5,
		InstalledAt:  time.Date(2026, time.January, 2, 0, 0, 0, 0, c.Location),
	})
	require.NoError(t, err)

	gen, err := c.Invoices.GenerateMonthly(ctx, billing.Period{Year: 2026, Month: time.February})
	require.NoError(t, err)
	assert.Equal(t, 1, gen.Created)

	summary, err := c.Summary.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CustomerCount)
	assert.Equal(t, valueobject.Money(250000), summary.Arrears.Total)
	assert.NotEmpty(t, customer.ID)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["billing_invoices_generated_total"], "metrics: %v", names)
}
