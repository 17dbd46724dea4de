// Package bootstrap assembles the billing services from configuration. The
// HTTP server and the operator CLI share it so both act on the same rules.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	billingapp "github.com/ispbill/backend/internal/application/billing"
	financeapp "github.com/ispbill/backend/internal/application/finance"
	reportapp "github.com/ispbill/backend/internal/application/report"
	"github.com/ispbill/backend/internal/infrastructure/cache"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/ispbill/backend/internal/infrastructure/logger"
	"github.com/ispbill/backend/internal/infrastructure/persistence"
	"github.com/ispbill/backend/internal/infrastructure/storage"
	"github.com/ispbill/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Container holds the wired services and the resources they depend on
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Location *time.Location
	DB       *persistence.Database
	Cache    *cache.Backend
	Store    storage.ArchiveStore

	Customers *billingapp.CustomerService
	Invoices  *billingapp.InvoiceService
	Payments  *billingapp.PaymentService
	Archive   *billingapp.ArchiveService
	Finance   *financeapp.ExpenseIncomeService
	Summary   *reportapp.SummaryService
	Executor  *reportapp.JobExecutor
}

// Options tweak what New wires
type Options struct {
	// Meter receives database and billing metrics. Nil disables them.
	Meter metric.Meter
	// Database overrides the PostgreSQL connection, for tests
	Database *persistence.Database
}

// New connects to the database, cache and archive store and builds the
// services on top of them
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (c *Container, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	c = &Container{Config: cfg, Logger: log, Location: cfg.Billing.Location()}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.DB = opts.Database
	if c.DB == nil {
		if c.DB, err = openDatabase(cfg, log, opts.Meter); err != nil {
			return nil, err
		}
	}

	c.Cache, err = cache.NewFactory(cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		return nil, err
	}

	c.Store, err = storage.New(&cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	if err := c.Store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare archive storage: %w", err)
	}

	var metrics *telemetry.BillingMetrics
	if opts.Meter != nil {
		if metrics, err = telemetry.NewBillingMetrics(opts.Meter); err != nil {
			return nil, err
		}
	}

	c.wireServices(metrics)
	return c, nil
}

func openDatabase(cfg *config.Config, log *zap.Logger, meter metric.Meter) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	dbOpts := []persistence.Option{
		persistence.WithLogger(gormLog),
		persistence.WithPlugin(telemetry.NewDBTracingPlugin(
			telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.DBName), log).Register),
	}
	if meter != nil {
		dbMetrics, err := telemetry.NewDBMetrics(meter, cfg.Telemetry.DBSlowQueryThresh, log)
		if err != nil {
			return nil, err
		}
		dbOpts = append(dbOpts, persistence.WithPlugin(dbMetrics.Register))
	}

	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)
	return db, nil
}

func (c *Container) wireServices(metrics *telemetry.BillingMetrics) {
	cfg := c.Config
	settings := billingapp.Settings{
		Location:               c.Location,
		CountAdjustments:       cfg.Billing.CountAdjustments,
		ArchiveRetentionMonths: cfg.Billing.ArchiveRetentionMonths,
		Now:                    time.Now,
	}

	customerRepo := persistence.NewGormCustomerRepository(c.DB.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(c.DB.DB)
	paymentRepo := persistence.NewGormPaymentRepository(c.DB.DB)
	expenseRepo := persistence.NewGormExpenseRepository(c.DB.DB)
	incomeRepo := persistence.NewGormOtherIncomeRepository(c.DB.DB)

	reportOpts := []reportapp.Option{
		reportapp.WithSettings(settings),
		reportapp.WithRevenueMonths(cfg.Billing.RevenueMonths),
		reportapp.WithLocker(c.Cache.Locker),
	}
	billingOpts := []billingapp.Option{
		billingapp.WithSettings(settings),
		billingapp.WithLocker(c.Cache.Locker),
	}
	if metrics != nil {
		reportOpts = append(reportOpts, reportapp.WithMetrics(metrics))
		billingOpts = append(billingOpts, billingapp.WithMetrics(metrics))
	}

	c.Summary = reportapp.NewSummaryService(reportapp.Sources{
		Customers: customerRepo,
		Invoices:  invoiceRepo,
		Payments:  paymentRepo,
		Expenses:  expenseRepo,
		Incomes:   incomeRepo,
	}, persistence.NewGormSummaryRepository(c.DB.DB), c.Cache.Summary, c.Logger.Named("summary"), reportOpts...)

	billingOpts = append(billingOpts, billingapp.WithCacheInvalidator(c.Summary))
	c.Customers = billingapp.NewCustomerService(customerRepo, invoiceRepo, paymentRepo, c.Logger.Named("customer"), billingOpts...)
	c.Invoices = billingapp.NewInvoiceService(customerRepo, invoiceRepo, c.Logger.Named("invoice"), billingOpts...)
	c.Payments = billingapp.NewPaymentService(customerRepo, invoiceRepo, paymentRepo, c.Logger.Named("payment"), billingOpts...)
	c.Archive = billingapp.NewArchiveService(invoiceRepo, paymentRepo, persistence.NewGormArchiveRepository(c.DB.DB),
		c.Store, c.Logger.Named("archive"), billingOpts...)
	c.Finance = financeapp.NewExpenseIncomeService(expenseRepo, incomeRepo, c.Logger.Named("finance"),
		financeapp.WithSettings(settings), financeapp.WithCacheInvalidator(c.Summary))
	c.Executor = reportapp.NewJobExecutor(c.Summary, c.Invoices, c.Archive, c.Logger.Named("jobs"))
}

// Close releases the cache and database connections
func (c *Container) Close() error {
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
