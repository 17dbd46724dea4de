package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/report"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// recomputeLockTTL bounds how long a crashed recompute blocks the next one.
const recomputeLockTTL = 5 * time.Minute

// SummaryCache holds the current summary for fast reads
type SummaryCache interface {
	// Get returns the cached summary, or shared.ErrNotFound on a miss
	Get(ctx context.Context) (*report.SummaryReport, error)
	Set(ctx context.Context, summary *report.SummaryReport) error
	Invalidate(ctx context.Context) error
}

// Metrics records summary runs
type Metrics interface {
	RecordSummaryRun(ctx context.Context, duration time.Duration, excluded int, err error)
}

// Sources are the repositories a summary is computed from
type Sources struct {
	Customers billing.CustomerRepository
	Invoices  billing.InvoiceRepository
	Payments  billing.PaymentRepository
	Expenses  finance.ExpenseRepository
	Incomes   finance.OtherIncomeRepository
}

// SummaryService computes, stores and serves the financial summary
type SummaryService struct {
	sources       Sources
	summaryRepo   report.SummaryRepository
	cache         SummaryCache
	locker        shared.Locker
	metrics       Metrics
	settings      billingapp.Settings
	revenueMonths int
	logger        *zap.Logger
}

// Option configures SummaryService
type Option func(*SummaryService)

// WithSettings sets the billing rules used for allocation and month boundaries
func WithSettings(s billingapp.Settings) Option {
	return func(svc *SummaryService) {
		svc.settings = s
	}
}

// WithRevenueMonths sets the length of the revenue series
func WithRevenueMonths(n int) Option {
	return func(svc *SummaryService) {
		if n > 0 {
			svc.revenueMonths = n
		}
	}
}

// WithLocker sets the lock that keeps recomputes from overlapping
func WithLocker(l shared.Locker) Option {
	return func(svc *SummaryService) {
		if l != nil {
			svc.locker = l
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) Option {
	return func(svc *SummaryService) {
		if m != nil {
			svc.metrics = m
		}
	}
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(
	sources Sources,
	summaryRepo report.SummaryRepository,
	cache SummaryCache,
	logger *zap.Logger,
	opts ...Option,
) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &SummaryService{
		sources:       sources,
		summaryRepo:   summaryRepo,
		cache:         cache,
		locker:        unlockedLocker{},
		metrics:       noopMetrics{},
		settings:      billingapp.DefaultSettings(),
		revenueMonths: report.DefaultRevenueMonths,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.settings.Location == nil {
		svc.settings.Location = billingapp.DefaultLocation()
	}
	if svc.settings.Now == nil {
		svc.settings.Now = time.Now
	}
	return svc
}

func (s *SummaryService) now() time.Time {
	return s.settings.Now().In(s.settings.Location)
}

// GetSummary returns the current summary. A cache miss triggers a recompute;
// while another recompute holds the lock the stored summary is served.
func (s *SummaryService) GetSummary(ctx context.Context) (*report.SummaryReport, error) {
	cached, err := s.cache.Get(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("summary cache read failed", zap.Error(err))
	}

	summary, err := s.Recompute(ctx, time.Time{})
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, shared.ErrConflict) {
		return nil, err
	}

	stored, latestErr := s.summaryRepo.Latest(ctx)
	if latestErr != nil {
		return nil, err
	}
	return stored, nil
}

// Recompute rebuilds the summary from all records as of asOf (now when
// zero) and writes back invoice statuses. A summary for the current month
// is stored and cached; one for an earlier month is only returned.
func (s *SummaryService) Recompute(ctx context.Context, asOf time.Time) (summary *report.SummaryReport, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "summary", "recompute")
	defer span.End()

	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationComputeSummary, nil), func(ctx context.Context) {
		summary, err = s.recompute(ctx, asOf)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAsOf, summary.AsOf.Format(time.RFC3339))
	return summary, nil
}

func (s *SummaryService) recompute(ctx context.Context, asOf time.Time) (summary *report.SummaryReport, err error) {
	if asOf.IsZero() {
		asOf = s.now()
	} else {
		asOf = asOf.In(s.settings.Location)
	}

	release, err := s.locker.TryLock(ctx, "report:summary:recompute", recomputeLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.logger.Warn("failed to release summary lock", zap.Error(relErr))
		}
	}()

	started := time.Now()
	defer func() {
		excluded := 0
		if summary != nil {
			excluded = summary.DataQuality.Excluded()
		}
		s.metrics.RecordSummaryRun(ctx, time.Since(started), excluded, err)
	}()

	in, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	in.Allocation = billing.Allocate(in.Invoices, in.Payments, s.settings.AllocateOptions()...)

	summary = report.Aggregate(in, asOf, report.WithRevenueMonths(s.revenueMonths))

	if changes := billing.StatusChanges(in.Invoices, in.Allocation); len(changes) > 0 {
		if err := s.sources.Invoices.UpdateStatuses(ctx, changes); err != nil {
			return nil, fmt.Errorf("failed to write back invoice statuses: %w", err)
		}
		s.logger.Info("invoice statuses updated", zap.Int("count", len(changes)))
	}

	// Only the current month's summary becomes the dashboard.
	if billing.PeriodOf(asOf) == billing.PeriodOf(s.now()) {
		if err := s.summaryRepo.Save(ctx, summary); err != nil {
			return nil, fmt.Errorf("failed to store summary: %w", err)
		}
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.Warn("failed to cache summary", zap.Error(err))
		}
	} else {
		s.logger.Info("historical summary not stored", zap.Time("as_of", asOf))
	}

	dq := summary.DataQuality
	if dq.Excluded() > 0 {
		s.logger.Warn("summary excluded malformed records",
			zap.Int("rejected_invoices", dq.RejectedInvoices),
			zap.Int("rejected_payments", dq.RejectedPayments),
			zap.Int("undated_incomes", dq.UndatedIncomes),
			zap.Int("undated_customers", dq.UndatedCustomers),
			zap.Int("negative_amounts", dq.NegativeAmounts),
		)
	}
	s.logger.Info("summary recomputed",
		zap.Time("as_of", asOf),
		zap.Int64("balance", summary.Global.Balance.Int64()),
		zap.Int64("arrears", summary.Arrears.Total.Int64()),
		zap.Duration("duration", time.Since(started)),
	)
	return summary, nil
}

// MonthlyReport computes the summary with its month figures taken from
// period: the month's last instant for a past month, now for the current one.
// The result is not stored.
func (s *SummaryService) MonthlyReport(ctx context.Context, period billing.Period) (*report.SummaryReport, error) {
	now := s.now()
	current := billing.PeriodOf(now)
	if current.Before(period) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period lies in the future")
	}
	asOf := now
	if period != current {
		asOf = period.End(s.settings.Location)
	}

	in, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return report.Aggregate(in, asOf,
		report.WithRevenueMonths(s.revenueMonths),
		report.WithAllocateOptions(s.settings.AllocateOptions()...),
	), nil
}

// Invalidate drops the cached summary so the next read recomputes it
func (s *SummaryService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

func (s *SummaryService) load(ctx context.Context) (report.Input, error) {
	var (
		in  report.Input
		err error
	)
	if in.Customers, err = s.sources.Customers.ListAll(ctx); err != nil {
		return in, fmt.Errorf("failed to load customers: %w", err)
	}
	if in.Invoices, err = s.sources.Invoices.ListAll(ctx); err != nil {
		return in, fmt.Errorf("failed to load invoices: %w", err)
	}
	if in.Payments, err = s.sources.Payments.ListAll(ctx); err != nil {
		return in, fmt.Errorf("failed to load payments: %w", err)
	}
	if in.Expenses, err = s.sources.Expenses.ListAll(ctx); err != nil {
		return in, fmt.Errorf("failed to load expenses: %w", err)
	}
	if in.OtherIncomes, err = s.sources.Incomes.ListAll(ctx); err != nil {
		return in, fmt.Errorf("failed to load incomes: %w", err)
	}
	return in, nil
}

type unlockedLocker struct{}

func (unlockedLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordSummaryRun(context.Context, time.Duration, int, error) {}
