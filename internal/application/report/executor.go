package report

import (
	"context"
	"errors"
	"time"

	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// InvoiceGenerator creates the monthly invoices for a period
type InvoiceGenerator interface {
	GenerateMonthly(ctx context.Context, period billing.Period) (*billingapp.GenerationResponse, error)
}

// Archiver moves settled history out of the live tables
type Archiver interface {
	RunArchive(ctx context.Context, req billingapp.ArchiveRequest) (*billingapp.ArchiveResponse, error)
}

// JobExecutor runs scheduled billing jobs
type JobExecutor struct {
	summary  *SummaryService
	invoices InvoiceGenerator
	archiver Archiver
	logger   *zap.Logger
}

// NewJobExecutor creates a new JobExecutor
func NewJobExecutor(summary *SummaryService, invoices InvoiceGenerator, archiver Archiver, logger *zap.Logger) *JobExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobExecutor{
		summary:  summary,
		invoices: invoices,
		archiver: archiver,
		logger:   logger,
	}
}

var _ scheduler.JobExecutor = (*JobExecutor)(nil)

// Execute implements scheduler.JobExecutor. A job that finds its lock held by
// another run counts as done, since that run covers the same work.
func (e *JobExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	err := e.execute(ctx, job)
	if errors.Is(err, shared.ErrConflict) {
		e.logger.Info("job skipped, another run holds the lock",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return nil
	}
	return err
}

func (e *JobExecutor) execute(ctx context.Context, job *scheduler.Job) error {
	switch job.Type {
	case scheduler.JobTypeSummaryRefresh:
		_, err := e.summary.Recompute(ctx, job.AsOf)
		return err
	case scheduler.JobTypeInvoiceGeneration:
		period, err := billing.ParsePeriod(job.Period)
		if err != nil {
			return err
		}
		result, err := e.invoices.GenerateMonthly(ctx, period)
		if err != nil {
			return err
		}
		if result.Created > 0 {
			// new invoices change arrears and the invoice breakdown
			if _, err := e.summary.Recompute(ctx, time.Time{}); err != nil && !errors.Is(err, shared.ErrConflict) {
				e.logger.Warn("summary refresh after invoice generation failed", zap.Error(err))
			}
		}
		return nil
	case scheduler.JobTypeArchive:
		asOf := job.AsOf
		_, err := e.archiver.RunArchive(ctx, billingapp.ArchiveRequest{AsOf: &asOf})
		return err
	default:
		return scheduler.ErrInvalidJobType
	}
}
