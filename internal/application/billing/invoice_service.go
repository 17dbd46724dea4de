package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// generationLockTTL bounds how long a crashed run can block the next one.
const generationLockTTL = 10 * time.Minute

// InvoiceService lists invoices and runs monthly invoice generation
type InvoiceService struct {
	customerRepo billing.CustomerRepository
	invoiceRepo  billing.InvoiceRepository
	opts         options
	logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	customerRepo billing.CustomerRepository,
	invoiceRepo billing.InvoiceRepository,
	logger *zap.Logger,
	opts ...Option,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		opts:         newOptions(opts),
		logger:       logger,
	}
}

// ListInvoices lists invoices with pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := billing.InvoiceFilter{Filter: shared.DefaultFilter()}
	domainFilter.OrderBy = "issue_date"
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.CustomerID != "" {
		id, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, 0, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is not a valid UUID")
		}
		domainFilter.CustomerID = &id
	}
	if filter.Period != "" {
		period, err := billing.ParsePeriod(filter.Period)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Period = &period
	}
	if filter.Status != "" {
		status := billing.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Invoice status is not valid")
		}
		domainFilter.Status = &status
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, toInvoiceResponse(&invoices[i]))
	}
	return responses, total, nil
}

// GenerateInvoices runs generation for the requested period, defaulting to
// the current month.
func (s *InvoiceService) GenerateInvoices(ctx context.Context, req GenerateInvoicesRequest) (*GenerationResponse, error) {
	period := billing.PeriodOf(s.opts.settings.now())
	if req.Period != "" {
		p, err := billing.ParsePeriod(req.Period)
		if err != nil {
			return nil, err
		}
		period = p
	}
	return s.GenerateMonthly(ctx, period)
}

// GenerateMonthly creates one invoice per billable customer for the period.
// Only one run per period executes at a time; a concurrent run gets
// shared.ErrConflict.
func (s *InvoiceService) GenerateMonthly(ctx context.Context, period billing.Period) (resp *GenerationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "generate_monthly")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPeriod, period.String())

	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationGenerateInvoices, nil), func(ctx context.Context) {
		resp, err = s.generateMonthly(ctx, period)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceCount, resp.Created)
	return resp, nil
}

func (s *InvoiceService) generateMonthly(ctx context.Context, period billing.Period) (*GenerationResponse, error) {
	release, err := s.opts.locker.TryLock(ctx, "billing:invoice-generation:"+period.String(), generationLockTTL)
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			s.logger.Info("invoice generation already running", zap.String("period", period.String()))
		}
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release generation lock", zap.Error(err))
		}
	}()

	customers, err := s.customerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	existing, err := s.invoiceRepo.ListByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for %s: %w", period, err)
	}

	plan, err := billing.PlanMonthlyInvoices(customers, existing, period, s.opts.settings.Location)
	if err != nil {
		return nil, err
	}

	created := 0
	if len(plan.Invoices) > 0 {
		created, err = s.invoiceRepo.SaveBatch(ctx, plan.Invoices)
		if err != nil {
			return nil, fmt.Errorf("failed to save invoices: %w", err)
		}
		s.opts.metrics.RecordInvoicesGenerated(ctx, period.String(), created)
		if created > 0 {
			if err := s.opts.invalidator.Invalidate(ctx); err != nil {
				s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
			}
		}
	}

	s.logger.Info("invoice generation finished",
		zap.String("period", period.String()),
		zap.Int("planned", len(plan.Invoices)),
		zap.Int("created", created),
		zap.Int("skipped", len(plan.Skipped)),
	)

	resp := &GenerationResponse{
		Period:  period.String(),
		Planned: len(plan.Invoices),
		Created: created,
		Skipped: make([]SkippedCustomerResponse, 0, len(plan.Skipped)),
	}
	for _, sk := range plan.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedCustomerResponse{CustomerID: sk.CustomerID, Reason: string(sk.Reason)})
	}
	return resp, nil
}
