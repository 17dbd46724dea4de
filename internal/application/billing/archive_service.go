package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const archiveLockTTL = 30 * time.Minute

// ArchiveService moves settled history out of the operational tables
type ArchiveService struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	archiveRepo billing.ArchiveRepository
	store       ObjectStore
	opts        options
	logger      *zap.Logger
}

// NewArchiveService creates a new ArchiveService
func NewArchiveService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	archiveRepo billing.ArchiveRepository,
	store ObjectStore,
	logger *zap.Logger,
	opts ...Option,
) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		archiveRepo: archiveRepo,
		store:       store,
		opts:        newOptions(opts),
		logger:      logger,
	}
}

// archiveDocument is the exported form of an archive batch
type archiveDocument struct {
	ArchivedAt time.Time         `json:"archived_at"`
	Cutoff     time.Time         `json:"cutoff"`
	Invoices   []InvoiceResponse `json:"invoices"`
	Payments   []PaymentResponse `json:"payments"`
}

// Cutoff returns the archive cutoff for asOf: the start of the month that
// lies the retention window before asOf's month.
func (s *ArchiveService) Cutoff(asOf time.Time) time.Time {
	start := billing.StartOfMonth(asOf.In(s.opts.settings.Location))
	return start.AddDate(0, -s.opts.settings.ArchiveRetentionMonths, 0)
}

// RunArchive exports fully paid invoices issued before the cutoff, together
// with the payments that only touch them, and deletes the invoices. Payments
// are kept. Invoices whose removal would change the allocation of kept
// invoices stay in place.
func (s *ArchiveService) RunArchive(ctx context.Context, req ArchiveRequest) (resp *ArchiveResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "archive", "run")
	defer span.End()

	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationArchive, nil), func(ctx context.Context) {
		resp, err = s.runArchive(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCutoff, resp.Cutoff.Format(time.RFC3339),
		telemetry.SpanAttrInvoiceCount, resp.Invoices,
	)
	return resp, nil
}

func (s *ArchiveService) runArchive(ctx context.Context, req ArchiveRequest) (*ArchiveResponse, error) {
	asOf := s.opts.settings.now()
	if req.AsOf != nil && !req.AsOf.IsZero() {
		asOf = *req.AsOf
	}
	cutoff := s.Cutoff(asOf)

	release, err := s.opts.locker.TryLock(ctx, "billing:archive", archiveLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release archive lock", zap.Error(err))
		}
	}()

	invoices, err := s.invoiceRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	payments, err := s.paymentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	result := billing.Allocate(invoices, payments, s.opts.settings.AllocateOptions()...)
	batch := billing.SelectArchivable(invoices, payments, result, cutoff)

	resp := &ArchiveResponse{Cutoff: cutoff}
	if batch.IsEmpty() {
		s.logger.Info("nothing to archive", zap.Time("cutoff", cutoff))
		return resp, nil
	}

	doc := archiveDocument{
		ArchivedAt: s.opts.settings.now(),
		Cutoff:     cutoff,
		Invoices:   make([]InvoiceResponse, 0, len(batch.Invoices)),
		Payments:   make([]PaymentResponse, 0, len(batch.Payments)),
	}
	for i := range batch.Invoices {
		doc.Invoices = append(doc.Invoices, toInvoiceResponse(&batch.Invoices[i]))
	}
	for i := range batch.Payments {
		p := &batch.Payments[i]
		pr := toPaymentResponse(p)
		pr.Applied = toApplicationResponses(result.AppliedBy(p.ID))
		doc.Payments = append(doc.Payments, pr)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}
	key := archiveKey(cutoff, doc.ArchivedAt)
	if err := s.store.PutObject(ctx, key, body, "application/json"); err != nil {
		return nil, fmt.Errorf("failed to export archive: %w", err)
	}

	// Deleting only after a successful export keeps every record in at
	// least one place.
	if err := s.archiveRepo.DeleteBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to delete archived records (export %s kept): %w", key, err)
	}
	if err := s.opts.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
	s.opts.metrics.RecordArchive(ctx, len(batch.Invoices), len(batch.Payments))

	s.logger.Info("archive completed",
		zap.String("key", key),
		zap.Time("cutoff", cutoff),
		zap.Int("invoices", len(batch.Invoices)),
		zap.Int("payments", len(batch.Payments)),
	)

	resp.Key = key
	resp.Invoices = len(batch.Invoices)
	resp.Payments = len(batch.Payments)
	return resp, nil
}

func archiveKey(cutoff, at time.Time) string {
	return fmt.Sprintf("archive/%s/%s-%s.json", cutoff.Format("2006-01"), at.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
}
