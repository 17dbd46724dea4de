package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/ispbill/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// paymentLockTTL bounds how long a customer stays locked if a request dies mid-write.
const paymentLockTTL = 30 * time.Second

// PaymentService quotes and records customer payments
type PaymentService struct {
	customerRepo billing.CustomerRepository
	invoiceRepo  billing.InvoiceRepository
	paymentRepo  billing.PaymentRepository
	opts         options
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	customerRepo billing.CustomerRepository,
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	logger *zap.Logger,
	opts ...Option,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		opts:         newOptions(opts),
		logger:       logger,
	}
}

// collection is a settlement computed against the customer's current balances.
type collection struct {
	customer   *billing.Customer
	invoices   []billing.Invoice
	payments   []billing.Payment
	selected   []billing.Invoice
	remaining  []valueobject.Money
	invoiceIDs []uuid.UUID
	settlement billing.Settlement
}

// QuotePayment computes the settlement of a collection without recording it
func (s *PaymentService) QuotePayment(ctx context.Context, req QuotePaymentRequest) (*QuoteResponse, error) {
	c, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return toQuoteResponse(c), nil
}

// RecordPayment settles the selected invoices of a customer. Bills are the
// current remainders of the selected invoices, so invoices already partly
// paid are charged only what is left.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (resp *PaymentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
		telemetry.SpanAttrInvoiceCount, len(req.InvoiceIDs),
	)

	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationRecordPayment, nil), func(ctx context.Context) {
		resp, err = s.recordPayment(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, resp.ID.String(),
		telemetry.SpanAttrAmount, resp.TotalPayment.Int64(),
	)
	return resp, nil
}

func (s *PaymentService) recordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResponse, error) {
	method := billing.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}

	release, err := s.opts.locker.TryLock(ctx, "billing:payment:"+req.CustomerID.String(), paymentLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release payment lock", zap.Error(err))
		}
	}()

	c, err := s.prepare(ctx, req.QuotePaymentRequest)
	if err != nil {
		return nil, err
	}

	paidAt := s.opts.settings.now()
	if req.PaidAt != nil && !req.PaidAt.IsZero() {
		paidAt = *req.PaidAt
	}

	payment, err := billing.NewPayment(c.customer.ID, paidAt, method, c.invoiceIDs, c.settlement)
	if err != nil {
		return nil, err
	}
	payment.Note = req.Note

	customer := c.customer
	if err := customer.UseCredit(c.settlement.CreditApplied); err != nil {
		return nil, err
	}
	if req.ChangeToCredit && c.settlement.Change.IsPositive() {
		if err := customer.AddCredit(c.settlement.Change); err != nil {
			return nil, err
		}
	}
	customer.Touch()

	if err := s.paymentRepo.Record(ctx, payment, customer); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	payments := append(c.payments, *payment)
	result := billing.Allocate(c.invoices, payments, s.opts.settings.AllocateOptions()...)
	if changes := billing.StatusChanges(c.invoices, result); len(changes) > 0 {
		if err := s.invoiceRepo.UpdateStatuses(ctx, changes); err != nil {
			// statuses are recomputed on every summary run
			s.logger.Warn("failed to update invoice statuses", zap.Error(err))
		}
	}
	if err := s.opts.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
	s.opts.metrics.RecordPayment(ctx, method.String(), payment.Revenue())

	s.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("method", method.String()),
		zap.Int64("total_payment", payment.TotalPayment.Int64()),
		zap.Int64("change", payment.ChangeAmount.Int64()),
		zap.Bool("change_to_credit", req.ChangeToCredit),
	)

	resp := toPaymentResponse(payment)
	resp.Applied = toApplicationResponses(result.AppliedBy(payment.ID))
	credit := customer.CreditBalance
	resp.CreditBalance = &credit
	return &resp, nil
}

// GetPayment gets a payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toPaymentResponse(payment)
	return &resp, nil
}

// ListPayments lists payments with pagination
func (s *PaymentService) ListPayments(ctx context.Context, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter := billing.PaymentFilter{Filter: shared.DefaultFilter()}
	domainFilter.OrderBy = "paid_at"
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
	if filter.Method != "" {
		method := billing.PaymentMethod(filter.Method)
		if !method.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
		}
		domainFilter.Method = &method
	}

	payments, total, err := s.paymentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, toPaymentResponse(&payments[i]))
	}
	return responses, total, nil
}

func (s *PaymentService) prepare(ctx context.Context, req QuotePaymentRequest) (*collection, error) {
	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]billing.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}

	result := billing.Allocate(invoices, payments, s.opts.settings.AllocateOptions()...)

	c := &collection{customer: customer, invoices: invoices, payments: payments}
	seen := make(map[uuid.UUID]bool, len(req.InvoiceIDs))
	var outstanding valueobject.Money
	for _, id := range req.InvoiceIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		inv, ok := byID[id]
		if !ok {
			return nil, shared.NewDomainError("INVALID_INVOICE", fmt.Sprintf("Invoice %s does not belong to the customer", id))
		}
		remaining, ok := result.RemainingFor(id)
		if !ok {
			return nil, shared.NewDomainError("INVALID_INVOICE", fmt.Sprintf("Invoice %s cannot be settled", id))
		}
		c.selected = append(c.selected, inv)
		c.remaining = append(c.remaining, remaining)
		c.invoiceIDs = append(c.invoiceIDs, id)
		outstanding += remaining
	}
	if !outstanding.IsPositive() {
		return nil, shared.NewDomainError("ALREADY_PAID", "Selected invoices are already settled")
	}

	credit := valueobject.Zero
	if req.UseCredit {
		credit = customer.CreditBalance
	}
	c.settlement, err = billing.Settle(billing.SettlementInput{
		Bills:           c.remaining,
		Discount:        req.Discount,
		AvailableCredit: credit,
		Paid:            req.Paid,
		AllowPartial:    req.AllowPartial,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func toQuoteResponse(c *collection) *QuoteResponse {
	resp := &QuoteResponse{
		CustomerID:    c.customer.ID,
		Lines:         make([]QuoteLine, 0, len(c.selected)),
		TotalBill:     c.settlement.TotalBill,
		Discount:      c.settlement.Discount,
		CreditApplied: c.settlement.CreditApplied,
		AmountDue:     c.settlement.AmountDue,
		TotalPayment:  c.settlement.TotalPayment,
		Paid:          c.settlement.Paid,
		Change:        c.settlement.Change,
		Partial:       c.settlement.Partial,
		CreditBalance: c.customer.CreditBalance,
	}
	for i, inv := range c.selected {
		resp.Lines = append(resp.Lines, QuoteLine{
			InvoiceID: inv.ID,
			Period:    inv.Period.String(),
			Amount:    inv.Amount,
			Remaining: c.remaining[i],
		})
	}
	return resp
}
