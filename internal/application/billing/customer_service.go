package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerService provides customer management and account statements
type CustomerService struct {
	customerRepo billing.CustomerRepository
	invoiceRepo  billing.InvoiceRepository
	paymentRepo  billing.PaymentRepository
	opts         options
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo billing.CustomerRepository,
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	logger *zap.Logger,
	opts ...Option,
) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		opts:         newOptions(opts),
		logger:       logger,
	}
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := billing.NewCustomer(req.profile())
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("package_tier", customer.PackageTier),
	)
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// GetCustomer gets a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// ListCustomers lists customers with pagination
func (s *CustomerService) ListCustomers(ctx context.Context, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	domainFilter := billing.CustomerFilter{Filter: shared.DefaultFilter(), PackageTier: filter.PackageTier}
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	customers, total, err := s.customerRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		responses = append(responses, toCustomerResponse(&customers[i]))
	}
	return responses, total, nil
}

// UpdateCustomer replaces the editable fields of a customer
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.UpdateProfile(req.profile()); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	resp := toCustomerResponse(customer)
	return &resp, nil
}

// GetStatement builds the account statement of a customer as of a point in
// time. A zero asOf means now.
func (s *CustomerService) GetStatement(ctx context.Context, id uuid.UUID, asOf time.Time) (*StatementResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	if asOf.IsZero() {
		asOf = s.opts.settings.now()
	} else {
		asOf = asOf.In(s.opts.settings.Location)
	}

	st := billing.BuildStatement(customer, invoices, payments, asOf, s.opts.settings.AllocateOptions()...)
	if len(st.Rejected) > 0 {
		s.logger.Warn("statement excluded malformed records",
			zap.String("customer_id", id.String()),
			zap.Int("rejected", len(st.Rejected)),
		)
	}
	return toStatementResponse(customer, st), nil
}

func (s *CustomerService) invalidate(ctx context.Context) {
	if err := s.opts.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}
