package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ExpenseIncomeService provides application-level expense and income operations
type ExpenseIncomeService struct {
	expenseRepo finance.ExpenseRepository
	incomeRepo  finance.OtherIncomeRepository
	settings    billingapp.Settings
	invalidator billingapp.CacheInvalidator
	logger      *zap.Logger
}

// Option configures ExpenseIncomeService
type Option func(*ExpenseIncomeService)

// WithSettings sets the business time zone and clock
func WithSettings(s billingapp.Settings) Option {
	return func(svc *ExpenseIncomeService) {
		svc.settings = s
	}
}

// WithCacheInvalidator sets what gets invalidated after a write
func WithCacheInvalidator(c billingapp.CacheInvalidator) Option {
	return func(svc *ExpenseIncomeService) {
		svc.invalidator = c
	}
}

// NewExpenseIncomeService creates a new ExpenseIncomeService
func NewExpenseIncomeService(
	expenseRepo finance.ExpenseRepository,
	incomeRepo finance.OtherIncomeRepository,
	logger *zap.Logger,
	opts ...Option,
) *ExpenseIncomeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ExpenseIncomeService{
		expenseRepo: expenseRepo,
		incomeRepo:  incomeRepo,
		settings:    billingapp.DefaultSettings(),
		logger:      logger,
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

// ===================== Expense Operations =====================

// CreateExpense creates a dated expense or a recurring template
func (s *ExpenseIncomeService) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*ExpenseResponse, error) {
	expense, err := finance.NewExpense(finance.ExpenseInput{
		Name:     req.Name,
		Category: finance.ExpenseCategory(req.Category),
		Amount:   req.Amount,
		DueDay:   req.DueDay,
		Date:     req.Date,
		Tenor:    req.Tenor,
		Note:     req.Note,
	})
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return nil, err
	}
	// templates are excluded from totals, so only dated expenses move the summary
	if expense.IsRealized() {
		s.invalidate(ctx)
	}

	resp := toExpenseResponse(expense)
	return &resp, nil
}

// GetExpense gets an expense by ID
func (s *ExpenseIncomeService) GetExpense(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toExpenseResponse(expense)
	return &resp, nil
}

// ListExpenses lists expenses with filtering and pagination
func (s *ExpenseIncomeService) ListExpenses(ctx context.Context, filter ExpenseListFilter) ([]ExpenseResponse, int64, error) {
	domainFilter := finance.ExpenseFilter{
		Filter:    pageFilter(filter.Search, filter.Page, filter.PageSize),
		Templates: filter.Templates,
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
	}
	if filter.Category != "" {
		category := finance.ExpenseCategory(filter.Category)
		if !category.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_CATEGORY", "Expense category is not valid")
		}
		domainFilter.Category = &category
	}

	expenses, total, err := s.expenseRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, toExpenseResponse(&expenses[i]))
	}
	return responses, total, nil
}

// PayExpense realizes a recurring expense for a month. The dated copy and the
// advanced template are saved together.
func (s *ExpenseIncomeService) PayExpense(ctx context.Context, id uuid.UUID, req PayExpenseRequest) (*PayExpenseResponse, error) {
	period := billing.PeriodOf(s.settings.Now().In(s.settings.Location))
	if req.Period != "" {
		p, err := billing.ParsePeriod(req.Period)
		if err != nil {
			return nil, err
		}
		period = p
	}

	template, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	realized, err := template.PayPeriod(period, s.settings.Location)
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepo.SavePayment(ctx, template, realized); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info("recurring expense paid",
		zap.String("template_id", template.ID.String()),
		zap.String("expense_id", realized.ID.String()),
		zap.String("period", period.String()),
		zap.Int("paid_tenor", template.PaidTenor),
	)
	return &PayExpenseResponse{
		Expense:  toExpenseResponse(realized),
		Template: toExpenseResponse(template),
	}, nil
}

// DeleteExpense deletes an expense
func (s *ExpenseIncomeService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	if _, err := s.expenseRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ===================== Other Income Operations =====================

// CreateIncome records other income
func (s *ExpenseIncomeService) CreateIncome(ctx context.Context, req CreateIncomeRequest) (*IncomeResponse, error) {
	income, err := finance.NewOtherIncome(req.Name, req.Amount, req.Date, req.Note)
	if err != nil {
		return nil, err
	}
	if err := s.incomeRepo.Save(ctx, income); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	resp := toIncomeResponse(income)
	return &resp, nil
}

// GetIncome gets an income record by ID
func (s *ExpenseIncomeService) GetIncome(ctx context.Context, id uuid.UUID) (*IncomeResponse, error) {
	income, err := s.incomeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toIncomeResponse(income)
	return &resp, nil
}

// ListIncomes lists income records with filtering and pagination
func (s *ExpenseIncomeService) ListIncomes(ctx context.Context, filter IncomeListFilter) ([]IncomeResponse, int64, error) {
	incomes, total, err := s.incomeRepo.FindAll(ctx, finance.OtherIncomeFilter{
		Filter:   pageFilter(filter.Search, filter.Page, filter.PageSize),
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	})
	if err != nil {
		return nil, 0, err
	}

	responses := make([]IncomeResponse, 0, len(incomes))
	for i := range incomes {
		responses = append(responses, toIncomeResponse(&incomes[i]))
	}
	return responses, total, nil
}

// DeleteIncome deletes an income record
func (s *ExpenseIncomeService) DeleteIncome(ctx context.Context, id uuid.UUID) error {
	if _, err := s.incomeRepo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.incomeRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ExpenseIncomeService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}

func pageFilter(search string, page, pageSize int) shared.Filter {
	f := shared.DefaultFilter()
	f.Search = search
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	return f
}
