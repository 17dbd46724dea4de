package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type mockExpenseRepository struct {
	mock.Mock
}

func (m *mockExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Expense), args.Error(1)
}

func (m *mockExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]finance.Expense), args.Get(1).(int64), args.Error(2)
}

func (m *mockExpenseRepository) ListAll(ctx context.Context) ([]finance.Expense, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.Expense), args.Error(1)
}

func (m *mockExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *mockExpenseRepository) SavePayment(ctx context.Context, template *finance.Expense, realized *finance.Expense) error {
	args := m.Called(ctx, template, realized)
	return args.Error(0)
}

func (m *mockExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockIncomeRepository struct {
	mock.Mock
}

func (m *mockIncomeRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.OtherIncome, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.OtherIncome), args.Error(1)
}

func (m *mockIncomeRepository) FindAll(ctx context.Context, filter finance.OtherIncomeFilter) ([]finance.OtherIncome, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]finance.OtherIncome), args.Get(1).(int64), args.Error(2)
}

func (m *mockIncomeRepository) ListAll(ctx context.Context) ([]finance.OtherIncome, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.OtherIncome), args.Error(1)
}

func (m *mockIncomeRepository) Save(ctx context.Context, income *finance.OtherIncome) error {
	args := m.Called(ctx, income)
	return args.Error(0)
}

func (m *mockIncomeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

// Test fixtures

var jakarta = time.FixedZone("WIB", 7*60*60)

func newTestService(now time.Time) (*ExpenseIncomeService, *mockExpenseRepository, *mockIncomeRepository, *countingInvalidator) {
	expenses := new(mockExpenseRepository)
	incomes := new(mockIncomeRepository)
	inv := &countingInvalidator{}
	svc := NewExpenseIncomeService(expenses, incomes, nil,
		WithSettings(billingapp.Settings{
			Location: jakarta,
			Now:      func() time.Time { return now },
		}),
		WithCacheInvalidator(inv),
	)
	return svc, expenses, incomes, inv
}

func newInstallment(t *testing.T, tenor int) *finance.Expense {
	t.Helper()
	e, err := finance.NewExpense(finance.ExpenseInput{
		Name:     "OLT",
		Category: finance.ExpenseCategoryInstallment,
		Amount:   1500000,
		DueDay:   31,
		Tenor:    tenor,
	})
	require.NoError(t, err)
	return e
}

// ===================== Expense Tests =====================

func TestExpenseIncomeService_CreateExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("dated expense invalidates the summary", func(t *testing.T) {
		svc, expenses, _, inv := newTestService(time.Now())
		paidAt := time.Date(2026, time.March, 3, 0, 0, 0, 0, jakarta)
		expenses.On("Save", ctx, mock.AnythingOfType("*finance.Expense")).Return(nil)

		resp, err := svc.CreateExpense(ctx, CreateExpenseRequest{
			Name:     "Upstream bandwidth",
			Category: "fixed",
			Amount:   2000000,
			Date:     &paidAt,
		})

		require.NoError(t, err)
		assert.False(t, resp.IsTemplate)
		assert.Equal(t, "Biaya Tetap", resp.CategoryName)
		assert.Equal(t, "Rp 2.000.000", resp.AmountLabel)
		assert.Equal(t, 1, inv.calls)
	})

	t.Run("template does not touch the summary", func(t *testing.T) {
		svc, expenses, _, inv := newTestService(time.Now())
		expenses.On("Save", ctx, mock.AnythingOfType("*finance.Expense")).Return(nil)

		resp, err := svc.CreateExpense(ctx, CreateExpenseRequest{
			Name:     "Electricity",
			Category: "fixed",
			Amount:   350000,
			DueDay:   20,
		})

		require.NoError(t, err)
		assert.True(t, resp.IsTemplate)
		assert.Equal(t, 20, resp.DueDay)
		assert.Zero(t, inv.calls)
	})

	t.Run("undated expense without due day", func(t *testing.T) {
		svc, expenses, _, _ := newTestService(time.Now())

		_, err := svc.CreateExpense(ctx, CreateExpenseRequest{Name: "Misc", Category: "other", Amount: 1000})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_DUE_DAY", domainErr.Code)
		expenses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestExpenseIncomeService_PayExpense(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.February, 14, 10, 0, 0, 0, jakarta)

	t.Run("installment for the current month", func(t *testing.T) {
		svc, expenses, _, inv := newTestService(now)
		template := newInstallment(t, 12)
		expenses.On("FindByID", ctx, template.ID).Return(template, nil)
		expenses.On("SavePayment", ctx, template, mock.AnythingOfType("*finance.Expense")).Return(nil)

		resp, err := svc.PayExpense(ctx, template.ID, PayExpenseRequest{})

		require.NoError(t, err)
		require.NotNil(t, resp.Expense.Date)
		// due day 31 clamps to the end of February
		assert.True(t, resp.Expense.Date.Equal(time.Date(2026, time.February, 28, 0, 0, 0, 0, jakarta)))
		assert.Equal(t, "OLT (1/12)", resp.Expense.Name)
		assert.Equal(t, template.ID, *resp.Expense.TemplateID)
		assert.Equal(t, 1, resp.Template.PaidTenor)
		assert.Equal(t, 1, inv.calls)
	})

	t.Run("explicit period", func(t *testing.T) {
		svc, expenses, _, _ := newTestService(now)
		template := newInstallment(t, 12)
		expenses.On("FindByID", ctx, template.ID).Return(template, nil)
		expenses.On("SavePayment", ctx, template, mock.Anything).Return(nil)

		resp, err := svc.PayExpense(ctx, template.ID, PayExpenseRequest{Period: "2026-04"})

		require.NoError(t, err)
		assert.True(t, resp.Expense.Date.Equal(time.Date(2026, time.April, 30, 0, 0, 0, 0, jakarta)))
	})

	t.Run("paid off installment", func(t *testing.T) {
		svc, expenses, _, inv := newTestService(now)
		template := newInstallment(t, 1)
		template.PaidTenor = 1
		expenses.On("FindByID", ctx, template.ID).Return(template, nil)

		_, err := svc.PayExpense(ctx, template.ID, PayExpenseRequest{})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSTALLMENT_PAID_OFF", domainErr.Code)
		expenses.AssertNotCalled(t, "SavePayment", mock.Anything, mock.Anything, mock.Anything)
		assert.Zero(t, inv.calls)
	})

	t.Run("invalid period", func(t *testing.T) {
		svc, expenses, _, _ := newTestService(now)

		_, err := svc.PayExpense(ctx, uuid.New(), PayExpenseRequest{Period: "02/2026"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PERIOD", domainErr.Code)
		expenses.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc, expenses, _, _ := newTestService(now)
		id := uuid.New()
		expenses.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := svc.PayExpense(ctx, id, PayExpenseRequest{})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestExpenseIncomeService_ListExpenses(t *testing.T) {
	ctx := context.Background()
	svc, expenses, _, _ := newTestService(time.Now())
	templates := true
	category := finance.ExpenseCategoryInstallment

	expenses.On("FindAll", ctx, mock.MatchedBy(func(f finance.ExpenseFilter) bool {
		return f.Page == 2 && f.PageSize == 20 && f.Category != nil && *f.Category == category && *f.Templates
	})).Return([]finance.Expense{*newInstallment(t, 6)}, int64(21), nil)

	list, total, err := svc.ListExpenses(ctx, ExpenseListFilter{Category: "installment", Templates: &templates, Page: 2})

	require.NoError(t, err)
	assert.Equal(t, int64(21), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Cicilan", list[0].CategoryName)

	_, _, err = svc.ListExpenses(ctx, ExpenseListFilter{Category: "rent"})
	assert.Error(t, err)
}

func TestExpenseIncomeService_DeleteExpense(t *testing.T) {
	ctx := context.Background()
	svc, expenses, _, inv := newTestService(time.Now())
	template := newInstallment(t, 3)
	missing := uuid.New()

	expenses.On("FindByID", ctx, template.ID).Return(template, nil)
	expenses.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	expenses.On("Delete", ctx, template.ID).Return(nil)

	require.NoError(t, svc.DeleteExpense(ctx, template.ID))
	assert.Equal(t, 1, inv.calls)

	assert.ErrorIs(t, svc.DeleteExpense(ctx, missing), shared.ErrNotFound)
	expenses.AssertNumberOfCalls(t, "Delete", 1)
}

// ===================== Income Tests =====================

func TestExpenseIncomeService_CreateIncome(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, _, incomes, inv := newTestService(time.Now())
		incomes.On("Save", ctx, mock.AnythingOfType("*finance.OtherIncome")).Return(nil)

		resp, err := svc.CreateIncome(ctx, CreateIncomeRequest{
			Name:   "Router sale",
			Amount: valueobject.Money(275000),
			Date:   time.Date(2026, time.March, 2, 0, 0, 0, 0, jakarta),
		})

		require.NoError(t, err)
		assert.Equal(t, "Rp 275.000", resp.AmountLabel)
		assert.Equal(t, 1, inv.calls)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc, _, incomes, inv := newTestService(time.Now())
		incomes.On("Save", ctx, mock.Anything).Return(errors.New("db down"))

		_, err := svc.CreateIncome(ctx, CreateIncomeRequest{
			Name:   "Cable sale",
			Amount: 50000,
			Date:   time.Date(2026, time.March, 2, 0, 0, 0, 0, jakarta),
		})

		assert.EqualError(t, err, "db down")
		assert.Zero(t, inv.calls)
	})
}

func TestExpenseIncomeService_ListIncomes(t *testing.T) {
	ctx := context.Background()
	svc, _, incomes, _ := newTestService(time.Now())
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, jakarta)
	income, err := finance.NewOtherIncome("Router sale", 275000, from, "")
	require.NoError(t, err)

	incomes.On("FindAll", ctx, mock.MatchedBy(func(f finance.OtherIncomeFilter) bool {
		return f.FromDate != nil && f.FromDate.Equal(from) && f.Search == "router"
	})).Return([]finance.OtherIncome{*income}, int64(1), nil)

	list, total, err := svc.ListIncomes(ctx, IncomeListFilter{Search: "router", FromDate: &from})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, income.ID, list[0].ID)
}

func TestExpenseIncomeService_DeleteIncome(t *testing.T) {
	ctx := context.Background()
	svc, _, incomes, inv := newTestService(time.Now())
	id := uuid.New()
	income := &finance.OtherIncome{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	income.ID = id

	incomes.On("FindByID", ctx, id).Return(income, nil)
	incomes.On("Delete", ctx, id).Return(nil)

	require.NoError(t, svc.DeleteIncome(ctx, id))
	assert.Equal(t, 1, inv.calls)
	incomes.AssertExpectations(t)
}
