package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
)

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	shared.Filter
	Category  *ExpenseCategory
	Templates *bool      // true: undated templates only, false: realized only
	FromDate  *time.Time // realized expenses dated on or after
	ToDate    *time.Time // realized expenses dated on or before
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	// FindByID finds an expense by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)

	// FindAll returns one page of expenses and the total count
	FindAll(ctx context.Context, filter ExpenseFilter) ([]Expense, int64, error)

	// ListAll returns every expense, templates included
	ListAll(ctx context.Context) ([]Expense, error)

	// Save creates or updates an expense
	Save(ctx context.Context, expense *Expense) error

	// SavePayment stores a realized copy and the updated template in one transaction
	SavePayment(ctx context.Context, template *Expense, realized *Expense) error

	// Delete removes an expense
	Delete(ctx context.Context, id uuid.UUID) error
}

// OtherIncomeFilter defines filtering options for other income queries
type OtherIncomeFilter struct {
	shared.Filter
	FromDate *time.Time
	ToDate   *time.Time
}

// OtherIncomeRepository defines the interface for other income persistence
type OtherIncomeRepository interface {
	// FindByID finds an income record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*OtherIncome, error)

	// FindAll returns one page of income records and the total count
	FindAll(ctx context.Context, filter OtherIncomeFilter) ([]OtherIncome, int64, error)

	// ListAll returns every income record
	ListAll(ctx context.Context) ([]OtherIncome, error)

	// Save creates or updates an income record
	Save(ctx context.Context, income *OtherIncome) error

	// Delete removes an income record
	Delete(ctx context.Context, id uuid.UUID) error
}
