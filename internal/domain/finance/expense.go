package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// ExpenseCategory represents the category of an expense
type ExpenseCategory string

const (
	ExpenseCategoryFixed       ExpenseCategory = "fixed"       // recurring monthly cost, e.g. upstream bandwidth
	ExpenseCategoryInstallment ExpenseCategory = "installment" // paid off over a tenor
	ExpenseCategoryOther       ExpenseCategory = "other"       // incidental
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryFixed, ExpenseCategoryInstallment, ExpenseCategoryOther:
		return true
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the category
func (c ExpenseCategory) DisplayName() string {
	switch c {
	case ExpenseCategoryFixed:
		return "Biaya Tetap"
	case ExpenseCategoryInstallment:
		return "Cicilan"
	case ExpenseCategoryOther:
		return "Lain-lain"
	default:
		return string(c)
	}
}

// Expense is a business cost. A template carries a due day and no date and
// only describes a future obligation; a realized expense carries the date it
// was paid. Only realized expenses count toward totals.
type Expense struct {
	shared.BaseAggregateRoot
	Name       string
	Category   ExpenseCategory
	Amount     valueobject.Money
	DueDay     int        // templates only, 1..31
	Date       *time.Time // realized expenses only
	Tenor      int        // installments only: total number of installments
	PaidTenor  int        // installments only: installments paid so far
	TemplateID *uuid.UUID // realized copies point at their template
	Note       string
}

// ExpenseInput carries the fields of a new expense.
type ExpenseInput struct {
	Name     string
	Category ExpenseCategory
	Amount   valueobject.Money
	DueDay   int
	Date     *time.Time
	Tenor    int
	Note     string
}

// NewExpense creates an expense template or a realized expense.
func NewExpense(in ExpenseInput) (*Expense, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Expense name cannot be empty")
	}
	if !in.Category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Expense category is not valid")
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if in.Date == nil && (in.DueDay < 1 || in.DueDay > 31) {
		return nil, shared.NewDomainError("INVALID_DUE_DAY", "An undated expense needs a due day between 1 and 31")
	}
	if in.Date != nil && in.Date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Expense date cannot be empty")
	}
	if in.Category == ExpenseCategoryInstallment && in.Date == nil && in.Tenor < 1 {
		return nil, shared.NewDomainError("INVALID_TENOR", "Installment tenor must be at least 1")
	}

	e := &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Category:          in.Category,
		Amount:            in.Amount,
		Note:              in.Note,
	}
	if in.Date != nil {
		d := *in.Date
		e.Date = &d
	} else {
		e.DueDay = in.DueDay
	}
	if in.Category == ExpenseCategoryInstallment {
		e.Tenor = in.Tenor
	}
	return e, nil
}

// IsTemplate reports whether the expense is an undated recurring template.
func (e *Expense) IsTemplate() bool {
	return e.Date == nil || e.Date.IsZero()
}

// IsRealized reports whether the expense carries a concrete date.
func (e *Expense) IsRealized() bool {
	return !e.IsTemplate()
}

// IsPaidOff reports whether every installment has been paid.
func (e *Expense) IsPaidOff() bool {
	return e.Category == ExpenseCategoryInstallment && e.Tenor > 0 && e.PaidTenor >= e.Tenor
}

// PayPeriod realizes a template for one billing period. It returns the dated
// expense to store and, for installments, advances the paid tenor.
func (e *Expense) PayPeriod(period billing.Period, loc *time.Location) (*Expense, error) {
	if !e.IsTemplate() {
		return nil, shared.NewDomainError("NOT_A_TEMPLATE", "Only recurring expenses can be paid per period")
	}
	if e.IsPaidOff() {
		return nil, shared.NewDomainError("INSTALLMENT_PAID_OFF", "All installments have already been paid")
	}

	paidAt := billing.DueDateFor(period, e.DueDay, loc)
	name := fmt.Sprintf("%s %s", e.Name, period)
	if e.Category == ExpenseCategoryInstallment {
		e.PaidTenor++
		name = fmt.Sprintf("%s (%d/%d)", e.Name, e.PaidTenor, e.Tenor)
	}
	e.Touch()

	templateID := e.ID
	return &Expense{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Category:          e.Category,
		Amount:            e.Amount,
		Date:              &paidAt,
		TemplateID:        &templateID,
		Note:              e.Note,
	}, nil
}
