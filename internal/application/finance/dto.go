package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// ===================== Expenses =====================

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	CategoryName string            `json:"category_name"`
	Amount       valueobject.Money `json:"amount"`
	AmountLabel  string            `json:"amount_label"`
	DueDay       int               `json:"due_day,omitempty"`
	Date         *time.Time        `json:"date,omitempty"`
	Tenor        int               `json:"tenor,omitempty"`
	PaidTenor    int               `json:"paid_tenor,omitempty"`
	TemplateID   *uuid.UUID        `json:"template_id,omitempty"`
	IsTemplate   bool              `json:"is_template"`
	IsPaidOff    bool              `json:"is_paid_off"`
	Note         string            `json:"note,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Version      int               `json:"version"`
}

// CreateExpenseRequest creates a dated expense, or a recurring template when
// Date is omitted
type CreateExpenseRequest struct {
	Name     string            `json:"name" binding:"required,max=200"`
	Category string            `json:"category" binding:"required,oneof=fixed installment other"`
	Amount   valueobject.Money `json:"amount" binding:"required,gt=0"`
	DueDay   int               `json:"due_day" binding:"omitempty,dueday"`
	Date     *time.Time        `json:"date"`
	Tenor    int               `json:"tenor" binding:"omitempty,min=1"`
	Note     string            `json:"note" binding:"max=500"`
}

// ExpenseListFilter defines filtering options for expense list queries
type ExpenseListFilter struct {
	Search    string     `form:"search"`
	Category  string     `form:"category" binding:"omitempty,oneof=fixed installment other"`
	Templates *bool      `form:"templates"`
	FromDate  *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate    *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PayExpenseRequest realizes a recurring expense for one month.
// An empty period means the current month.
type PayExpenseRequest struct {
	Period string `json:"period"`
}

// PayExpenseResponse carries the dated expense and the updated template
type PayExpenseResponse struct {
	Expense  ExpenseResponse `json:"expense"`
	Template ExpenseResponse `json:"template"`
}

func toExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:           e.ID,
		Name:         e.Name,
		Category:     e.Category.String(),
		CategoryName: e.Category.DisplayName(),
		Amount:       e.Amount,
		AmountLabel:  e.Amount.Format(),
		DueDay:       e.DueDay,
		Date:         e.Date,
		Tenor:        e.Tenor,
		PaidTenor:    e.PaidTenor,
		TemplateID:   e.TemplateID,
		IsTemplate:   e.IsTemplate(),
		IsPaidOff:    e.IsPaidOff(),
		Note:         e.Note,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		Version:      e.Version,
	}
}

// ===================== Other income =====================

// IncomeResponse represents an other-income record in API responses
type IncomeResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Amount      valueobject.Money `json:"amount"`
	AmountLabel string            `json:"amount_label"`
	Date        time.Time         `json:"date"`
	Note        string            `json:"note,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Version     int               `json:"version"`
}

// CreateIncomeRequest represents a request to record other income
type CreateIncomeRequest struct {
	Name   string            `json:"name" binding:"required,max=200"`
	Amount valueobject.Money `json:"amount" binding:"required,gt=0"`
	Date   time.Time         `json:"date" binding:"required"`
	Note   string            `json:"note" binding:"max=500"`
}

// IncomeListFilter defines filtering options for income list queries
type IncomeListFilter struct {
	Search   string     `form:"search"`
	FromDate *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func toIncomeResponse(i *finance.OtherIncome) IncomeResponse {
	return IncomeResponse{
		ID:          i.ID,
		Name:        i.Name,
		Amount:      i.Amount,
		AmountLabel: i.Amount.Format(),
		Date:        i.Date,
		Note:        i.Note,
		CreatedAt:   i.CreatedAt,
		Version:     i.Version,
	}
}
