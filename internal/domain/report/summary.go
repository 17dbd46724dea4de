package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// Totals are income and expense figures over some range.
type Totals struct {
	PaymentIncome valueobject.Money `json:"payment_income"`
	OtherIncome   valueobject.Money `json:"other_income"`
	Income        valueobject.Money `json:"income"`
	Expense       valueobject.Money `json:"expense"`
	Balance       valueobject.Money `json:"balance"` // Income - Expense
}

func (t *Totals) close() {
	t.Income = t.PaymentIncome + t.OtherIncome
	t.Balance = t.Income - t.Expense
}

// MonthlyTotals are the totals of the calendar month containing asOf.
type MonthlyTotals struct {
	Period       string    `json:"period"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	PaymentCount int       `json:"payment_count"`
	Totals
}

// CustomerArrears is the overdue balance of one customer.
type CustomerArrears struct {
	CustomerID      uuid.UUID         `json:"customer_id"`
	CustomerName    string            `json:"customer_name"`
	Amount          valueobject.Money `json:"amount"`
	InvoiceCount    int               `json:"invoice_count"`
	OldestIssueDate time.Time         `json:"oldest_issue_date"`
}

// Arrears lists unpaid balances issued before the current month,
// largest first.
type Arrears struct {
	Customers []CustomerArrears `json:"customers"`
	Total     valueobject.Money `json:"total"`
}

// NewCustomer is a customer installed during the current month.
type NewCustomer struct {
	CustomerID  uuid.UUID `json:"customer_id"`
	Name        string    `json:"name"`
	PackageTier string    `json:"package_tier"`
	InstalledAt time.Time `json:"installed_at"`
}

// RevenuePoint is one month of the trailing revenue series.
type RevenuePoint struct {
	Period string            `json:"period"`
	Year   int               `json:"year"`
	Month  int               `json:"month"`
	Label  string            `json:"label"`
	Amount valueobject.Money `json:"amount"`
}

// StatusBucket counts invoices and sums their face amounts.
type StatusBucket struct {
	Count  int               `json:"count"`
	Amount valueobject.Money `json:"amount"`
}

// InvoiceBreakdown splits the current month's invoices by allocated status.
type InvoiceBreakdown struct {
	Paid        StatusBucket      `json:"paid"`
	Unpaid      StatusBucket      `json:"unpaid"`
	Outstanding valueobject.Money `json:"outstanding"` // remaining balance of the unpaid ones
}

// OmsetGroup is the potential revenue of one (tier, price) package.
type OmsetGroup struct {
	PackageTier   string            `json:"package_tier"`
	PackagePrice  valueobject.Money `json:"package_price"`
	CustomerCount int               `json:"customer_count"`
	Total         valueobject.Money `json:"total"`
}

// Omset is the revenue if every customer paid their full package price.
type Omset struct {
	Groups []OmsetGroup      `json:"groups"`
	Total  valueobject.Money `json:"total"`
}

// DataQuality counts records that were excluded or zeroed.
type DataQuality struct {
	RejectedInvoices  int               `json:"rejected_invoices"`
	RejectedPayments  int               `json:"rejected_payments"`
	UndatedIncomes    int               `json:"undated_incomes"`
	UndatedCustomers  int               `json:"undated_customers"`
	NegativeAmounts   int               `json:"negative_amounts"`
	ExpenseTemplates  int               `json:"expense_templates"`
	UnappliedPayments int               `json:"unapplied_payments"`
	UnappliedAmount   valueobject.Money `json:"unapplied_amount"`
}

// Excluded returns the number of records left out of some figure.
func (d DataQuality) Excluded() int {
	return d.RejectedInvoices + d.RejectedPayments + d.UndatedIncomes + d.UndatedCustomers + d.NegativeAmounts
}

// SummaryReport is the financial dashboard computed for one asOf instant.
type SummaryReport struct {
	AsOf             time.Time        `json:"as_of"`
	Global           Totals           `json:"global"`
	Month            MonthlyTotals    `json:"month"`
	Arrears          Arrears          `json:"arrears"`
	NewCustomers     []NewCustomer    `json:"new_customers"`
	NewCustomerCount int              `json:"new_customer_count"`
	Revenue          []RevenuePoint   `json:"revenue"`
	Invoices         InvoiceBreakdown `json:"invoices"`
	Omset            Omset            `json:"omset"`
	CustomerCount    int              `json:"customer_count"`
	DataQuality      DataQuality      `json:"data_quality"`
	LastUpdated      time.Time        `json:"last_updated"`
}
