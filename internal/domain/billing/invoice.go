package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus is the cached paid/unpaid flag of an invoice.
// It is written back after allocation and never read as ground truth.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// StatusFor derives the status from an allocated remainder.
func StatusFor(remaining valueobject.Money) InvoiceStatus {
	if remaining.IsPositive() {
		return InvoiceStatusUnpaid
	}
	return InvoiceStatusPaid
}

// Invoice is the monthly bill of one customer.
type Invoice struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID
	Period     Period
	IssueDate  time.Time
	DueDate    time.Time
	Amount     valueobject.Money // face amount
	Status     InvoiceStatus
}

// NewInvoice creates an unpaid invoice for the given period.
func NewInvoice(customerID uuid.UUID, issueDate, dueDate time.Time, amount valueobject.Money) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount must be positive")
	}
	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Period:            PeriodOf(issueDate),
		IssueDate:         issueDate,
		DueDate:           dueDate,
		Amount:            amount,
		Status:            InvoiceStatusUnpaid,
	}, nil
}

// IsOverdue reports whether the invoice is past due at asOf given its remainder.
func (i *Invoice) IsOverdue(remaining valueobject.Money, asOf time.Time) bool {
	return remaining.IsPositive() && asOf.After(i.DueDate)
}

// StatusChange records a cached status that no longer matches allocation.
type StatusChange struct {
	InvoiceID uuid.UUID
	From      InvoiceStatus
	To        InvoiceStatus
}

// StatusChanges lists the invoices whose cached status differs from the
// status derived from the allocation result.
func StatusChanges(invoices []Invoice, result *AllocationResult) []StatusChange {
	changes := make([]StatusChange, 0)
	for _, inv := range DistinctInvoices(invoices) {
		remaining, ok := result.Remaining[inv.ID]
		if !ok {
			continue
		}
		want := StatusFor(remaining)
		if inv.Status != want {
			changes = append(changes, StatusChange{InvoiceID: inv.ID, From: inv.Status, To: want})
		}
	}
	return changes
}
