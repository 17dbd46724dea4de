package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// StatementLine is one invoice on a customer statement.
type StatementLine struct {
	InvoiceID uuid.UUID
	Period    Period
	IssueDate time.Time
	DueDate   time.Time
	Amount    valueobject.Money
	Paid      valueobject.Money
	Remaining valueobject.Money
	Status    InvoiceStatus
	Overdue   bool
	InArrears bool
}

// StatementPayment is one payment on a customer statement.
type StatementPayment struct {
	PaymentID     uuid.UUID
	PaidAt        time.Time
	Method        PaymentMethod
	Distributable valueobject.Money
	Applied       []Application
	Unapplied     valueobject.Money
}

// Statement is the account view of a single customer.
type Statement struct {
	CustomerID          uuid.UUID
	AsOf                time.Time
	Lines               []StatementLine
	Payments            []StatementPayment
	TotalInvoiced       valueobject.Money
	TotalPaidToInvoices valueobject.Money
	TotalOutstanding    valueobject.Money
	TotalArrears        valueobject.Money
	TotalUnapplied      valueobject.Money
	CreditBalance       valueobject.Money
	Rejected            []RejectedRecord
}

// BuildStatement allocates a customer's payments and lays out every invoice
// with its remainder. Invoices issued before the start of asOf's month that
// still carry a balance are in arrears.
func BuildStatement(customer *Customer, invoices []Invoice, payments []Payment, asOf time.Time, opts ...AllocateOption) *Statement {
	result := Allocate(invoices, payments, opts...)
	invoices = DistinctInvoices(invoices)
	payments = DistinctPayments(payments)
	monthStart := StartOfMonth(asOf)

	st := &Statement{
		CustomerID:    customer.ID,
		AsOf:          asOf,
		Lines:         make([]StatementLine, 0, len(invoices)),
		Payments:      make([]StatementPayment, 0, len(payments)),
		CreditBalance: customer.CreditBalance,
		Rejected:      result.Rejected,
	}

	for _, inv := range invoices {
		remaining, ok := result.RemainingFor(inv.ID)
		if !ok {
			continue
		}
		paid := inv.Amount - remaining
		line := StatementLine{
			InvoiceID: inv.ID,
			Period:    inv.Period,
			IssueDate: inv.IssueDate,
			DueDate:   inv.DueDate,
			Amount:    inv.Amount,
			Paid:      paid,
			Remaining: remaining,
			Status:    StatusFor(remaining),
			Overdue:   inv.IsOverdue(remaining, asOf),
			InArrears: remaining.IsPositive() && inv.IssueDate.Before(monthStart),
		}
		st.Lines = append(st.Lines, line)
		st.TotalInvoiced += inv.Amount
		st.TotalPaidToInvoices += paid
		st.TotalOutstanding += remaining
		if line.InArrears {
			st.TotalArrears += remaining
		}
	}
	sort.SliceStable(st.Lines, func(i, j int) bool {
		return st.Lines[i].IssueDate.Before(st.Lines[j].IssueDate)
	})

	for _, p := range payments {
		if p.PaidAt.IsZero() {
			continue
		}
		unapplied := result.Unapplied[p.ID]
		st.Payments = append(st.Payments, StatementPayment{
			PaymentID:     p.ID,
			PaidAt:        p.PaidAt,
			Method:        p.Method,
			Distributable: p.Distributable(),
			Applied:       result.AppliedBy(p.ID),
			Unapplied:     unapplied,
		})
		st.TotalUnapplied += unapplied
	}
	sort.SliceStable(st.Payments, func(i, j int) bool {
		return st.Payments[i].PaidAt.Before(st.Payments[j].PaidAt)
	})

	return st
}
