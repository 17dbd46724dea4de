package billing

import (
	"time"

	"github.com/google/uuid"
)

// DueDateFor returns the due date of a period for a due-day code,
// clamped to the last day of short months.
func DueDateFor(period Period, dueDay int, loc *time.Location) time.Time {
	day := dueDay
	if day < 1 {
		day = 1
	}
	if last := period.Days(); day > last {
		day = last
	}
	return time.Date(period.Year, period.Month, day, 0, 0, 0, 0, loc)
}

// SkipReason explains why a customer got no invoice in a run.
type SkipReason string

const (
	SkipZeroPrice     SkipReason = "zero_package_price"
	SkipAlreadyBilled SkipReason = "already_billed"
)

// SkippedCustomer is a customer left out of a generation run.
type SkippedCustomer struct {
	CustomerID uuid.UUID
	Reason     SkipReason
}

// InvoicePlan is the outcome of planning one monthly run.
type InvoicePlan struct {
	Period   Period
	Invoices []*Invoice
	Skipped  []SkippedCustomer
}

// PlanMonthlyInvoices builds one invoice per billable customer for the period.
// Customers with a zero package price, or who already have an invoice in the
// period, are skipped. Running it again over its own output yields nothing new.
func PlanMonthlyInvoices(customers []Customer, existing []Invoice, period Period, loc *time.Location) (*InvoicePlan, error) {
	billed := make(map[uuid.UUID]bool, len(existing))
	for _, inv := range existing {
		if inv.Period == period {
			billed[inv.CustomerID] = true
		}
	}

	plan := &InvoicePlan{
		Period:   period,
		Invoices: make([]*Invoice, 0),
		Skipped:  make([]SkippedCustomer, 0),
	}
	issue := period.Start(loc)

	for i := range customers {
		c := &customers[i]
		if !c.IsBillable() {
			plan.Skipped = append(plan.Skipped, SkippedCustomer{CustomerID: c.ID, Reason: SkipZeroPrice})
			continue
		}
		if billed[c.ID] {
			plan.Skipped = append(plan.Skipped, SkippedCustomer{CustomerID: c.ID, Reason: SkipAlreadyBilled})
			continue
		}
		inv, err := NewInvoice(c.ID, issue, DueDateFor(period, c.DueDay, loc), c.PackagePrice)
		if err != nil {
			return nil, err
		}
		billed[c.ID] = true
		plan.Invoices = append(plan.Invoices, inv)
	}

	return plan, nil
}
