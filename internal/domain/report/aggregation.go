package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// DefaultRevenueMonths is the length of the trailing revenue series.
const DefaultRevenueMonths = 6

// Input is a materialized snapshot of every record the summary needs.
type Input struct {
	Customers    []billing.Customer
	Invoices     []billing.Invoice
	Payments     []billing.Payment
	Expenses     []finance.Expense
	OtherIncomes []finance.OtherIncome

	// Allocation is computed from Invoices and Payments when nil.
	Allocation *billing.AllocationResult
}

type aggregateOptions struct {
	revenueMonths int
	allocate      []billing.AllocateOption
}

// Option configures Aggregate.
type Option func(*aggregateOptions)

// WithRevenueMonths sets the length of the trailing revenue series.
func WithRevenueMonths(n int) Option {
	return func(o *aggregateOptions) {
		if n > 0 {
			o.revenueMonths = n
		}
	}
}

// WithAllocateOptions passes options to the allocation step.
func WithAllocateOptions(opts ...billing.AllocateOption) Option {
	return func(o *aggregateOptions) {
		o.allocate = append(o.allocate, opts...)
	}
}

// window is the calendar month containing asOf.
type window struct {
	period billing.Period
	start  time.Time
	end    time.Time
	loc    *time.Location
}

func newWindow(asOf time.Time) window {
	return window{
		period: billing.PeriodOf(asOf),
		start:  billing.StartOfMonth(asOf),
		end:    billing.EndOfMonth(asOf),
		loc:    asOf.Location(),
	}
}

func (w window) contains(t time.Time) bool {
	return !t.IsZero() && !t.Before(w.start) && !t.After(w.end)
}

// Aggregate computes the financial summary as of the given instant.
//
// Every month boundary is derived from asOf and its location; the clock is
// never read. Records with a missing date still count toward global totals
// but are left out of anything filtered by date. Negative amounts count as
// zero. Exclusions are tallied in DataQuality and never abort the run.
func Aggregate(in Input, asOf time.Time, opts ...Option) *SummaryReport {
	o := aggregateOptions{revenueMonths: DefaultRevenueMonths}
	for _, opt := range opts {
		opt(&o)
	}

	alloc := in.Allocation
	if alloc == nil {
		alloc = billing.Allocate(in.Invoices, in.Payments, o.allocate...)
	}

	w := newWindow(asOf)
	r := &SummaryReport{
		AsOf:          asOf,
		CustomerCount: len(in.Customers),
		LastUpdated:   asOf,
	}
	r.Month.Period = w.period.String()
	r.Month.Start = w.start
	r.Month.End = w.end

	for _, rej := range alloc.Rejected {
		switch rej.Kind {
		case billing.RecordKindInvoice:
			r.DataQuality.RejectedInvoices++
		case billing.RecordKindPayment:
			r.DataQuality.RejectedPayments++
		}
	}

	// A repeated ID is counted once, as Allocate does.
	in.Invoices = billing.DistinctInvoices(in.Invoices)
	in.Payments = billing.DistinctPayments(in.Payments)

	for i := range in.Payments {
		p := &in.Payments[i]
		amount, ok := alloc.Unapplied[p.ID]
		// payments of archived invoices have nothing left to apply to
		if !ok || !alloc.HasKnownTarget(p) {
			continue
		}
		r.DataQuality.UnappliedPayments++
		r.DataQuality.UnappliedAmount += amount
	}

	aggregateIncome(r, in, w)
	aggregateExpenses(r, in.Expenses, w)
	r.Global.close()
	r.Month.close()

	r.Arrears = computeArrears(in.Customers, in.Invoices, alloc, w)
	r.NewCustomers = newCustomers(r, in.Customers, w)
	r.NewCustomerCount = len(r.NewCustomers)
	r.Revenue = revenueSeries(r, in.Payments, w, o.revenueMonths)
	r.Invoices = invoiceBreakdown(in.Invoices, alloc, w)
	r.Omset = computeOmset(r, in.Customers)

	return r
}

// nonNegative returns m, or zero with the malformed counter bumped.
func (r *SummaryReport) nonNegative(m valueobject.Money) valueobject.Money {
	if m.IsNegative() {
		r.DataQuality.NegativeAmounts++
		return valueobject.Zero
	}
	return m
}

func aggregateIncome(r *SummaryReport, in Input, w window) {
	for i := range in.Payments {
		p := &in.Payments[i]
		amount := r.nonNegative(p.Revenue())
		r.Global.PaymentIncome += amount
		if w.contains(p.PaidAt) {
			r.Month.PaymentIncome += amount
			r.Month.PaymentCount++
		}
	}

	for _, inc := range in.OtherIncomes {
		amount := r.nonNegative(inc.Amount)
		r.Global.OtherIncome += amount
		if inc.Date.IsZero() {
			r.DataQuality.UndatedIncomes++
			continue
		}
		if w.contains(inc.Date) {
			r.Month.OtherIncome += amount
		}
	}
}

func aggregateExpenses(r *SummaryReport, expenses []finance.Expense, w window) {
	for i := range expenses {
		e := &expenses[i]
		if e.IsTemplate() {
			r.DataQuality.ExpenseTemplates++
			continue
		}
		amount := r.nonNegative(e.Amount)
		r.Global.Expense += amount
		if w.contains(*e.Date) {
			r.Month.Expense += amount
		}
	}
}

func computeArrears(customers []billing.Customer, invoices []billing.Invoice, alloc *billing.AllocationResult, w window) Arrears {
	names := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	byCustomer := make(map[uuid.UUID]*CustomerArrears)
	for _, inv := range invoices {
		if !inv.IssueDate.Before(w.start) {
			continue
		}
		remaining, ok := alloc.RemainingFor(inv.ID)
		if !ok || !remaining.IsPositive() {
			continue
		}
		ca, ok := byCustomer[inv.CustomerID]
		if !ok {
			ca = &CustomerArrears{
				CustomerID:      inv.CustomerID,
				CustomerName:    names[inv.CustomerID],
				OldestIssueDate: inv.IssueDate,
			}
			byCustomer[inv.CustomerID] = ca
		}
		ca.Amount += remaining
		ca.InvoiceCount++
		if inv.IssueDate.Before(ca.OldestIssueDate) {
			ca.OldestIssueDate = inv.IssueDate
		}
	}

	out := Arrears{Customers: make([]CustomerArrears, 0, len(byCustomer))}
	for _, ca := range byCustomer {
		out.Customers = append(out.Customers, *ca)
		out.Total += ca.Amount
	}
	sort.Slice(out.Customers, func(i, j int) bool {
		a, b := out.Customers[i], out.Customers[j]
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		if a.CustomerName != b.CustomerName {
			return a.CustomerName < b.CustomerName
		}
		return a.CustomerID.String() < b.CustomerID.String()
	})
	return out
}

func newCustomers(r *SummaryReport, customers []billing.Customer, w window) []NewCustomer {
	out := make([]NewCustomer, 0)
	for _, c := range customers {
		if c.InstalledAt.IsZero() {
			r.DataQuality.UndatedCustomers++
			continue
		}
		if !w.contains(c.InstalledAt) {
			continue
		}
		out = append(out, NewCustomer{
			CustomerID:  c.ID,
			Name:        c.Name,
			PackageTier: c.PackageTier,
			InstalledAt: c.InstalledAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InstalledAt.Before(out[j].InstalledAt)
	})
	return out
}

func revenueSeries(r *SummaryReport, payments []billing.Payment, w window, months int) []RevenuePoint {
	first := w.period.AddMonths(-(months - 1))
	series := make([]RevenuePoint, months)
	index := make(map[billing.Period]int, months)
	for i := 0; i < months; i++ {
		p := first.AddMonths(i)
		series[i] = RevenuePoint{
			Period: p.String(),
			Year:   p.Year,
			Month:  int(p.Month),
			Label:  p.Month.String()[:3],
		}
		index[p] = i
	}

	for i := range payments {
		p := &payments[i]
		if p.PaidAt.IsZero() {
			continue
		}
		slot, ok := index[billing.PeriodOf(p.PaidAt.In(w.loc))]
		if !ok {
			continue
		}
		if amount := p.Revenue(); amount.IsPositive() {
			series[slot].Amount += amount
		}
	}
	return series
}

func invoiceBreakdown(invoices []billing.Invoice, alloc *billing.AllocationResult, w window) InvoiceBreakdown {
	var out InvoiceBreakdown
	for _, inv := range invoices {
		if !w.contains(inv.IssueDate) {
			continue
		}
		remaining, ok := alloc.RemainingFor(inv.ID)
		if !ok {
			continue
		}
		if remaining.IsPositive() {
			out.Unpaid.Count++
			out.Unpaid.Amount += inv.Amount
			out.Outstanding += remaining
			continue
		}
		out.Paid.Count++
		out.Paid.Amount += inv.Amount
	}
	return out
}

type omsetKey struct {
	tier  string
	price valueobject.Money
}

func computeOmset(r *SummaryReport, customers []billing.Customer) Omset {
	groups := make(map[omsetKey]*OmsetGroup)
	order := make([]omsetKey, 0)
	var total valueobject.Money

	for _, c := range customers {
		price := r.nonNegative(c.PackagePrice)
		key := omsetKey{tier: c.PackageTier, price: price}
		g, ok := groups[key]
		if !ok {
			g = &OmsetGroup{PackageTier: c.PackageTier, PackagePrice: price}
			groups[key] = g
			order = append(order, key)
		}
		g.CustomerCount++
		g.Total += price
		total += price
	}

	out := Omset{Groups: make([]OmsetGroup, 0, len(order)), Total: total}
	for _, key := range order {
		out.Groups = append(out.Groups, *groups[key])
	}
	sort.SliceStable(out.Groups, func(i, j int) bool {
		a, b := out.Groups[i], out.Groups[j]
		if a.PackagePrice != b.PackagePrice {
			return a.PackagePrice < b.PackagePrice
		}
		return a.PackageTier < b.PackageTier
	})
	return out
}
