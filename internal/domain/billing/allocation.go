package billing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// RecordKind names the record type in a rejection.
type RecordKind string

const (
	RecordKindInvoice RecordKind = "invoice"
	RecordKindPayment RecordKind = "payment"
)

// Rejection reasons reported by Allocate.
const (
	ReasonMissingDate    = "missing date"
	ReasonNegativeAmount = "negative amount"
	ReasonDuplicateID    = "duplicate id"
)

// RejectedRecord is an input record Allocate could not order or trust.
type RejectedRecord struct {
	Kind   RecordKind
	ID     uuid.UUID
	Reason string
}

// Application is one portion of a payment applied to one invoice.
type Application struct {
	PaymentID uuid.UUID
	InvoiceID uuid.UUID
	Amount    valueobject.Money
}

// AllocationResult holds the outcome of applying payments to invoices.
type AllocationResult struct {
	// Remaining maps every accepted invoice to its unpaid balance.
	Remaining map[uuid.UUID]valueobject.Money
	// Applications lists applied portions in the order they were applied.
	Applications []Application
	// Unapplied maps payments to the part that none of their targets could absorb.
	Unapplied map[uuid.UUID]valueobject.Money
	// Rejected lists records excluded from allocation.
	Rejected []RejectedRecord
}

// RemainingFor returns the remainder of an invoice and whether it was allocated.
func (r *AllocationResult) RemainingFor(invoiceID uuid.UUID) (valueobject.Money, bool) {
	m, ok := r.Remaining[invoiceID]
	return m, ok
}

// AppliedTo sums the portions applied to an invoice.
func (r *AllocationResult) AppliedTo(invoiceID uuid.UUID) valueobject.Money {
	var total valueobject.Money
	for _, a := range r.Applications {
		if a.InvoiceID == invoiceID {
			total += a.Amount
		}
	}
	return total
}

// AppliedBy returns the portions applied by a payment.
func (r *AllocationResult) AppliedBy(paymentID uuid.UUID) []Application {
	out := make([]Application, 0)
	for _, a := range r.Applications {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out
}

// IsSettled reports whether an invoice has nothing left to pay.
func (r *AllocationResult) IsSettled(invoiceID uuid.UUID) bool {
	m, ok := r.Remaining[invoiceID]
	return ok && !m.IsPositive()
}

type allocateOptions struct {
	countAdjustments bool
}

// AllocateOption configures Allocate.
type AllocateOption func(*allocateOptions)

// WithSettledAdjustments makes a payment's discount and credit applied count
// toward its targets in addition to the cash portion, so a discounted bill
// closes its invoices.
func WithSettledAdjustments() AllocateOption {
	return func(o *allocateOptions) {
		o.countAdjustments = true
	}
}

// WithAdjustments is WithSettledAdjustments when enabled is true and a no-op otherwise.
func WithAdjustments(enabled bool) AllocateOption {
	return func(o *allocateOptions) {
		o.countAdjustments = enabled
	}
}

// Allocate applies payments to invoices and returns the remaining balance of
// every invoice.
//
// Payments are applied oldest first. Each payment distributes PaidAmount minus
// ChangeAmount over the invoices it selected, oldest issue date first, skipping
// invoices that are already settled. Whatever a payment cannot place on its own
// targets is reported in Unapplied and never moves to other invoices.
// Both sorts are stable, so equal dates keep input order.
//
// References to unknown invoices are ignored. Records without a date cannot be
// ordered and are rejected, as are invoices with a negative face amount. A
// repeated ID is rejected and only its first occurrence is considered.
// Allocate is pure: the same inputs always produce the same result.
func Allocate(invoices []Invoice, payments []Payment, opts ...AllocateOption) *AllocationResult {
	var o allocateOptions
	for _, opt := range opts {
		opt(&o)
	}

	result := &AllocationResult{
		Remaining:    make(map[uuid.UUID]valueobject.Money, len(invoices)),
		Applications: make([]Application, 0),
		Unapplied:    make(map[uuid.UUID]valueobject.Money),
		Rejected:     make([]RejectedRecord, 0),
	}

	byID := make(map[uuid.UUID]*Invoice, len(invoices))
	seenInvoice := make(map[uuid.UUID]bool, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		if seenInvoice[inv.ID] {
			result.reject(RecordKindInvoice, inv.ID, ReasonDuplicateID)
			continue
		}
		seenInvoice[inv.ID] = true
		switch {
		case inv.IssueDate.IsZero():
			result.reject(RecordKindInvoice, inv.ID, ReasonMissingDate)
			continue
		case inv.Amount.IsNegative():
			result.reject(RecordKindInvoice, inv.ID, ReasonNegativeAmount)
			continue
		}
		byID[inv.ID] = inv
		result.Remaining[inv.ID] = inv.Amount
	}

	ordered := make([]*Payment, 0, len(payments))
	seen := make(map[uuid.UUID]bool, len(payments))
	for i := range payments {
		p := &payments[i]
		if seen[p.ID] {
			result.reject(RecordKindPayment, p.ID, ReasonDuplicateID)
			continue
		}
		seen[p.ID] = true
		if p.PaidAt.IsZero() {
			result.reject(RecordKindPayment, p.ID, ReasonMissingDate)
			continue
		}
		ordered = append(ordered, p)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PaidAt.Before(ordered[j].PaidAt)
	})

	for _, p := range ordered {
		amount := p.Distributable()
		if o.countAdjustments {
			amount += p.Discount + p.CreditApplied
		}
		if !amount.IsPositive() {
			continue
		}

		targets := make([]*Invoice, 0, len(p.InvoiceIDs))
		for _, id := range p.InvoiceIDs {
			if inv, ok := byID[id]; ok {
				targets = append(targets, inv)
			}
		}
		sort.SliceStable(targets, func(i, j int) bool {
			return targets[i].IssueDate.Before(targets[j].IssueDate)
		})

		for _, inv := range targets {
			if !amount.IsPositive() {
				break
			}
			remaining := result.Remaining[inv.ID]
			if !remaining.IsPositive() {
				continue
			}
			applied := valueobject.Min(amount, remaining)
			result.Remaining[inv.ID] = remaining - applied
			amount -= applied
			result.Applications = append(result.Applications, Application{
				PaymentID: p.ID,
				InvoiceID: inv.ID,
				Amount:    applied,
			})
		}

		if amount.IsPositive() {
			result.Unapplied[p.ID] = amount
		}
	}

	return result
}

// HasKnownTarget reports whether any invoice a payment selected took part in
// the allocation. A payment whose targets are all unknown, such as archived
// ones, applies nothing.
func (r *AllocationResult) HasKnownTarget(p *Payment) bool {
	for _, id := range p.InvoiceIDs {
		if _, ok := r.Remaining[id]; ok {
			return true
		}
	}
	return false
}

// DistinctInvoices returns invoices with repeated IDs dropped, keeping the
// first occurrence the way Allocate does.
func DistinctInvoices(invoices []Invoice) []Invoice {
	seen := make(map[uuid.UUID]bool, len(invoices))
	out := invoices[:0:0]
	for _, inv := range invoices {
		if seen[inv.ID] {
			continue
		}
		seen[inv.ID] = true
		out = append(out, inv)
	}
	return out
}

// DistinctPayments returns payments with repeated IDs dropped, keeping the
// first occurrence.
func DistinctPayments(payments []Payment) []Payment {
	seen := make(map[uuid.UUID]bool, len(payments))
	out := payments[:0:0]
	for _, p := range payments {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func (r *AllocationResult) reject(kind RecordKind, id uuid.UUID, reason string) {
	r.Rejected = append(r.Rejected, RejectedRecord{Kind: kind, ID: id, Reason: reason})
}
