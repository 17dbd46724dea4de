package billing

import (
	"time"

	"github.com/google/uuid"
)

// ArchiveBatch is a closed set of settled invoices and the payments that
// touched them. Removing the invoices leaves the allocation of every other
// invoice unchanged. The payments are exported alongside but kept, since
// lifetime income is summed over them.
type ArchiveBatch struct {
	Invoices []Invoice
	Payments []Payment
}

// IsEmpty reports whether there is nothing to archive.
func (b *ArchiveBatch) IsEmpty() bool {
	return len(b.Invoices) == 0
}

// SelectArchivable picks settled invoices issued before cutoff. An invoice is
// only taken when every payment touching it touches nothing but archivable
// invoices, so no remaining invoice loses a payment it depends on.
func SelectArchivable(invoices []Invoice, payments []Payment, result *AllocationResult, cutoff time.Time) *ArchiveBatch {
	known := make(map[uuid.UUID]bool, len(invoices))
	candidate := make(map[uuid.UUID]bool)
	for _, inv := range invoices {
		known[inv.ID] = true
		if inv.IssueDate.IsZero() || !inv.IssueDate.Before(cutoff) {
			continue
		}
		if result.IsSettled(inv.ID) {
			candidate[inv.ID] = true
		}
	}

	// Drop candidates shared with a payment that also targets a kept invoice,
	// until no such payment is left.
	for changed := true; changed; {
		changed = false
		for _, p := range payments {
			touches, blocked := false, false
			for _, id := range p.InvoiceIDs {
				if !known[id] {
					continue
				}
				if candidate[id] {
					touches = true
				} else {
					blocked = true
				}
			}
			if touches && blocked {
				for _, id := range p.InvoiceIDs {
					if candidate[id] {
						delete(candidate, id)
						changed = true
					}
				}
			}
		}
	}

	batch := &ArchiveBatch{Invoices: make([]Invoice, 0), Payments: make([]Payment, 0)}
	for _, inv := range invoices {
		if candidate[inv.ID] {
			batch.Invoices = append(batch.Invoices, inv)
		}
	}
	for _, p := range payments {
		for _, id := range p.InvoiceIDs {
			if candidate[id] {
				batch.Payments = append(batch.Payments, p)
				break
			}
		}
	}
	return batch
}
