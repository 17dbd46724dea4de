// Package billing provides domain models for subscriber billing at an internet service provider.
//
// This package implements the billing bounded context, which is responsible for:
//   - Keeping the customer register with package prices and due days
//   - Planning one monthly invoice per billable customer and period
//   - Settling collections with discounts, credit and change
//   - Allocating payments to invoices oldest first to derive what is still owed
//
// Key Aggregates:
//   - Customer: Subscriber with a package, a due day and a credit balance
//   - Invoice: Monthly bill for one customer and period
//   - Payment: Recorded collection covering one or more invoices
//
// Value Objects:
//   - Period: Calendar month an invoice bills
//   - Settlement: Breakdown of a collection into bill, adjustments and change
//   - AllocationResult: Remaining balance of every invoice after allocation
//
// Invoice status is derived from allocation and never set by hand. Records
// with missing dates or negative amounts are reported as rejected rather
// than silently counted.
package billing
