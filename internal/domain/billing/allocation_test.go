package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_SinglePaymentAcrossTwoMonths(t *testing.T) {
	customer := uuid.New()
	jan := testInvoice(customer, date(2026, time.January, 1), 100000)
	feb := testInvoice(customer, date(2026, time.February, 1), 100000)
	// Targets listed newest first; the engine must still clear January first.
	pay := testPayment(customer, date(2026, time.February, 15), 150000, 0, feb.ID, jan.ID)

	result := Allocate([]Invoice{feb, jan}, []Payment{pay})

	assert.Equal(t, valueobject.Money(0), result.Remaining[jan.ID])
	assert.Equal(t, valueobject.Money(50000), result.Remaining[feb.ID])
	assert.Empty(t, result.Unapplied)
	assert.Empty(t, result.Rejected)
	require.Len(t, result.Applications, 2)
	assert.Equal(t, jan.ID, result.Applications[0].InvoiceID)
	assert.Equal(t, valueobject.Money(100000), result.Applications[0].Amount)
}

func TestAllocate_ChangeIsNotDistributed(t *testing.T) {
	customer := uuid.New()
	inv := testInvoice(customer, date(2026, time.March, 1), 100000)
	pay := testPayment(customer, date(2026, time.March, 3), 120000, 20000, inv.ID)

	result := Allocate([]Invoice{inv}, []Payment{pay})

	assert.Equal(t, valueobject.Money(0), result.Remaining[inv.ID])
	assert.Empty(t, result.Unapplied)
}

func TestAllocate_Conservation(t *testing.T) {
	customer := uuid.New()
	invoices := []Invoice{
		testInvoice(customer, date(2025, time.November, 1), 150000),
		testInvoice(customer, date(2025, time.December, 1), 150000),
		testInvoice(customer, date(2026, time.January, 1), 175000),
		testInvoice(customer, date(2026, time.February, 1), 0),
	}
	ids := []uuid.UUID{invoices[0].ID, invoices[1].ID, invoices[2].ID, invoices[3].ID}
	payments := []Payment{
		testPayment(customer, date(2026, time.January, 20), 500000, 0, ids...),
		testPayment(customer, date(2025, time.December, 5), 90000, 0, ids[0]),
		testPayment(customer, date(2026, time.February, 2), 80000, 100000, ids[2]),
		testPayment(customer, date(2026, time.February, 9), 30000, 0, ids[1], ids[2]),
	}

	result := Allocate(invoices, payments)

	for _, inv := range invoices {
		remaining, ok := result.RemainingFor(inv.ID)
		require.True(t, ok)
		assert.GreaterOrEqual(t, remaining, valueobject.Zero, "invoice %s", inv.Period)
		assert.LessOrEqual(t, remaining, inv.Amount, "invoice %s", inv.Period)
		assert.Equal(t, inv.Amount-remaining, result.AppliedTo(inv.ID))
	}
}

func TestAllocate_Idempotent(t *testing.T) {
	customer := uuid.New()
	a := testInvoice(customer, date(2026, time.January, 1), 100000)
	b := testInvoice(customer, date(2026, time.February, 1), 100000)
	invoices := []Invoice{a, b}
	payments := []Payment{
		testPayment(customer, date(2026, time.February, 10), 60000, 0, a.ID, b.ID),
		testPayment(customer, date(2026, time.January, 10), 70000, 0, a.ID),
	}

	first := Allocate(invoices, payments)
	second := Allocate(invoices, payments)

	assert.Equal(t, first.Remaining, second.Remaining)
	assert.Equal(t, first.Applications, second.Applications)
	assert.Equal(t, first.Unapplied, second.Unapplied)
	// inputs are left untouched
	assert.Equal(t, a.ID, invoices[0].ID)
	assert.Equal(t, date(2026, time.February, 10), payments[0].PaidAt)
}

func TestAllocate_OrderSensitivity(t *testing.T) {
	const x valueobject.Money = 100000
	customer := uuid.New()
	target := testInvoice(customer, date(2026, time.January, 1), x+x/2)
	other := testInvoice(customer, date(2026, time.January, 1), x)

	earlier := testPayment(customer, date(2026, time.January, 5), x, 0, target.ID)
	later := testPayment(customer, date(2026, time.January, 25), x, 0, target.ID)

	t.Run("input order does not matter, payment date does", func(t *testing.T) {
		inOrder := Allocate([]Invoice{target, other}, []Payment{earlier, later})
		reversed := Allocate([]Invoice{target, other}, []Payment{later, earlier})

		assert.Equal(t, inOrder.Remaining, reversed.Remaining)
		assert.Equal(t, inOrder.Applications, reversed.Applications)
	})

	t.Run("earlier payment applies first and the surplus stays put", func(t *testing.T) {
		result := Allocate([]Invoice{target, other}, []Payment{later, earlier})

		require.Len(t, result.Applications, 2)
		assert.Equal(t, earlier.ID, result.Applications[0].PaymentID)
		assert.Equal(t, x, result.Applications[0].Amount)
		assert.Equal(t, later.ID, result.Applications[1].PaymentID)
		assert.Equal(t, x/2, result.Applications[1].Amount)

		assert.Equal(t, valueobject.Zero, result.Remaining[target.ID])
		assert.Equal(t, x, result.Remaining[other.ID], "surplus must not reach invoices outside the target list")
		assert.Equal(t, x/2, result.Unapplied[later.ID])
		assert.NotContains(t, result.Unapplied, earlier.ID)
	})
}

func TestAllocate_EqualDatesKeepInputOrder(t *testing.T) {
	customer := uuid.New()
	first := testInvoice(customer, date(2026, time.March, 1), 50000)
	second := testInvoice(customer, date(2026, time.March, 1), 50000)
	pay := testPayment(customer, date(2026, time.March, 2), 50000, 0, second.ID, first.ID)

	result := Allocate([]Invoice{first, second}, []Payment{pay})

	assert.Equal(t, valueobject.Zero, result.Remaining[second.ID])
	assert.Equal(t, valueobject.Money(50000), result.Remaining[first.ID])
}

func TestAllocate_UnknownReferenceIsNoOp(t *testing.T) {
	customer := uuid.New()
	inv := testInvoice(customer, date(2026, time.April, 1), 100000)
	pay := testPayment(customer, date(2026, time.April, 2), 40000, 0, uuid.New(), inv.ID)
	ghostOnly := testPayment(customer, date(2026, time.April, 3), 40000, 0, uuid.New())

	result := Allocate([]Invoice{inv}, []Payment{pay, ghostOnly})

	assert.Equal(t, valueobject.Money(60000), result.Remaining[inv.ID])
	assert.Len(t, result.Remaining, 1)
	assert.Equal(t, valueobject.Money(40000), result.Unapplied[ghostOnly.ID])
	assert.Empty(t, result.Rejected)
}

func TestAllocate_RejectsUnorderableRecords(t *testing.T) {
	customer := uuid.New()
	good := testInvoice(customer, date(2026, time.May, 1), 100000)
	undated := testInvoice(customer, date(2026, time.May, 1), 100000)
	undated.IssueDate = time.Time{}
	negative := testInvoice(customer, date(2026, time.May, 1), -5)

	dated := testPayment(customer, date(2026, time.May, 4), 30000, 0, good.ID, undated.ID)
	noDate := testPayment(customer, date(2026, time.May, 4), 30000, 0, good.ID)
	noDate.PaidAt = time.Time{}

	result := Allocate([]Invoice{good, undated, negative}, []Payment{dated, noDate})

	assert.Equal(t, valueobject.Money(70000), result.Remaining[good.ID])
	assert.NotContains(t, result.Remaining, undated.ID)
	assert.NotContains(t, result.Remaining, negative.ID)
	assert.ElementsMatch(t, []RejectedRecord{
		{Kind: RecordKindInvoice, ID: undated.ID, Reason: ReasonMissingDate},
		{Kind: RecordKindInvoice, ID: negative.ID, Reason: ReasonNegativeAmount},
		{Kind: RecordKindPayment, ID: noDate.ID, Reason: ReasonMissingDate},
	}, result.Rejected)
}

func TestAllocate_DuplicateIDs(t *testing.T) {
	customer := uuid.New()
	inv := testInvoice(customer, date(2026, time.June, 1), 100000)
	pay := testPayment(customer, date(2026, time.June, 2), 10000, 0, inv.ID)

	result := Allocate([]Invoice{inv, inv}, []Payment{pay, pay})

	assert.Equal(t, valueobject.Money(90000), result.Remaining[inv.ID])
	assert.Len(t, result.Rejected, 2)

	t.Run("repeat of a rejected record is still a duplicate", func(t *testing.T) {
		undated := pay
		undated.PaidAt = time.Time{}

		result := Allocate([]Invoice{inv}, []Payment{undated, pay})

		assert.Equal(t, valueobject.Money(100000), result.Remaining[inv.ID])
		assert.ElementsMatch(t, []RejectedRecord{
			{Kind: RecordKindPayment, ID: pay.ID, Reason: ReasonMissingDate},
			{Kind: RecordKindPayment, ID: pay.ID, Reason: ReasonDuplicateID},
		}, result.Rejected)
	})

	t.Run("distinct helpers keep the first occurrence", func(t *testing.T) {
		other := testInvoice(customer, date(2026, time.July, 1), 100000)
		second := inv
		second.Amount = 1

		invoices := DistinctInvoices([]Invoice{inv, other, second})
		require.Len(t, invoices, 2)
		assert.Equal(t, valueobject.Money(100000), invoices[0].Amount)
		assert.Equal(t, other.ID, invoices[1].ID)

		assert.Len(t, DistinctPayments([]Payment{pay, pay}), 1)
		assert.Empty(t, DistinctInvoices(nil))
	})

	t.Run("status changes are listed once", func(t *testing.T) {
		paid := testPayment(customer, date(2026, time.June, 2), 100000, 0, inv.ID)
		result := Allocate([]Invoice{inv, inv}, []Payment{paid})

		changes := StatusChanges([]Invoice{inv, inv}, result)

		require.Len(t, changes, 1)
		assert.Equal(t, InvoiceStatusPaid, changes[0].To)
	})
}

func TestAllocationResult_HasKnownTarget(t *testing.T) {
	customer := uuid.New()
	inv := testInvoice(customer, date(2026, time.June, 1), 100000)
	known := testPayment(customer, date(2026, time.June, 2), 10000, 0, uuid.New(), inv.ID)
	archived := testPayment(customer, date(2026, time.June, 3), 10000, 0, uuid.New())

	result := Allocate([]Invoice{inv}, []Payment{known, archived})

	assert.True(t, result.HasKnownTarget(&known))
	assert.False(t, result.HasKnownTarget(&archived))
}

func TestAllocate_WithSettledAdjustments(t *testing.T) {
	customer := uuid.New()
	inv := testInvoice(customer, date(2026, time.March, 1), 100000)
	pay := testPayment(customer, date(2026, time.March, 10), 70000, 0, inv.ID)
	pay.TotalBill = 100000
	pay.Discount = 10000
	pay.CreditApplied = 20000

	t.Run("cash only by default", func(t *testing.T) {
		result := Allocate([]Invoice{inv}, []Payment{pay})
		assert.Equal(t, valueobject.Money(30000), result.Remaining[inv.ID])
	})

	t.Run("discount and credit close the invoice", func(t *testing.T) {
		result := Allocate([]Invoice{inv}, []Payment{pay}, WithSettledAdjustments())
		assert.Equal(t, valueobject.Zero, result.Remaining[inv.ID])
	})

	t.Run("toggle", func(t *testing.T) {
		assert.Equal(t, valueobject.Money(30000), Allocate([]Invoice{inv}, []Payment{pay}, WithAdjustments(false)).Remaining[inv.ID])
		assert.Equal(t, valueobject.Zero, Allocate([]Invoice{inv}, []Payment{pay}, WithAdjustments(true)).Remaining[inv.ID])
	})
}

func TestAllocate_NegativeDistributableIsIgnored(t *testing.T) {
	customer := uuid.New()
	inv := testInvoice(customer, date(2026, time.March, 1), 100000)
	pay := testPayment(customer, date(2026, time.March, 10), 10000, 50000, inv.ID)

	result := Allocate([]Invoice{inv}, []Payment{pay})

	assert.Equal(t, valueobject.Money(100000), result.Remaining[inv.ID])
	assert.Empty(t, result.Applications)
}
