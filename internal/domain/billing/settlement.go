package billing

import (
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// SettlementInput describes a collection at the counter.
type SettlementInput struct {
	Bills           []valueobject.Money // current remainders of the selected invoices
	Discount        valueobject.Money
	AvailableCredit valueobject.Money // customer's credit balance
	Paid            valueobject.Money // cash handed over
	AllowPartial    bool              // accept Paid below the amount due
}

// Settlement is the computed breakdown of a payment.
type Settlement struct {
	TotalBill     valueobject.Money
	Discount      valueobject.Money
	CreditApplied valueobject.Money
	AmountDue     valueobject.Money // bill after discount and credit
	TotalPayment  valueobject.Money // amount collected toward the bill
	Paid          valueobject.Money
	Change        valueobject.Money
	Partial       bool
}

// Settle computes total payment and change for a collection.
//
//	totalBill     = sum(bills)
//	creditApplied = min(credit, totalBill - discount)
//	amountDue     = totalBill - discount - creditApplied
//	change        = paid - amountDue
//
// A partial payment collects everything handed over and gives no change.
func Settle(in SettlementInput) (Settlement, error) {
	if in.Discount.IsNegative() || in.AvailableCredit.IsNegative() || in.Paid.IsNegative() {
		return Settlement{}, shared.NewDomainError("INVALID_AMOUNT", "Amounts cannot be negative")
	}

	var totalBill valueobject.Money
	for _, b := range in.Bills {
		if b.IsNegative() {
			return Settlement{}, shared.NewDomainError("INVALID_AMOUNT", "Bill amounts cannot be negative")
		}
		totalBill += b
	}
	if in.Discount > totalBill {
		return Settlement{}, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the total bill")
	}

	afterDiscount := totalBill - in.Discount
	creditApplied := valueobject.Min(in.AvailableCredit, afterDiscount)
	due := afterDiscount - creditApplied

	s := Settlement{
		TotalBill:     totalBill,
		Discount:      in.Discount,
		CreditApplied: creditApplied,
		AmountDue:     due,
		Paid:          in.Paid,
	}

	if in.Paid < due {
		if !in.AllowPartial {
			return Settlement{}, shared.ErrInsufficientPaid
		}
		s.TotalPayment = in.Paid
		s.Change = 0
		s.Partial = true
		return s, nil
	}

	s.TotalPayment = due
	s.Change = in.Paid - due
	return s, nil
}
