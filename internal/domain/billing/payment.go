package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// PaymentMethod represents how the customer paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodEWallet:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// AllPaymentMethods returns all valid payment methods
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodEWallet}
}

// Payment is a single collection event. It is immutable once recorded;
// corrections are new payments.
type Payment struct {
	shared.BaseEntity
	CustomerID    uuid.UUID
	PaidAt        time.Time
	Method        PaymentMethod
	InvoiceIDs    []uuid.UUID       // invoices this payment intends to settle
	TotalBill     valueobject.Money // sum of selected invoices before discount
	Discount      valueobject.Money
	CreditApplied valueobject.Money // part of the bill covered by the customer's credit balance
	TotalPayment  valueobject.Money // owed after discount and credit
	PaidAmount    valueobject.Money // cash handed over
	ChangeAmount  valueobject.Money // PaidAmount - TotalPayment
	Note          string

	// HasTotalPayment is false for legacy records that only carry PaidAmount.
	HasTotalPayment bool
}

// NewPayment creates a payment from a computed settlement.
func NewPayment(customerID uuid.UUID, paidAt time.Time, method PaymentMethod, invoiceIDs []uuid.UUID, s Settlement) (*Payment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if paidAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if len(invoiceIDs) == 0 {
		return nil, shared.NewDomainError("NO_INVOICES", "A payment must select at least one invoice")
	}
	ids := make([]uuid.UUID, len(invoiceIDs))
	copy(ids, invoiceIDs)

	return &Payment{
		BaseEntity:      shared.NewBaseEntity(),
		CustomerID:      customerID,
		PaidAt:          paidAt,
		Method:          method,
		InvoiceIDs:      ids,
		TotalBill:       s.TotalBill,
		Discount:        s.Discount,
		CreditApplied:   s.CreditApplied,
		TotalPayment:    s.TotalPayment,
		PaidAmount:      s.Paid,
		ChangeAmount:    s.Change,
		HasTotalPayment: true,
	}, nil
}

// Distributable is the part of the payment that pays down invoices:
// the cash handed over minus the change given back.
func (p *Payment) Distributable() valueobject.Money {
	return p.PaidAmount - p.ChangeAmount
}

// Revenue is the amount counted as income, falling back to the paid
// amount for legacy records without a total payment.
func (p *Payment) Revenue() valueobject.Money {
	if p.HasTotalPayment {
		return p.TotalPayment
	}
	return p.PaidAmount
}

// Targets reports whether the payment selected the given invoice.
func (p *Payment) Targets(invoiceID uuid.UUID) bool {
	for _, id := range p.InvoiceIDs {
		if id == invoiceID {
			return true
		}
	}
	return false
}
