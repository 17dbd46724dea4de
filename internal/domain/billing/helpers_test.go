package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, jakarta)
}

func testInvoice(customerID uuid.UUID, issue time.Time, amount valueobject.Money) Invoice {
	return Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Period:            PeriodOf(issue),
		IssueDate:         issue,
		DueDate:           issue.AddDate(0, 0, 9),
		Amount:            amount,
		Status:            InvoiceStatusUnpaid,
	}
}

func testPayment(customerID uuid.UUID, paidAt time.Time, paid, change valueobject.Money, invoiceIDs ...uuid.UUID) Payment {
	return Payment{
		BaseEntity:      shared.NewBaseEntity(),
		CustomerID:      customerID,
		PaidAt:          paidAt,
		Method:          PaymentMethodCash,
		InvoiceIDs:      invoiceIDs,
		TotalPayment:    paid - change,
		PaidAmount:      paid,
		ChangeAmount:    change,
		HasTotalPayment: true,
	}
}
