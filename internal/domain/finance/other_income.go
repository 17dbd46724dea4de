package finance

import (
	"strings"
	"time"

	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// OtherIncome is income outside the invoice and payment flow,
// such as router or cable sales.
type OtherIncome struct {
	shared.BaseAggregateRoot
	Name   string
	Amount valueobject.Money
	Date   time.Time
	Note   string
}

// NewOtherIncome creates a dated income record
func NewOtherIncome(name string, amount valueobject.Money, date time.Time, note string) (*OtherIncome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Income name cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Income date is required")
	}
	return &OtherIncome{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Amount:            amount,
		Date:              date,
		Note:              note,
	}, nil
}
