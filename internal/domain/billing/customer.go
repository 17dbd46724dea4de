package billing

import (
	"strings"
	"time"

	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// Valid due days. Days past the end of a short month fall on its last day.
const (
	MinDueDay = 1
	MaxDueDay = 31
)

// Customer is a subscriber billed monthly for an internet package.
type Customer struct {
	shared.BaseAggregateRoot
	Name          string
	Phone         string
	Address       string
	PackageTier   string            // subscription tier name, e.g. "10 Mbps"
	PackagePrice  valueobject.Money // recurring monthly charge
	DueDay        int               // day of month the invoice falls due, 1..31
	InstalledAt   time.Time
	CreditBalance valueobject.Money // prepaid amount available to offset future bills
}

// CustomerProfile carries the editable fields of a customer.
type CustomerProfile struct {
	Name         string
	Phone        string
	Address      string
	PackageTier  string
	PackagePrice valueobject.Money
	DueDay       int
	InstalledAt  time.Time
}

// NewCustomer creates a new customer
func NewCustomer(p CustomerProfile) (*Customer, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	c := &Customer{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	c.apply(p)
	return c, nil
}

// UpdateProfile replaces the editable fields.
func (c *Customer) UpdateProfile(p CustomerProfile) error {
	if err := p.validate(); err != nil {
		return err
	}
	c.apply(p)
	c.Touch()
	return nil
}

// AddCredit increases the credit balance.
func (c *Customer) AddCredit(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount cannot be negative")
	}
	c.CreditBalance += amount
	return nil
}

// UseCredit consumes part of the credit balance.
func (c *Customer) UseCredit(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount cannot be negative")
	}
	if amount > c.CreditBalance {
		return shared.NewDomainError("INSUFFICIENT_CREDIT", "Credit balance is lower than the amount requested")
	}
	c.CreditBalance -= amount
	return nil
}

// IsBillable reports whether the monthly job should invoice this customer.
func (c *Customer) IsBillable() bool {
	return c.PackagePrice.IsPositive()
}

func (c *Customer) apply(p CustomerProfile) {
	c.Name = strings.TrimSpace(p.Name)
	c.Phone = strings.TrimSpace(p.Phone)
	c.Address = strings.TrimSpace(p.Address)
	c.PackageTier = strings.TrimSpace(p.PackageTier)
	c.PackagePrice = p.PackagePrice
	c.DueDay = p.DueDay
	c.InstalledAt = p.InstalledAt
}

func (p CustomerProfile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(p.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	if p.PackagePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PACKAGE_PRICE", "Package price cannot be negative")
	}
	if p.DueDay < MinDueDay || p.DueDay > MaxDueDay {
		return shared.NewDomainError("INVALID_DUE_DAY", "Due day must be between 1 and 31")
	}
	if p.InstalledAt.IsZero() {
		return shared.NewDomainError("INVALID_INSTALLATION_DATE", "Installation date is required")
	}
	return nil
}
