package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"gorm.io/datatypes"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	AggregateModel
	Name          string     `gorm:"type:varchar(200);not null;index"`
	Phone         string     `gorm:"type:varchar(50)"`
	Address       string     `gorm:"type:text"`
	PackageTier   string     `gorm:"type:varchar(100);not null;index"`
	PackagePrice  int64      `gorm:"not null"`
	DueDay        int        `gorm:"not null"`
	InstalledAt   *time.Time `gorm:"index"`
	CreditBalance int64      `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *billing.Customer {
	return &billing.Customer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Phone:             m.Phone,
		Address:           m.Address,
		PackageTier:       m.PackageTier,
		PackagePrice:      valueobject.Money(m.PackagePrice),
		DueDay:            m.DueDay,
		InstalledAt:       timeValue(m.InstalledAt),
		CreditBalance:     valueobject.Money(m.CreditBalance),
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *billing.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:          c.Name,
		Phone:         c.Phone,
		Address:       c.Address,
		PackageTier:   c.PackageTier,
		PackagePrice:  c.PackagePrice.Int64(),
		DueDay:        c.DueDay,
		InstalledAt:   timePtr(c.InstalledAt),
		CreditBalance: c.CreditBalance.Int64(),
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
// A customer has at most one invoice per period.
type InvoiceModel struct {
	AggregateModel
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_invoice_customer_period,priority:1"`
	Period     string     `gorm:"type:varchar(7);not null;uniqueIndex:idx_invoice_customer_period,priority:2;index"`
	IssueDate  *time.Time `gorm:"index"`
	DueDate    *time.Time
	Amount     int64                 `gorm:"not null"`
	Status     billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'unpaid';index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
// A stored period that does not parse falls back to the issue date's month.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	period, err := billing.ParsePeriod(m.Period)
	if err != nil && m.IssueDate != nil {
		period = billing.PeriodOf(*m.IssueDate)
	}
	return &billing.Invoice{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CustomerID:        m.CustomerID,
		Period:            period,
		IssueDate:         timeValue(m.IssueDate),
		DueDate:           timeValue(m.DueDate),
		Amount:            valueobject.Money(m.Amount),
		Status:            m.Status,
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		CustomerID: inv.CustomerID,
		Period:     inv.Period.String(),
		IssueDate:  timePtr(inv.IssueDate),
		DueDate:    timePtr(inv.DueDate),
		Amount:     inv.Amount.Int64(),
		Status:     inv.Status,
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	return m
}

// PaymentModel is the persistence model for the Payment entity.
// TotalPayment is NULL for legacy records that only carry the paid amount.
type PaymentModel struct {
	BaseModel
	CustomerID    uuid.UUID                      `gorm:"type:uuid;not null;index"`
	PaidAt        *time.Time                     `gorm:"index"`
	Method        billing.PaymentMethod          `gorm:"type:varchar(20);not null;index"`
	InvoiceIDs    datatypes.JSONSlice[uuid.UUID] `gorm:"not null"`
	TotalBill     int64                          `gorm:"not null;default:0"`
	Discount      int64                          `gorm:"not null;default:0"`
	CreditApplied int64                          `gorm:"not null;default:0"`
	TotalPayment  *int64
	PaidAmount    int64  `gorm:"not null;default:0"`
	ChangeAmount  int64  `gorm:"not null;default:0"`
	Note          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		BaseEntity:    m.BaseModel.ToDomain(),
		CustomerID:    m.CustomerID,
		PaidAt:        timeValue(m.PaidAt),
		Method:        m.Method,
		InvoiceIDs:    append([]uuid.UUID(nil), m.InvoiceIDs...),
		TotalBill:     valueobject.Money(m.TotalBill),
		Discount:      valueobject.Money(m.Discount),
		CreditApplied: valueobject.Money(m.CreditApplied),
		PaidAmount:    valueobject.Money(m.PaidAmount),
		ChangeAmount:  valueobject.Money(m.ChangeAmount),
		Note:          m.Note,
	}
	if m.TotalPayment != nil {
		p.TotalPayment = valueobject.Money(*m.TotalPayment)
		p.HasTotalPayment = true
	}
	return p
}

// PaymentModelFromDomain creates a persistence model from a domain Payment entity.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	ids := p.InvoiceIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	m := &PaymentModel{
		CustomerID:    p.CustomerID,
		PaidAt:        timePtr(p.PaidAt),
		Method:        p.Method,
		InvoiceIDs:    datatypes.JSONSlice[uuid.UUID](ids),
		TotalBill:     p.TotalBill.Int64(),
		Discount:      p.Discount.Int64(),
		CreditApplied: p.CreditApplied.Int64(),
		PaidAmount:    p.PaidAmount.Int64(),
		ChangeAmount:  p.ChangeAmount.Int64(),
		Note:          p.Note,
	}
	if p.HasTotalPayment {
		total := p.TotalPayment.Int64()
		m.TotalPayment = &total
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// toDomainSlice converts a slice of models with a ToDomain method
func toDomainSlice[M any, D any](rows []M, conv func(*M) *D) []D {
	out := make([]D, len(rows))
	for i := range rows {
		out[i] = *conv(&rows[i])
	}
	return out
}

// CustomersToDomain converts customer rows to domain entities
func CustomersToDomain(rows []CustomerModel) []billing.Customer {
	return toDomainSlice(rows, (*CustomerModel).ToDomain)
}

// InvoicesToDomain converts invoice rows to domain entities
func InvoicesToDomain(rows []InvoiceModel) []billing.Invoice {
	return toDomainSlice(rows, (*InvoiceModel).ToDomain)
}

// PaymentsToDomain converts payment rows to domain entities
func PaymentsToDomain(rows []PaymentModel) []billing.Payment {
	return toDomainSlice(rows, (*PaymentModel).ToDomain)
}
