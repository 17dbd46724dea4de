package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// ExpenseModel is the persistence model for the Expense aggregate root.
// Rows without a date are recurring templates.
type ExpenseModel struct {
	AggregateModel
	Name       string                  `gorm:"type:varchar(200);not null"`
	Category   finance.ExpenseCategory `gorm:"type:varchar(20);not null;index"`
	Amount     int64                   `gorm:"not null"`
	DueDay     int                     `gorm:"not null;default:0"`
	Date       *time.Time              `gorm:"index"`
	Tenor      int                     `gorm:"not null;default:0"`
	PaidTenor  int                     `gorm:"not null;default:0"`
	TemplateID *uuid.UUID              `gorm:"type:uuid;index"`
	Note       string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense entity.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Category:          m.Category,
		Amount:            valueobject.Money(m.Amount),
		DueDay:            m.DueDay,
		Date:              m.Date,
		Tenor:             m.Tenor,
		PaidTenor:         m.PaidTenor,
		TemplateID:        m.TemplateID,
		Note:              m.Note,
	}
}

// ExpenseModelFromDomain creates a persistence model from a domain Expense entity.
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		Name:       e.Name,
		Category:   e.Category,
		Amount:     e.Amount.Int64(),
		DueDay:     e.DueDay,
		Date:       e.Date,
		Tenor:      e.Tenor,
		PaidTenor:  e.PaidTenor,
		TemplateID: e.TemplateID,
		Note:       e.Note,
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	return m
}

// OtherIncomeModel is the persistence model for the OtherIncome aggregate root.
type OtherIncomeModel struct {
	AggregateModel
	Name   string     `gorm:"type:varchar(200);not null"`
	Amount int64      `gorm:"not null"`
	Date   *time.Time `gorm:"index"`
	Note   string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OtherIncomeModel) TableName() string {
	return "other_incomes"
}

// ToDomain converts the persistence model to a domain OtherIncome entity.
func (m *OtherIncomeModel) ToDomain() *finance.OtherIncome {
	return &finance.OtherIncome{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Amount:            valueobject.Money(m.Amount),
		Date:              timeValue(m.Date),
		Note:              m.Note,
	}
}

// OtherIncomeModelFromDomain creates a persistence model from a domain OtherIncome entity.
func OtherIncomeModelFromDomain(i *finance.OtherIncome) *OtherIncomeModel {
	m := &OtherIncomeModel{
		Name:   i.Name,
		Amount: i.Amount.Int64(),
		Date:   timePtr(i.Date),
		Note:   i.Note,
	}
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	return m
}

// ExpensesToDomain converts expense rows to domain entities
func ExpensesToDomain(rows []ExpenseModel) []finance.Expense {
	return toDomainSlice(rows, (*ExpenseModel).ToDomain)
}

// OtherIncomesToDomain converts income rows to domain entities
func OtherIncomesToDomain(rows []OtherIncomeModel) []finance.OtherIncome {
	return toDomainSlice(rows, (*OtherIncomeModel).ToDomain)
}
