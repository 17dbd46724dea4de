package models

import (
	"time"

	"github.com/ispbill/backend/internal/domain/report"
	"gorm.io/datatypes"
)

// LatestSummaryID is the key of the single stored summary row
const LatestSummaryID = 1

// FinancialSummaryModel stores the most recent dashboard computation.
type FinancialSummaryModel struct {
	ID          uint                                     `gorm:"primaryKey;autoIncrement:false"`
	AsOf        time.Time                                `gorm:"not null"`
	Payload     datatypes.JSONType[report.SummaryReport] `gorm:"not null"`
	LastUpdated time.Time                                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FinancialSummaryModel) TableName() string {
	return "financial_summaries"
}

// ToDomain converts the stored payload to a domain SummaryReport.
func (m *FinancialSummaryModel) ToDomain() *report.SummaryReport {
	s := m.Payload.Data()
	return &s
}

// FinancialSummaryModelFromDomain creates the stored row for a summary.
func FinancialSummaryModelFromDomain(s *report.SummaryReport) *FinancialSummaryModel {
	return &FinancialSummaryModel{
		ID:          LatestSummaryID,
		AsOf:        s.AsOf,
		Payload:     datatypes.NewJSONType(*s),
		LastUpdated: s.LastUpdated,
	}
}
