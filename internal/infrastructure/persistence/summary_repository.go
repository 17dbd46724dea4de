package persistence

import (
	"context"

	"github.com/ispbill/backend/internal/domain/report"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSummaryRepository implements report.SummaryRepository. Only the most
// recent summary is kept.
type GormSummaryRepository struct {
	db *gorm.DB
}

// NewGormSummaryRepository creates a new GormSummaryRepository
func NewGormSummaryRepository(db *gorm.DB) *GormSummaryRepository {
	return &GormSummaryRepository{db: db}
}

// Save replaces the stored summary
func (r *GormSummaryRepository) Save(ctx context.Context, summary *report.SummaryReport) error {
	model := models.FinancialSummaryModelFromDomain(summary)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Latest returns the stored summary or shared.ErrNotFound
func (r *GormSummaryRepository) Latest(ctx context.Context) (*report.SummaryReport, error) {
	var model models.FinancialSummaryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", models.LatestSummaryID).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}
