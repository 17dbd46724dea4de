package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOtherIncomeRepository implements finance.OtherIncomeRepository using GORM
type GormOtherIncomeRepository struct {
	db *gorm.DB
}

// NewGormOtherIncomeRepository creates a new GormOtherIncomeRepository
func NewGormOtherIncomeRepository(db *gorm.DB) *GormOtherIncomeRepository {
	return &GormOtherIncomeRepository{db: db}
}

// FindByID finds an income record by its ID
func (r *GormOtherIncomeRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.OtherIncome, error) {
	var model models.OtherIncomeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of income records matching the filter
func (r *GormOtherIncomeRepository) FindAll(ctx context.Context, filter finance.OtherIncomeFilter) ([]finance.OtherIncome, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OtherIncomeModel{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(note) LIKE ?", pattern, pattern)
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}

	var rows []models.OtherIncomeModel
	total, err := paginate(query, filter.Filter, OtherIncomeSortFields, &rows)
	if err != nil {
		return nil, 0, err
	}
	return models.OtherIncomesToDomain(rows), total, nil
}

// ListAll returns every income record
func (r *GormOtherIncomeRepository) ListAll(ctx context.Context) ([]finance.OtherIncome, error) {
	var rows []models.OtherIncomeModel
	if err := r.db.WithContext(ctx).Order("date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.OtherIncomesToDomain(rows), nil
}

// Save creates an income record or updates it with an optimistic version check
func (r *GormOtherIncomeRepository) Save(ctx context.Context, income *finance.OtherIncome) error {
	model := models.OtherIncomeModelFromDomain(income)
	return saveVersioned(r.db.WithContext(ctx), model, income.ID, income.Version)
}

// Delete removes an income record
func (r *GormOtherIncomeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.OtherIncomeModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
