package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of expenses matching the filter
func (r *GormExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(note) LIKE ?", pattern, pattern)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Templates != nil {
		if *filter.Templates {
			query = query.Where("date IS NULL")
		} else {
			query = query.Where("date IS NOT NULL")
		}
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}

	var rows []models.ExpenseModel
	total, err := paginate(query, filter.Filter, ExpenseSortFields, &rows)
	if err != nil {
		return nil, 0, err
	}
	return models.ExpensesToDomain(rows), total, nil
}

// ListAll returns every expense, templates included
func (r *GormExpenseRepository) ListAll(ctx context.Context) ([]finance.Expense, error) {
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.ExpensesToDomain(rows), nil
}

// Save creates an expense or updates it with an optimistic version check
func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	return saveVersioned(r.db.WithContext(ctx), model, expense.ID, expense.Version)
}

// SavePayment inserts the realized copy and advances the template together
func (r *GormExpenseRepository) SavePayment(ctx context.Context, template *finance.Expense, realized *finance.Expense) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.ExpenseModelFromDomain(realized)).Error; err != nil {
			return err
		}
		return saveVersioned(tx, models.ExpenseModelFromDomain(template), template.ID, template.Version)
	})
}

// Delete removes an expense
func (r *GormExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ExpenseModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
