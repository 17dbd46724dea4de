package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements billing.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of customers matching the filter
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter billing.CustomerFilter) ([]billing.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(address) LIKE ?",
			pattern, pattern, pattern)
	}
	if filter.PackageTier != "" {
		query = query.Where("package_tier = ?", filter.PackageTier)
	}

	var rows []models.CustomerModel
	total, err := paginate(query, filter.Filter, CustomerSortFields, &rows)
	if err != nil {
		return nil, 0, err
	}
	return models.CustomersToDomain(rows), total, nil
}

// ListAll returns every customer ordered by name
func (r *GormCustomerRepository) ListAll(ctx context.Context) ([]billing.Customer, error) {
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.CustomersToDomain(rows), nil
}

// Save creates a customer or updates it with an optimistic version check
func (r *GormCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return saveVersioned(r.db.WithContext(ctx), model, customer.ID, customer.Version)
}
