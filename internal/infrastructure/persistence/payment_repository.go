package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter billing.PaymentFilter) ([]billing.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(note) LIKE ?", likePattern(filter.Search))
	}

	var rows []models.PaymentModel
	total, err := paginate(query, filter.Filter, PaymentSortFields, &rows)
	if err != nil {
		return nil, 0, err
	}
	return models.PaymentsToDomain(rows), total, nil
}

// ListByCustomer returns a customer's payments in the order they were made
func (r *GormPaymentRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("paid_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.PaymentsToDomain(rows), nil
}

// ListAll returns every payment
func (r *GormPaymentRepository) ListAll(ctx context.Context) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).Order("paid_at ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.PaymentsToDomain(rows), nil
}

// Record inserts the payment and stores the customer's new credit balance in
// one transaction. The customer row must still carry the version it was loaded
// with, otherwise shared.ErrStaleVersion is returned and nothing is written.
func (r *GormPaymentRepository) Record(ctx context.Context, payment *billing.Payment, customer *billing.Customer) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		result := tx.Model(&models.CustomerModel{}).
			Where("id = ? AND version = ?", customer.ID, customer.Version-1).
			Updates(map[string]any{
				"credit_balance": customer.CreditBalance.Int64(),
				"version":        customer.Version,
				"updated_at":     time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrStaleVersion
		}
		return nil
	})
}
