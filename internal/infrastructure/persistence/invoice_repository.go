package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// invoiceInsertBatchSize bounds the rows per INSERT during monthly generation
const invoiceInsertBatchSize = 200

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", filter.Period.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var rows []models.InvoiceModel
	total, err := paginate(query, filter.Filter, InvoiceSortFields, &rows)
	if err != nil {
		return nil, 0, err
	}
	return models.InvoicesToDomain(rows), total, nil
}

// FindByIDs loads the given invoices; unknown IDs are left out
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]billing.Invoice, error) {
	if len(ids) == 0 {
		return []billing.Invoice{}, nil
	}
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("period ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.InvoicesToDomain(rows), nil
}

// ListByCustomer returns a customer's invoices, oldest period first
func (r *GormInvoiceRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("period ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.InvoicesToDomain(rows), nil
}

// ListByPeriod returns the invoices issued for a billing period
func (r *GormInvoiceRepository) ListByPeriod(ctx context.Context, period billing.Period) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("period = ?", period.String()).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.InvoicesToDomain(rows), nil
}

// ListAll returns every invoice
func (r *GormInvoiceRepository) ListAll(ctx context.Context) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).Order("period ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.InvoicesToDomain(rows), nil
}

// SaveBatch inserts new invoices and skips those colliding with an existing
// (customer_id, period) pair. It returns the number of rows inserted.
func (r *GormInvoiceRepository) SaveBatch(ctx context.Context, invoices []*billing.Invoice) (int, error) {
	if len(invoices) == 0 {
		return 0, nil
	}
	rows := make([]*models.InvoiceModel, len(invoices))
	for i, inv := range invoices {
		rows[i] = models.InvoiceModelFromDomain(inv)
	}

	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += invoiceInsertBatchSize {
			end := min(start+invoiceInsertBatchSize, len(rows))
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "customer_id"}, {Name: "period"}},
				DoNothing: true,
			}).Create(rows[start:end])
			if result.Error != nil {
				return result.Error
			}
			inserted += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}

// UpdateStatuses writes back derived statuses, one UPDATE per target status
func (r *GormInvoiceRepository) UpdateStatuses(ctx context.Context, changes []billing.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	byStatus := make(map[billing.InvoiceStatus][]uuid.UUID)
	for _, c := range changes {
		byStatus[c.To] = append(byStatus[c.To], c.InvoiceID)
	}

	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for status, ids := range byStatus {
			if err := tx.Model(&models.InvoiceModel{}).
				Where("id IN ?", ids).
				Updates(map[string]any{"status": status, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
