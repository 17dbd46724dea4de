package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormArchiveRepository implements billing.ArchiveRepository using GORM
type GormArchiveRepository struct {
	db *gorm.DB
}

// NewGormArchiveRepository creates a new GormArchiveRepository
func NewGormArchiveRepository(db *gorm.DB) *GormArchiveRepository {
	return &GormArchiveRepository{db: db}
}

// DeleteBatch removes the batch's invoices. Payments are never deleted: they
// carry the lifetime income, and with their targets gone they allocate nothing.
func (r *GormArchiveRepository) DeleteBatch(ctx context.Context, batch *billing.ArchiveBatch) error {
	if batch == nil || batch.IsEmpty() {
		return nil
	}
	invoiceIDs := make([]uuid.UUID, len(batch.Invoices))
	for i := range batch.Invoices {
		invoiceIDs[i] = batch.Invoices[i].ID
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("id IN ?", invoiceIDs).Delete(&models.InvoiceModel{}).Error
	})
}
