package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
)

// CustomerFilter defines filtering options for customer queries
type CustomerFilter struct {
	shared.Filter
	PackageTier string
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindAll returns one page of customers and the total count
	FindAll(ctx context.Context, filter CustomerFilter) ([]Customer, int64, error)

	// ListAll returns every customer, for billing runs and reports
	ListAll(ctx context.Context) ([]Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Period     *Period
	Status     *InvoiceStatus
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindAll returns one page of invoices and the total count
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, int64, error)

	// FindByIDs loads the given invoices; missing IDs are left out
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Invoice, error)

	// ListByCustomer returns the full invoice history of a customer
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Invoice, error)

	// ListByPeriod returns the invoices issued for a billing period
	ListByPeriod(ctx context.Context, period Period) ([]Invoice, error)

	// ListAll returns every invoice
	ListAll(ctx context.Context) ([]Invoice, error)

	// SaveBatch inserts new invoices; an invoice whose customer already has
	// one for the same period is skipped. Returns the number inserted.
	SaveBatch(ctx context.Context, invoices []*Invoice) (int, error)

	// UpdateStatuses writes back cached statuses
	UpdateStatuses(ctx context.Context, changes []StatusChange) error
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Method     *PaymentMethod
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindAll returns one page of payments and the total count
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, int64, error)

	// ListByCustomer returns every payment of a customer
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Payment, error)

	// ListAll returns every payment
	ListAll(ctx context.Context) ([]Payment, error)

	// Record stores a new payment together with the customer's updated credit
	// balance in one transaction
	Record(ctx context.Context, payment *Payment, customer *Customer) error
}

// ArchiveRepository removes archived records
type ArchiveRepository interface {
	// DeleteBatch deletes the invoices of a batch in one transaction. The
	// batch's payments stay in place.
	DeleteBatch(ctx context.Context, batch *ArchiveBatch) error
}
