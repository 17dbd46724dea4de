package billing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

// Mock implementations

type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *mockCustomerRepository) FindAll(ctx context.Context, filter billing.CustomerFilter) ([]billing.Customer, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]billing.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *mockCustomerRepository) ListAll(ctx context.Context) ([]billing.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Customer), args.Error(1)
}

func (m *mockCustomerRepository) Save(ctx context.Context, customer *billing.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]billing.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *mockInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) ListByPeriod(ctx context.Context, period billing.Period) ([]billing.Invoice, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) ListAll(ctx context.Context) ([]billing.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) SaveBatch(ctx context.Context, invoices []*billing.Invoice) (int, error) {
	args := m.Called(ctx, invoices)
	return args.Int(0), args.Error(1)
}

func (m *mockInvoiceRepository) UpdateStatuses(ctx context.Context, changes []billing.StatusChange) error {
	args := m.Called(ctx, changes)
	return args.Error(0)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *mockPaymentRepository) FindAll(ctx context.Context, filter billing.PaymentFilter) ([]billing.Payment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]billing.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *mockPaymentRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Payment, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *mockPaymentRepository) ListAll(ctx context.Context) ([]billing.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Payment), args.Error(1)
}

func (m *mockPaymentRepository) Record(ctx context.Context, payment *billing.Payment, customer *billing.Customer) error {
	args := m.Called(ctx, payment, customer)
	return args.Error(0)
}

type mockArchiveRepository struct {
	mock.Mock
}

func (m *mockArchiveRepository) DeleteBatch(ctx context.Context, batch *billing.ArchiveBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// fakeLocker is an in-memory shared.Locker
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, shared.ErrConflict
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

type memoryStore struct {
	objects map[string][]byte
	err     error
}

func (s *memoryStore) PutObject(_ context.Context, key string, body []byte, _ string) error {
	if s.err != nil {
		return s.err
	}
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = body
	return nil
}

// Test fixtures

var jakarta = time.FixedZone("WIB", 7*60*60)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, jakarta)
}

func fixedSettings(now time.Time) Settings {
	return Settings{
		Location:               jakarta,
		CountAdjustments:       true,
		ArchiveRetentionMonths: 12,
		Now:                    func() time.Time { return now },
	}
}

func newTestCustomer(name string, price valueobject.Money, dueDay int) *billing.Customer {
	c, err := billing.NewCustomer(billing.CustomerProfile{
		Name:         name,
		PackageTier:  "10 Mbps",
		PackagePrice: price,
		DueDay:       dueDay,
		InstalledAt:  date(2025, time.January, 5),
	})
	if err != nil {
		panic(err)
	}
	return c
}

func newTestInvoice(customerID uuid.UUID, issue time.Time, amount valueobject.Money) billing.Invoice {
	inv, err := billing.NewInvoice(customerID, issue, issue.AddDate(0, 0, 9), amount)
	if err != nil {
		panic(err)
	}
	return *inv
}

func newTestPayment(customerID uuid.UUID, paidAt time.Time, amount valueobject.Money, invoiceIDs ...uuid.UUID) billing.Payment {
	return billing.Payment{
		BaseEntity:      shared.BaseEntity{ID: uuid.New(), CreatedAt: paidAt, UpdatedAt: paidAt},
		CustomerID:      customerID,
		PaidAt:          paidAt,
		Method:          billing.PaymentMethodCash,
		InvoiceIDs:      invoiceIDs,
		TotalBill:       amount,
		TotalPayment:    amount,
		PaidAmount:      amount,
		HasTotalPayment: true,
	}
}
