package report

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/finance"
	"github.com/ispbill/backend/internal/domain/report"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

// Mock implementations

type mockSummaryRepository struct {
	mock.Mock
}

func (m *mockSummaryRepository) Save(ctx context.Context, summary *report.SummaryReport) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *mockSummaryRepository) Latest(ctx context.Context) (*report.SummaryReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.SummaryReport), args.Error(1)
}

type mockSummaryCache struct {
	mock.Mock
}

func (m *mockSummaryCache) Get(ctx context.Context) (*report.SummaryReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.SummaryReport), args.Error(1)
}

func (m *mockSummaryCache) Set(ctx context.Context, summary *report.SummaryReport) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *mockSummaryCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockInvoiceRepository struct {
	billing.InvoiceRepository
	mock.Mock
}

func (m *mockInvoiceRepository) ListAll(ctx context.Context) ([]billing.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) UpdateStatuses(ctx context.Context, changes []billing.StatusChange) error {
	args := m.Called(ctx, changes)
	return args.Error(0)
}

// The read-only sources only need ListAll; other methods panic if reached.

type stubCustomers struct {
	billing.CustomerRepository
	items []billing.Customer
	err   error
}

func (s stubCustomers) ListAll(context.Context) ([]billing.Customer, error) {
	return s.items, s.err
}

type stubPayments struct {
	billing.PaymentRepository
	items []billing.Payment
}

func (s stubPayments) ListAll(context.Context) ([]billing.Payment, error) {
	return s.items, nil
}

type stubExpenses struct {
	finance.ExpenseRepository
	items []finance.Expense
}

func (s stubExpenses) ListAll(context.Context) ([]finance.Expense, error) {
	return s.items, nil
}

type stubIncomes struct {
	finance.OtherIncomeRepository
	items []finance.OtherIncome
}

func (s stubIncomes) ListAll(context.Context) ([]finance.OtherIncome, error) {
	return s.items, nil
}

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

type recordingMetrics struct {
	runs     int
	excluded int
	lastErr  error
}

func (m *recordingMetrics) RecordSummaryRun(_ context.Context, _ time.Duration, excluded int, err error) {
	m.runs++
	m.excluded = excluded
	m.lastErr = err
}

// Test fixtures

var jakarta = time.FixedZone("WIB", 7*60*60)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, jakarta)
}

func settingsAt(now time.Time) billingapp.Settings {
	return billingapp.Settings{
		Location:               jakarta,
		CountAdjustments:       true,
		ArchiveRetentionMonths: 12,
		Now:                    func() time.Time { return now },
	}
}

// fixture is one customer billed 100.000 in January and February 2026
// with January paid in full. Both invoices still carry the unpaid status.
type fixture struct {
	customer billing.Customer
	january  billing.Invoice
	february billing.Invoice
	payment  billing.Payment
}

func newFixture() fixture {
	c, err := billing.NewCustomer(billing.CustomerProfile{
		Name:         "Budi",
		PackageTier:  "10 Mbps",
		PackagePrice: 100000,
		DueDay:       10,
		InstalledAt:  date(2025, time.December, 1),
	})
	if err != nil {
		panic(err)
	}
	jan := mustInvoice(c.ID, date(2026, time.January, 1), 100000)
	feb := mustInvoice(c.ID, date(2026, time.February, 1), 100000)
	p, err := billing.NewPayment(c.ID, date(2026, time.January, 8), billing.PaymentMethodCash, []uuid.UUID{jan.ID}, billing.Settlement{
		TotalBill:    100000,
		AmountDue:    100000,
		TotalPayment: 100000,
		Paid:         100000,
	})
	if err != nil {
		panic(err)
	}
	return fixture{customer: *c, january: *jan, february: *feb, payment: *p}
}

func mustInvoice(customerID uuid.UUID, issue time.Time, amount valueobject.Money) *billing.Invoice {
	inv, err := billing.NewInvoice(customerID, issue, issue.AddDate(0, 0, 9), amount)
	if err != nil {
		panic(err)
	}
	return inv
}

func (f fixture) sources(invoices *mockInvoiceRepository) Sources {
	return Sources{
		Customers: stubCustomers{items: []billing.Customer{f.customer}},
		Invoices:  invoices,
		Payments:  stubPayments{items: []billing.Payment{f.payment}},
		Expenses:  stubExpenses{},
		Incomes: stubIncomes{items: []finance.OtherIncome{
			{Name: "Router rental", Amount: 50000, Date: date(2026, time.March, 2)},
		}},
	}
}

type stubGenerator struct {
	result *billingapp.GenerationResponse
	err    error
	period billing.Period
}

func (g *stubGenerator) GenerateMonthly(_ context.Context, period billing.Period) (*billingapp.GenerationResponse, error) {
	g.period = period
	return g.result, g.err
}

type stubArchiver struct {
	err  error
	asOf time.Time
}

func (a *stubArchiver) RunArchive(_ context.Context, req billingapp.ArchiveRequest) (*billingapp.ArchiveResponse, error) {
	if req.AsOf != nil {
		a.asOf = *req.AsOf
	}
	if a.err != nil {
		return nil, a.err
	}
	return &billingapp.ArchiveResponse{}, nil
}
