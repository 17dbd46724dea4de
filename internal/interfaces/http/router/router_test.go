package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	financeapp "github.com/ispbill/backend/internal/application/finance"
	reportapp "github.com/ispbill/backend/internal/application/report"
	"github.com/ispbill/backend/internal/infrastructure/cache"
	"github.com/ispbill/backend/internal/infrastructure/config"
	"github.com/ispbill/backend/internal/infrastructure/persistence"
	"github.com/ispbill/backend/internal/infrastructure/storage"
	"github.com/ispbill/backend/internal/interfaces/http/handler"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
	"github.com/ispbill/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, now time.Time) *testServer {
	t.Helper()

	db, err := persistence.Open(sqlite.Open(":memory:"), &config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	settings := billingapp.DefaultSettings()
	settings.Now = func() time.Time { return now }
	log := zap.NewNop()

	customers := persistence.NewGormCustomerRepository(db.DB)
	invoices := persistence.NewGormInvoiceRepository(db.DB)
	payments := persistence.NewGormPaymentRepository(db.DB)
	expenses := persistence.NewGormExpenseRepository(db.DB)
	incomes := persistence.NewGormOtherIncomeRepository(db.DB)
	locker := cache.NewInMemoryLocker()

	summary := reportapp.NewSummaryService(reportapp.Sources{
		Customers: customers,
		Invoices:  invoices,
		Payments:  payments,
		Expenses:  expenses,
		Incomes:   incomes,
	}, persistence.NewGormSummaryRepository(db.DB), cache.NewInMemorySummaryCache(time.Hour), log,
		reportapp.WithSettings(settings), reportapp.WithLocker(locker))

	billingOpts := []billingapp.Option{
		billingapp.WithSettings(settings),
		billingapp.WithLocker(locker),
		billingapp.WithCacheInvalidator(summary),
	}
	customerService := billingapp.NewCustomerService(customers, invoices, payments, log, billingOpts...)
	invoiceService := billingapp.NewInvoiceService(customers, invoices, log, billingOpts...)
	paymentService := billingapp.NewPaymentService(customers, invoices, payments, log, billingOpts...)
	archiveService := billingapp.NewArchiveService(invoices, payments, persistence.NewGormArchiveRepository(db.DB),
		storage.NewLocalArchiveStore(t.TempDir()), log, billingOpts...)
	financeService := financeapp.NewExpenseIncomeService(expenses, incomes, log,
		financeapp.WithSettings(settings), financeapp.WithCacheInvalidator(summary))

	engine, err := router.NewEngine(router.EngineConfig{
		MaxBodySize: 1 << 20,
		CORS:        middleware.DefaultCORSConfig(),
		Logger:      log,
	})
	require.NoError(t, err)

	health := handler.NewHealthHandler(db)
	engine.GET("/health", health.Health)

	r := router.NewRouter(engine)
	r.Register(health).
		Register(handler.NewCustomerHandler(customerService, settings.Location)).
		Register(handler.NewInvoiceHandler(invoiceService)).
		Register(handler.NewPaymentHandler(paymentService)).
		Register(handler.NewExpenseIncomeHandler(financeService)).
		Register(handler.NewReportHandler(summary, settings.Location)).
		Register(handler.NewArchiveHandler(archiveService)).
		Register(handler.NewJobHandler(nil, nil))
	r.Setup()

	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestRouter_BillingFlow(t *testing.T) {
	loc := billingapp.DefaultLocation()
	srv := newTestServer(t, time.Date(2026, time.March, 20, 10, 0, 0, 0, loc))

	w, env := srv.do(http.MethodPost, "/api/v1/customers", map[string]any{
		"name":          "Budi",
		"phone":         "0812",
		"package_tier":  "10 Mbps",
		"package_price": 150000,
		"due_day":       10,
		"installed_at":  "2026-01-05T00:00:00+07:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	customer := decode[struct {
		ID            string `json:"id"`
		CreditBalance int64  `json:"credit_balance"`
	}](t, env.Data)
	require.NotEmpty(t, customer.ID)

	w, env = srv.do(http.MethodPost, "/api/v1/invoices/generate", map[string]string{"period": "2026-03"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	gen := decode[billingapp.GenerationResponse](t, env.Data)
	assert.Equal(t, "2026-03", gen.Period)
	assert.Equal(t, 1, gen.Created)

	// a second run over the same period creates nothing
	w, env = srv.do(http.MethodPost, "/api/v1/invoices/generate", map[string]string{"period": "2026-03"})
	require.Equal(t, http.StatusOK, w.Code)
	gen = decode[billingapp.GenerationResponse](t, env.Data)
	assert.Equal(t, 0, gen.Created)
	require.Len(t, gen.Skipped, 1)
	assert.Equal(t, "already_billed", gen.Skipped[0].Reason)

	w, env = srv.do(http.MethodGet, "/api/v1/invoices?customer_id="+customer.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[[]struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}](t, env.Data)
	require.Len(t, list, 1)
	assert.Equal(t, "unpaid", list[0].Status)
	assert.Equal(t, int64(150000), list[0].Amount)
	invoiceID := list[0].ID

	w, env = srv.do(http.MethodPost, "/api/v1/payments/quote", map[string]any{
		"customer_id": customer.ID,
		"invoice_ids": []string{invoiceID},
		"paid":        200000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode[struct {
		TotalBill    int64 `json:"total_bill"`
		TotalPayment int64 `json:"total_payment"`
		Change       int64 `json:"change"`
	}](t, env.Data)
	assert.Equal(t, int64(150000), quote.TotalBill)
	assert.Equal(t, int64(150000), quote.TotalPayment)
	assert.Equal(t, int64(50000), quote.Change)

	w, env = srv.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"customer_id": customer.ID,
		"invoice_ids": []string{invoiceID},
		"paid":        150000,
		"method":      "cash",
		"paid_at":     "2026-03-15T10:00:00+07:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	payment := decode[struct {
		ID           string `json:"id"`
		TotalPayment int64  `json:"total_payment"`
	}](t, env.Data)
	assert.Equal(t, int64(150000), payment.TotalPayment)

	w, _ = srv.do(http.MethodGet, "/api/v1/payments/"+payment.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = srv.do(http.MethodGet, "/api/v1/customers/"+customer.ID+"/statement?as_of=2026-03-20", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	statement := decode[struct {
		Lines            []struct{ Status string } `json:"lines"`
		TotalOutstanding int64                     `json:"total_outstanding"`
	}](t, env.Data)
	require.Len(t, statement.Lines, 1)
	assert.Equal(t, "paid", statement.Lines[0].Status)
	assert.Zero(t, statement.TotalOutstanding)

	w, _ = srv.do(http.MethodPost, "/api/v1/incomes", map[string]any{
		"name":   "Router rental",
		"amount": 50000,
		"date":   "2026-03-02T09:00:00+07:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = srv.do(http.MethodPost, "/api/v1/expenses", map[string]any{
		"name":     "Cable",
		"category": "other",
		"amount":   30000,
		"date":     "2026-03-03T09:00:00+07:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = srv.do(http.MethodPost, "/api/v1/summary/recompute?as_of=2026-03-20", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode[struct {
		Global struct {
			PaymentIncome int64 `json:"payment_income"`
			OtherIncome   int64 `json:"other_income"`
			Income        int64 `json:"income"`
			Expense       int64 `json:"expense"`
			Balance       int64 `json:"balance"`
		} `json:"global"`
		CustomerCount int `json:"customer_count"`
	}](t, env.Data)
	assert.Equal(t, int64(150000), summary.Global.PaymentIncome)
	assert.Equal(t, int64(50000), summary.Global.OtherIncome)
	assert.Equal(t, int64(200000), summary.Global.Income)
	assert.Equal(t, int64(30000), summary.Global.Expense)
	assert.Equal(t, int64(170000), summary.Global.Balance)
	assert.Equal(t, 1, summary.CustomerCount)

	w, env = srv.do(http.MethodGet, "/api/v1/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)

	w, _ = srv.do(http.MethodGet, "/api/v1/reports/monthly?month=2026-03", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_Errors(t *testing.T) {
	loc := billingapp.DefaultLocation()
	srv := newTestServer(t, time.Date(2026, time.March, 20, 10, 0, 0, 0, loc))

	t.Run("unknown route", func(t *testing.T) {
		w, env := srv.do(http.MethodGet, "/api/v1/nothing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		w, env := srv.do(http.MethodPost, "/api/v1/customers", map[string]any{
			"name":         "Sari",
			"due_day":      40,
			"installed_at": "2026-01-05T00:00:00+07:00",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w, env := srv.do(http.MethodGet, "/api/v1/customers/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("missing customer", func(t *testing.T) {
		w, env := srv.do(http.MethodGet, "/api/v1/customers/7d1f0e4a-3c55-4f0b-9a51-0d7c2b7b9e10", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("future monthly report", func(t *testing.T) {
		w, env := srv.do(http.MethodGet, "/api/v1/reports/monthly?month=2027-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_PERIOD", env.Error.Code)
	})

	t.Run("scheduler disabled", func(t *testing.T) {
		w, env := srv.do(http.MethodPost, "/api/v1/jobs/summary_refresh", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "SCHEDULER_DISABLED", env.Error.Code)

		w, env = srv.do(http.MethodGet, "/api/v1/jobs", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(env.Data))
	})
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, time.Now())

	for _, path := range []string{"/health", "/api/v1/health"} {
		w, env := srv.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.True(t, env.Success, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), path)
	}
}

func TestRouter_APIVersion(t *testing.T) {
	engine := gin.New()
	r := router.NewRouter(engine, router.WithAPIVersion("v2"))
	r.Register(handler.NewHealthHandler(okPinger{}))
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }
