package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared/valueobject"
)

// ===================== Customer =====================

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	Phone             string            `json:"phone,omitempty"`
	Address           string            `json:"address,omitempty"`
	PackageTier       string            `json:"package_tier,omitempty"`
	PackagePrice      valueobject.Money `json:"package_price"`
	PackagePriceLabel string            `json:"package_price_label"`
	DueDay            int               `json:"due_day"`
	InstalledAt       time.Time         `json:"installed_at"`
	CreditBalance     valueobject.Money `json:"credit_balance"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Version           int               `json:"version"`
}

// CustomerRequest represents a request to create or update a customer
type CustomerRequest struct {
	Name         string            `json:"name" binding:"required,max=200"`
	Phone        string            `json:"phone" binding:"omitempty,max=50"`
	Address      string            `json:"address" binding:"omitempty,max=500"`
	PackageTier  string            `json:"package_tier" binding:"omitempty,max=100"`
	PackagePrice valueobject.Money `json:"package_price" binding:"gte=0"`
	DueDay       int               `json:"due_day" binding:"required,dueday"`
	InstalledAt  time.Time         `json:"installed_at" binding:"required"`
}

// CustomerListFilter defines filtering options for customer list queries
type CustomerListFilter struct {
	Search      string `form:"search"`
	PackageTier string `form:"package_tier"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func (r CustomerRequest) profile() billing.CustomerProfile {
	return billing.CustomerProfile{
		Name:         r.Name,
		Phone:        r.Phone,
		Address:      r.Address,
		PackageTier:  r.PackageTier,
		PackagePrice: r.PackagePrice,
		DueDay:       r.DueDay,
		InstalledAt:  r.InstalledAt,
	}
}

func toCustomerResponse(c *billing.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                c.ID,
		Name:              c.Name,
		Phone:             c.Phone,
		Address:           c.Address,
		PackageTier:       c.PackageTier,
		PackagePrice:      c.PackagePrice,
		PackagePriceLabel: c.PackagePrice.Format(),
		DueDay:            c.DueDay,
		InstalledAt:       c.InstalledAt,
		CreditBalance:     c.CreditBalance,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		Version:           c.Version,
	}
}

// ===================== Invoice =====================

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID         uuid.UUID         `json:"id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	Period     string            `json:"period"`
	IssueDate  time.Time         `json:"issue_date"`
	DueDate    time.Time         `json:"due_date"`
	Amount     valueobject.Money `json:"amount"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Period     string `form:"period"`
	Status     string `form:"status" binding:"omitempty,oneof=paid unpaid"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GenerateInvoicesRequest asks for the invoices of one billing period.
// An empty period means the current month.
type GenerateInvoicesRequest struct {
	Period string `json:"period"`
}

// SkippedCustomerResponse is a customer left out of a generation run
type SkippedCustomerResponse struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason"`
}

// GenerationResponse reports the outcome of a generation run
type GenerationResponse struct {
	Period  string                    `json:"period"`
	Planned int                       `json:"planned"`
	Created int                       `json:"created"`
	Skipped []SkippedCustomerResponse `json:"skipped"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:         inv.ID,
		CustomerID: inv.CustomerID,
		Period:     inv.Period.String(),
		IssueDate:  inv.IssueDate,
		DueDate:    inv.DueDate,
		Amount:     inv.Amount,
		Status:     inv.Status.String(),
		CreatedAt:  inv.CreatedAt,
	}
}

// ===================== Payment =====================

// QuotePaymentRequest describes a collection before it is recorded
type QuotePaymentRequest struct {
	CustomerID   uuid.UUID         `json:"customer_id" binding:"required"`
	InvoiceIDs   []uuid.UUID       `json:"invoice_ids" binding:"required,min=1,dive,required"`
	Discount     valueobject.Money `json:"discount" binding:"gte=0"`
	Paid         valueobject.Money `json:"paid" binding:"gte=0"`
	UseCredit    bool              `json:"use_credit"`
	AllowPartial bool              `json:"allow_partial"`
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	QuotePaymentRequest
	Method         string     `json:"method" binding:"required,paymentmethod"`
	PaidAt         *time.Time `json:"paid_at"`
	ChangeToCredit bool       `json:"change_to_credit"`
	Note           string     `json:"note" binding:"omitempty,max=500"`
}

// QuoteLine is one selected invoice in a quote
type QuoteLine struct {
	InvoiceID uuid.UUID         `json:"invoice_id"`
	Period    string            `json:"period"`
	Amount    valueobject.Money `json:"amount"`
	Remaining valueobject.Money `json:"remaining"`
}

// QuoteResponse is the computed breakdown of a collection
type QuoteResponse struct {
	CustomerID    uuid.UUID         `json:"customer_id"`
	Lines         []QuoteLine       `json:"lines"`
	TotalBill     valueobject.Money `json:"total_bill"`
	Discount      valueobject.Money `json:"discount"`
	CreditApplied valueobject.Money `json:"credit_applied"`
	AmountDue     valueobject.Money `json:"amount_due"`
	TotalPayment  valueobject.Money `json:"total_payment"`
	Paid          valueobject.Money `json:"paid"`
	Change        valueobject.Money `json:"change"`
	Partial       bool              `json:"partial"`
	CreditBalance valueobject.Money `json:"credit_balance"`
}

// ApplicationResponse is the portion of a payment applied to one invoice
type ApplicationResponse struct {
	InvoiceID uuid.UUID         `json:"invoice_id"`
	Amount    valueobject.Money `json:"amount"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID             `json:"id"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	PaidAt        time.Time             `json:"paid_at"`
	Method        string                `json:"method"`
	InvoiceIDs    []uuid.UUID           `json:"invoice_ids"`
	TotalBill     valueobject.Money     `json:"total_bill"`
	Discount      valueobject.Money     `json:"discount"`
	CreditApplied valueobject.Money     `json:"credit_applied"`
	TotalPayment  valueobject.Money     `json:"total_payment"`
	PaidAmount    valueobject.Money     `json:"paid_amount"`
	ChangeAmount  valueobject.Money     `json:"change_amount"`
	Note          string                `json:"note,omitempty"`
	Legacy        bool                  `json:"legacy,omitempty"`
	Applied       []ApplicationResponse `json:"applied,omitempty"`
	CreditBalance *valueobject.Money    `json:"credit_balance,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Method     string `form:"method" binding:"omitempty,paymentmethod"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		CustomerID:    p.CustomerID,
		PaidAt:        p.PaidAt,
		Method:        p.Method.String(),
		InvoiceIDs:    p.InvoiceIDs,
		TotalBill:     p.TotalBill,
		Discount:      p.Discount,
		CreditApplied: p.CreditApplied,
		TotalPayment:  p.TotalPayment,
		PaidAmount:    p.PaidAmount,
		ChangeAmount:  p.ChangeAmount,
		Note:          p.Note,
		Legacy:        !p.HasTotalPayment,
		CreatedAt:     p.CreatedAt,
	}
}

func toApplicationResponses(apps []billing.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, ApplicationResponse{InvoiceID: a.InvoiceID, Amount: a.Amount})
	}
	return out
}

// ===================== Statement =====================

// StatementLineResponse is one invoice on a statement
type StatementLineResponse struct {
	InvoiceID uuid.UUID         `json:"invoice_id"`
	Period    string            `json:"period"`
	IssueDate time.Time         `json:"issue_date"`
	DueDate   time.Time         `json:"due_date"`
	Amount    valueobject.Money `json:"amount"`
	Paid      valueobject.Money `json:"paid"`
	Remaining valueobject.Money `json:"remaining"`
	Status    string            `json:"status"`
	Overdue   bool              `json:"overdue"`
	InArrears bool              `json:"in_arrears"`
}

// StatementPaymentResponse is one payment on a statement
type StatementPaymentResponse struct {
	PaymentID     uuid.UUID             `json:"payment_id"`
	PaidAt        time.Time             `json:"paid_at"`
	Method        string                `json:"method"`
	Distributable valueobject.Money     `json:"distributable"`
	Applied       []ApplicationResponse `json:"applied"`
	Unapplied     valueobject.Money     `json:"unapplied"`
}

// RejectedRecordResponse is a record left out of the allocation
type RejectedRecordResponse struct {
	Kind   string    `json:"kind"`
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// StatementResponse is the account view of one customer
type StatementResponse struct {
	CustomerID          uuid.UUID                  `json:"customer_id"`
	CustomerName        string                     `json:"customer_name"`
	AsOf                time.Time                  `json:"as_of"`
	Lines               []StatementLineResponse    `json:"lines"`
	Payments            []StatementPaymentResponse `json:"payments"`
	TotalInvoiced       valueobject.Money          `json:"total_invoiced"`
	TotalPaidToInvoices valueobject.Money          `json:"total_paid_to_invoices"`
	TotalOutstanding    valueobject.Money          `json:"total_outstanding"`
	TotalArrears        valueobject.Money          `json:"total_arrears"`
	TotalUnapplied      valueobject.Money          `json:"total_unapplied"`
	CreditBalance       valueobject.Money          `json:"credit_balance"`
	Rejected            []RejectedRecordResponse   `json:"rejected,omitempty"`
}

func toStatementResponse(c *billing.Customer, st *billing.Statement) *StatementResponse {
	resp := &StatementResponse{
		CustomerID:          st.CustomerID,
		CustomerName:        c.Name,
		AsOf:                st.AsOf,
		Lines:               make([]StatementLineResponse, 0, len(st.Lines)),
		Payments:            make([]StatementPaymentResponse, 0, len(st.Payments)),
		TotalInvoiced:       st.TotalInvoiced,
		TotalPaidToInvoices: st.TotalPaidToInvoices,
		TotalOutstanding:    st.TotalOutstanding,
		TotalArrears:        st.TotalArrears,
		TotalUnapplied:      st.TotalUnapplied,
		CreditBalance:       st.CreditBalance,
	}
	for _, l := range st.Lines {
		resp.Lines = append(resp.Lines, StatementLineResponse{
			InvoiceID: l.InvoiceID,
			Period:    l.Period.String(),
			IssueDate: l.IssueDate,
			DueDate:   l.DueDate,
			Amount:    l.Amount,
			Paid:      l.Paid,
			Remaining: l.Remaining,
			Status:    l.Status.String(),
			Overdue:   l.Overdue,
			InArrears: l.InArrears,
		})
	}
	for _, p := range st.Payments {
		resp.Payments = append(resp.Payments, StatementPaymentResponse{
			PaymentID:     p.PaymentID,
			PaidAt:        p.PaidAt,
			Method:        p.Method.String(),
			Distributable: p.Distributable,
			Applied:       toApplicationResponses(p.Applied),
			Unapplied:     p.Unapplied,
		})
	}
	for _, r := range st.Rejected {
		resp.Rejected = append(resp.Rejected, RejectedRecordResponse{
			Kind:   string(r.Kind),
			ID:     r.ID,
			Reason: r.Reason,
		})
	}
	return resp
}

// ===================== Archive =====================

// ArchiveRequest asks for an archive run. AsOf defaults to now.
type ArchiveRequest struct {
	AsOf *time.Time `json:"as_of"`
}

// ArchiveResponse reports the outcome of an archive run
type ArchiveResponse struct {
	Cutoff   time.Time `json:"cutoff"`
	Key      string    `json:"key,omitempty"`
	Invoices int       `json:"invoices"`
	// Payments counts the payments exported with the invoices; they are not deleted
	Payments int `json:"payments"`
}
