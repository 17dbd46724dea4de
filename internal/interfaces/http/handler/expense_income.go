package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/ispbill/backend/internal/application/finance"
	"github.com/ispbill/backend/internal/interfaces/http/dto"
)

// ExpenseIncomeHandler handles expense and other income endpoints
type ExpenseIncomeHandler struct {
	BaseHandler
	service *financeapp.ExpenseIncomeService
}

// NewExpenseIncomeHandler creates a new ExpenseIncomeHandler
func NewExpenseIncomeHandler(service *financeapp.ExpenseIncomeService) *ExpenseIncomeHandler {
	return &ExpenseIncomeHandler{service: service}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ExpenseIncomeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	expenses := rg.Group("/expenses")
	expenses.POST("", h.CreateExpense)
	expenses.GET("", h.ListExpenses)
	expenses.GET("/:id", h.GetExpense)
	expenses.POST("/:id/pay", h.PayExpense)
	expenses.DELETE("/:id", h.DeleteExpense)

	incomes := rg.Group("/incomes")
	incomes.POST("", h.CreateIncome)
	incomes.GET("", h.ListIncomes)
	incomes.GET("/:id", h.GetIncome)
	incomes.DELETE("/:id", h.DeleteIncome)
}

// ===================== Expenses =====================

// CreateExpense handles POST /expenses. Without a date the expense is a
// recurring template.
func (h *ExpenseIncomeHandler) CreateExpense(c *gin.Context) {
	var req financeapp.CreateExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.CreateExpense(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListExpenses handles GET /expenses
func (h *ExpenseIncomeHandler) ListExpenses(c *gin.Context) {
	var filter financeapp.ExpenseListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page := dto.PageParams{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	filter.Page, filter.PageSize = page.Page, page.PageSize

	expenses, total, err := h.service.ListExpenses(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, expenses, total, page.Page, page.PageSize)
}

// GetExpense handles GET /expenses/:id
func (h *ExpenseIncomeHandler) GetExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PayExpense handles POST /expenses/:id/pay
func (h *ExpenseIncomeHandler) PayExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req financeapp.PayExpenseRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.service.PayExpense(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// DeleteExpense handles DELETE /expenses/:id
func (h *ExpenseIncomeHandler) DeleteExpense(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteExpense(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ===================== Other incomes =====================

// CreateIncome handles POST /incomes
func (h *ExpenseIncomeHandler) CreateIncome(c *gin.Context) {
	var req financeapp.CreateIncomeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.CreateIncome(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListIncomes handles GET /incomes
func (h *ExpenseIncomeHandler) ListIncomes(c *gin.Context) {
	var filter financeapp.IncomeListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page := dto.PageParams{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	filter.Page, filter.PageSize = page.Page, page.PageSize

	incomes, total, err := h.service.ListIncomes(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, incomes, total, page.Page, page.PageSize)
}

// GetIncome handles GET /incomes/:id
func (h *ExpenseIncomeHandler) GetIncome(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetIncome(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteIncome handles DELETE /incomes/:id
func (h *ExpenseIncomeHandler) DeleteIncome(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteIncome(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
