package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/interfaces/http/dto"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	BaseHandler
	service  *billingapp.CustomerService
	location *time.Location
}

// NewCustomerHandler creates a new CustomerHandler. loc is the business
// time zone used to read as_of dates.
func NewCustomerHandler(service *billingapp.CustomerService, loc *time.Location) *CustomerHandler {
	if loc == nil {
		loc = billingapp.DefaultLocation()
	}
	return &CustomerHandler{service: service, location: loc}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/customers")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.GET("/:id/statement", h.Statement)
}

// Create handles POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req billingapp.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	var filter billingapp.CustomerListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page := dto.PageParams{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	filter.Page, filter.PageSize = page.Page, page.PageSize

	customers, total, err := h.service.ListCustomers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, customers, total, page.Page, page.PageSize)
}

// Get handles GET /customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update handles PUT /customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req billingapp.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Statement handles GET /customers/:id/statement?as_of=
func (h *CustomerHandler) Statement(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var q dto.AsOfQuery
	if !h.bindQuery(c, &q) {
		return
	}
	asOf, err := q.Resolve(h.location)
	if err != nil {
		h.BadRequest(c, "as_of must be a date (YYYY-MM-DD) or an RFC 3339 time")
		return
	}
	resp, err := h.service.GetStatement(c.Request.Context(), id, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
