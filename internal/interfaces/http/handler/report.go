package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	reportapp "github.com/ispbill/backend/internal/application/report"
	"github.com/ispbill/backend/internal/interfaces/http/dto"
)

// ReportHandler serves the financial summary and monthly reports
type ReportHandler struct {
	BaseHandler
	service  *reportapp.SummaryService
	location *time.Location
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *reportapp.SummaryService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = billingapp.DefaultLocation()
	}
	return &ReportHandler{service: service, location: loc}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/summary", h.GetSummary)
	rg.POST("/summary/recompute", h.Recompute)
	rg.GET("/reports/monthly", h.Monthly)
}

// GetSummary handles GET /summary
func (h *ReportHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Recompute handles POST /summary/recompute?as_of=
// A past as_of returns the historical summary without replacing the dashboard.
func (h *ReportHandler) Recompute(c *gin.Context) {
	var q dto.AsOfQuery
	if !h.bindQuery(c, &q) {
		return
	}
	asOf, err := q.Resolve(h.location)
	if err != nil {
		h.BadRequest(c, "as_of must be a date (YYYY-MM-DD) or an RFC 3339 time")
		return
	}
	summary, err := h.service.Recompute(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Monthly handles GET /reports/monthly?month=YYYY-MM
func (h *ReportHandler) Monthly(c *gin.Context) {
	var q dto.MonthQuery
	if !h.bindQuery(c, &q) {
		return
	}
	period, err := q.Period()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	summary, err := h.service.MonthlyReport(c.Request.Context(), period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
