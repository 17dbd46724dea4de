package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/ispbill/backend/internal/application/billing"
)

// ArchiveHandler runs archive exports on demand
type ArchiveHandler struct {
	BaseHandler
	service *billingapp.ArchiveService
}

// NewArchiveHandler creates a new ArchiveHandler
func NewArchiveHandler(service *billingapp.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{service: service}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ArchiveHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/archive/run", h.Run)
}

// Run handles POST /archive/run
func (h *ArchiveHandler) Run(c *gin.Context) {
	var req billingapp.ArchiveRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.service.RunArchive(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
