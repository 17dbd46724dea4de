package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ispbill/backend/internal/infrastructure/scheduler"
	"github.com/ispbill/backend/internal/interfaces/http/dto"
)

// JobHistory lists recent scheduler jobs
type JobHistory interface {
	GetJobHistory(limit int) []scheduler.Job
}

// JobTrigger submits a job outside its schedule
type JobTrigger interface {
	TriggerManualRun(jobType scheduler.JobType, period string) (*scheduler.Job, error)
}

const (
	defaultJobHistoryLimit = 20
	maxJobHistoryLimit     = 100
)

// JobHandler exposes the scheduler history and manual triggers. Either
// dependency may be nil when the scheduler is off.
type JobHandler struct {
	BaseHandler
	history JobHistory
	trigger JobTrigger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(history JobHistory, trigger JobTrigger) *JobHandler {
	return &JobHandler{history: history, trigger: trigger}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *JobHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/jobs", h.List)
	rg.POST("/jobs/:type", h.Trigger)
}

// List handles GET /jobs?limit=
func (h *JobHandler) List(c *gin.Context) {
	if h.history == nil {
		h.Success(c, []scheduler.Job{})
		return
	}
	limit := defaultJobHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJobHistoryLimit)
	}
	h.Success(c, h.history.GetJobHistory(limit))
}

// Trigger handles POST /jobs/:type. The type is summary_refresh,
// invoice_generation or archive; invoice generation takes an optional
// {"period": "YYYY-MM"} body.
func (h *JobHandler) Trigger(c *gin.Context) {
	if h.trigger == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeSchedulerDisabled, "Scheduler is disabled")
		return
	}
	jobType := scheduler.JobType(strings.ToUpper(strings.ReplaceAll(c.Param("type"), "-", "_")))
	if !jobType.IsValid() {
		h.BadRequest(c, "Unknown job type "+c.Param("type"))
		return
	}
	var req dto.JobTriggerRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	job, err := h.trigger.TriggerManualRun(jobType, req.Period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, job)
}
