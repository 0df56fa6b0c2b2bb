package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-engine/internal/jobs"
	"github.com/spec-kit/workorder-engine/internal/service"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

// JobsHandler exposes the scheduled-job trigger endpoints. Routes using it are
// guarded by the cron shared-secret middleware, not actor authentication; the
// tenant to sweep comes from the request.
type JobsHandler struct {
	escalation *service.EscalationService
	scheduler  *service.SchedulerService
	lease      *jobs.Lease
}

// NewJobsHandler constructs handler.
func NewJobsHandler(escalation *service.EscalationService, scheduler *service.SchedulerService, lease *jobs.Lease) *JobsHandler {
	return &JobsHandler{escalation: escalation, scheduler: scheduler, lease: lease}
}

// RunEscalation POST /jobs/escalation/run.
func (h *JobsHandler) RunEscalation(c *fiber.Ctx) error {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		return apperrors.NewValidationError("tenant_id required", nil)
	}
	acquired, release, _ := h.lease.Acquire(c.UserContext(), "escalation-sweep:"+tenantID)
	if !acquired {
		return apperrors.NewConflict("escalation sweep already running", nil)
	}
	defer release()

	summary, err := h.escalation.RunSweep(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// RunPMGeneration POST /jobs/pm-generation/run.
func (h *JobsHandler) RunPMGeneration(c *fiber.Ctx) error {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		return apperrors.NewValidationError("tenant_id required", nil)
	}
	acquired, release, _ := h.lease.Acquire(c.UserContext(), "pm-generation-sweep:"+tenantID)
	if !acquired {
		return apperrors.NewConflict("pm generation sweep already running", nil)
	}
	defer release()

	summary, err := h.scheduler.RunSweep(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}
