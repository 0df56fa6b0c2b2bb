package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-engine/internal/api/dto"
	"github.com/spec-kit/workorder-engine/internal/auth"
	"github.com/spec-kit/workorder-engine/internal/service"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

// SchedulesHandler exposes PM schedule configuration.
type SchedulesHandler struct {
	service *service.SchedulerService
}

// NewSchedulesHandler constructs handler.
func NewSchedulesHandler(schedulerService *service.SchedulerService) *SchedulesHandler {
	return &SchedulesHandler{service: schedulerService}
}

// CreateSchedule POST /schedules.
func (h *SchedulesHandler) CreateSchedule(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	schedule, err := h.service.CreateSchedule(c.UserContext(), principal.TenantID, principal.Actor, scheduleInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromSchedule(schedule)})
}

// UpdateSchedule PUT /schedules/:id.
func (h *SchedulesHandler) UpdateSchedule(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	schedule, err := h.service.UpdateSchedule(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"), scheduleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromSchedule(schedule)})
}

// GetSchedule GET /schedules/:id.
func (h *SchedulesHandler) GetSchedule(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	schedule, err := h.service.GetSchedule(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromSchedule(schedule)})
}

func scheduleInput(req dto.ScheduleRequest) service.ScheduleInput {
	input := service.ScheduleInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Location:    req.Location,
		AssetID:     req.AssetID,
		Frequency:   req.Frequency,
		AssignedTo:  req.AssignedTo,
		IsActive:    true,
	}
	if req.NextDueDate != nil {
		input.NextDueDate = *req.NextDueDate
	} else {
		input.NextDueDate = time.Time{}
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}
	return input
}
