package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-engine/internal/api/dto"
	"github.com/spec-kit/workorder-engine/internal/auth"
	"github.com/spec-kit/workorder-engine/internal/service"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

// EmergenciesHandler exposes incident containment and resolution.
type EmergenciesHandler struct {
	service *service.EmergencyService
}

// NewEmergenciesHandler constructs handler.
func NewEmergenciesHandler(emergencyService *service.EmergencyService) *EmergenciesHandler {
	return &EmergenciesHandler{service: emergencyService}
}

// GetIncident GET /tickets/:id/incident.
func (h *EmergenciesHandler) GetIncident(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	incident, err := h.service.GetIncident(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncident(incident)})
}

// Contain POST /tickets/:id/incident/contain.
func (h *EmergenciesHandler) Contain(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	incident, err := h.service.ContainEmergency(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncident(incident)})
}

// Resolve POST /tickets/:id/incident/resolve.
func (h *EmergenciesHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ResolveEmergencyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	incident, err := h.service.ResolveEmergency(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromIncident(incident)})
}
