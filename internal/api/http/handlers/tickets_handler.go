package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-engine/internal/api/dto"
	"github.com/spec-kit/workorder-engine/internal/auth"
	"github.com/spec-kit/workorder-engine/internal/domain"
	"github.com/spec-kit/workorder-engine/internal/repository"
	"github.com/spec-kit/workorder-engine/internal/service"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

// TicketsHandler exposes work-order lifecycle endpoints.
type TicketsHandler struct {
	service *service.WorkOrderService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(workOrderService *service.WorkOrderService) *TicketsHandler {
	return &TicketsHandler{service: workOrderService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.CategoryID == "" {
		return apperrors.NewValidationError("title and category_id required", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), principal.TenantID, principal.Actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Location:    req.Location,
		AssetID:     req.AssetID,
		Priority:    req.Priority,
		IsEmergency: req.IsEmergency,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.UserContext(), principal.TenantID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Acknowledge POST /tickets/:id/acknowledge.
func (h *TicketsHandler) Acknowledge(c *fiber.Ctx) error {
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.Acknowledge(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"))
	})
}

// StartWork POST /tickets/:id/start.
func (h *TicketsHandler) StartWork(c *fiber.Ctx) error {
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.StartWork(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"))
	})
}

// Complete POST /tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error {
	var req dto.CompleteRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.Complete(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"), req.ActualCost)
	})
}

// Verify POST /tickets/:id/verify.
func (h *TicketsHandler) Verify(c *fiber.Ctx) error {
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.Verify(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"))
	})
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	var req dto.CloseRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.Close(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"),
			service.CloseInput{Cost: req.Cost, Notes: req.Notes})
	})
}

// Reject POST /tickets/:id/reject.
func (h *TicketsHandler) Reject(c *fiber.Ctx) error {
	var req dto.RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.Reject(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"), req.Reason)
	})
}

// Hold POST /tickets/:id/hold.
func (h *TicketsHandler) Hold(c *fiber.Ctx) error {
	var req dto.HoldRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.Hold(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"), req.Reason)
	})
}

// Resume POST /tickets/:id/resume.
func (h *TicketsHandler) Resume(c *fiber.Ctx) error {
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.Resume(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"))
	})
}

// SetStatus PUT /tickets/:id/status.
func (h *TicketsHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return h.transition(c, func(principal *auth.Principal) (*domain.Ticket, error) {
		return h.service.SetStatus(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"), req.Status, req.Comment)
	})
}

func (h *TicketsHandler) transition(c *fiber.Ctx, apply func(*auth.Principal) (*domain.Ticket, error)) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := apply(principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, raw := range strings.Split(statuses, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(raw)))
			if status.Valid() {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if priorities := c.Query("priority"); priorities != "" {
		for _, raw := range strings.Split(priorities, ",") {
			priority := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(raw)))
			if priority.Valid() {
				filter.Priorities = append(filter.Priorities, priority)
			}
		}
	}
	if submitter := c.Query("submitted_by"); submitter != "" {
		filter.SubmittedBy = &submitter
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if category := c.Query("category_id"); category != "" {
		filter.CategoryID = &category
	}
	if emergency := c.Query("is_emergency"); emergency != "" {
		value := emergency == "true"
		filter.IsEmergency = &value
	}
	return filter
}
