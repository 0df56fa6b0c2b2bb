package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workorder-engine/internal/api/dto"
	"github.com/spec-kit/workorder-engine/internal/auth"
	"github.com/spec-kit/workorder-engine/internal/service"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

// ApprovalsHandler exposes the cost-approval workflow.
type ApprovalsHandler struct {
	service *service.ApprovalService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(approvalService *service.ApprovalService) *ApprovalsHandler {
	return &ApprovalsHandler{service: approvalService}
}

// RequestApproval POST /tickets/:id/approvals.
func (h *ApprovalsHandler) RequestApproval(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RequestApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	approval, err := h.service.RequestApproval(c.UserContext(), principal.TenantID, principal.Actor,
		c.Params("id"), req.EstimatedCost, req.Notes)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromApproval(approval)})
}

// ListApprovals GET /tickets/:id/approvals.
func (h *ApprovalsHandler) ListApprovals(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	approvals, err := h.service.ListForTicket(c.UserContext(), principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ApprovalResponse, 0, len(approvals))
	for i := range approvals {
		items = append(items, dto.FromApproval(&approvals[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ApproveRequest POST /approvals/:id/approve.
func (h *ApprovalsHandler) ApproveRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	approval, err := h.service.ApproveRequest(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromApproval(approval)})
}

// DenyRequest POST /approvals/:id/deny.
func (h *ApprovalsHandler) DenyRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.DenyApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	approval, err := h.service.DenyRequest(c.UserContext(), principal.TenantID, principal.Actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromApproval(approval)})
}

// CheckThreshold GET /categories/:id/approval-check?estimate=1234.50.
func (h *ApprovalsHandler) CheckThreshold(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	estimate, err := strconv.ParseFloat(c.Query("estimate", "0"), 64)
	if err != nil {
		return apperrors.NewValidationError("invalid estimate", nil)
	}
	required, err := h.service.RequiresApproval(c.UserContext(), principal.TenantID, c.Params("id"), estimate)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"approval_required": required}})
}
