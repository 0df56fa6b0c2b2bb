package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workorder-engine/internal/auth"
	"github.com/spec-kit/workorder-engine/internal/domain"
	"github.com/spec-kit/workorder-engine/internal/events"
	"github.com/spec-kit/workorder-engine/internal/repository"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

// ApprovalService runs the cost sign-off gate attached to tickets.
type ApprovalService struct {
	approvals  repository.ApprovalRepository
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// ApprovalDependencies bundles collaborators for the service.
type ApprovalDependencies struct {
	ApprovalRepo repository.ApprovalRepository
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
}

// NewApprovalService constructs the service.
func NewApprovalService(deps ApprovalDependencies) *ApprovalService {
	return &ApprovalService{
		approvals:  deps.ApprovalRepo,
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// RequestApproval opens a pending cost approval for a ticket. Fails when an
// active (pending or approved) request already gates it; a prior denial does
// not block, the re-request creates a fresh record.
func (s *ApprovalService) RequestApproval(ctx context.Context, tenantID string, actor auth.Actor, ticketID string, estimatedCost float64, notes *string) (*domain.CostApproval, error) {
	if !auth.Can(actor.Role, auth.ActionRequestApproval) {
		return nil, apperrors.NewForbidden("role not permitted for action")
	}
	if estimatedCost <= 0 {
		return nil, apperrors.NewValidationError("estimated cost must be positive", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, tenantID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewConflict("ticket already closed", map[string]any{"status": ticket.Status})
	}

	existing, err := s.approvals.GetActiveByTicket(ctx, tenantID, ticketID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflict("an active approval request already exists",
			map[string]any{"approval_id": existing.ID, "status": existing.Status})
	}

	approval := &domain.CostApproval{
		TenantID:      tenantID,
		TicketID:      ticketID,
		EstimatedCost: estimatedCost,
		Status:        domain.ApprovalStatusPending,
		Notes:         notes,
		RequestedBy:   actor.ID,
	}
	if err := s.approvals.Create(ctx, approval); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventApprovalRequested,
		TenantID: tenantID,
		TicketID: ticketID,
		Actor:    eventActor(actor),
		Payload: events.ApprovalRequestedPayload{
			ApprovalID:    approval.ID,
			EstimatedCost: approval.EstimatedCost,
		},
	})
	return approval, nil
}

// ApproveRequest signs off a pending approval. Approving a request already
// decided fails.
func (s *ApprovalService) ApproveRequest(ctx context.Context, tenantID string, actor auth.Actor, approvalID string) (*domain.CostApproval, error) {
	if !auth.Can(actor.Role, auth.ActionApproveRequest) {
		return nil, apperrors.NewForbidden("approval requires manager or admin role")
	}
	approval, err := s.fetch(ctx, tenantID, approvalID)
	if err != nil {
		return nil, err
	}
	if approval.Status != domain.ApprovalStatusPending {
		return nil, apperrors.NewConflict("approval request already decided",
			map[string]any{"status": approval.Status})
	}

	now := s.now()
	actorID := actor.ID
	approval.Status = domain.ApprovalStatusApproved
	approval.ApprovedBy = &actorID
	approval.DecidedAt = &now
	if err := s.approvals.Update(ctx, approval); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishDecision(ctx, actor, approval)
	return approval, nil
}

// DenyRequest declines a pending approval. Reason is mandatory.
func (s *ApprovalService) DenyRequest(ctx context.Context, tenantID string, actor auth.Actor, approvalID, reason string) (*domain.CostApproval, error) {
	if !auth.Can(actor.Role, auth.ActionDenyRequest) {
		return nil, apperrors.NewForbidden("denial requires manager or admin role")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("denial reason required", nil)
	}
	approval, err := s.fetch(ctx, tenantID, approvalID)
	if err != nil {
		return nil, err
	}
	if approval.Status != domain.ApprovalStatusPending {
		return nil, apperrors.NewConflict("approval request already decided",
			map[string]any{"status": approval.Status})
	}

	now := s.now()
	actorID := actor.ID
	approval.Status = domain.ApprovalStatusDenied
	approval.ApprovedBy = &actorID
	approval.DenialReason = &reason
	approval.DecidedAt = &now
	if err := s.approvals.Update(ctx, approval); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishDecision(ctx, actor, approval)
	return approval, nil
}

// RequiresApproval is the advisory threshold check callers perform before
// requesting the gate: true when the ticket category defines a threshold and
// the estimate meets or exceeds it.
func (s *ApprovalService) RequiresApproval(ctx context.Context, tenantID, categoryID string, estimate float64) (bool, error) {
	category, err := s.categories.GetByID(ctx, tenantID, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
		}
		return false, apperrors.MapError(err)
	}
	return category.RequiresApproval(estimate), nil
}

// ListForTicket returns the full approval history of a ticket.
func (s *ApprovalService) ListForTicket(ctx context.Context, tenantID, ticketID string) ([]domain.CostApproval, error) {
	approvals, err := s.approvals.ListByTicket(ctx, tenantID, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return approvals, nil
}

func (s *ApprovalService) fetch(ctx context.Context, tenantID, approvalID string) (*domain.CostApproval, error) {
	approval, err := s.approvals.GetByID(ctx, tenantID, approvalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("approval", map[string]any{"approval_id": approvalID})
		}
		return nil, apperrors.MapError(err)
	}
	return approval, nil
}

func (s *ApprovalService) publishDecision(ctx context.Context, actor auth.Actor, approval *domain.CostApproval) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventApprovalDecided,
		TenantID: approval.TenantID,
		TicketID: approval.TicketID,
		Actor:    eventActor(actor),
		Payload: events.ApprovalDecidedPayload{
			ApprovalID:   approval.ID,
			Status:       approval.Status,
			DenialReason: approval.DenialReason,
		},
	})
}

func (s *ApprovalService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
