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
	"github.com/spec-kit/workorder-engine/internal/observability"
	"github.com/spec-kit/workorder-engine/internal/repository"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

const minRejectReasonLen = 10

// allowedTransitions is the lifecycle adjacency graph. setStatus bypasses it.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusSubmitted:  {domain.TicketStatusInProgress, domain.TicketStatusRejected},
	domain.TicketStatusInProgress: {domain.TicketStatusCompleted, domain.TicketStatusOnHold},
	domain.TicketStatusOnHold:     {domain.TicketStatusInProgress},
	domain.TicketStatusCompleted:  {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
	domain.TicketStatusRejected:   {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// WorkOrderService validates and applies ticket lifecycle transitions.
type WorkOrderService struct {
	tickets    repository.TicketRepository
	approvals  repository.ApprovalRepository
	incidents  repository.IncidentRepository
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        func() time.Time
}

// WorkOrderDependencies bundles collaborators for the service.
type WorkOrderDependencies struct {
	TicketRepo   repository.TicketRepository
	ApprovalRepo repository.ApprovalRepository
	IncidentRepo repository.IncidentRepository
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
}

// NewWorkOrderService constructs the service.
func NewWorkOrderService(deps WorkOrderDependencies) *WorkOrderService {
	return &WorkOrderService{
		tickets:    deps.TicketRepo,
		approvals:  deps.ApprovalRepo,
		incidents:  deps.IncidentRepo,
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	CategoryID  string
	Location    string
	AssetID     *string
	Priority    domain.TicketPriority
	IsEmergency bool
	AssignedTo  *string
}

// CloseInput carries optional closure fields.
type CloseInput struct {
	Cost  *float64
	Notes *string
}

// CreateTicket creates a work order, spawning an emergency incident when flagged.
func (s *WorkOrderService) CreateTicket(ctx context.Context, tenantID string, actor auth.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if input.CategoryID == "" {
		return nil, apperrors.NewValidationError("category_id required", nil)
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	category, err := s.categories.GetByID(ctx, tenantID, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewConflict("category inactive", map[string]any{"category_id": category.ID})
	}

	ticket := &domain.Ticket{
		TenantID:    tenantID,
		ExternalKey: generateWorkOrderKey(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CategoryID:  input.CategoryID,
		Location:    strings.TrimSpace(input.Location),
		AssetID:     input.AssetID,
		Priority:    input.Priority,
		Status:      domain.TicketStatusSubmitted,
		IsEmergency: input.IsEmergency,
		SubmittedBy: actor.ID,
		AssignedTo:  input.AssignedTo,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if ticket.IsEmergency {
		incident := &domain.EmergencyIncident{
			TenantID: tenantID,
			TicketID: ticket.ID,
			Severity: domain.SeverityForPriority(ticket.Priority),
		}
		if err := s.incidents.Create(ctx, incident); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TenantID: tenantID,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCreatedPayload{
			CategoryID:  ticket.CategoryID,
			Priority:    ticket.Priority,
			IsEmergency: ticket.IsEmergency,
			Title:       ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket within the tenant.
func (s *WorkOrderService) GetTicket(ctx context.Context, tenantID, ticketID string) (*domain.Ticket, error) {
	return s.fetch(ctx, tenantID, ticketID)
}

// ListTickets returns tickets matching the filter within the tenant.
func (s *WorkOrderService) ListTickets(ctx context.Context, tenantID string, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, tenantID, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Acknowledge records first response on a submitted ticket. The primary status
// does not change; the timestamp suppresses escalation. Re-acknowledging is a
// no-op so the first timestamp is never overwritten.
func (s *WorkOrderService) Acknowledge(ctx context.Context, tenantID string, actor auth.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, auth.ActionAcknowledge, ticket); err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusSubmitted {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusSubmitted))
	}
	if ticket.Acknowledged() {
		return ticket, nil
	}
	now := s.now()
	ticket.AcknowledgedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// StartWork moves a submitted ticket into progress.
func (s *WorkOrderService) StartWork(ctx context.Context, tenantID string, actor auth.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, auth.ActionStartWork, ticket); err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusInProgress) || ticket.Status != domain.TicketStatusSubmitted {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusInProgress))
	}
	now := s.now()
	ticket.StartedAt = &now
	return s.applyTransition(ctx, ticket, actor, domain.TicketStatusInProgress, "work started")
}

// Complete moves an in-progress ticket to completed. A pending cost approval
// blocks completion until decided.
func (s *WorkOrderService) Complete(ctx context.Context, tenantID string, actor auth.Actor, ticketID string, actualCost *float64) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(actor, auth.ActionComplete, ticket); err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusCompleted) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusCompleted))
	}

	approval, err := s.approvals.GetActiveByTicket(ctx, tenantID, ticketID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if approval != nil {
		if approval.Status == domain.ApprovalStatusPending {
			return nil, apperrors.NewConflict("completion blocked by pending cost approval",
				map[string]any{"approval_id": approval.ID})
		}
		if actualCost != nil {
			approval.ActualCost = actualCost
			if err := s.approvals.Update(ctx, approval); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
	}

	now := s.now()
	ticket.CompletedAt = &now
	return s.applyTransition(ctx, ticket, actor, domain.TicketStatusCompleted, "work completed")
}

// Verify flags a completed ticket as verified. Not a status change.
func (s *WorkOrderService) Verify(ctx context.Context, tenantID string, actor auth.Actor, ticketID string) (*domain.Ticket, error) {
	if !auth.Can(actor.Role, auth.ActionVerify) {
		return nil, apperrors.NewForbidden("verification requires manager or admin role")
	}
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusCompleted {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusCompleted))
	}
	ticket.Verified = true
	actorID := actor.ID
	ticket.VerifiedBy = &actorID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// Close moves a completed ticket to closed. Terminal.
func (s *WorkOrderService) Close(ctx context.Context, tenantID string, actor auth.Actor, ticketID string, input CloseInput) (*domain.Ticket, error) {
	if !auth.Can(actor.Role, auth.ActionClose) {
		return nil, apperrors.NewForbidden("closing requires manager or admin role")
	}
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusClosed) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusClosed))
	}

	if input.Cost != nil {
		approval, err := s.approvals.GetActiveByTicket(ctx, tenantID, ticketID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		if approval != nil && approval.Status == domain.ApprovalStatusApproved {
			approval.ActualCost = input.Cost
			if err := s.approvals.Update(ctx, approval); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
	}
	if input.Notes != nil {
		notes := strings.TrimSpace(*input.Notes)
		if notes != "" {
			ticket.ClosureNotes = &notes
		}
	}

	now := s.now()
	ticket.ClosedAt = &now
	return s.applyTransition(ctx, ticket, actor, domain.TicketStatusClosed, "closed")
}

// Reject declines a submitted ticket. Terminal. Reason is mandatory.
func (s *WorkOrderService) Reject(ctx context.Context, tenantID string, actor auth.Actor, ticketID, reason string) (*domain.Ticket, error) {
	if !auth.Can(actor.Role, auth.ActionReject) {
		return nil, apperrors.NewForbidden("rejection requires manager or admin role")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) < minRejectReasonLen {
		return nil, apperrors.NewValidationError("rejection reason too short",
			map[string]any{"min_length": minRejectReasonLen})
	}
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusRejected) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusRejected))
	}
	now := s.now()
	ticket.RejectedAt = &now
	ticket.RejectReason = &reason
	return s.applyTransition(ctx, ticket, actor, domain.TicketStatusRejected, reason)
}

// Hold pauses an in-progress ticket. Reason is mandatory.
func (s *WorkOrderService) Hold(ctx context.Context, tenantID string, actor auth.Actor, ticketID, reason string) (*domain.Ticket, error) {
	if !auth.Can(actor.Role, auth.ActionHold) {
		return nil, apperrors.NewForbidden("hold requires manager or admin role")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("hold reason required", nil)
	}
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusOnHold) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusOnHold))
	}
	now := s.now()
	ticket.HeldAt = &now
	ticket.HoldReason = &reason
	return s.applyTransition(ctx, ticket, actor, domain.TicketStatusOnHold, reason)
}

// Resume returns an on-hold ticket to in progress.
func (s *WorkOrderService) Resume(ctx context.Context, tenantID string, actor auth.Actor, ticketID string) (*domain.Ticket, error) {
	if !auth.Can(actor.Role, auth.ActionResume) {
		return nil, apperrors.NewForbidden("resume requires manager or admin role")
	}
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusInProgress) || ticket.Status != domain.TicketStatusOnHold {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusInProgress))
	}
	return s.applyTransition(ctx, ticket, actor, domain.TicketStatusInProgress, "resumed")
}

// SetStatus is the privileged correction override. It bypasses the adjacency
// graph but still stamps the timestamps the new status implies, without ever
// clearing a timestamp already set.
func (s *WorkOrderService) SetStatus(ctx context.Context, tenantID string, actor auth.Actor, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if !auth.Can(actor.Role, auth.ActionSetStatus) {
		return nil, apperrors.NewForbidden("status override requires manager or admin role")
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch newStatus {
	case domain.TicketStatusInProgress:
		if ticket.StartedAt == nil {
			ticket.StartedAt = &now
		}
	case domain.TicketStatusOnHold:
		if ticket.HeldAt == nil {
			ticket.HeldAt = &now
		}
	case domain.TicketStatusCompleted:
		if ticket.CompletedAt == nil {
			ticket.CompletedAt = &now
		}
	case domain.TicketStatusClosed:
		if ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
		}
	case domain.TicketStatusRejected:
		if ticket.RejectedAt == nil {
			ticket.RejectedAt = &now
		}
	}
	if comment == "" {
		comment = "status override"
	}
	return s.applyTransition(ctx, ticket, actor, newStatus, comment)
}

// SoftDelete hides a ticket without removing its record.
func (s *WorkOrderService) SoftDelete(ctx context.Context, tenantID string, actor auth.Actor, ticketID string) error {
	if !actor.Role.Supervisory() {
		return apperrors.NewForbidden("deletion requires manager or admin role")
	}
	if err := s.tickets.SoftDelete(ctx, tenantID, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *WorkOrderService) fetch(ctx context.Context, tenantID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, tenantID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// authorizeParticipant allows supervisory roles unconditionally and other
// roles only when they submitted the ticket or are assigned to it.
func (s *WorkOrderService) authorizeParticipant(actor auth.Actor, action auth.Action, ticket *domain.Ticket) error {
	if !auth.Can(actor.Role, action) {
		return apperrors.NewForbidden("role not permitted for action")
	}
	if actor.Role.Supervisory() {
		return nil
	}
	if ticket.SubmittedBy == actor.ID {
		return nil
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo == actor.ID {
		return nil
	}
	return apperrors.NewForbidden("only the submitter or assignee may perform this action")
}

func (s *WorkOrderService) applyTransition(ctx context.Context, ticket *domain.Ticket, actor auth.Actor, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTransition(string(oldStatus), string(newStatus))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TenantID: ticket.TenantID,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

func (s *WorkOrderService) publishEvent(ctx context.Context, event events.Event) {
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

func eventActor(actor auth.Actor) events.Actor {
	role := actor.Role
	return events.Actor{ActorID: actor.ID, Role: &role}
}

func generateWorkOrderKey() string {
	return "WO-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
