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

// EmergencyService tracks containment and resolution for emergency tickets,
// layered on top of the primary state machine.
type EmergencyService struct {
	incidents  repository.IncidentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// EmergencyDependencies bundles collaborators for the service.
type EmergencyDependencies struct {
	IncidentRepo repository.IncidentRepository
	TicketRepo   repository.TicketRepository
	Dispatcher   events.Dispatcher
}

// NewEmergencyService constructs the service.
func NewEmergencyService(deps EmergencyDependencies) *EmergencyService {
	return &EmergencyService{
		incidents:  deps.IncidentRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// ContainEmergency marks the incident contained. Work on the ticket continues.
func (s *EmergencyService) ContainEmergency(ctx context.Context, tenantID string, actor auth.Actor, ticketID string) (*domain.EmergencyIncident, error) {
	if !auth.Can(actor.Role, auth.ActionContainEmergency) {
		return nil, apperrors.NewForbidden("containment requires manager or admin role")
	}
	incident, _, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if incident.ResolvedAt != nil {
		return nil, apperrors.NewConflict("incident already resolved", nil)
	}
	if incident.ContainedAt != nil {
		return incident, nil
	}

	now := s.now()
	actorID := actor.ID
	incident.ContainedAt = &now
	incident.ContainedBy = &actorID
	if err := s.incidents.Update(ctx, incident); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventEmergencyContained,
		TenantID: tenantID,
		TicketID: ticketID,
		Actor:    eventActor(actor),
		Payload:  events.EmergencyPayload{IncidentID: incident.ID, Severity: incident.Severity},
	})
	return incident, nil
}

// ResolveEmergency closes out the incident. Notes are mandatory. A ticket
// still submitted or in progress is advanced to completed.
func (s *EmergencyService) ResolveEmergency(ctx context.Context, tenantID string, actor auth.Actor, ticketID, notes string) (*domain.EmergencyIncident, error) {
	if !auth.Can(actor.Role, auth.ActionResolveEmergency) {
		return nil, apperrors.NewForbidden("resolution requires manager or admin role")
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, apperrors.NewValidationError("resolution notes required", nil)
	}
	incident, ticket, err := s.fetch(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if incident.ResolvedAt != nil {
		return nil, apperrors.NewConflict("incident already resolved", nil)
	}

	now := s.now()
	actorID := actor.ID
	incident.ResolvedAt = &now
	incident.ResolvedBy = &actorID
	incident.ResolutionNotes = &notes
	if err := s.incidents.Update(ctx, incident); err != nil {
		return nil, apperrors.MapError(err)
	}

	switch ticket.Status {
	case domain.TicketStatusSubmitted, domain.TicketStatusInProgress:
		if ticket.CompletedAt == nil {
			ticket.CompletedAt = &now
		}
		ticket.Status = domain.TicketStatusCompleted
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventEmergencyResolved,
		TenantID: tenantID,
		TicketID: ticketID,
		Actor:    eventActor(actor),
		Payload:  events.EmergencyPayload{IncidentID: incident.ID, Severity: incident.Severity},
	})
	return incident, nil
}

// GetIncident returns the incident attached to an emergency ticket.
func (s *EmergencyService) GetIncident(ctx context.Context, tenantID, ticketID string) (*domain.EmergencyIncident, error) {
	incident, _, err := s.fetch(ctx, tenantID, ticketID)
	return incident, err
}

func (s *EmergencyService) fetch(ctx context.Context, tenantID, ticketID string) (*domain.EmergencyIncident, *domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, tenantID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !ticket.IsEmergency {
		return nil, nil, apperrors.NewValidationError("ticket is not flagged as emergency",
			map[string]any{"ticket_id": ticketID})
	}
	incident, err := s.incidents.GetByTicket(ctx, tenantID, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("incident", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	return incident, ticket, nil
}

func (s *EmergencyService) publishEvent(ctx context.Context, event events.Event) {
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
