package events

import (
	"time"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventApprovalRequested   EventType = "approval_requested"
	EventApprovalDecided     EventType = "approval_decided"
	EventEmergencyContained  EventType = "emergency_contained"
	EventEmergencyResolved   EventType = "emergency_resolved"
	EventPMTicketGenerated   EventType = "pm_ticket_generated"
)

// Actor encapsulates actor metadata for an event. System events (the periodic
// sweeps) leave ActorID empty.
type Actor struct {
	ActorID string       `json:"actor_id,omitempty"`
	Role    *domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CategoryID  string                `json:"category_id"`
	Priority    domain.TicketPriority `json:"priority"`
	IsEmergency bool                  `json:"is_emergency"`
	Title       string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Priority     domain.TicketPriority `json:"priority"`
	ElapsedHours int                   `json:"elapsed_hours"`
	Reason       string                `json:"reason"`
}

// ApprovalRequestedPayload payload.
type ApprovalRequestedPayload struct {
	ApprovalID    string  `json:"approval_id"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// ApprovalDecidedPayload payload.
type ApprovalDecidedPayload struct {
	ApprovalID   string                `json:"approval_id"`
	Status       domain.ApprovalStatus `json:"status"`
	DenialReason *string               `json:"denial_reason,omitempty"`
}

// EmergencyPayload payload for contain and resolve events.
type EmergencyPayload struct {
	IncidentID string                  `json:"incident_id"`
	Severity   domain.IncidentSeverity `json:"severity"`
}

// PMTicketGeneratedPayload payload.
type PMTicketGeneratedPayload struct {
	ScheduleID  string    `json:"schedule_id"`
	NextDueDate time.Time `json:"next_due_date"`
}
