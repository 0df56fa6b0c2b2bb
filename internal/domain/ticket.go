package domain

import "time"

// TicketStatus enumerates lifecycle states for work orders.
type TicketStatus string

const (
	TicketStatusSubmitted  TicketStatus = "SUBMITTED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusRejected   TicketStatus = "REJECTED"
)

// Valid reports whether the status is a known value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusSubmitted, TicketStatusInProgress, TicketStatusOnHold,
		TicketStatusCompleted, TicketStatusClosed, TicketStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves this status.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed || s == TicketStatusRejected
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Valid reports whether the priority is a known value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for maintenance work orders.
type Ticket struct {
	ID          string
	TenantID    string
	ExternalKey string
	Title       string
	Description string
	CategoryID  string
	Location    string
	AssetID     *string
	Priority    TicketPriority
	Status      TicketStatus
	IsEmergency bool
	SubmittedBy string
	AssignedTo  *string

	Verified     bool
	VerifiedBy   *string
	ClosureNotes *string
	HoldReason   *string
	RejectReason *string

	AcknowledgedAt *time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	ClosedAt       *time.Time
	RejectedAt     *time.Time
	HeldAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Acknowledged reports whether the ticket has been responded to.
func (t *Ticket) Acknowledged() bool {
	return t.AcknowledgedAt != nil
}
