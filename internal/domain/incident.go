package domain

import "time"

// IncidentSeverity enumerates emergency severities.
type IncidentSeverity string

const (
	IncidentSeverityHigh     IncidentSeverity = "HIGH"
	IncidentSeverityCritical IncidentSeverity = "CRITICAL"
)

// SeverityForPriority maps the owning ticket's priority to an incident severity.
func SeverityForPriority(p TicketPriority) IncidentSeverity {
	if p == TicketPriorityCritical {
		return IncidentSeverityCritical
	}
	return IncidentSeverityHigh
}

// EmergencyIncident tracks containment and resolution for an emergency ticket.
// It exists only while the owning ticket carries the is_emergency flag.
type EmergencyIncident struct {
	ID              string
	TenantID        string
	TicketID        string
	Severity        IncidentSeverity
	ContainedAt     *time.Time
	ContainedBy     *string
	ResolvedAt      *time.Time
	ResolvedBy      *string
	ResolutionNotes *string
	CreatedAt       time.Time
}
