package dto

import (
	"time"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// RequestApprovalRequest payload.
type RequestApprovalRequest struct {
	EstimatedCost float64 `json:"estimated_cost"`
	Notes         *string `json:"notes"`
}

// DenyApprovalRequest payload.
type DenyApprovalRequest struct {
	Reason string `json:"reason"`
}

// ApprovalResponse wire representation.
type ApprovalResponse struct {
	ID            string                `json:"id"`
	TicketID      string                `json:"ticket_id"`
	EstimatedCost float64               `json:"estimated_cost"`
	ActualCost    *float64              `json:"actual_cost,omitempty"`
	Status        domain.ApprovalStatus `json:"status"`
	Notes         *string               `json:"notes,omitempty"`
	RequestedBy   string                `json:"requested_by"`
	ApprovedBy    *string               `json:"approved_by,omitempty"`
	DenialReason  *string               `json:"denial_reason,omitempty"`
	RequestedAt   time.Time             `json:"requested_at"`
	DecidedAt     *time.Time            `json:"decided_at,omitempty"`
}

// FromApproval maps a domain approval to its response shape.
func FromApproval(a *domain.CostApproval) ApprovalResponse {
	return ApprovalResponse{
		ID:            a.ID,
		TicketID:      a.TicketID,
		EstimatedCost: a.EstimatedCost,
		ActualCost:    a.ActualCost,
		Status:        a.Status,
		Notes:         a.Notes,
		RequestedBy:   a.RequestedBy,
		ApprovedBy:    a.ApprovedBy,
		DenialReason:  a.DenialReason,
		RequestedAt:   a.RequestedAt,
		DecidedAt:     a.DecidedAt,
	}
}

// ResolveEmergencyRequest payload.
type ResolveEmergencyRequest struct {
	Notes string `json:"notes"`
}

// IncidentResponse wire representation.
type IncidentResponse struct {
	ID              string                  `json:"id"`
	TicketID        string                  `json:"ticket_id"`
	Severity        domain.IncidentSeverity `json:"severity"`
	ContainedAt     *time.Time              `json:"contained_at,omitempty"`
	ResolvedAt      *time.Time              `json:"resolved_at,omitempty"`
	ResolutionNotes *string                 `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// FromIncident maps a domain incident to its response shape.
func FromIncident(i *domain.EmergencyIncident) IncidentResponse {
	return IncidentResponse{
		ID:              i.ID,
		TicketID:        i.TicketID,
		Severity:        i.Severity,
		ContainedAt:     i.ContainedAt,
		ResolvedAt:      i.ResolvedAt,
		ResolutionNotes: i.ResolutionNotes,
		CreatedAt:       i.CreatedAt,
	}
}
