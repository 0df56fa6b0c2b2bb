package dto

import (
	"time"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	CategoryID  string                `json:"category_id"`
	Location    string                `json:"location"`
	AssetID     *string               `json:"asset_id"`
	Priority    domain.TicketPriority `json:"priority"`
	IsEmergency bool                  `json:"is_emergency"`
	AssignedTo  *string               `json:"assigned_to"`
}

// RejectRequest payload.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// HoldRequest payload.
type HoldRequest struct {
	Reason string `json:"reason"`
}

// CompleteRequest payload.
type CompleteRequest struct {
	ActualCost *float64 `json:"actual_cost"`
}

// CloseRequest payload.
type CloseRequest struct {
	Cost  *float64 `json:"cost"`
	Notes *string  `json:"notes"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// TicketResponse is the full wire representation of a work order.
type TicketResponse struct {
	ID             string                `json:"id"`
	ExternalKey    string                `json:"external_key"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	CategoryID     string                `json:"category_id"`
	Location       string                `json:"location"`
	AssetID        *string               `json:"asset_id"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	IsEmergency    bool                  `json:"is_emergency"`
	SubmittedBy    string                `json:"submitted_by"`
	AssignedTo     *string               `json:"assigned_to"`
	Verified       bool                  `json:"verified"`
	ClosureNotes   *string               `json:"closure_notes,omitempty"`
	HoldReason     *string               `json:"hold_reason,omitempty"`
	RejectReason   *string               `json:"reject_reason,omitempty"`
	AcknowledgedAt *time.Time            `json:"acknowledged_at,omitempty"`
	StartedAt      *time.Time            `json:"started_at,omitempty"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`
	ClosedAt       *time.Time            `json:"closed_at,omitempty"`
	RejectedAt     *time.Time            `json:"rejected_at,omitempty"`
	HeldAt         *time.Time            `json:"held_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		ExternalKey:    t.ExternalKey,
		Title:          t.Title,
		Description:    t.Description,
		CategoryID:     t.CategoryID,
		Location:       t.Location,
		AssetID:        t.AssetID,
		Priority:       t.Priority,
		Status:         t.Status,
		IsEmergency:    t.IsEmergency,
		SubmittedBy:    t.SubmittedBy,
		AssignedTo:     t.AssignedTo,
		Verified:       t.Verified,
		ClosureNotes:   t.ClosureNotes,
		HoldReason:     t.HoldReason,
		RejectReason:   t.RejectReason,
		AcknowledgedAt: t.AcknowledgedAt,
		StartedAt:      t.StartedAt,
		CompletedAt:    t.CompletedAt,
		ClosedAt:       t.ClosedAt,
		RejectedAt:     t.RejectedAt,
		HeldAt:         t.HeldAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
