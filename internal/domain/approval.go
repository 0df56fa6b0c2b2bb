package domain

import "time"

// ApprovalStatus enumerates cost-approval outcomes.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusDenied   ApprovalStatus = "DENIED"
)

// CostApproval is the sign-off gate attached to a ticket. A ticket carries at
// most one active (pending or approved) request; a denial is immutable and a
// re-request creates a new record.
type CostApproval struct {
	ID            string
	TenantID      string
	TicketID      string
	EstimatedCost float64
	ActualCost    *float64
	Status        ApprovalStatus
	Notes         *string
	RequestedBy   string
	ApprovedBy    *string
	DenialReason  *string
	RequestedAt   time.Time
	DecidedAt     *time.Time
}

// Active reports whether this request still gates the ticket.
func (a *CostApproval) Active() bool {
	return a.Status == ApprovalStatusPending || a.Status == ApprovalStatusApproved
}
