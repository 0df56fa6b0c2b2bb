package domain

import "time"

// Category is maintenance-request classification. A non-nil ApprovalThreshold
// means tickets in this category need a cost approval once the estimate meets
// or exceeds it; the check is advisory and performed by callers before they
// request approval.
type Category struct {
	ID                string
	TenantID          string
	Name              string
	ApprovalThreshold *float64
	IsActive          bool
	CreatedAt         time.Time
}

// RequiresApproval reports whether an estimate crosses the category threshold.
func (c *Category) RequiresApproval(estimate float64) bool {
	return c.ApprovalThreshold != nil && estimate >= *c.ApprovalThreshold
}
