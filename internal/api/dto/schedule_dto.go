package dto

import (
	"time"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// ScheduleRequest payload for create and update.
type ScheduleRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	CategoryID  string             `json:"category_id"`
	Location    string             `json:"location"`
	AssetID     *string            `json:"asset_id"`
	Frequency   domain.PMFrequency `json:"frequency"`
	NextDueDate *time.Time         `json:"next_due_date"`
	AssignedTo  *string            `json:"assigned_to"`
	IsActive    *bool              `json:"is_active"`
}

// ScheduleResponse wire representation.
type ScheduleResponse struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	CategoryID      string             `json:"category_id"`
	Location        string             `json:"location"`
	AssetID         *string            `json:"asset_id,omitempty"`
	Frequency       domain.PMFrequency `json:"frequency"`
	NextDueDate     time.Time          `json:"next_due_date"`
	LastGeneratedAt *time.Time         `json:"last_generated_at,omitempty"`
	AssignedTo      *string            `json:"assigned_to,omitempty"`
	IsActive        bool               `json:"is_active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// FromSchedule maps a domain schedule to its response shape.
func FromSchedule(s *domain.PMSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		CategoryID:      s.CategoryID,
		Location:        s.Location,
		AssetID:         s.AssetID,
		Frequency:       s.Frequency,
		NextDueDate:     s.NextDueDate,
		LastGeneratedAt: s.LastGeneratedAt,
		AssignedTo:      s.AssignedTo,
		IsActive:        s.IsActive,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
