package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-engine/internal/auth"
	"github.com/spec-kit/workorder-engine/internal/domain"
	"github.com/spec-kit/workorder-engine/internal/events"
	"github.com/spec-kit/workorder-engine/internal/observability"
	"github.com/spec-kit/workorder-engine/internal/repository"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

// generationWindow is the idempotency window: a schedule that generated within
// it is skipped even if its due date has not advanced past today yet.
const generationWindow = 24 * time.Hour

// GenerationResult describes the outcome for one due schedule.
type GenerationResult struct {
	ScheduleID   string `json:"schedule_id"`
	ScheduleName string `json:"schedule_name"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
	TicketID     string `json:"ticket_id,omitempty"`
}

// GenerationSummary is the structured result of one generator run.
type GenerationSummary struct {
	Processed int                `json:"processed"`
	Generated int                `json:"generated"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Results   []GenerationResult `json:"results"`
	Errors    []string           `json:"errors,omitempty"`
}

// SchedulerService materializes tickets from due PM schedules. Each schedule
// is processed independently; a failure on one never aborts the rest.
type SchedulerService struct {
	schedules  repository.ScheduleRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	workorders *WorkOrderService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	sampleSize int
	now        func() time.Time
}

// SchedulerDependencies bundles collaborators for the generator.
type SchedulerDependencies struct {
	ScheduleRepo repository.ScheduleRepository
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	WorkOrders   *WorkOrderService
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	SampleSize   int
}

// NewSchedulerService constructs the generator.
func NewSchedulerService(deps SchedulerDependencies) *SchedulerService {
	sample := deps.SampleSize
	if sample <= 0 {
		sample = 50
	}
	return &SchedulerService{
		schedules:  deps.ScheduleRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		workorders: deps.WorkOrders,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		sampleSize: sample,
		now:        time.Now,
	}
}

// ScheduleInput describes schedule configuration payload.
type ScheduleInput struct {
	Name        string
	Description string
	CategoryID  string
	Location    string
	AssetID     *string
	Frequency   domain.PMFrequency
	NextDueDate time.Time
	AssignedTo  *string
	IsActive    bool
}

// CreateSchedule registers a new PM schedule. Manager/admin only.
func (s *SchedulerService) CreateSchedule(ctx context.Context, tenantID string, actor auth.Actor, input ScheduleInput) (*domain.PMSchedule, error) {
	if !actor.Role.Supervisory() {
		return nil, apperrors.NewForbidden("schedule configuration requires manager or admin role")
	}
	if input.Name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if !input.Frequency.Valid() {
		return nil, apperrors.NewValidationError("unknown frequency", map[string]any{"frequency": input.Frequency})
	}
	if input.NextDueDate.IsZero() {
		return nil, apperrors.NewValidationError("next_due_date required", nil)
	}

	schedule := &domain.PMSchedule{
		TenantID:    tenantID,
		Name:        input.Name,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Location:    input.Location,
		AssetID:     input.AssetID,
		Frequency:   input.Frequency,
		NextDueDate: input.NextDueDate,
		AssignedTo:  input.AssignedTo,
		IsActive:    input.IsActive,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, apperrors.MapError(err)
	}
	return schedule, nil
}

// UpdateSchedule edits schedule configuration. The due date only moves
// forward; the generator owns backward-looking state.
func (s *SchedulerService) UpdateSchedule(ctx context.Context, tenantID string, actor auth.Actor, scheduleID string, input ScheduleInput) (*domain.PMSchedule, error) {
	if !actor.Role.Supervisory() {
		return nil, apperrors.NewForbidden("schedule configuration requires manager or admin role")
	}
	schedule, err := s.fetchSchedule(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		schedule.Name = input.Name
	}
	if input.Description != "" {
		schedule.Description = input.Description
	}
	if input.CategoryID != "" {
		schedule.CategoryID = input.CategoryID
	}
	if input.Location != "" {
		schedule.Location = input.Location
	}
	if input.AssetID != nil {
		schedule.AssetID = input.AssetID
	}
	if input.Frequency != "" {
		if !input.Frequency.Valid() {
			return nil, apperrors.NewValidationError("unknown frequency", map[string]any{"frequency": input.Frequency})
		}
		schedule.Frequency = input.Frequency
	}
	if !input.NextDueDate.IsZero() {
		if input.NextDueDate.Before(schedule.NextDueDate) {
			return nil, apperrors.NewValidationError("next_due_date cannot move backward",
				map[string]any{"current": schedule.NextDueDate})
		}
		schedule.NextDueDate = input.NextDueDate
	}
	if input.AssignedTo != nil {
		schedule.AssignedTo = input.AssignedTo
	}
	schedule.IsActive = input.IsActive
	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, apperrors.MapError(err)
	}
	return schedule, nil
}

// GetSchedule fetches a schedule within the tenant.
func (s *SchedulerService) GetSchedule(ctx context.Context, tenantID, scheduleID string) (*domain.PMSchedule, error) {
	return s.fetchSchedule(ctx, tenantID, scheduleID)
}

func (s *SchedulerService) fetchSchedule(ctx context.Context, tenantID, scheduleID string) (*domain.PMSchedule, error) {
	schedule, err := s.schedules.GetByID(ctx, tenantID, scheduleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("schedule", map[string]any{"schedule_id": scheduleID})
		}
		return nil, apperrors.MapError(err)
	}
	return schedule, nil
}

// RunSweep processes every active schedule due today or earlier.
func (s *SchedulerService) RunSweep(ctx context.Context, tenantID string) (*GenerationSummary, error) {
	now := s.now()
	year, month, day := now.Date()
	dayEnd := time.Date(year, month, day, 23, 59, 59, 0, now.Location())
	due, err := s.schedules.ListDue(ctx, tenantID, dayEnd)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("persistence", err)
	}

	summary := &GenerationSummary{Processed: len(due)}
	for i := range due {
		result := s.generateForSchedule(ctx, tenantID, &due[i], now)
		switch result.Outcome {
		case "generated":
			summary.Generated++
		case "skipped":
			summary.Skipped++
		default:
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("schedule %s: %s", result.ScheduleID, result.Reason))
		}
		if len(summary.Results) < s.sampleSize {
			summary.Results = append(summary.Results, result)
		}
	}

	s.metrics.RecordSweep("pm_generation", "generated", summary.Generated)
	s.metrics.RecordSweep("pm_generation", "skipped", summary.Skipped)
	s.metrics.RecordSweep("pm_generation", "failed", summary.Failed)
	s.logger.Info("pm generation sweep finished",
		zap.String("tenant_id", tenantID),
		zap.Int("processed", summary.Processed),
		zap.Int("generated", summary.Generated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *SchedulerService) generateForSchedule(ctx context.Context, tenantID string, schedule *domain.PMSchedule, now time.Time) GenerationResult {
	result := GenerationResult{ScheduleID: schedule.ID, ScheduleName: schedule.Name}

	if schedule.LastGeneratedAt != nil && now.Sub(*schedule.LastGeneratedAt) < generationWindow {
		result.Outcome = "skipped"
		result.Reason = "already generated"
		return result
	}
	if schedule.AssignedTo == nil {
		result.Outcome = "skipped"
		result.Reason = "no assigned_to user"
		return result
	}

	assignee, err := s.users.GetByID(ctx, tenantID, *schedule.AssignedTo)
	if err != nil {
		result.Outcome = "failed"
		if errors.Is(err, pgx.ErrNoRows) {
			result.Reason = "assigned user not found"
		} else {
			result.Reason = err.Error()
		}
		return result
	}

	actor := auth.Actor{ID: assignee.ID, Role: assignee.Role}
	ticket, err := s.workorders.CreateTicket(ctx, tenantID, actor, TicketCreateInput{
		Title:       "PM: " + schedule.Name,
		Description: schedule.Description,
		CategoryID:  schedule.CategoryID,
		Location:    schedule.Location,
		AssetID:     schedule.AssetID,
		Priority:    domain.TicketPriorityMedium,
	})
	if err != nil {
		result.Outcome = "failed"
		result.Reason = err.Error()
		return result
	}
	result.TicketID = ticket.ID

	// The schedule update and the ticket insert are separate writes. A failed
	// advance leaves the ticket in place; the 24h window prevents a duplicate
	// on the next run.
	schedule.NextDueDate = schedule.Frequency.Next(schedule.NextDueDate)
	schedule.LastGeneratedAt = &now
	if err := s.schedules.Update(ctx, schedule); err != nil {
		result.Outcome = "failed"
		result.Reason = fmt.Sprintf("ticket %s created but schedule not advanced: %v", ticket.ID, err)
		s.logger.Error("schedule advance failed",
			zap.String("schedule_id", schedule.ID),
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return result
	}

	// Assignment is best-effort: a failure is logged, never rolled back.
	assigneeID := assignee.ID
	ticket.AssignedTo = &assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		s.logger.Warn("generated ticket could not be assigned",
			zap.String("ticket_id", ticket.ID),
			zap.String("assignee_id", assigneeID),
			zap.Error(err))
	}

	s.publishGenerated(ctx, tenantID, schedule, ticket)
	result.Outcome = "generated"
	return result
}

func (s *SchedulerService) publishGenerated(ctx context.Context, tenantID string, schedule *domain.PMSchedule, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPMTicketGenerated,
		TenantID:  tenantID,
		TicketID:  ticket.ID,
		Timestamp: s.now(),
		Payload: events.PMTicketGeneratedPayload{
			ScheduleID:  schedule.ID,
			NextDueDate: schedule.NextDueDate,
		},
	})
}
