package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-engine/internal/domain"
	"github.com/spec-kit/workorder-engine/internal/events"
	"github.com/spec-kit/workorder-engine/internal/observability"
	"github.com/spec-kit/workorder-engine/internal/repository"
	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

// escalationThresholds maps priority to the maximum time a submitted ticket
// may sit unacknowledged. Emergency tickets use half of these.
var escalationThresholds = map[domain.TicketPriority]time.Duration{
	domain.TicketPriorityCritical: 2 * time.Hour,
	domain.TicketPriorityHigh:     4 * time.Hour,
	domain.TicketPriorityMedium:   8 * time.Hour,
	domain.TicketPriorityLow:      24 * time.Hour,
}

// EscalationResult describes one escalated ticket.
type EscalationResult struct {
	TicketID     string                `json:"ticket_id"`
	ExternalKey  string                `json:"external_key"`
	Priority     domain.TicketPriority `json:"priority"`
	ElapsedHours int                   `json:"elapsed_hours"`
	Reason       string                `json:"reason"`
}

// EscalationSummary is the structured result of one sweep run.
type EscalationSummary struct {
	Processed int                `json:"processed"`
	Escalated int                `json:"escalated"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Results   []EscalationResult `json:"results"`
	Errors    []string           `json:"errors,omitempty"`
}

// EscalationService is the periodic sweep that flags overdue, unacknowledged
// tickets for notification. It never mutates ticket state, so a ticket that
// stays unacknowledged is escalated again on every run.
type EscalationService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	notifier   Notifier
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	sampleSize int
	now        func() time.Time
}

// EscalationDependencies bundles collaborators for the sweep.
type EscalationDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Notifier   Notifier
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	SampleSize int
}

// NewEscalationService constructs the sweep.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	sample := deps.SampleSize
	if sample <= 0 {
		sample = 50
	}
	return &EscalationService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		sampleSize: sample,
		now:        time.Now,
	}
}

// RunSweep scans submitted, unacknowledged tickets in the tenant and notifies
// supervisors about the overdue ones. Per-ticket failures are recorded and do
// not abort the sweep.
func (s *EscalationService) RunSweep(ctx context.Context, tenantID string) (*EscalationSummary, error) {
	now := s.now()
	filter := repository.TicketFilter{
		Statuses:       []domain.TicketStatus{domain.TicketStatusSubmitted},
		Unacknowledged: true,
		Limit:          10000,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, tenantID, filter)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("persistence", err)
	}

	recipients, err := s.supervisors(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &EscalationSummary{Processed: len(tickets)}
	for i := range tickets {
		ticket := &tickets[i]
		elapsed := now.Sub(ticket.CreatedAt)
		if elapsed <= s.thresholdFor(ticket) {
			summary.Skipped++
			continue
		}

		elapsedHours := int(elapsed.Hours())
		reason := fmt.Sprintf("no response for %d hours (priority %s)", elapsedHours, ticket.Priority)

		if err := s.notifier.Notify(ctx, "work order escalation", recipients, map[string]any{
			"ticket_id":     ticket.ID,
			"external_key":  ticket.ExternalKey,
			"priority":      ticket.Priority,
			"elapsed_hours": elapsedHours,
			"reason":        reason,
		}); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("ticket %s: %v", ticket.ID, err))
			s.logger.Warn("escalation notification failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}

		summary.Escalated++
		if len(summary.Results) < s.sampleSize {
			summary.Results = append(summary.Results, EscalationResult{
				TicketID:     ticket.ID,
				ExternalKey:  ticket.ExternalKey,
				Priority:     ticket.Priority,
				ElapsedHours: elapsedHours,
				Reason:       reason,
			})
		}
		s.publishEscalated(ctx, tenantID, ticket, elapsedHours, reason)
	}

	s.metrics.RecordSweep("escalation", "escalated", summary.Escalated)
	s.metrics.RecordSweep("escalation", "skipped", summary.Skipped)
	s.metrics.RecordSweep("escalation", "failed", summary.Failed)
	s.logger.Info("escalation sweep finished",
		zap.String("tenant_id", tenantID),
		zap.Int("processed", summary.Processed),
		zap.Int("escalated", summary.Escalated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *EscalationService) thresholdFor(ticket *domain.Ticket) time.Duration {
	threshold, ok := escalationThresholds[ticket.Priority]
	if !ok {
		threshold = escalationThresholds[domain.TicketPriorityMedium]
	}
	if ticket.IsEmergency {
		threshold /= 2
	}
	return threshold
}

// supervisors returns the deduplicated union of manager- and admin-role users.
func (s *EscalationService) supervisors(ctx context.Context, tenantID string) ([]domain.User, error) {
	users, err := s.users.ListByRoles(ctx, tenantID, domain.RoleManager, domain.RoleAdmin)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("persistence", err)
	}
	seen := make(map[string]struct{}, len(users))
	result := make([]domain.User, 0, len(users))
	for _, user := range users {
		if _, dup := seen[user.ID]; dup {
			continue
		}
		seen[user.ID] = struct{}{}
		result = append(result, user)
	}
	return result, nil
}

func (s *EscalationService) publishEscalated(ctx context.Context, tenantID string, ticket *domain.Ticket, elapsedHours int, reason string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketEscalated,
		TenantID:  tenantID,
		TicketID:  ticket.ID,
		Timestamp: s.now(),
		Payload: events.TicketEscalatedPayload{
			Priority:     ticket.Priority,
			ElapsedHours: elapsedHours,
			Reason:       reason,
		},
	})
}
