package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workorder-engine/internal/domain"
	"github.com/spec-kit/workorder-engine/internal/events"
	"github.com/spec-kit/workorder-engine/internal/observability"
)

type escalationFixture struct {
	service  *EscalationService
	tickets  *fakeTicketRepo
	notifier *recordingNotifier
	recorder *eventRecorder
	clock    time.Time
}

func newEscalationFixture() *escalationFixture {
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo(
		domain.User{ID: "manager-1", TenantID: testTenant, Email: "manager@example.com", Role: domain.RoleManager, IsActive: true},
		domain.User{ID: "admin-1", TenantID: testTenant, Email: "admin@example.com", Role: domain.RoleAdmin, IsActive: true},
	)
	notifier := &recordingNotifier{}
	dispatcher := events.NewInMemoryDispatcher()
	recorder := newEventRecorder(dispatcher)

	fixture := &escalationFixture{
		tickets:  tickets,
		notifier: notifier,
		recorder: recorder,
		clock:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	fixture.service = NewEscalationService(EscalationDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Logger:     testLogger(),
	})
	fixture.service.now = func() time.Time { return fixture.clock }
	return fixture
}

func (f *escalationFixture) seedUnacknowledged(priority domain.TicketPriority, age time.Duration, mutate ...func(*domain.Ticket)) *domain.Ticket {
	ticket := &domain.Ticket{
		TenantID:    testTenant,
		ExternalKey: "WO-SWEEP",
		Title:       "Unattended request",
		CategoryID:  testCategory,
		Priority:    priority,
		Status:      domain.TicketStatusSubmitted,
		SubmittedBy: "user-1",
		CreatedAt:   f.clock.Add(-age),
	}
	for _, fn := range mutate {
		fn(ticket)
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		panic(err)
	}
	return ticket
}

func TestEscalationThresholdBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		priority  domain.TicketPriority
		age       time.Duration
		escalated bool
	}{
		{"critical just over", domain.TicketPriorityCritical, 2*time.Hour + time.Minute, true},
		{"critical just under", domain.TicketPriorityCritical, 2*time.Hour - time.Minute, false},
		{"critical exactly at threshold", domain.TicketPriorityCritical, 2 * time.Hour, false},
		{"high overdue", domain.TicketPriorityHigh, 5 * time.Hour, true},
		{"medium within threshold", domain.TicketPriorityMedium, 5 * time.Hour, false},
		{"medium overdue", domain.TicketPriorityMedium, 9 * time.Hour, true},
		{"low within threshold", domain.TicketPriorityLow, 23 * time.Hour, false},
		{"low overdue", domain.TicketPriorityLow, 25 * time.Hour, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newEscalationFixture()
			f.seedUnacknowledged(tc.priority, tc.age)

			summary, err := f.service.RunSweep(context.Background(), testTenant)
			require.NoError(t, err)
			assert.Equal(t, 1, summary.Processed)
			if tc.escalated {
				assert.Equal(t, 1, summary.Escalated)
				assert.Equal(t, 0, summary.Skipped)
			} else {
				assert.Equal(t, 0, summary.Escalated)
				assert.Equal(t, 1, summary.Skipped)
			}
		})
	}
}

func TestEmergencyHalvesThreshold(t *testing.T) {
	f := newEscalationFixture()
	// 90 minutes old: within the 2h critical threshold, but over the halved
	// emergency threshold of 1h.
	f.seedUnacknowledged(domain.TicketPriorityCritical, 90*time.Minute, func(t *domain.Ticket) {
		t.IsEmergency = true
	})

	summary, err := f.service.RunSweep(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Escalated)
}

func TestEscalationReasonNamesElapsedHoursAndPriority(t *testing.T) {
	f := newEscalationFixture()
	f.seedUnacknowledged(domain.TicketPriorityHigh, 5*time.Hour+30*time.Minute)

	summary, err := f.service.RunSweep(context.Background(), testTenant)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "no response for 5 hours (priority HIGH)", summary.Results[0].Reason)
	assert.Equal(t, 5, summary.Results[0].ElapsedHours)
}

func TestEscalationNotifiesSupervisors(t *testing.T) {
	f := newEscalationFixture()
	ticket := f.seedUnacknowledged(domain.TicketPriorityCritical, 3*time.Hour)

	_, err := f.service.RunSweep(context.Background(), testTenant)
	require.NoError(t, err)

	require.Len(t, f.notifier.calls, 1)
	call := f.notifier.calls[0]
	assert.Equal(t, "work order escalation", call.subject)
	assert.Len(t, call.recipients, 2)
	assert.Equal(t, ticket.ID, call.details["ticket_id"])

	escalated := f.recorder.ofType(events.EventTicketEscalated)
	require.Len(t, escalated, 1)
	assert.Equal(t, ticket.ID, escalated[0].TicketID)
}

func TestAcknowledgedTicketsAreNotSwept(t *testing.T) {
	f := newEscalationFixture()
	acked := f.clock.Add(-time.Hour)
	f.seedUnacknowledged(domain.TicketPriorityCritical, 6*time.Hour, func(t *domain.Ticket) {
		t.AcknowledgedAt = &acked
	})

	summary, err := f.service.RunSweep(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Empty(t, f.notifier.calls)
}

// The sweep keeps no escalation marker, so an unacknowledged ticket is
// escalated again on every run.
func TestOverdueTicketEscalatesOnEveryRun(t *testing.T) {
	f := newEscalationFixture()
	f.seedUnacknowledged(domain.TicketPriorityCritical, 3*time.Hour)
	ctx := context.Background()

	first, err := f.service.RunSweep(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Escalated)

	f.clock = f.clock.Add(time.Hour)
	second, err := f.service.RunSweep(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Escalated)
	assert.Len(t, f.notifier.calls, 2)
}

func TestNotificationFailureDoesNotAbortSweep(t *testing.T) {
	f := newEscalationFixture()
	f.seedUnacknowledged(domain.TicketPriorityCritical, 3*time.Hour)
	f.seedUnacknowledged(domain.TicketPriorityHigh, 5*time.Hour)
	f.notifier.err = errors.New("smtp unavailable")

	summary, err := f.service.RunSweep(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Escalated)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Errors, 2)
}

func TestUnknownPriorityFallsBackToMediumThreshold(t *testing.T) {
	f := newEscalationFixture()
	f.seedUnacknowledged(domain.TicketPriority("URGENT"), 9*time.Hour)

	summary, err := f.service.RunSweep(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Escalated)
}
