package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workorder-engine/internal/domain"
	"github.com/spec-kit/workorder-engine/internal/events"
)

type emergencyFixture struct {
	*workOrderFixture
	service *EmergencyService
}

func newEmergencyFixture() *emergencyFixture {
	base := newWorkOrderFixture()
	dispatcher := events.NewInMemoryDispatcher()
	base.recorder = newEventRecorder(dispatcher)

	svc := NewEmergencyService(EmergencyDependencies{
		IncidentRepo: base.incidents,
		TicketRepo:   base.tickets,
		Dispatcher:   dispatcher,
	})
	svc.now = func() time.Time { return base.clock }
	return &emergencyFixture{workOrderFixture: base, service: svc}
}

func (f *emergencyFixture) seedEmergency(status domain.TicketStatus) *domain.Ticket {
	ticket := f.seedTicket(status, func(t *domain.Ticket) {
		t.IsEmergency = true
		t.Priority = domain.TicketPriorityCritical
	})
	err := f.incidents.Create(context.Background(), &domain.EmergencyIncident{
		TenantID: testTenant,
		TicketID: ticket.ID,
		Severity: domain.IncidentSeverityCritical,
	})
	if err != nil {
		panic(err)
	}
	return ticket
}

func TestContainEmergency(t *testing.T) {
	f := newEmergencyFixture()
	ctx := context.Background()
	ticket := f.seedEmergency(domain.TicketStatusInProgress)

	_, err := f.service.ContainEmergency(ctx, testTenant, userActor, ticket.ID)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	incident, err := f.service.ContainEmergency(ctx, testTenant, managerActor, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, incident.ContainedAt)
	require.NotNil(t, incident.ContainedBy)
	assert.Equal(t, managerActor.ID, *incident.ContainedBy)

	// Containment never touches the ticket's own state.
	assert.Equal(t, domain.TicketStatusInProgress, f.tickets.get(ticket.ID).Status)
	require.Len(t, f.recorder.ofType(events.EventEmergencyContained), 1)
}

func TestContainEmergencyIdempotent(t *testing.T) {
	f := newEmergencyFixture()
	ctx := context.Background()
	ticket := f.seedEmergency(domain.TicketStatusInProgress)

	first, err := f.service.ContainEmergency(ctx, testTenant, managerActor, ticket.ID)
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Hour)
	second, err := f.service.ContainEmergency(ctx, testTenant, managerActor, ticket.ID)
	require.NoError(t, err)
	assert.True(t, second.ContainedAt.Equal(*first.ContainedAt))
	require.Len(t, f.recorder.ofType(events.EventEmergencyContained), 1)
}

func TestResolveEmergencyRequiresNotes(t *testing.T) {
	f := newEmergencyFixture()
	ticket := f.seedEmergency(domain.TicketStatusInProgress)

	_, err := f.service.ResolveEmergency(context.Background(), testTenant, managerActor, ticket.ID, "  ")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestResolveEmergencyAdvancesTicket(t *testing.T) {
	f := newEmergencyFixture()
	ctx := context.Background()
	ticket := f.seedEmergency(domain.TicketStatusInProgress)

	incident, err := f.service.ResolveEmergency(ctx, testTenant, managerActor, ticket.ID, "isolated the supply line and repaired the joint")
	require.NoError(t, err)
	require.NotNil(t, incident.ResolvedAt)
	require.NotNil(t, incident.ResolutionNotes)

	stored := f.tickets.get(ticket.ID)
	assert.Equal(t, domain.TicketStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	require.Len(t, f.recorder.ofType(events.EventEmergencyResolved), 1)
}

func TestResolveEmergencyLeavesCompletedTicketAlone(t *testing.T) {
	f := newEmergencyFixture()
	ctx := context.Background()
	completedAt := f.clock.Add(-time.Hour)
	ticket := f.seedEmergency(domain.TicketStatusCompleted)
	stored := f.tickets.get(ticket.ID)
	stored.CompletedAt = &completedAt
	require.NoError(t, f.tickets.Update(ctx, &stored))

	_, err := f.service.ResolveEmergency(ctx, testTenant, managerActor, ticket.ID, "confirmed after the fact")
	require.NoError(t, err)

	after := f.tickets.get(ticket.ID)
	assert.Equal(t, domain.TicketStatusCompleted, after.Status)
	assert.True(t, after.CompletedAt.Equal(completedAt))
}

func TestResolveEmergencyTwiceFails(t *testing.T) {
	f := newEmergencyFixture()
	ctx := context.Background()
	ticket := f.seedEmergency(domain.TicketStatusInProgress)

	_, err := f.service.ResolveEmergency(ctx, testTenant, managerActor, ticket.ID, "done and verified on site")
	require.NoError(t, err)

	_, err = f.service.ResolveEmergency(ctx, testTenant, managerActor, ticket.ID, "again")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestContainAfterResolveFails(t *testing.T) {
	f := newEmergencyFixture()
	ctx := context.Background()
	ticket := f.seedEmergency(domain.TicketStatusInProgress)

	_, err := f.service.ResolveEmergency(ctx, testTenant, managerActor, ticket.ID, "crew resolved before containment was recorded")
	require.NoError(t, err)

	_, err = f.service.ContainEmergency(ctx, testTenant, managerActor, ticket.ID)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestIncidentRequiresEmergencyFlag(t *testing.T) {
	f := newEmergencyFixture()
	ticket := f.seedTicket(domain.TicketStatusInProgress)

	_, err := f.service.GetIncident(context.Background(), testTenant, ticket.ID)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}
