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

type approvalFixture struct {
	*workOrderFixture
	service *ApprovalService
}

func newApprovalFixture() *approvalFixture {
	base := newWorkOrderFixture()
	dispatcher := events.NewInMemoryDispatcher()
	base.recorder = newEventRecorder(dispatcher)

	svc := NewApprovalService(ApprovalDependencies{
		ApprovalRepo: base.approvals,
		TicketRepo:   base.tickets,
		CategoryRepo: base.categories,
		Dispatcher:   dispatcher,
	})
	svc.now = func() time.Time { return base.clock }
	return &approvalFixture{workOrderFixture: base, service: svc}
}

func TestRequestApproval(t *testing.T) {
	f := newApprovalFixture()
	ctx := context.Background()
	ticket := f.seedTicket(domain.TicketStatusInProgress)

	approval, err := f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 1500, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusPending, approval.Status)
	assert.Equal(t, userActor.ID, approval.RequestedBy)
	assert.Equal(t, 1500.0, approval.EstimatedCost)

	requested := f.recorder.ofType(events.EventApprovalRequested)
	require.Len(t, requested, 1)
}

func TestRequestApprovalRejectsNonPositiveCost(t *testing.T) {
	f := newApprovalFixture()
	ticket := f.seedTicket(domain.TicketStatusInProgress)

	_, err := f.service.RequestApproval(context.Background(), testTenant, userActor, ticket.ID, 0, nil)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}

func TestRequestApprovalConflictsWithActiveRequest(t *testing.T) {
	f := newApprovalFixture()
	ctx := context.Background()
	ticket := f.seedTicket(domain.TicketStatusInProgress)

	_, err := f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 500, nil)
	require.NoError(t, err)

	_, err = f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 700, nil)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestRequestApprovalAllowedAfterDenial(t *testing.T) {
	f := newApprovalFixture()
	ctx := context.Background()
	ticket := f.seedTicket(domain.TicketStatusInProgress)

	first, err := f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 500, nil)
	require.NoError(t, err)
	_, err = f.service.DenyRequest(ctx, testTenant, managerActor, first.ID, "estimate not itemized")
	require.NoError(t, err)

	second, err := f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 450, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, domain.ApprovalStatusPending, second.Status)
}

func TestRequestApprovalRejectsTerminalTicket(t *testing.T) {
	f := newApprovalFixture()
	ticket := f.seedTicket(domain.TicketStatusClosed)

	_, err := f.service.RequestApproval(context.Background(), testTenant, userActor, ticket.ID, 500, nil)
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestApproveRequest(t *testing.T) {
	f := newApprovalFixture()
	ctx := context.Background()
	ticket := f.seedTicket(domain.TicketStatusInProgress)
	approval, err := f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 500, nil)
	require.NoError(t, err)

	_, err = f.service.ApproveRequest(ctx, testTenant, userActor, approval.ID)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	decided, err := f.service.ApproveRequest(ctx, testTenant, managerActor, approval.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusApproved, decided.Status)
	require.NotNil(t, decided.ApprovedBy)
	assert.Equal(t, managerActor.ID, *decided.ApprovedBy)
	require.NotNil(t, decided.DecidedAt)

	decidedEvents := f.recorder.ofType(events.EventApprovalDecided)
	require.Len(t, decidedEvents, 1)
}

func TestDecidingTwiceFails(t *testing.T) {
	f := newApprovalFixture()
	ctx := context.Background()
	ticket := f.seedTicket(domain.TicketStatusInProgress)
	approval, err := f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 500, nil)
	require.NoError(t, err)

	_, err = f.service.ApproveRequest(ctx, testTenant, managerActor, approval.ID)
	require.NoError(t, err)

	_, err = f.service.ApproveRequest(ctx, testTenant, managerActor, approval.ID)
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	_, err = f.service.DenyRequest(ctx, testTenant, managerActor, approval.ID, "changed my mind")
	assert.Equal(t, "CONFLICT", domainCode(t, err))
}

func TestDenyRequiresReason(t *testing.T) {
	f := newApprovalFixture()
	ctx := context.Background()
	ticket := f.seedTicket(domain.TicketStatusInProgress)
	approval, err := f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 500, nil)
	require.NoError(t, err)

	_, err = f.service.DenyRequest(ctx, testTenant, managerActor, approval.ID, "   ")
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	denied, err := f.service.DenyRequest(ctx, testTenant, managerActor, approval.ID, "exceeds quarterly budget")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusDenied, denied.Status)
	require.NotNil(t, denied.DenialReason)
	assert.Equal(t, "exceeds quarterly budget", *denied.DenialReason)
}

func TestRequiresApproval(t *testing.T) {
	threshold := 1000.0
	categories := newFakeCategoryRepo(domain.Category{
		ID: "cat-gated", TenantID: testTenant, Name: "Electrical",
		ApprovalThreshold: &threshold, IsActive: true,
	}, domain.Category{
		ID: "cat-open", TenantID: testTenant, Name: "Janitorial", IsActive: true,
	})
	svc := NewApprovalService(ApprovalDependencies{
		ApprovalRepo: newFakeApprovalRepo(),
		TicketRepo:   newFakeTicketRepo(),
		CategoryRepo: categories,
	})
	ctx := context.Background()

	required, err := svc.RequiresApproval(ctx, testTenant, "cat-gated", 1000)
	require.NoError(t, err)
	assert.True(t, required)

	required, err = svc.RequiresApproval(ctx, testTenant, "cat-gated", 999.99)
	require.NoError(t, err)
	assert.False(t, required)

	required, err = svc.RequiresApproval(ctx, testTenant, "cat-open", 1_000_000)
	require.NoError(t, err)
	assert.False(t, required)
}

func TestListForTicketReturnsFullHistory(t *testing.T) {
	f := newApprovalFixture()
	ctx := context.Background()
	ticket := f.seedTicket(domain.TicketStatusInProgress)

	first, err := f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 500, nil)
	require.NoError(t, err)
	_, err = f.service.DenyRequest(ctx, testTenant, managerActor, first.ID, "estimate not itemized")
	require.NoError(t, err)
	_, err = f.service.RequestApproval(ctx, testTenant, userActor, ticket.ID, 450, nil)
	require.NoError(t, err)

	history, err := f.service.ListForTicket(ctx, testTenant, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
