package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/workorder-engine/internal/domain"
	"github.com/spec-kit/workorder-engine/internal/events"
	"github.com/spec-kit/workorder-engine/internal/observability"
	"github.com/spec-kit/workorder-engine/internal/repository"
)

// The fakes below hold rows in memory and return copies, so reads behave like
// the database: a mutation is only visible after Update.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket

	createErr error
	updateErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	if ticket.ID == "" {
		ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.TenantID != tenantID || ticket.DeletedAt != nil {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, tenantID string, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.TenantID != tenantID || ticket.DeletedAt != nil {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.Unacknowledged && ticket.AcknowledgedAt != nil {
			continue
		}
		if filter.IsEmergency != nil && ticket.IsEmergency != *filter.IsEmergency {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) SoftDelete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.TenantID != tenantID || ticket.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now()
	ticket.DeletedAt = &now
	r.tickets[id] = ticket
	return nil
}

func (r *fakeTicketRepo) get(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id]
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

type fakeApprovalRepo struct {
	mu        sync.Mutex
	seq       int
	order     []string
	approvals map[string]domain.CostApproval
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{approvals: make(map[string]domain.CostApproval)}
}

func (r *fakeApprovalRepo) Create(_ context.Context, approval *domain.CostApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if approval.ID == "" {
		approval.ID = fmt.Sprintf("approval-%d", r.seq)
	}
	if approval.RequestedAt.IsZero() {
		approval.RequestedAt = time.Now()
	}
	r.order = append(r.order, approval.ID)
	r.approvals[approval.ID] = *approval
	return nil
}

func (r *fakeApprovalRepo) Update(_ context.Context, approval *domain.CostApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.approvals[approval.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.approvals[approval.ID] = *approval
	return nil
}

func (r *fakeApprovalRepo) GetByID(_ context.Context, tenantID, id string) (*domain.CostApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	approval, ok := r.approvals[id]
	if !ok || approval.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	copied := approval
	return &copied, nil
}

func (r *fakeApprovalRepo) GetActiveByTicket(_ context.Context, tenantID, ticketID string) (*domain.CostApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		approval := r.approvals[r.order[i]]
		if approval.TenantID == tenantID && approval.TicketID == ticketID && approval.Active() {
			copied := approval
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeApprovalRepo) ListByTicket(_ context.Context, tenantID, ticketID string) ([]domain.CostApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.CostApproval
	for _, id := range r.order {
		approval := r.approvals[id]
		if approval.TenantID == tenantID && approval.TicketID == ticketID {
			result = append(result, approval)
		}
	}
	return result, nil
}

func (r *fakeApprovalRepo) get(id string) domain.CostApproval {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.approvals[id]
}

type fakeIncidentRepo struct {
	mu        sync.Mutex
	seq       int
	incidents map[string]domain.EmergencyIncident // keyed by ticket ID
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{incidents: make(map[string]domain.EmergencyIncident)}
}

func (r *fakeIncidentRepo) Create(_ context.Context, incident *domain.EmergencyIncident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if incident.ID == "" {
		incident.ID = fmt.Sprintf("incident-%d", r.seq)
	}
	r.incidents[incident.TicketID] = *incident
	return nil
}

func (r *fakeIncidentRepo) Update(_ context.Context, incident *domain.EmergencyIncident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.incidents[incident.TicketID]; !ok {
		return pgx.ErrNoRows
	}
	r.incidents[incident.TicketID] = *incident
	return nil
}

func (r *fakeIncidentRepo) GetByTicket(_ context.Context, tenantID, ticketID string) (*domain.EmergencyIncident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	incident, ok := r.incidents[ticketID]
	if !ok || incident.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	copied := incident
	return &copied, nil
}

type fakeScheduleRepo struct {
	mu        sync.Mutex
	seq       int
	schedules map[string]domain.PMSchedule

	updateErr error
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[string]domain.PMSchedule)}
}

func (r *fakeScheduleRepo) Create(_ context.Context, schedule *domain.PMSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if schedule.ID == "" {
		schedule.ID = fmt.Sprintf("schedule-%d", r.seq)
	}
	r.schedules[schedule.ID] = *schedule
	return nil
}

func (r *fakeScheduleRepo) Update(_ context.Context, schedule *domain.PMSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.schedules[schedule.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.schedules[schedule.ID] = *schedule
	return nil
}

func (r *fakeScheduleRepo) GetByID(_ context.Context, tenantID, id string) (*domain.PMSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule, ok := r.schedules[id]
	if !ok || schedule.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	copied := schedule
	return &copied, nil
}

func (r *fakeScheduleRepo) ListDue(_ context.Context, tenantID string, day time.Time) ([]domain.PMSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.PMSchedule
	for _, schedule := range r.schedules {
		if schedule.TenantID != tenantID || !schedule.IsActive {
			continue
		}
		if schedule.NextDueDate.After(day) {
			continue
		}
		result = append(result, schedule)
	}
	return result, nil
}

func (r *fakeScheduleRepo) get(id string) domain.PMSchedule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.schedules[id]
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, tenantID, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok || user.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) ListByRoles(_ context.Context, tenantID string, roles ...domain.Role) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.TenantID != tenantID {
			continue
		}
		for _, role := range roles {
			if user.Role == role {
				result = append(result, user)
				break
			}
		}
	}
	return result, nil
}

type fakeCategoryRepo struct {
	categories map[string]domain.Category
}

func newFakeCategoryRepo(categories ...domain.Category) *fakeCategoryRepo {
	repo := &fakeCategoryRepo{categories: make(map[string]domain.Category)}
	for _, category := range categories {
		repo.categories[category.ID] = category
	}
	return repo
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok || category.TenantID != tenantID {
		return nil, pgx.ErrNoRows
	}
	copied := category
	return &copied, nil
}

func (r *fakeCategoryRepo) ListActive(_ context.Context, tenantID string) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range r.categories {
		if category.TenantID == tenantID && category.IsActive {
			result = append(result, category)
		}
	}
	return result, nil
}

type notifierCall struct {
	subject    string
	recipients []domain.User
	details    map[string]any
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, subject string, recipients []domain.User, details map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.calls = append(n.calls, notifierCall{subject: subject, recipients: recipients, details: details})
	return nil
}

// eventRecorder subscribes to every event type and captures what was published.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newEventRecorder(dispatcher events.Dispatcher) *eventRecorder {
	recorder := &eventRecorder{}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketEscalated,
		events.EventApprovalRequested,
		events.EventApprovalDecided,
		events.EventEmergencyContained,
		events.EventEmergencyResolved,
		events.EventPMTicketGenerated,
	} {
		dispatcher.Subscribe(eventType, recorder.record)
	}
	return recorder
}

func (r *eventRecorder) record(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []events.Event
	for _, event := range r.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

// workOrderFixture bundles a fully wired service with its fakes and a
// controllable clock.
type workOrderFixture struct {
	service    *WorkOrderService
	tickets    *fakeTicketRepo
	approvals  *fakeApprovalRepo
	incidents  *fakeIncidentRepo
	categories *fakeCategoryRepo
	recorder   *eventRecorder
	clock      time.Time
}

const (
	testTenant   = "tenant-1"
	testCategory = "category-1"
)

func newWorkOrderFixture() *workOrderFixture {
	tickets := newFakeTicketRepo()
	approvals := newFakeApprovalRepo()
	incidents := newFakeIncidentRepo()
	categories := newFakeCategoryRepo(domain.Category{
		ID: testCategory, TenantID: testTenant, Name: "Plumbing", IsActive: true,
	})
	dispatcher := events.NewInMemoryDispatcher()
	recorder := newEventRecorder(dispatcher)

	fixture := &workOrderFixture{
		tickets:    tickets,
		approvals:  approvals,
		incidents:  incidents,
		categories: categories,
		recorder:   recorder,
		clock:      time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	fixture.service = NewWorkOrderService(WorkOrderDependencies{
		TicketRepo:   tickets,
		ApprovalRepo: approvals,
		IncidentRepo: incidents,
		CategoryRepo: categories,
		Dispatcher:   dispatcher,
		Metrics:      observability.NewMetrics(),
	})
	fixture.service.now = func() time.Time { return fixture.clock }
	return fixture
}

func (f *workOrderFixture) seedTicket(status domain.TicketStatus, mutate ...func(*domain.Ticket)) *domain.Ticket {
	ticket := &domain.Ticket{
		TenantID:    testTenant,
		ExternalKey: "WO-SEEDED",
		Title:       "Leaking pipe",
		CategoryID:  testCategory,
		Priority:    domain.TicketPriorityMedium,
		Status:      status,
		SubmittedBy: "user-1",
		CreatedAt:   f.clock.Add(-time.Hour),
	}
	for _, fn := range mutate {
		fn(ticket)
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		panic(err)
	}
	return ticket
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
