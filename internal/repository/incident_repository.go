package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// IncidentRepository encapsulates emergency-incident persistence.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.EmergencyIncident) error
	Update(ctx context.Context, incident *domain.EmergencyIncident) error
	GetByTicket(ctx context.Context, tenantID, ticketID string) (*domain.EmergencyIncident, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

const incidentColumns = `id, tenant_id, ticket_id, severity, contained_at, contained_by,
       resolved_at, resolved_by, resolution_notes, created_at`

func (r *incidentRepository) Create(ctx context.Context, incident *domain.EmergencyIncident) error {
	const query = `
        INSERT INTO emergency_incidents (tenant_id, ticket_id, severity)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		incident.TenantID,
		incident.TicketID,
		incident.Severity,
	).Scan(&incident.ID, &incident.CreatedAt)
}

func (r *incidentRepository) Update(ctx context.Context, incident *domain.EmergencyIncident) error {
	const query = `
        UPDATE emergency_incidents SET contained_at=$1, contained_by=$2, resolved_at=$3,
            resolved_by=$4, resolution_notes=$5
        WHERE id=$6 AND tenant_id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		incident.ContainedAt,
		incident.ContainedBy,
		incident.ResolvedAt,
		incident.ResolvedBy,
		incident.ResolutionNotes,
		incident.ID,
		incident.TenantID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *incidentRepository) GetByTicket(ctx context.Context, tenantID, ticketID string) (*domain.EmergencyIncident, error) {
	query := `SELECT ` + incidentColumns + ` FROM emergency_incidents WHERE ticket_id=$1 AND tenant_id=$2`
	var incident domain.EmergencyIncident
	if err := r.pool.QueryRow(ctx, query, ticketID, tenantID).Scan(
		&incident.ID,
		&incident.TenantID,
		&incident.TicketID,
		&incident.Severity,
		&incident.ContainedAt,
		&incident.ContainedBy,
		&incident.ResolvedAt,
		&incident.ResolvedBy,
		&incident.ResolutionNotes,
		&incident.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &incident, nil
}
