package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	SubmittedBy   *string
	AssignedTo    *string
	CategoryID    *string
	Statuses      []domain.TicketStatus
	Priorities    []domain.TicketPriority
	IsEmergency   *bool
	Unacknowledged bool
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// TicketRepository encapsulates ticket persistence. All queries are tenant-scoped.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, tenantID string, filter TicketFilter) ([]domain.Ticket, error)
	SoftDelete(ctx context.Context, tenantID, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, tenant_id, external_key, title, description, category_id, location, asset_id,
       priority, status, is_emergency, submitted_by, assigned_to, verified, verified_by,
       closure_notes, hold_reason, reject_reason,
       acknowledged_at, started_at, completed_at, closed_at, rejected_at, held_at,
       created_at, updated_at, deleted_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (tenant_id, external_key, title, description, category_id, location, asset_id,
            priority, status, is_emergency, submitted_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TenantID,
		ticket.ExternalKey,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.Location,
		ticket.AssetID,
		ticket.Priority,
		ticket.Status,
		ticket.IsEmergency,
		ticket.SubmittedBy,
		ticket.AssignedTo,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category_id=$3, location=$4, asset_id=$5,
            priority=$6, status=$7, assigned_to=$8, verified=$9, verified_by=$10,
            closure_notes=$11, hold_reason=$12, reject_reason=$13,
            acknowledged_at=$14, started_at=$15, completed_at=$16, closed_at=$17,
            rejected_at=$18, held_at=$19, updated_at=NOW()
        WHERE id=$20 AND tenant_id=$21 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.Location,
		ticket.AssetID,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTo,
		ticket.Verified,
		ticket.VerifiedBy,
		ticket.ClosureNotes,
		ticket.HoldReason,
		ticket.RejectReason,
		ticket.AcknowledgedAt,
		ticket.StartedAt,
		ticket.CompletedAt,
		ticket.ClosedAt,
		ticket.RejectedAt,
		ticket.HeldAt,
		ticket.ID,
		ticket.TenantID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 AND tenant_id=$2 AND deleted_at IS NULL`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id, tenantID), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, tenantID string, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"tenant_id=$1", "deleted_at IS NULL"}
	args := []any{tenantID}

	if filter.SubmittedBy != nil {
		args = append(args, *filter.SubmittedBy)
		clauses = append(clauses, fmt.Sprintf("submitted_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.IsEmergency != nil {
		args = append(args, *filter.IsEmergency)
		clauses = append(clauses, fmt.Sprintf("is_emergency=$%d", len(args)))
	}
	if filter.Unacknowledged {
		clauses = append(clauses, "acknowledged_at IS NULL")
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	const query = `UPDATE tickets SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND tenant_id=$2 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TenantID,
		&ticket.ExternalKey,
		&ticket.Title,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.Location,
		&ticket.AssetID,
		&ticket.Priority,
		&ticket.Status,
		&ticket.IsEmergency,
		&ticket.SubmittedBy,
		&ticket.AssignedTo,
		&ticket.Verified,
		&ticket.VerifiedBy,
		&ticket.ClosureNotes,
		&ticket.HoldReason,
		&ticket.RejectReason,
		&ticket.AcknowledgedAt,
		&ticket.StartedAt,
		&ticket.CompletedAt,
		&ticket.ClosedAt,
		&ticket.RejectedAt,
		&ticket.HeldAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.DeletedAt,
	)
}
