package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// ApprovalRepository encapsulates cost-approval persistence.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *domain.CostApproval) error
	Update(ctx context.Context, approval *domain.CostApproval) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.CostApproval, error)
	// GetActiveByTicket returns the pending or approved request for a ticket,
	// or pgx.ErrNoRows when none gates it.
	GetActiveByTicket(ctx context.Context, tenantID, ticketID string) (*domain.CostApproval, error)
	ListByTicket(ctx context.Context, tenantID, ticketID string) ([]domain.CostApproval, error)
}

type approvalRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalRepository instantiates repository.
func NewApprovalRepository(pool *pgxpool.Pool) ApprovalRepository {
	return &approvalRepository{pool: pool}
}

const approvalColumns = `id, tenant_id, ticket_id, estimated_cost, actual_cost, status, notes,
       requested_by, approved_by, denial_reason, requested_at, decided_at`

func (r *approvalRepository) Create(ctx context.Context, approval *domain.CostApproval) error {
	const query = `
        INSERT INTO cost_approvals (tenant_id, ticket_id, estimated_cost, status, notes, requested_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, requested_at`
	return r.pool.QueryRow(ctx, query,
		approval.TenantID,
		approval.TicketID,
		approval.EstimatedCost,
		approval.Status,
		approval.Notes,
		approval.RequestedBy,
	).Scan(&approval.ID, &approval.RequestedAt)
}

func (r *approvalRepository) Update(ctx context.Context, approval *domain.CostApproval) error {
	const query = `
        UPDATE cost_approvals SET actual_cost=$1, status=$2, approved_by=$3, denial_reason=$4, decided_at=$5
        WHERE id=$6 AND tenant_id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		approval.ActualCost,
		approval.Status,
		approval.ApprovedBy,
		approval.DenialReason,
		approval.DecidedAt,
		approval.ID,
		approval.TenantID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *approvalRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.CostApproval, error) {
	query := `SELECT ` + approvalColumns + ` FROM cost_approvals WHERE id=$1 AND tenant_id=$2`
	var approval domain.CostApproval
	if err := scanApproval(r.pool.QueryRow(ctx, query, id, tenantID), &approval); err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) GetActiveByTicket(ctx context.Context, tenantID, ticketID string) (*domain.CostApproval, error) {
	query := `SELECT ` + approvalColumns + ` FROM cost_approvals
        WHERE ticket_id=$1 AND tenant_id=$2 AND status IN ('PENDING','APPROVED')
        ORDER BY requested_at DESC LIMIT 1`
	var approval domain.CostApproval
	if err := scanApproval(r.pool.QueryRow(ctx, query, ticketID, tenantID), &approval); err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) ListByTicket(ctx context.Context, tenantID, ticketID string) ([]domain.CostApproval, error) {
	query := `SELECT ` + approvalColumns + ` FROM cost_approvals
        WHERE ticket_id=$1 AND tenant_id=$2 ORDER BY requested_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CostApproval
	for rows.Next() {
		var approval domain.CostApproval
		if err := scanApproval(rows, &approval); err != nil {
			return nil, err
		}
		result = append(result, approval)
	}
	return result, rows.Err()
}

func scanApproval(row pgx.Row, approval *domain.CostApproval) error {
	return row.Scan(
		&approval.ID,
		&approval.TenantID,
		&approval.TicketID,
		&approval.EstimatedCost,
		&approval.ActualCost,
		&approval.Status,
		&approval.Notes,
		&approval.RequestedBy,
		&approval.ApprovedBy,
		&approval.DenialReason,
		&approval.RequestedAt,
		&approval.DecidedAt,
	)
}
