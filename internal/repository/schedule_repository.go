package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// ScheduleRepository encapsulates PM-schedule persistence.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.PMSchedule) error
	Update(ctx context.Context, schedule *domain.PMSchedule) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.PMSchedule, error)
	// ListDue returns active schedules whose next_due_date falls on or before
	// the given day (due today plus overdue, each schedule once).
	ListDue(ctx context.Context, tenantID string, day time.Time) ([]domain.PMSchedule, error)
}

type scheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository instantiates repository.
func NewScheduleRepository(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

const scheduleColumns = `id, tenant_id, name, description, category_id, location, asset_id,
       frequency, next_due_date, last_generated_at, assigned_to, is_active, created_at, updated_at`

func (r *scheduleRepository) Create(ctx context.Context, schedule *domain.PMSchedule) error {
	const query = `
        INSERT INTO pm_schedules (tenant_id, name, description, category_id, location, asset_id,
            frequency, next_due_date, assigned_to, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		schedule.TenantID,
		schedule.Name,
		schedule.Description,
		schedule.CategoryID,
		schedule.Location,
		schedule.AssetID,
		schedule.Frequency,
		schedule.NextDueDate,
		schedule.AssignedTo,
		schedule.IsActive,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *domain.PMSchedule) error {
	const query = `
        UPDATE pm_schedules SET name=$1, description=$2, category_id=$3, location=$4, asset_id=$5,
            frequency=$6, next_due_date=$7, last_generated_at=$8, assigned_to=$9, is_active=$10,
            updated_at=NOW()
        WHERE id=$11 AND tenant_id=$12`
	cmd, err := r.pool.Exec(ctx, query,
		schedule.Name,
		schedule.Description,
		schedule.CategoryID,
		schedule.Location,
		schedule.AssetID,
		schedule.Frequency,
		schedule.NextDueDate,
		schedule.LastGeneratedAt,
		schedule.AssignedTo,
		schedule.IsActive,
		schedule.ID,
		schedule.TenantID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.PMSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM pm_schedules WHERE id=$1 AND tenant_id=$2`
	var schedule domain.PMSchedule
	if err := scanSchedule(r.pool.QueryRow(ctx, query, id, tenantID), &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) ListDue(ctx context.Context, tenantID string, day time.Time) ([]domain.PMSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM pm_schedules
        WHERE tenant_id=$1 AND is_active AND next_due_date <= $2
        ORDER BY next_due_date ASC`
	rows, err := r.pool.Query(ctx, query, tenantID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PMSchedule
	for rows.Next() {
		var schedule domain.PMSchedule
		if err := scanSchedule(rows, &schedule); err != nil {
			return nil, err
		}
		result = append(result, schedule)
	}
	return result, rows.Err()
}

func scanSchedule(row pgx.Row, schedule *domain.PMSchedule) error {
	return row.Scan(
		&schedule.ID,
		&schedule.TenantID,
		&schedule.Name,
		&schedule.Description,
		&schedule.CategoryID,
		&schedule.Location,
		&schedule.AssetID,
		&schedule.Frequency,
		&schedule.NextDueDate,
		&schedule.LastGeneratedAt,
		&schedule.AssignedTo,
		&schedule.IsActive,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
}
