package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// CategoryRepository provides access to maintenance categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Category, error)
	ListActive(ctx context.Context, tenantID string) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Category, error) {
	const query = `SELECT id, tenant_id, name, approval_threshold, is_active, created_at
        FROM categories WHERE id=$1 AND tenant_id=$2`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&category.ID,
		&category.TenantID,
		&category.Name,
		&category.ApprovalThreshold,
		&category.IsActive,
		&category.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListActive(ctx context.Context, tenantID string) ([]domain.Category, error) {
	const query = `SELECT id, tenant_id, name, approval_threshold, is_active, created_at
        FROM categories WHERE tenant_id=$1 AND is_active ORDER BY name`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.TenantID,
			&category.Name,
			&category.ApprovalThreshold,
			&category.IsActive,
			&category.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
