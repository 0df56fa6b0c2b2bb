package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workorder-engine/internal/domain"
)

// UserRepository provides read access to tenant members. Provisioning happens
// outside this service.
type UserRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.User, error)
	ListByRoles(ctx context.Context, tenantID string, roles ...domain.Role) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.User, error) {
	const query = `SELECT id, tenant_id, name, email, role, is_active, created_at
        FROM users WHERE id=$1 AND tenant_id=$2`
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&user.ID,
		&user.TenantID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListByRoles(ctx context.Context, tenantID string, roles ...domain.Role) ([]domain.User, error) {
	args := []any{tenantID}
	placeholders := make([]string, len(roles))
	for i, role := range roles {
		args = append(args, role)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT id, tenant_id, name, email, role, is_active, created_at
        FROM users WHERE tenant_id=$1 AND is_active AND role IN (%s) ORDER BY email`,
		strings.Join(placeholders, ","))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.TenantID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.IsActive,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
