package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleDirectory implements usecase.RoleDirectory over the tenant_user_roles
// table maintained by the tenant administration service.
type RoleDirectory struct {
	pool *pgxpool.Pool
}

// NewRoleDirectory creates a new RoleDirectory.
func NewRoleDirectory(pool *pgxpool.Pool) *RoleDirectory {
	return &RoleDirectory{pool: pool}
}

// ActiveRoles returns the subset of roles with at least one active member.
func (r *RoleDirectory) ActiveRoles(ctx context.Context, tenantID string, roles []string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT role FROM tenant_user_roles
		 WHERE tenant_id = $1 AND role = ANY($2) AND is_active = TRUE
		 ORDER BY role`,
		tenantID, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var active []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		active = append(active, role)
	}

	return active, rows.Err()
}
