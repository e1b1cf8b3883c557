package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expertpos/expert-pos/internal/platform/db"
	"github.com/expertpos/expert-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles and permissions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UserRoleNames returns the names of the roles assigned to a user.
func (r *Repository) UserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const query = `SELECT r.name
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = $1
ORDER BY r.name`
	return r.collectStrings(ctx, query, userID)
}

// UserPermissionCodes returns the distinct permission codes granted through a user's roles.
func (r *Repository) UserPermissionCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const query = `SELECT DISTINCT p.code
FROM user_roles ur
JOIN role_permissions rp ON rp.role_id = ur.role_id
JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = $1
ORDER BY p.code`
	return r.collectStrings(ctx, query, userID)
}

// ListRoles returns all roles with their permission codes ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	const query = `SELECT r.id, r.name, r.description,
	COALESCE(array_agg(p.code ORDER BY p.code) FILTER (WHERE p.code IS NOT NULL), '{}')
FROM roles r
LEFT JOIN role_permissions rp ON rp.role_id = r.id
LEFT JOIN permissions p ON p.id = rp.permission_id
GROUP BY r.id, r.name, r.description
ORDER BY r.name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Permissions); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListPermissions returns all permissions ordered by code.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, description FROM permissions ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ReplaceRolePermissions swaps the grants of a role in one transaction.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleName string, codes []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var roleID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1 FOR UPDATE`, roleName).Scan(&roleID)
		if db.IsNoRows(err) {
			return fmt.Errorf("%w: role %s", shared.ErrNotFound, roleName)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id)
SELECT $1, id FROM permissions WHERE code = ANY($2)`, roleID, codes)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != int64(len(codes)) {
			return fmt.Errorf("%w: permission catalogue is incomplete", shared.ErrValidation)
		}
		return nil
	})
}

func (r *Repository) collectStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
