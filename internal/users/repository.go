package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expertpos/expert-pos/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userSelect = `SELECT u.id, u.username, u.display_name, u.is_active, u.is_system,
	COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles,
	u.created_at, u.updated_at
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
LEFT JOIN roles r ON r.id = ur.role_id`

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, userSelect+`
GROUP BY u.id
ORDER BY u.username`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanUser)
}

// GetUser returns one user with its role names.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return getUser(ctx, r.pool, id)
}

// SetActive flips the active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPasswordHash stores a new password hash.
func (r *Repository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (t *txRepo) InsertUser(ctx context.Context, user User, passwordHash string) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO users (id, username, display_name, password_hash, is_active, is_system, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`,
		user.ID, user.Username, user.DisplayName, passwordHash, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

func (t *txRepo) GetUserForUpdate(ctx context.Context, id uuid.UUID) (User, error) {
	if _, err := t.tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		return User{}, err
	}
	return getUser(ctx, t.tx, id)
}

func (t *txRepo) RoleIDs(ctx context.Context, names []string) (map[string]uuid.UUID, error) {
	rows, err := t.tx.Query(ctx, `SELECT name, id FROM roles WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make(map[string]uuid.UUID, len(names))
	for rows.Next() {
		var (
			name string
			id   uuid.UUID
		)
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

func (t *txRepo) ReplaceUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) SELECT $1, unnest($2::uuid[])`, userID, roleIDs)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getUser(ctx context.Context, q querier, id uuid.UUID) (User, error) {
	rows, err := q.Query(ctx, userSelect+`
WHERE u.id = $1
GROUP BY u.id`, id)
	if err != nil {
		return User{}, err
	}
	user, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if db.IsNoRows(err) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

func scanUser(row pgx.CollectableRow) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.IsActive, &u.IsSystem, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
