package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expertpos/expert-pos/internal/platform/db"
	"github.com/expertpos/expert-pos/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	UserLookup
	SessionStore
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, username, display_name, password_hash, is_active, is_system, created_at, updated_at`

// FindByUsername fetches a user by lowercase username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// GetUserByID fetches a user by id.
func (r *PGRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PGRepository) findUser(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.IsActive, &u.IsSystem, &u.CreatedAt, &u.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("%w: user", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateSession persists a new login session.
func (r *PGRepository) CreateSession(ctx context.Context, s Session) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, logged_in_at, user_agent, ip_address)
VALUES ($1, $2, $3, $4, $5)`, s.ID, s.UserID, s.LoggedInAt, db.NullString(s.UserAgent), db.NullString(s.IPAddress))
	return err
}

// GetSession fetches a session by id.
func (r *PGRepository) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var (
		s         Session
		userAgent *string
		ipAddress *string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, logged_in_at, logged_out_at, user_agent, ip_address
FROM sessions WHERE id = $1`, id).Scan(&s.ID, &s.UserID, &s.LoggedInAt, &s.LoggedOutAt, &userAgent, &ipAddress)
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("%w: session", shared.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if userAgent != nil {
		s.UserAgent = *userAgent
	}
	if ipAddress != nil {
		s.IPAddress = *ipAddress
	}
	return &s, nil
}

// CloseSession sets the logout time of an open session. Closed or unknown sessions
// are left untouched.
func (r *PGRepository) CloseSession(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET logged_out_at = $2 WHERE id = $1 AND logged_out_at IS NULL`, id, at)
	return err
}

// RecentSessions returns the newest sessions with their owners' display names.
func (r *PGRepository) RecentSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.user_id, u.display_name, s.logged_in_at, s.logged_out_at,
	COALESCE(s.user_agent, ''), COALESCE(s.ip_address, '')
FROM sessions s
JOIN users u ON u.id = s.user_id
ORDER BY s.logged_in_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SessionSummary, error) {
		var s SessionSummary
		err := row.Scan(&s.ID, &s.UserID, &s.DisplayName, &s.LoggedInAt, &s.LoggedOutAt, &s.UserAgent, &s.IPAddress)
		return s, err
	})
}

var _ Repository = (*PGRepository)(nil)
