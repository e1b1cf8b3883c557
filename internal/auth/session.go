package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

// SessionStore is the persistence required by Manager.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	CloseSession(ctx context.Context, id uuid.UUID, at time.Time) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// GrantSource resolves the roles and permissions of a user.
type GrantSource interface {
	Grants(ctx context.Context, userID uuid.UUID) ([]string, rbac.PermissionSet, error)
}

// Manager creates, closes and resolves login sessions.
type Manager struct {
	store  SessionStore
	grants GrantSource
	codec  *Codec
	logger *slog.Logger
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(store SessionStore, grants GrantSource, codec *Codec, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, grants: grants, codec: codec, logger: logger, now: time.Now}
}

// CreateSession persists a new open session for userID and returns it with a signed
// token.
func (m *Manager) CreateSession(ctx context.Context, userID uuid.UUID, meta SessionMetadata) (Session, string, time.Time, error) {
	session := Session{
		ID:         uuid.New(),
		UserID:     userID,
		LoggedInAt: m.now().UTC(),
		UserAgent:  meta.UserAgent,
		IPAddress:  meta.IPAddress,
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return Session{}, "", time.Time{}, fmt.Errorf("auth: create session: %w", err)
	}
	token, expiresAt, err := m.codec.Issue(TokenPayload{SessionID: session.ID, UserID: userID})
	if err != nil {
		return Session{}, "", time.Time{}, err
	}
	return session, token, expiresAt, nil
}

// CloseSession marks the session logged out. Closing an already closed or unknown
// session is a no-op.
func (m *Manager) CloseSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := m.store.CloseSession(ctx, sessionID, m.now().UTC()); err != nil {
		return fmt.Errorf("auth: close session: %w", err)
	}
	return nil
}

// CloseCurrentSession closes the session referenced by token. Missing or invalid
// tokens are ignored.
func (m *Manager) CloseCurrentSession(ctx context.Context, token string) error {
	payload, ok := m.codec.Resolve(token)
	if !ok {
		return nil
	}
	return m.CloseSession(ctx, payload.SessionID)
}

// SessionID extracts the session id from a valid token without touching the store.
func (m *Manager) SessionID(token string) (uuid.UUID, bool) {
	payload, ok := m.codec.Resolve(token)
	return payload.SessionID, ok
}

// ResolveIdentity maps a token to the identity behind it. Any invalid credential
// yields a nil identity; only store failures are returned as errors. A session owned
// by a missing or inactive user is closed as a side effect.
func (m *Manager) ResolveIdentity(ctx context.Context, token string) (*Identity, error) {
	payload, ok := m.codec.Resolve(token)
	if !ok {
		return nil, nil
	}
	session, err := m.store.GetSession(ctx, payload.SessionID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load session: %w", err)
	}
	if !session.IsOpen() || session.UserID != payload.UserID {
		return nil, nil
	}

	user, err := m.store.GetUserByID(ctx, session.UserID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("auth: load user: %w", err)
	}
	if user == nil || !user.IsActive {
		if err := m.CloseSession(ctx, session.ID); err != nil {
			m.logger.Warn("close session of inactive user", slog.String("session_id", session.ID.String()), slog.Any("error", err))
		}
		return nil, nil
	}

	roles, perms, err := m.grants.Grants(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Roles:       roles,
		Permissions: perms,
		IsSystem:    user.IsSystem,
	}, nil
}
