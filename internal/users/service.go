package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/auth"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
}

// TxRepository exposes the writes that must commit together.
type TxRepository interface {
	InsertUser(ctx context.Context, user User, passwordHash string) error
	GetUserForUpdate(ctx context.Context, id uuid.UUID) (User, error)
	RoleIDs(ctx context.Context, names []string) (map[string]uuid.UUID, error)
	ReplaceUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error
}

// PasswordHasher derives stored password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user administration. Every operation requires MANAGE_USERS.
type Service struct {
	repo   RepositoryPort
	hasher PasswordHasher
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, hasher PasswordHasher, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, audit: audit, logger: logger, now: time.Now}
}

// ListUsers returns all users with their role names.
func (s *Service) ListUsers(ctx context.Context, actor *rbac.Principal) ([]User, error) {
	if err := rbac.Authorize(actor, rbac.PermManageUsers); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// CreateUser stores a new active user together with its roles.
func (s *Service) CreateUser(ctx context.Context, actor *rbac.Principal, input CreateUserInput) (User, error) {
	if err := rbac.Authorize(actor, rbac.PermManageUsers); err != nil {
		return User{}, err
	}
	input.Username = auth.NormalizeUsername(input.Username)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Roles = normalizeRoles(input.Roles)
	if err := shared.ValidateStruct(input); err != nil {
		return User{}, err
	}
	if err := checkPassword(input.Password); err != nil {
		return User{}, err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return User{}, err
	}

	now := s.now().UTC()
	user := User{
		ID:          uuid.New(),
		Username:    input.Username,
		DisplayName: input.DisplayName,
		IsActive:    true,
		Roles:       input.Roles,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		roleIDs, err := resolveRoles(ctx, tx, user.Roles)
		if err != nil {
			return err
		}
		if err := tx.InsertUser(ctx, user, hash); err != nil {
			return err
		}
		return tx.ReplaceUserRoles(ctx, user.ID, roleIDs)
	})
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actor, "user.create", user.ID, map[string]any{"username": user.Username, "roles": user.Roles})
	return user, nil
}

// UpdateUserRoles replaces the role set of a user. System users always keep the
// super-role.
func (s *Service) UpdateUserRoles(ctx context.Context, actor *rbac.Principal, id uuid.UUID, input UpdateRolesInput) (User, error) {
	if err := rbac.Authorize(actor, rbac.PermManageUsers); err != nil {
		return User{}, err
	}
	input.Roles = normalizeRoles(input.Roles)
	if err := shared.ValidateStruct(input); err != nil {
		return User{}, err
	}
	var user User
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		user, err = tx.GetUserForUpdate(ctx, id)
		if err != nil {
			return err
		}
		roles := input.Roles
		if user.IsSystem && !slices.Contains(roles, rbac.RoleSuperUser) {
			roles = append(roles, rbac.RoleSuperUser)
		}
		roleIDs, err := resolveRoles(ctx, tx, roles)
		if err != nil {
			return err
		}
		user.Roles = roles
		return tx.ReplaceUserRoles(ctx, id, roleIDs)
	})
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actor, "user.roles.update", id, map[string]any{"roles": user.Roles})
	return user, nil
}

// SetUserActive activates or deactivates a user. The change applies to the user's
// next request because identities are resolved from the store every time.
func (s *Service) SetUserActive(ctx context.Context, actor *rbac.Principal, id uuid.UUID, input SetActiveInput) error {
	if err := rbac.Authorize(actor, rbac.PermManageUsers); err != nil {
		return err
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if user.IsSystem && !input.Active {
		return ErrSystemUser
	}
	if err := s.repo.SetActive(ctx, id, input.Active, s.now().UTC()); err != nil {
		return err
	}
	action := "user.deactivate"
	if input.Active {
		action = "user.activate"
	}
	s.record(ctx, actor, action, id, map[string]any{"username": user.Username})
	return nil
}

// ResetPassword replaces the password of a user.
func (s *Service) ResetPassword(ctx context.Context, actor *rbac.Principal, id uuid.UUID, input ResetPasswordInput) error {
	if err := rbac.Authorize(actor, rbac.PermManageUsers); err != nil {
		return err
	}
	if err := shared.ValidateStruct(input); err != nil {
		return err
	}
	if err := checkPassword(input.Password); err != nil {
		return err
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return err
	}
	if err := s.repo.SetPasswordHash(ctx, id, hash, s.now().UTC()); err != nil {
		return err
	}
	s.record(ctx, actor, "user.password.reset", id, map[string]any{"username": user.Username})
	s.logger.Info("password reset", slog.String("username", user.Username))
	return nil
}

func checkPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password must not be blank", shared.ErrValidation)
	}
	return nil
}

func normalizeRoles(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func resolveRoles(ctx context.Context, tx TxRepository, names []string) ([]uuid.UUID, error) {
	known, err := tx.RoleIDs(ctx, names)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %s", shared.ErrValidation, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Service) record(ctx context.Context, actor *rbac.Principal, action string, userID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "user", EntityID: userID.String(), Meta: meta})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
