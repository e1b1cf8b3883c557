package rbac

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/shared"
)

// RepositoryPort defines the persistence operations needed by Service.
type RepositoryPort interface {
	UserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	UserPermissionCodes(ctx context.Context, userID uuid.UUID) ([]string, error)
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	ReplaceRolePermissions(ctx context.Context, roleName string, codes []string) error
}

// AuditPort records administrative changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates role and permission queries.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Grants returns the user's role names and the deduplicated union of the permissions
// those roles grant. Nothing is cached.
func (s *Service) Grants(ctx context.Context, userID uuid.UUID) ([]string, PermissionSet, error) {
	roles, err := s.repo.UserRoleNames(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("rbac: load roles: %w", err)
	}
	codes, err := s.repo.UserPermissionCodes(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("rbac: load permissions: %w", err)
	}
	return roles, NewPermissionSet(codes...), nil
}

// ListRoles returns every role with the codes it grants.
func (s *Service) ListRoles(ctx context.Context, actor *Principal) ([]Role, error) {
	if err := AuthorizeAny(actor, PermManageUsers, PermManageRoles); err != nil {
		return nil, err
	}
	return s.repo.ListRoles(ctx)
}

// ListPermissions returns every stored permission.
func (s *Service) ListPermissions(ctx context.Context, actor *Principal) ([]Permission, error) {
	if err := Authorize(actor, PermManageRoles); err != nil {
		return nil, err
	}
	return s.repo.ListPermissions(ctx)
}

// SetRolePermissions replaces the grants of a role. The super-role always keeps the
// full catalogue.
func (s *Service) SetRolePermissions(ctx context.Context, actor *Principal, roleName string, codes []string) error {
	if err := Authorize(actor, PermManageRoles); err != nil {
		return err
	}
	set := NewPermissionSet(codes...)
	for code := range set {
		if !IsKnownPermission(code) {
			return fmt.Errorf("%w: unknown permission %s", shared.ErrValidation, code)
		}
	}
	roleName = normalizeCode(roleName)
	if roleName == RoleSuperUser && len(set) < len(Catalogue) {
		return fmt.Errorf("%w: %s permissions cannot be reduced", shared.ErrValidation, RoleSuperUser)
	}
	if err := s.repo.ReplaceRolePermissions(ctx, roleName, set.Codes()); err != nil {
		return err
	}
	s.record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "role.permissions.set",
		Entity:   "role",
		EntityID: roleName,
		Meta:     map[string]any{"permissions": set.Codes()},
	})
	return nil
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}
