package rbac

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated actor behind a request, with roles and permissions
// resolved from the store at request time.
type Principal struct {
	ID          uuid.UUID     `json:"id"`
	Username    string        `json:"username"`
	DisplayName string        `json:"displayName"`
	Roles       []string      `json:"roles"`
	Permissions PermissionSet `json:"permissions"`
	IsSystem    bool          `json:"isSystem"`
}

// IsSuper reports whether the principal holds the super-role.
func (p *Principal) IsSuper() bool {
	return p != nil && HasSuperRole(p.Roles)
}

// Can reports whether the principal may exercise at least one of codes.
func (p *Principal) Can(codes ...string) bool {
	return AuthorizeAny(p, codes...) == nil
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal stored by the guard, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
