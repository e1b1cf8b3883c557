package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/expertpos/expert-pos/internal/platform/httpx"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

// Decision outcomes reported to DecisionRecorder.
const (
	OutcomeAllowed         = "allowed"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeError           = "error"
)

// IdentityResolver maps a session token to an identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*Identity, error)
}

// DecisionRecorder observes guard outcomes.
type DecisionRecorder interface {
	ObserveAuthDecision(outcome string)
}

// Guard gates requests on identity and permissions.
type Guard struct {
	resolver IdentityResolver
	cookies  CookieConfig
	metrics  DecisionRecorder
	logger   *slog.Logger
}

// NewGuard constructs a Guard. metrics may be nil.
func NewGuard(resolver IdentityResolver, cookies CookieConfig, metrics DecisionRecorder, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{resolver: resolver, cookies: cookies, metrics: metrics, logger: logger}
}

// RequireIdentity resolves the identity of r or returns shared.ErrUnauthenticated.
// Store failures are returned as-is and deny the request.
func (g *Guard) RequireIdentity(r *http.Request) (*Identity, error) {
	if p := rbac.PrincipalFromContext(r.Context()); p != nil {
		return p, nil
	}
	identity, err := g.resolver.ResolveIdentity(r.Context(), g.cookies.Token(r))
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, shared.ErrUnauthenticated
	}
	return identity, nil
}

// RequirePermission resolves the identity and checks a single permission.
func (g *Guard) RequirePermission(r *http.Request, code string) (*Identity, error) {
	return g.RequireAnyPermission(r, code)
}

// RequireAnyPermission resolves the identity and checks that it holds at least one of
// codes. The super-role passes every check.
func (g *Guard) RequireAnyPermission(r *http.Request, codes ...string) (*Identity, error) {
	identity, err := g.RequireIdentity(r)
	if err != nil {
		return nil, err
	}
	if err := rbac.AuthorizeAny(identity, codes...); err != nil {
		return nil, err
	}
	return identity, nil
}

// Identity returns middleware requiring an authenticated identity.
func (g *Guard) Identity() func(http.Handler) http.Handler {
	return g.middleware(func(r *http.Request) (*Identity, error) {
		return g.RequireIdentity(r)
	})
}

// Permission returns middleware requiring code.
func (g *Guard) Permission(code string) func(http.Handler) http.Handler {
	return g.middleware(func(r *http.Request) (*Identity, error) {
		return g.RequirePermission(r, code)
	})
}

// AnyPermission returns middleware requiring at least one of codes.
func (g *Guard) AnyPermission(codes ...string) func(http.Handler) http.Handler {
	return g.middleware(func(r *http.Request) (*Identity, error) {
		return g.RequireAnyPermission(r, codes...)
	})
}

func (g *Guard) middleware(check func(*http.Request) (*Identity, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := check(r)
			g.observe(err)
			if err != nil {
				if httpx.StatusFor(err) == http.StatusInternalServerError {
					g.logger.Error("resolve identity", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.Deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.ContextWithPrincipal(r.Context(), identity)))
		})
	}
}

func (g *Guard) observe(err error) {
	if g.metrics == nil {
		return
	}
	outcome := OutcomeAllowed
	if err != nil {
		switch httpx.StatusFor(err) {
		case http.StatusUnauthorized:
			outcome = OutcomeUnauthenticated
		case http.StatusForbidden:
			outcome = OutcomeForbidden
		default:
			outcome = OutcomeError
		}
	}
	g.metrics.ObserveAuthDecision(outcome)
}

var _ httpx.Guard = (*Guard)(nil)
