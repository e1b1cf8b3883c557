package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/platform/httpx"
	"github.com/expertpos/expert-pos/internal/shared"
)

// LogoutPath closes the current session and clears the cookie.
const LogoutPath = "/logout"

// PublicPaths are reachable without a session cookie. Matching is by prefix.
var PublicPaths = []string{"/login", "/unauthorized", "/api/auth/login", "/healthz", "/metrics"}

// IsPublicPath reports whether path bypasses the session cookie check.
func IsPublicPath(path string) bool {
	for _, prefix := range PublicPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// SessionIDSource extracts the session id from a token without a store lookup.
type SessionIDSource interface {
	SessionID(token string) (uuid.UUID, bool)
}

// Middleware performs the coarse checks that run before any handler: cookie
// presence and CSRF verification for state-changing requests.
type Middleware struct {
	cookies  CookieConfig
	sessions SessionIDSource
	csrf     *shared.CSRFManager
}

// NewMiddleware constructs Middleware.
func NewMiddleware(cookies CookieConfig, sessions SessionIDSource, csrf *shared.CSRFManager) *Middleware {
	return &Middleware{cookies: cookies, sessions: sessions, csrf: csrf}
}

// RequireSessionCookie rejects requests to protected paths that carry no session
// cookie. It does not validate the token; the guard does.
func (m *Middleware) RequireSessionCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsPublicPath(r.URL.Path) || m.cookies.Token(r) != "" {
			next.ServeHTTP(w, r)
			return
		}
		httpx.Deny(w, r, shared.ErrUnauthenticated)
	})
}

// VerifyCSRF requires a token bound to the current session on state-changing
// requests to protected paths.
func (m *Middleware) VerifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || IsPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		sessionID, ok := m.sessions.SessionID(m.cookies.Token(r))
		if !ok {
			// A token that no longer resolves is already logged out; let logout
			// clear the cookie.
			if r.URL.Path == LogoutPath {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Deny(w, r, shared.ErrUnauthenticated)
			return
		}
		token := r.Header.Get(shared.CSRFHeader)
		if token == "" {
			token = r.PostFormValue(shared.CSRFFormField)
		}
		if err := m.csrf.VerifyToken(sessionID, token); err != nil {
			httpx.RespondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
