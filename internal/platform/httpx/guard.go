package httpx

import "net/http"

// Guard supplies route-level authorization middleware. Every variant places the
// resolved principal in the request context.
type Guard interface {
	Identity() func(http.Handler) http.Handler
	Permission(code string) func(http.Handler) http.Handler
	AnyPermission(codes ...string) func(http.Handler) http.Handler
}
