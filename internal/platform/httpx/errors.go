// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/expertpos/expert-pos/internal/shared"
)

const (
	// LoginPath is where unauthenticated page requests are sent.
	LoginPath = "/login"
	// UnauthorizedPath is where forbidden page requests are sent.
	UnauthorizedPath = "/unauthorized"
)

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrUnauthenticated), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden),
		errors.Is(err, shared.ErrCSRFTokenMissing),
		errors.Is(err, shared.ErrCSRFTokenMismatch):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrThrottled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsPageRequest reports whether r is a navigational read, as opposed to an API call
// or a state-changing action.
func IsPageRequest(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return !strings.HasPrefix(r.URL.Path, "/api/")
}

// LoginRedirectTarget builds /login?next=<path> for the current request.
func LoginRedirectTarget(r *http.Request) string {
	next := r.URL.Path
	if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// Deny answers a request rejected by the guard. Page requests are redirected to the
// login or unauthorized page; everything else receives an action result.
func Deny(w http.ResponseWriter, r *http.Request, err error) {
	if IsPageRequest(r) {
		switch {
		case errors.Is(err, shared.ErrUnauthenticated):
			http.Redirect(w, r, LoginRedirectTarget(r), http.StatusSeeOther)
			return
		case errors.Is(err, shared.ErrForbidden):
			http.Redirect(w, r, UnauthorizedPath, http.StatusSeeOther)
			return
		}
	}
	RespondError(w, r, err)
}

// RespondError writes err as an action result for mutations and API calls, and as
// RFC7807 problem details for page reads.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	message := shared.UserSafeMessage(err)
	if r != nil && IsPageRequest(r) {
		Problem(w, status, http.StatusText(status), message)
		return
	}
	JSON(w, status, ActionResult{Success: false, Message: message})
}
