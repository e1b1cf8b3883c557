package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expertpos/expert-pos/internal/auth"
	"github.com/expertpos/expert-pos/internal/observability"
	"github.com/expertpos/expert-pos/internal/shared"
)

type fixedSessions struct {
	id uuid.UUID
}

func (f fixedSessions) SessionID(token string) (uuid.UUID, bool) {
	return f.id, token == "valid-token"
}

func newTestRouter(checks map[string]HealthCheck) (http.Handler, *shared.CSRFManager, uuid.UUID) {
	sessionID := uuid.New()
	csrf := shared.NewCSRFManager(strings.Repeat("k", 32))
	cookies := auth.CookieConfig{}
	router := NewRouter(RouterParams{
		Config:         &Config{AppEnv: "test", RateLimitPerMinute: 1000},
		AuthMiddleware: auth.NewMiddleware(cookies, fixedSessions{id: sessionID}, csrf),
		Metrics:        observability.NewMetrics(),
		HealthChecks:   checks,
	})
	return router, csrf, sessionID
}

func TestHealthzIsPublic(t *testing.T) {
	router, _, _ := newTestRouter(map[string]HealthCheck{"postgres": func(context.Context) error { return nil }})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","postgres":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestHealthzReportsDegradedDependencies(t *testing.T) {
	router, _, _ := newTestRouter(map[string]HealthCheck{"redis": func(context.Context) error { return errors.New("dial tcp: refused") }})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","redis":"unavailable"}`, rec.Body.String())
}

func TestProtectedPagesRequireSessionCookie(t *testing.T) {
	router, _, _ := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	router, csrf, sessionID := newTestRouter(nil)
	cookie := &http.Cookie{Name: auth.DefaultCookieName, Value: "valid-token"}

	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{}`))
	req.AddCookie(cookie)
	req.Header.Set(shared.CSRFHeader, csrf.TokenFor(sessionID))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "passes the CSRF check and reaches routing")
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router, _, _ := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
