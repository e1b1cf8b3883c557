package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/expertpos/expert-pos/internal/platform/httpx"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions SessionIDSource
	guard    httpx.Guard
	csrf     *shared.CSRFManager
	cookies  CookieConfig
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions SessionIDSource, guard httpx.Guard, csrf *shared.CSRFManager, cookies CookieConfig) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		guard:    guard,
		csrf:     csrf,
		cookies:  cookies,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Get("/unauthorized", h.showUnauthorized)
	r.Post("/api/auth/login", h.handleLogin)
	r.Post(LogoutPath, h.handleLogout)
	r.With(h.guard.Identity()).Get("/api/me", h.showMe)
}

type loginResponse struct {
	User      *Identity `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
	CSRFToken string    `json:"csrfToken"`
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next == "" || next[0] != '/' {
		next = "/dashboard"
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"page":     "login",
		"loginUrl": "/api/auth/login",
		"next":     next,
	})
}

func (h *Handler) showUnauthorized(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"page":    "unauthorized",
		"message": shared.UserSafeMessage(shared.ErrForbidden),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	meta := shared.ClientMetaFromContext(r.Context())
	if meta == (shared.ClientMeta{}) {
		meta = shared.ClientMetaFromRequest(r)
	}
	result, err := h.service.Login(r.Context(), input, SessionMetadata{UserAgent: meta.UserAgent, IPAddress: meta.IPAddress})
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, r, err)
		return
	}
	h.cookies.Set(w, result.Token, result.ExpiresAt)
	httpx.OK(w, http.StatusOK, "Signed in", loginResponse{
		User:      result.Identity,
		ExpiresAt: result.ExpiresAt,
		CSRFToken: h.csrf.TokenFor(result.Session.ID),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), h.cookies.Token(r)); err != nil {
		h.logger.Warn("logout", slog.Any("error", err))
	}
	h.cookies.Clear(w)
	http.Redirect(w, r, httpx.LoginPath, http.StatusSeeOther)
}

func (h *Handler) showMe(w http.ResponseWriter, r *http.Request) {
	identity := rbac.PrincipalFromContext(r.Context())
	body := map[string]any{"user": identity}
	if sessionID, ok := h.sessions.SessionID(h.cookies.Token(r)); ok {
		body["csrfToken"] = h.csrf.TokenFor(sessionID)
	}
	httpx.JSON(w, http.StatusOK, body)
}
