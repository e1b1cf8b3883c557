package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/expertpos/expert-pos/internal/platform/httpx"
)

// Handler exposes role and permission endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   httpx.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard httpx.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers role and permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.AnyPermission(PermManageUsers, PermManageRoles)).Get("/roles", h.listRoles)
	r.With(h.guard.Permission(PermManageRoles)).Put("/roles/{name}/permissions", h.setRolePermissions)
	r.With(h.guard.Permission(PermManageRoles)).Get("/permissions", h.listPermissions)
}

type rolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "list roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "list permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req rolePermissionsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.service.SetRolePermissions(r.Context(), PrincipalFromContext(r.Context()), name, req.Permissions); err != nil {
		h.fail(w, r, "set role permissions", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Role permissions updated", nil)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}
