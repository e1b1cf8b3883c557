package purchases

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/expertpos/expert-pos/internal/platform/httpx"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

// Handler exposes purchase endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   httpx.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard httpx.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.AnyPermission(rbac.PermViewPurchases, rbac.PermCreatePurchase)).Get("/purchases", h.listPurchases)
	r.With(h.guard.Permission(rbac.PermCreatePurchase)).Post("/purchases", h.createPurchase)
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListPurchases(r.Context(), rbac.PrincipalFromContext(r.Context()), shared.PageRequestFromQuery(r))
	if err != nil {
		h.fail(w, r, "list purchases", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var input CreatePurchaseInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	purchase, err := h.service.CreatePurchase(r.Context(), rbac.PrincipalFromContext(r.Context()), input)
	if err != nil {
		h.fail(w, r, "create purchase", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Purchase recorded", purchase)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}
