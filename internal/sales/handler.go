package sales

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/platform/httpx"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

// IdempotencyHeader optionally carries a client-chosen key for sale submissions.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes sale endpoints.
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

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.AnyPermission(rbac.PermViewSales, rbac.PermCreateSale)).Get("/sales", h.listSales)
	r.With(h.guard.Permission(rbac.PermCreateSale)).Post("/sales", h.createSale)
	r.With(h.guard.Permission(rbac.PermDeleteSale)).Delete("/sales/{id}", h.deleteSale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListSales(r.Context(), rbac.PrincipalFromContext(r.Context()), shared.PageRequestFromQuery(r))
	if err != nil {
		h.fail(w, r, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var input CreateSaleInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	sale, err := h.service.CreateSale(r.Context(), rbac.PrincipalFromContext(r.Context()), input, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.fail(w, r, "create sale", err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Sale recorded", sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, fmt.Errorf("%w: invalid sale id", shared.ErrValidation))
		return
	}
	if err := h.service.DeleteSale(r.Context(), rbac.PrincipalFromContext(r.Context()), id); err != nil {
		h.fail(w, r, "delete sale", err)
		return
	}
	httpx.OK(w, http.StatusOK, "Sale deleted", nil)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}
