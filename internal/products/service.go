package products

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

// Repository persists products.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	Create(ctx context.Context, product Product) error
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages the product catalogue.
type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. audit may be nil.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// List returns a filtered page of products.
func (s *Service) List(ctx context.Context, actor *rbac.Principal, filters ListFilters) (ProductPage, error) {
	if err := rbac.AuthorizeAny(actor, rbac.PermViewProducts, rbac.PermManageProducts); err != nil {
		return ProductPage{}, err
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ProductPage{}, err
	}
	if items == nil {
		items = []Product{}
	}
	return ProductPage{Products: items, Pagination: shared.NewPagination(filters.Page, filters.PerPage, total)}, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, actor *rbac.Principal, id uuid.UUID) (Product, error) {
	if err := rbac.AuthorizeAny(actor, rbac.PermViewProducts, rbac.PermManageProducts); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

// Create adds a product to the catalogue.
func (s *Service) Create(ctx context.Context, actor *rbac.Principal, form ProductForm) (Product, error) {
	if err := rbac.Authorize(actor, rbac.PermManageProducts); err != nil {
		return Product{}, err
	}
	form = normalize(form)
	if err := validate(form); err != nil {
		return Product{}, err
	}
	now := s.now().UTC()
	product := Product{
		ID:          uuid.New(),
		SKU:         form.SKU,
		Name:        form.Name,
		Description: form.Description,
		Price:       form.Price,
		Stock:       form.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return Product{}, err
	}
	s.record(ctx, actor, "product.create", product)
	return product, nil
}

// Update replaces the editable fields of a product.
func (s *Service) Update(ctx context.Context, actor *rbac.Principal, id uuid.UUID, form ProductForm) (Product, error) {
	if err := rbac.Authorize(actor, rbac.PermManageProducts); err != nil {
		return Product{}, err
	}
	form = normalize(form)
	if err := validate(form); err != nil {
		return Product{}, err
	}
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	product.SKU = form.SKU
	product.Name = form.Name
	product.Description = form.Description
	product.Price = form.Price
	product.Stock = form.Stock
	product.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, product); err != nil {
		return Product{}, err
	}
	s.record(ctx, actor, "product.update", product)
	return product, nil
}

// Delete removes a product that no ledger row references.
func (s *Service) Delete(ctx context.Context, actor *rbac.Principal, id uuid.UUID) error {
	if err := rbac.Authorize(actor, rbac.PermManageProducts); err != nil {
		return err
	}
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "product.delete", product)
	return nil
}

func (s *Service) record(ctx context.Context, actor *rbac.Principal, action string, product Product) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "product",
		EntityID: product.ID.String(),
		Meta:     map[string]any{"sku": product.SKU, "price": product.Price.String(), "stock": product.Stock},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
