package purchases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expertpos/expert-pos/internal/inventory"
	"github.com/expertpos/expert-pos/internal/rbac"
	"github.com/expertpos/expert-pos/internal/shared"
)

// RepositoryPort abstracts persistence for Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListPurchases(ctx context.Context, page shared.PageRequest) ([]Purchase, int, error)
}

// TxRepository exposes the operations available inside a purchase transaction.
type TxRepository interface {
	inventory.Ledger
	InsertPurchase(ctx context.Context, purchase Purchase) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records purchases.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// CreatePurchase records a purchase and increments stock in one transaction.
func (s *Service) CreatePurchase(ctx context.Context, actor *rbac.Principal, input CreatePurchaseInput) (Purchase, error) {
	if err := rbac.Authorize(actor, rbac.PermCreatePurchase); err != nil {
		return Purchase{}, err
	}
	input.SupplierName = strings.TrimSpace(input.SupplierName)
	input.Notes = strings.TrimSpace(input.Notes)
	if err := shared.ValidateStruct(input); err != nil {
		return Purchase{}, err
	}
	moves := make([]inventory.Movement, 0, len(input.Items))
	for _, line := range input.Items {
		if err := shared.ValidateAmount("unitCost", line.UnitCost); err != nil {
			return Purchase{}, err
		}
		moves = append(moves, inventory.Movement{ProductID: line.ProductID, Delta: line.Quantity})
	}

	now := s.now().UTC()
	purchase := Purchase{
		ID:            uuid.New(),
		Reference:     shared.NewReference("PUR", now),
		SupplierName:  input.SupplierName,
		Notes:         input.Notes,
		CreatedBy:     actor.ID,
		CreatedByName: actor.DisplayName,
		CreatedAt:     now,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		stock, err := inventory.Apply(ctx, tx, moves)
		if err != nil {
			return err
		}
		purchase.Items = make([]PurchaseItem, 0, len(input.Items))
		total := decimal.Zero
		for _, line := range input.Items {
			product := stock[line.ProductID]
			lineTotal := line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity)))
			purchase.Items = append(purchase.Items, PurchaseItem{
				ID:          uuid.New(),
				ProductID:   line.ProductID,
				ProductName: product.Name,
				SKU:         product.SKU,
				Quantity:    line.Quantity,
				UnitCost:    line.UnitCost,
				LineTotal:   lineTotal,
			})
			total = total.Add(lineTotal)
		}
		purchase.TotalAmount = total
		return tx.InsertPurchase(ctx, purchase)
	})
	if err != nil {
		return Purchase{}, err
	}

	s.record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "purchase.create",
		Entity:   "purchase",
		EntityID: purchase.ID.String(),
		Meta: map[string]any{
			"reference": purchase.Reference,
			"total":     purchase.TotalAmount.String(),
			"lines":     len(purchase.Items),
		},
		At: now,
	})
	s.logger.Info("purchase recorded", slog.String("reference", purchase.Reference), slog.String("total", purchase.TotalAmount.String()))
	return purchase, nil
}

// ListPurchases returns a page of purchases, newest first, with their items.
func (s *Service) ListPurchases(ctx context.Context, actor *rbac.Principal, page shared.PageRequest) (PurchasePage, error) {
	if err := rbac.AuthorizeAny(actor, rbac.PermViewPurchases, rbac.PermCreatePurchase); err != nil {
		return PurchasePage{}, err
	}
	purchases, total, err := s.repo.ListPurchases(ctx, page)
	if err != nil {
		return PurchasePage{}, fmt.Errorf("purchases: list: %w", err)
	}
	if purchases == nil {
		purchases = []Purchase{}
	}
	return PurchasePage{Purchases: purchases, Pagination: shared.NewPagination(page.Page, page.PerPage, total)}, nil
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}
