package sales

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

const idempotencyModule = "sales"

// RepositoryPort abstracts persistence for Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListSales(ctx context.Context, page shared.PageRequest) ([]Sale, int, error)
}

// TxRepository exposes the operations available inside a sale transaction.
type TxRepository interface {
	inventory.Ledger
	InsertSale(ctx context.Context, sale Sale) error
	GetSaleForUpdate(ctx context.Context, id uuid.UUID) (Sale, error)
	DeleteSale(ctx context.Context, id uuid.UUID) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort deduplicates retried submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service records and removes sales.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service. audit and idempotency may be nil.
func NewService(repo RepositoryPort, audit AuditPort, idempotency IdempotencyPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, idempotency: idempotency, logger: logger, now: time.Now}
}

// CreateSale records a sale and decrements stock in one transaction. Line prices
// come from the locked catalogue rows. Either every line is applied or none is.
func (s *Service) CreateSale(ctx context.Context, actor *rbac.Principal, input CreateSaleInput, idempotencyKey string) (Sale, error) {
	if err := rbac.Authorize(actor, rbac.PermCreateSale); err != nil {
		return Sale{}, err
	}
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.Notes = strings.TrimSpace(input.Notes)
	if err := shared.ValidateStruct(input); err != nil {
		return Sale{}, err
	}
	moves := make([]inventory.Movement, 0, len(input.Items))
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, line := range input.Items {
		if _, dup := seen[line.ProductID]; dup {
			return Sale{}, fmt.Errorf("%w: product %s appears more than once", shared.ErrValidation, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
		moves = append(moves, inventory.Movement{ProductID: line.ProductID, Delta: -line.Quantity})
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			return Sale{}, err
		}
	}

	now := s.now().UTC()
	sale := Sale{
		ID:            uuid.New(),
		Reference:     shared.NewReference("SAL", now),
		CustomerName:  input.CustomerName,
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
		sale.Items = make([]SaleItem, 0, len(input.Items))
		total := decimal.Zero
		for _, line := range input.Items {
			product := stock[line.ProductID]
			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			sale.Items = append(sale.Items, SaleItem{
				ID:          uuid.New(),
				ProductID:   line.ProductID,
				ProductName: product.Name,
				SKU:         product.SKU,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
				LineTotal:   lineTotal,
			})
			total = total.Add(lineTotal)
		}
		sale.TotalAmount = total
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			if delErr := s.idempotency.Delete(ctx, idempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return Sale{}, err
	}

	s.record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "sale.create",
		Entity:   "sale",
		EntityID: sale.ID.String(),
		Meta: map[string]any{
			"reference": sale.Reference,
			"total":     sale.TotalAmount.String(),
			"lines":     len(sale.Items),
		},
		At: now,
	})
	s.logger.Info("sale recorded", slog.String("reference", sale.Reference), slog.String("total", sale.TotalAmount.String()))
	return sale, nil
}

// DeleteSale removes a sale and returns its quantities to stock atomically.
func (s *Service) DeleteSale(ctx context.Context, actor *rbac.Principal, id uuid.UUID) error {
	if err := rbac.Authorize(actor, rbac.PermDeleteSale); err != nil {
		return err
	}
	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sale, err = tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		moves := make([]inventory.Movement, 0, len(sale.Items))
		for _, item := range sale.Items {
			moves = append(moves, inventory.Movement{ProductID: item.ProductID, Delta: item.Quantity})
		}
		if len(moves) > 0 {
			if _, err := inventory.Apply(ctx, tx, moves); err != nil {
				return err
			}
		}
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return err
	}

	s.record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "sale.delete",
		Entity:   "sale",
		EntityID: id.String(),
		Meta:     map[string]any{"reference": sale.Reference, "total": sale.TotalAmount.String()},
	})
	return nil
}

// ListSales returns a page of sales, newest first, with their items.
func (s *Service) ListSales(ctx context.Context, actor *rbac.Principal, page shared.PageRequest) (SalePage, error) {
	if err := rbac.AuthorizeAny(actor, rbac.PermViewSales, rbac.PermCreateSale); err != nil {
		return SalePage{}, err
	}
	sales, total, err := s.repo.ListSales(ctx, page)
	if err != nil {
		return SalePage{}, fmt.Errorf("sales: list: %w", err)
	}
	if sales == nil {
		sales = []Sale{}
	}
	return SalePage{Sales: sales, Pagination: shared.NewPagination(page.Page, page.PerPage, total)}, nil
}

func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit record", slog.String("action", log.Action), slog.Any("error", err))
	}
}
