package purchases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/expertpos/expert-pos/internal/inventory"
	"github.com/expertpos/expert-pos/internal/platform/db"
	"github.com/expertpos/expert-pos/internal/shared"
)

// Repository provides PostgreSQL backed persistence for purchases.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	*inventory.TxLedger
	tx pgx.Tx
}

// WithTx wraps callback in a read-committed transaction; stock rows are locked
// explicitly by the ledger.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return inventory.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{TxLedger: inventory.NewTxLedger(tx), tx: tx})
	})
}

// ListPurchases returns one page of purchases ordered newest first, with items attached.
func (r *Repository) ListPurchases(ctx context.Context, page shared.PageRequest) ([]Purchase, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, reference, COALESCE(supplier_name, ''), COALESCE(notes, ''),
	total_amount, created_by, created_by_name, created_at
FROM purchases
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	purchases, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Purchase, error) {
		var p Purchase
		err := row.Scan(&p.ID, &p.Reference, &p.SupplierName, &p.Notes, &p.TotalAmount, &p.CreatedBy, &p.CreatedByName, &p.CreatedAt)
		return p, err
	})
	if err != nil || len(purchases) == 0 {
		return purchases, total, err
	}

	ids := make([]uuid.UUID, len(purchases))
	index := make(map[uuid.UUID]int, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID
		index[p.ID] = i
	}
	itemRows, err := r.pool.Query(ctx, `SELECT pi.purchase_id, pi.id, pi.product_id, p.name, p.sku, pi.quantity, pi.unit_cost, pi.line_total
FROM purchase_items pi
JOIN products p ON p.id = pi.product_id
WHERE pi.purchase_id = ANY($1)
ORDER BY p.name`, ids)
	if err != nil {
		return nil, 0, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var (
			purchaseID uuid.UUID
			item       PurchaseItem
		)
		if err := itemRows.Scan(&purchaseID, &item.ID, &item.ProductID, &item.ProductName, &item.SKU, &item.Quantity, &item.UnitCost, &item.LineTotal); err != nil {
			return nil, 0, err
		}
		i := index[purchaseID]
		purchases[i].Items = append(purchases[i].Items, item)
	}
	return purchases, total, itemRows.Err()
}

// InsertPurchase writes the header and every item.
func (t *txRepo) InsertPurchase(ctx context.Context, purchase Purchase) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO purchases (id, reference, supplier_name, notes, total_amount, created_by, created_by_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		purchase.ID, purchase.Reference, db.NullString(purchase.SupplierName), db.NullString(purchase.Notes),
		purchase.TotalAmount, purchase.CreatedBy, purchase.CreatedByName, purchase.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	batch := &pgx.Batch{}
	for _, item := range purchase.Items {
		batch.Queue(`INSERT INTO purchase_items (id, purchase_id, product_id, quantity, unit_cost, line_total)
VALUES ($1, $2, $3, $4, $5, $6)`, item.ID, purchase.ID, item.ProductID, item.Quantity, item.UnitCost, item.LineTotal)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert purchase items: %w", err)
	}
	return nil
}
