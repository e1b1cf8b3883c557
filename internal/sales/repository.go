package sales

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

// Repository provides PostgreSQL backed persistence for sales.
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

// ListSales returns one page of sales ordered newest first, with items attached.
func (r *Repository) ListSales(ctx context.Context, page shared.PageRequest) ([]Sale, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, reference, COALESCE(customer_name, ''), COALESCE(notes, ''),
	total_amount, created_by, created_by_name, created_at
FROM sales
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	sales, err := pgx.CollectRows(rows, scanSale)
	if err != nil {
		return nil, 0, err
	}
	if len(sales) == 0 {
		return sales, total, nil
	}

	ids := make([]uuid.UUID, len(sales))
	index := make(map[uuid.UUID]int, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		index[s.ID] = i
	}
	items, err := queryItems(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for saleID, lines := range items {
		sales[index[saleID]].Items = lines
	}
	return sales, total, nil
}

// RecentSales returns the newest sales without items.
func (r *Repository) RecentSales(ctx context.Context, limit int) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, reference, COALESCE(customer_name, ''), COALESCE(notes, ''),
	total_amount, created_by, created_by_name, created_at
FROM sales
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanSale)
}

// InsertSale writes the header and every item.
func (t *txRepo) InsertSale(ctx context.Context, sale Sale) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sales (id, reference, customer_name, notes, total_amount, created_by, created_by_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sale.ID, sale.Reference, db.NullString(sale.CustomerName), db.NullString(sale.Notes),
		sale.TotalAmount, sale.CreatedBy, sale.CreatedByName, sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	batch := &pgx.Batch{}
	for _, item := range sale.Items {
		batch.Queue(`INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, line_total)
VALUES ($1, $2, $3, $4, $5, $6)`, item.ID, sale.ID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert sale items: %w", err)
	}
	return nil
}

// GetSaleForUpdate locks the sale header and loads its items.
func (t *txRepo) GetSaleForUpdate(ctx context.Context, id uuid.UUID) (Sale, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, reference, COALESCE(customer_name, ''), COALESCE(notes, ''),
	total_amount, created_by, created_by_name, created_at
FROM sales
WHERE id = $1
FOR UPDATE`, id)
	if err != nil {
		return Sale{}, err
	}
	sale, err := pgx.CollectExactlyOneRow(rows, scanSale)
	if db.IsNoRows(err) {
		return Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	items, err := queryItems(ctx, t.tx, []uuid.UUID{id})
	if err != nil {
		return Sale{}, err
	}
	sale.Items = items[id]
	return sale, nil
}

// DeleteSale removes the items and the header.
func (t *txRepo) DeleteSale(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, ids []uuid.UUID) (map[uuid.UUID][]SaleItem, error) {
	rows, err := q.Query(ctx, `SELECT si.sale_id, si.id, si.product_id, p.name, p.sku, si.quantity, si.unit_price, si.line_total
FROM sale_items si
JOIN products p ON p.id = si.product_id
WHERE si.sale_id = ANY($1)
ORDER BY p.name`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make(map[uuid.UUID][]SaleItem, len(ids))
	for rows.Next() {
		var (
			saleID uuid.UUID
			item   SaleItem
		)
		if err := rows.Scan(&saleID, &item.ID, &item.ProductID, &item.ProductName, &item.SKU, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		items[saleID] = append(items[saleID], item)
	}
	return items, rows.Err()
}

func scanSale(row pgx.CollectableRow) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.Reference, &s.CustomerName, &s.Notes, &s.TotalAmount, &s.CreatedBy, &s.CreatedByName, &s.CreatedAt)
	return s, err
}
