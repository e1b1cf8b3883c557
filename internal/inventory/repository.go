package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/expertpos/expert-pos/internal/platform/db"
)

// TxOptions is used for every transaction that moves stock. Under read committed a
// FOR UPDATE that waited on a concurrent writer returns the committed row instead of
// failing with a serialization error, so Apply sees the stock left by the winner.
var TxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithTx runs fn in a stock-moving transaction.
func WithTx(ctx context.Context, pool db.TxBeginner, fn func(pgx.Tx) error) error {
	return db.WithTxOptions(ctx, pool, TxOptions, fn)
}

// TxLedger implements Ledger on an open PostgreSQL transaction.
type TxLedger struct {
	tx pgx.Tx
}

// NewTxLedger wraps tx.
func NewTxLedger(tx pgx.Tx) *TxLedger {
	return &TxLedger{tx: tx}
}

// LockProducts selects the product rows FOR UPDATE in ascending id order.
func (l *TxLedger) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]StockItem, error) {
	rows, err := l.tx.Query(ctx, `SELECT id, sku, name, price, stock
FROM products
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make(map[uuid.UUID]StockItem, len(ids))
	for rows.Next() {
		var item StockItem
		if err := rows.Scan(&item.ProductID, &item.SKU, &item.Name, &item.Price, &item.Stock); err != nil {
			return nil, err
		}
		items[item.ProductID] = item
	}
	return items, rows.Err()
}

// AdjustStock applies delta with a guard that keeps stock non-negative.
func (l *TxLedger) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (bool, error) {
	tag, err := l.tx.Exec(ctx, `UPDATE products
SET stock = stock + $2, updated_at = NOW()
WHERE id = $1 AND stock + $2 >= 0`, productID, delta)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var _ Ledger = (*TxLedger)(nil)
