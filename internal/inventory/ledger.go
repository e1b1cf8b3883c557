package inventory

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Ledger exposes the row-level stock operations available inside a transaction.
type Ledger interface {
	// LockProducts locks the rows of ids in ascending id order and returns those found.
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]StockItem, error)
	// AdjustStock adds delta to the stock of a product unless the result would be
	// negative, in which case it reports false and changes nothing.
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (bool, error)
}

// Apply locks every product touched by moves, verifies that no stock goes negative
// and applies the deltas. Moves for the same product are summed. The returned items
// carry the stock after the change. Callers must run Apply inside the transaction
// that also writes the ledger rows.
func Apply(ctx context.Context, ledger Ledger, moves []Movement) (map[uuid.UUID]StockItem, error) {
	deltas := make(map[uuid.UUID]int, len(moves))
	for _, m := range moves {
		if m.Delta == 0 {
			return nil, ErrInvalidQuantity
		}
		deltas[m.ProductID] += m.Delta
	}
	ids := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	SortIDs(ids)

	items, err := ledger.LockProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("inventory: lock products: %w", err)
	}
	for _, id := range ids {
		item, ok := items[id]
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrProductNotFound, id)
		}
		if item.Stock+deltas[id] < 0 {
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, item.Name)
		}
	}
	for _, id := range ids {
		item := items[id]
		delta := deltas[id]
		if delta == 0 {
			continue
		}
		ok, err := ledger.AdjustStock(ctx, id, delta)
		if err != nil {
			return nil, fmt.Errorf("inventory: adjust stock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, item.Name)
		}
		item.Stock += delta
		items[id] = item
	}
	return items, nil
}

// SortIDs orders ids ascending by their byte representation, which matches the
// ordering PostgreSQL applies to uuid columns.
func SortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
