package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expertpos/expert-pos/internal/shared"
)

var (
	// ErrInsufficientStock indicates a movement would drive stock below zero.
	ErrInsufficientStock = fmt.Errorf("%w: insufficient inventory", shared.ErrValidation)
	// ErrProductNotFound indicates a movement references an unknown product.
	ErrProductNotFound = fmt.Errorf("%w: product", shared.ErrNotFound)
	// ErrInvalidQuantity indicates a zero movement.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must not be zero", shared.ErrValidation)
)

// Movement changes the stock of one product. Positive deltas add stock.
type Movement struct {
	ProductID uuid.UUID
	Delta     int
}

// StockItem is a product row as seen under lock.
type StockItem struct {
	ProductID uuid.UUID
	SKU       string
	Name      string
	Price     decimal.Decimal
	Stock     int
}
