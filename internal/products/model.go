package products

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expertpos/expert-pos/internal/shared"
)

var (
	// ErrNotFound indicates the product does not exist.
	ErrNotFound = fmt.Errorf("%w: product", shared.ErrNotFound)
	// ErrDuplicateSKU indicates another product already uses the SKU.
	ErrDuplicateSKU = fmt.Errorf("%w: SKU already exists", shared.ErrConflict)
	// ErrInUse indicates the product is referenced by sales or purchases.
	ErrInUse = fmt.Errorf("%w: product is referenced by recorded sales or purchases", shared.ErrConflict)
)

// Product represents a catalogue entry with its current stock.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductForm is the payload for creating or updating a product.
type ProductForm struct {
	SKU         string          `json:"sku" validate:"min=2,max=50"`
	Name        string          `json:"name" validate:"min=3,max=120"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// ListFilters narrows a product listing.
type ListFilters struct {
	shared.PageRequest
	Search  string
	SortBy  string
	SortDir string
}

// ProductPage is one page of products.
type ProductPage struct {
	Products   []Product         `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}
