package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expertpos/expert-pos/internal/shared"
)

// ErrSaleNotFound indicates the sale does not exist.
var ErrSaleNotFound = fmt.Errorf("%w: sale", shared.ErrNotFound)

// Sale is a recorded sale with its line items.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	Reference     string          `json:"reference"`
	CustomerName  string          `json:"customerName,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CreatedBy     uuid.UUID       `json:"createdBy"`
	CreatedByName string          `json:"createdByName"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []SaleItem      `json:"items"`
}

// SaleItem is one product line of a sale. UnitPrice is the catalogue price at the
// time of sale.
type SaleItem struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// CreateSaleInput is the payload for recording a sale. Prices are never accepted
// from the caller.
type CreateSaleInput struct {
	CustomerName string          `json:"customerName" validate:"max=120"`
	Notes        string          `json:"notes" validate:"max=500"`
	Items        []SaleLineInput `json:"items" validate:"min=1,dive"`
}

// SaleLineInput requests a quantity of one product.
type SaleLineInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

// SalePage is one page of sales, newest first.
type SalePage struct {
	Sales      []Sale            `json:"sales"`
	Pagination shared.Pagination `json:"pagination"`
}
