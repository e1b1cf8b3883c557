package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expertpos/expert-pos/internal/shared"
)

// Purchase is a stock receipt from a supplier with its line items.
type Purchase struct {
	ID            uuid.UUID       `json:"id"`
	Reference     string          `json:"reference"`
	SupplierName  string          `json:"supplierName,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CreatedBy     uuid.UUID       `json:"createdBy"`
	CreatedByName string          `json:"createdByName"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []PurchaseItem  `json:"items"`
}

// PurchaseItem is one received product line.
type PurchaseItem struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// CreatePurchaseInput is the payload for recording a purchase.
type CreatePurchaseInput struct {
	SupplierName string              `json:"supplierName" validate:"max=120"`
	Notes        string              `json:"notes" validate:"max=500"`
	Items        []PurchaseLineInput `json:"items" validate:"min=1,dive"`
}

// PurchaseLineInput receives a quantity of one product at the supplier's unit cost.
type PurchaseLineInput struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// PurchasePage is one page of purchases, newest first.
type PurchasePage struct {
	Purchases  []Purchase        `json:"purchases"`
	Pagination shared.Pagination `json:"pagination"`
}
