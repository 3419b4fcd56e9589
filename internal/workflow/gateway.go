package workflow

import (
	"context"

	"procurement-agent/internal/core"

	"github.com/shopspring/decimal"
)

// ExtractionGateway is the document-analysis collaborator: it turns raw
// document content into the unvalidated analysis payload.
type ExtractionGateway interface {
	AnalyzeDocument(ctx context.Context, fileName, content string) (*core.RawAnalysis, error)
}

// InventoryGateway is the inventory collaborator surface the coordinator
// mutates through: catalog matching during classification, batch product
// creation, batch stock adjustment and per-SKU lookups.
type InventoryGateway interface {
	core.CatalogMatcher

	// CreateProducts submits validated new-product records and returns the
	// created records with server-assigned SKU and stock.
	CreateProducts(ctx context.Context, products []NewProductRecord) ([]CreatedProduct, error)

	// AdjustStock submits validated stock raises.
	AdjustStock(ctx context.Context, adjustments []StockAdjustmentRecord) error

	// StockLevel returns the current stock for one SKU.
	StockLevel(ctx context.Context, sku string) (int, error)
}

// OrderGateway is the order collaborator surface.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (OrderConfirmation, error)
}

// NewProductRecord is one product to create in the catalog. InitialStock is
// always zero: new catalog entries are never auto-stocked from an unverified
// order.
type NewProductRecord struct {
	ProductName  string          `json:"product_name"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	InitialStock int             `json:"initial_stock"`
	Status       string          `json:"status"`
}

// CreatedProduct is the collaborator's echo of a created record.
type CreatedProduct struct {
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Stock       int    `json:"stock"`
}

// StockAdjustmentRecord raises one SKU's stock level.
type StockAdjustmentRecord struct {
	SKU           string `json:"sku"`
	NewStockLevel int    `json:"newStockLevel"`
}

// OrderItem is one priced line on the submitted order.
type OrderItem struct {
	SKU      string          `json:"sku"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderRequest is the final order submission.
type OrderRequest struct {
	CreatedBy       string                `json:"created_by"`
	Items           []OrderItem           `json:"items"`
	DeliveryAddress string                `json:"delivery_address,omitempty"`
	PaymentMethod   string                `json:"payment_method,omitempty"`
	Financials      core.FinancialSummary `json:"financials"`
}

// OrderConfirmation carries the created-order identifier.
type OrderConfirmation struct {
	OrderID string `json:"order_id"`
}
