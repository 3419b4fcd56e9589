package clients

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"procurement-agent/internal/core"
	"procurement-agent/internal/workflow"
)

// InventoryClient talks to the inventory collaborator. It backs both catalog
// matching during classification and the batch mutations of the remediation
// steps.
type InventoryClient struct {
	apiClient
}

var _ workflow.InventoryGateway = (*InventoryClient)(nil)

func NewInventoryClient(baseURL string, hc *http.Client, exec *Executor, logger *slog.Logger) *InventoryClient {
	return &InventoryClient{apiClient: newAPIClient(baseURL, hc, exec, logger)}
}

// MatchProduct looks one extracted line up in the catalog by name, with the
// extracted SKU as a secondary hint.
func (c *InventoryClient) MatchProduct(ctx context.Context, productName string, sku *string) (core.CatalogMatch, error) {
	q := url.Values{"name": {productName}}
	if sku != nil {
		q.Set("sku", *sku)
	}
	var match core.CatalogMatch
	if err := c.call(ctx, "inventory.match_product", http.MethodGet, "/api/products/match", q, nil, &match); err != nil {
		return core.CatalogMatch{}, err
	}
	return match, nil
}

// CreateProducts submits one batch of new catalog entries and returns them
// with their server-assigned SKUs.
func (c *InventoryClient) CreateProducts(ctx context.Context, products []workflow.NewProductRecord) ([]workflow.CreatedProduct, error) {
	req := struct {
		Products []workflow.NewProductRecord `json:"products"`
	}{Products: products}
	var resp struct {
		Products []workflow.CreatedProduct `json:"products"`
	}
	if err := c.call(ctx, "inventory.create_products", http.MethodPost, "/api/products/batch", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// AdjustStock submits one batch of stock raises.
func (c *InventoryClient) AdjustStock(ctx context.Context, adjustments []workflow.StockAdjustmentRecord) error {
	req := struct {
		Adjustments []workflow.StockAdjustmentRecord `json:"adjustments"`
	}{Adjustments: adjustments}
	return c.call(ctx, "inventory.adjust_stock", http.MethodPost, "/api/inventory/adjustments", nil, req, nil)
}

// StockLevel fetches the current stock for one SKU.
func (c *InventoryClient) StockLevel(ctx context.Context, sku string) (int, error) {
	var resp struct {
		SKU   string `json:"sku"`
		Stock int    `json:"stock"`
	}
	q := url.Values{"sku": {sku}}
	if err := c.call(ctx, "inventory.stock_level", http.MethodGet, "/api/inventory/stock", q, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Stock, nil
}
