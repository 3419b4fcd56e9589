package clients

import (
	"context"
	"log/slog"
	"net/http"

	"procurement-agent/internal/workflow"
)

// OrderClient talks to the order-management collaborator.
type OrderClient struct {
	apiClient
}

var _ workflow.OrderGateway = (*OrderClient)(nil)

func NewOrderClient(baseURL string, hc *http.Client, exec *Executor, logger *slog.Logger) *OrderClient {
	return &OrderClient{apiClient: newAPIClient(baseURL, hc, exec, logger)}
}

// CreateOrder submits the final purchase order and returns its identifier.
func (c *OrderClient) CreateOrder(ctx context.Context, req workflow.OrderRequest) (workflow.OrderConfirmation, error) {
	var conf workflow.OrderConfirmation
	if err := c.call(ctx, "orders.create_order", http.MethodPost, "/api/orders", nil, req, &conf); err != nil {
		return workflow.OrderConfirmation{}, err
	}
	c.logger.Info("order submitted", "order_id", conf.OrderID, "items", len(req.Items))
	return conf, nil
}
