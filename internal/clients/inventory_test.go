package clients

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"procurement-agent/internal/workflow"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventoryClient(t *testing.T, handler http.Handler) *InventoryClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewInventoryClient(srv.URL, srv.Client(), testExecutor(), logger)
}

func TestInventoryClient_MatchProduct(t *testing.T) {
	client := newTestInventoryClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/match", r.URL.Path)
		assert.Equal(t, "Widget Y", r.URL.Query().Get("name"))
		assert.Equal(t, "W-002", r.URL.Query().Get("sku"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"found": true, "sku": "W-002", "currentStock": 7,
		})
	}))

	sku := "W-002"
	match, err := client.MatchProduct(context.Background(), "Widget Y", &sku)
	require.NoError(t, err)
	assert.True(t, match.Found)
	assert.Equal(t, "W-002", match.SKU)
	assert.Equal(t, 7, match.CurrentStock)
}

func TestInventoryClient_CreateProducts(t *testing.T) {
	client := newTestInventoryClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/products/batch", r.URL.Path)

		var req struct {
			Products []workflow.NewProductRecord `json:"products"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Products, 1)
		assert.Equal(t, "Widget X", req.Products[0].ProductName)
		assert.Zero(t, req.Products[0].InitialStock)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{
				{"product_name": "Widget X", "sku": "W-051", "stock": 0},
			},
		})
	}))

	created, err := client.CreateProducts(context.Background(), []workflow.NewProductRecord{{
		ProductName:  "Widget X",
		Price:        decimal.RequireFromString("10.00"),
		Cost:         decimal.RequireFromString("4.00"),
		InitialStock: 0,
		Status:       "active",
	}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "W-051", created[0].SKU)
}

func TestInventoryClient_ServerErrorSurfacesAsRemoteError(t *testing.T) {
	attempts := 0
	client := newTestInventoryClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		http.Error(w, "inventory unavailable", http.StatusServiceUnavailable)
	}))

	err := client.AdjustStock(context.Background(), []workflow.StockAdjustmentRecord{{SKU: "W-002", NewStockLevel: 5}})
	require.Error(t, err)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode)
	assert.Equal(t, 3, attempts, "transient failures are retried before surfacing")
}
