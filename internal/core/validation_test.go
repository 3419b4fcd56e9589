package core_test

import (
	"errors"
	"testing"

	"procurement-agent/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() *core.RawAnalysis {
	return &core.RawAnalysis{
		Metadata:   map[string]any{"currency": "USD"},
		Items:      &core.RawItemGroups{ExistingProducts: []core.RawLineItem{}, NewProducts: []core.RawLineItem{}},
		Financials: map[string]any{},
		Status:     map[string]any{"completed": true},
	}
}

func TestValidateAnalysisResult(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*core.RawAnalysis) *core.RawAnalysis
		wantCode core.ValidationCode
	}{
		{"valid", func(r *core.RawAnalysis) *core.RawAnalysis { return r }, ""},
		{"nil result", func(*core.RawAnalysis) *core.RawAnalysis { return nil }, core.ValidationMissingResult},
		{"missing metadata", func(r *core.RawAnalysis) *core.RawAnalysis { r.Metadata = nil; return r }, core.ValidationInvalidMetadata},
		{"missing items", func(r *core.RawAnalysis) *core.RawAnalysis { r.Items = nil; return r }, core.ValidationInvalidItems},
		{"missing existingProducts", func(r *core.RawAnalysis) *core.RawAnalysis { r.Items.ExistingProducts = nil; return r }, core.ValidationInvalidItems},
		{"missing newProducts", func(r *core.RawAnalysis) *core.RawAnalysis { r.Items.NewProducts = nil; return r }, core.ValidationInvalidItems},
		{"missing financials", func(r *core.RawAnalysis) *core.RawAnalysis { r.Financials = nil; return r }, core.ValidationInvalidFinancials},
		{"missing status", func(r *core.RawAnalysis) *core.RawAnalysis { r.Status = nil; return r }, core.ValidationInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateAnalysisResult(tt.mutate(validRaw()))
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "want *ValidationError, got %v", err)
			assert.Equal(t, tt.wantCode, verr.Code)
		})
	}
}

func TestValidateNewProduct(t *testing.T) {
	tests := []struct {
		name      string
		entry     core.NewProductEntry
		wantField string // "" means valid
	}{
		{"valid", core.NewProductEntry{ProductName: "Widget X", Price: "10.00", Cost: "6.00"}, ""},
		{"missing name", core.NewProductEntry{Price: "10.00", Cost: "6.00"}, "product_name"},
		{"price not a number", core.NewProductEntry{ProductName: "W", Price: "ten", Cost: "6.00"}, "price"},
		{"price zero", core.NewProductEntry{ProductName: "W", Price: "0", Cost: "6.00"}, "price"},
		{"cost not a number", core.NewProductEntry{ProductName: "W", Price: "10.00", Cost: ""}, "cost"},
		{"cost zero", core.NewProductEntry{ProductName: "W", Price: "10.00", Cost: "0"}, "cost"},
		{"cost equals price", core.NewProductEntry{ProductName: "W", Price: "10.00", Cost: "10.00"}, "cost"},
		{"cost above price", core.NewProductEntry{ProductName: "W", Price: "10.00", Cost: "12.00"}, "cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := core.ValidateNewProduct(tt.entry)
			if tt.wantField == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Contains(t, errs, tt.wantField)
		})
	}
}

func TestValidateStockAdjustment(t *testing.T) {
	five, two, zero, neg := 5, 2, 0, -1

	tests := []struct {
		name      string
		adj       core.StockAdjustment
		wantField string
	}{
		{
			"raise stock to cover",
			core.StockAdjustment{SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, NewStockLevel: &five},
			"",
		},
		{
			"shrink order to stock",
			core.StockAdjustment{SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, ModifiedOrderQuantity: &two},
			"",
		},
		{
			"no resolution",
			core.StockAdjustment{SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5},
			"resolution",
		},
		{
			"both resolutions",
			core.StockAdjustment{SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, NewStockLevel: &five, ModifiedOrderQuantity: &two},
			"resolution",
		},
		{
			"new level below requested",
			core.StockAdjustment{SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, NewStockLevel: &two},
			"newStockLevel",
		},
		{
			"new level negative",
			core.StockAdjustment{SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, NewStockLevel: &neg},
			"newStockLevel",
		},
		{
			"modified quantity zero",
			core.StockAdjustment{SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, ModifiedOrderQuantity: &zero},
			"modifiedOrderQuantity",
		},
		{
			"modified quantity above stock",
			core.StockAdjustment{SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, ModifiedOrderQuantity: &five},
			"modifiedOrderQuantity",
		},
		{
			"missing sku",
			core.StockAdjustment{CurrentStock: 2, RequestedQuantity: 5, NewStockLevel: &five},
			"sku",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := core.ValidateStockAdjustment(tt.adj)
			if tt.wantField == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Contains(t, errs, tt.wantField)
		})
	}
}
