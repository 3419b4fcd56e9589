package core_test

import (
	"testing"

	"procurement-agent/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeFinancials(t *testing.T) {
	tests := []struct {
		name         string
		items        []core.LineItem
		wantSubtotal string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "empty order",
			items:        nil,
			wantSubtotal: "0",
			wantTax:      "0",
			wantTotal:    "500",
		},
		{
			name: "single line",
			items: []core.LineItem{
				item("Widget X", 5, "10.00"),
			},
			wantSubtotal: "50",
			wantTax:      "3",
			wantTotal:    "553",
		},
		{
			name: "two lines with rounding",
			items: []core.LineItem{
				item("Widget X", 5, "10.00"),
				item("Widget Y", 5, "25.50"),
			},
			wantSubtotal: "177.5",
			wantTax:      "10.65",
			wantTotal:    "688.15",
		},
		{
			name: "tax rounds to two decimals",
			items: []core.LineItem{
				item("Widget Z", 1, "10.99"),
			},
			wantSubtotal: "10.99",
			wantTax:      "0.66", // 0.6594 rounds up
			wantTotal:    "511.65",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ComputeFinancials(tt.items)
			assert.True(t, got.Subtotal.Equal(decimal.RequireFromString(tt.wantSubtotal)),
				"subtotal = %s, want %s", got.Subtotal, tt.wantSubtotal)
			assert.True(t, got.Tax.Equal(decimal.RequireFromString(tt.wantTax)),
				"tax = %s, want %s", got.Tax, tt.wantTax)
			assert.True(t, got.Shipping.Equal(core.FlatShippingFee))
			assert.True(t, got.Total.Equal(decimal.RequireFromString(tt.wantTotal)),
				"total = %s, want %s", got.Total, tt.wantTotal)

			// total == subtotal + tax + shipping must hold for every input.
			assert.True(t, got.Total.Equal(got.Subtotal.Add(got.Tax).Add(got.Shipping)))
		})
	}
}

func TestComputeFinancials_ShippingIsConstant(t *testing.T) {
	small := core.ComputeFinancials([]core.LineItem{item("A", 1, "0.01")})
	large := core.ComputeFinancials([]core.LineItem{
		item("A", 100, "999.99"),
		item("B", 250, "42.00"),
	})
	assert.True(t, small.Shipping.Equal(large.Shipping))
}
