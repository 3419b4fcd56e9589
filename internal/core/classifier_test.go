package core_test

import (
	"context"
	"testing"

	"procurement-agent/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMatcher serves catalog match signals from a fixed map keyed by product name.
type fakeMatcher struct {
	matches map[string]core.CatalogMatch
}

func (f fakeMatcher) MatchProduct(_ context.Context, productName string, _ *string) (core.CatalogMatch, error) {
	return f.matches[productName], nil
}

func item(name string, qty int, price string) core.LineItem {
	return core.LineItem{
		ProductName: name,
		Quantity:    qty,
		Price:       decimal.RequireFromString(price),
	}
}

func TestClassify_RoutingPriority(t *testing.T) {
	matcher := fakeMatcher{matches: map[string]core.CatalogMatch{
		"Widget Y": {Found: true, SKU: "W-002", CurrentStock: 2},
		"Widget Z": {Found: true, SKU: "W-003", CurrentStock: 50},
	}}

	items := []core.LineItem{
		item("Widget X", 5, "10.00"), // no match
		item("Widget Y", 5, "25.50"), // matched, stock 2 < 5
		item("Widget Z", 3, "4.99"),  // matched, stock 50 >= 3
	}

	groups, err := core.Classify(context.Background(), items, matcher)
	require.NoError(t, err)

	require.Len(t, groups.NewProducts(), 1)
	require.Len(t, groups.InsufficientStock(), 1)
	require.Len(t, groups.ReadyToProcess(), 1)

	newItem := groups.NewProducts()[0]
	assert.Equal(t, "Widget X", newItem.ProductName)
	assert.True(t, newItem.NotFound)
	assert.Nil(t, newItem.SKU)

	short := groups.InsufficientStock()[0]
	require.NotNil(t, short.SKU)
	assert.Equal(t, "W-002", *short.SKU)
	assert.True(t, short.InsufficientStock)
	require.NotNil(t, short.CurrentStock)
	assert.Equal(t, 2, *short.CurrentStock)

	ready := groups.ReadyToProcess()[0]
	require.NotNil(t, ready.SKU)
	assert.Equal(t, "W-003", *ready.SKU)
	assert.False(t, ready.InsufficientStock)
}

func TestClassify_GroupsAreDisjointAndExhaustive(t *testing.T) {
	matcher := fakeMatcher{matches: map[string]core.CatalogMatch{
		"B": {Found: true, SKU: "B-1", CurrentStock: 0},
		"C": {Found: true, SKU: "C-1", CurrentStock: 100},
		"E": {Found: true, SKU: "E-1", CurrentStock: 1},
	}}
	items := []core.LineItem{
		item("A", 1, "1.00"),
		item("B", 2, "2.00"),
		item("C", 3, "3.00"),
		item("D", 4, "4.00"),
		item("E", 5, "5.00"),
	}

	groups, err := core.Classify(context.Background(), items, matcher)
	require.NoError(t, err)

	total := len(groups.NewProducts()) + len(groups.InsufficientStock()) + len(groups.ReadyToProcess())
	assert.Equal(t, len(items), total)
	assert.Equal(t, len(items), groups.Len())

	// Every item appears exactly once across the union.
	seen := make(map[string]int)
	for _, ci := range groups.Items() {
		seen[ci.Item.ProductName]++
	}
	for _, it := range items {
		assert.Equal(t, 1, seen[it.ProductName], "item %s", it.ProductName)
	}
}

func TestReclassify_Idempotent(t *testing.T) {
	matcher := fakeMatcher{matches: map[string]core.CatalogMatch{
		"B": {Found: true, SKU: "B-1", CurrentStock: 1},
		"C": {Found: true, SKU: "C-1", CurrentStock: 100},
	}}
	items := []core.LineItem{
		item("A", 1, "1.00"),
		item("B", 2, "2.00"),
		item("C", 3, "3.00"),
	}

	first, err := core.Classify(context.Background(), items, matcher)
	require.NoError(t, err)

	second, err := core.Reclassify(context.Background(), first, matcher)
	require.NoError(t, err)

	assert.Equal(t, first.Items(), second.Items())
}

func TestReclassify_PreservesResolvedItems(t *testing.T) {
	matcher := fakeMatcher{matches: map[string]core.CatalogMatch{}}
	items := []core.LineItem{item("Widget X", 5, "10.00")}

	groups, err := core.Classify(context.Background(), items, matcher)
	require.NoError(t, err)
	require.Len(t, groups.NewProducts(), 1)

	// Product gets created server-side with zero stock; the item is promoted.
	require.NoError(t, groups.ResolveNewProduct("Widget X", "W-001", 0))
	require.Len(t, groups.ReadyToProcess(), 1)

	// The matcher still knows nothing about Widget X, but a resolved item
	// must never leave the ready group.
	after, err := core.Reclassify(context.Background(), groups, matcher)
	require.NoError(t, err)
	require.Len(t, after.ReadyToProcess(), 1)
	assert.Empty(t, after.NewProducts())
}

func TestResolveStockAdjustment_Modes(t *testing.T) {
	matcher := fakeMatcher{matches: map[string]core.CatalogMatch{
		"Widget Y": {Found: true, SKU: "W-002", CurrentStock: 2},
	}}
	newLevel := 5
	modifiedQty := 2

	t.Run("raise stock", func(t *testing.T) {
		groups, err := core.Classify(context.Background(), []core.LineItem{item("Widget Y", 5, "25.50")}, matcher)
		require.NoError(t, err)
		require.NoError(t, groups.ResolveStockAdjustment(core.StockAdjustment{
			SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, NewStockLevel: &newLevel,
		}))
		ready := groups.ReadyToProcess()
		require.Len(t, ready, 1)
		assert.Equal(t, 5, ready[0].Quantity)
		assert.Equal(t, 5, *ready[0].CurrentStock)
	})

	t.Run("shrink order", func(t *testing.T) {
		groups, err := core.Classify(context.Background(), []core.LineItem{item("Widget Y", 5, "25.50")}, matcher)
		require.NoError(t, err)
		require.NoError(t, groups.ResolveStockAdjustment(core.StockAdjustment{
			SKU: "W-002", CurrentStock: 2, RequestedQuantity: 5, ModifiedOrderQuantity: &modifiedQty,
		}))
		ready := groups.ReadyToProcess()
		require.Len(t, ready, 1)
		assert.Equal(t, 2, ready[0].Quantity)
	})

	t.Run("unknown sku", func(t *testing.T) {
		groups, err := core.Classify(context.Background(), []core.LineItem{item("Widget Y", 5, "25.50")}, matcher)
		require.NoError(t, err)
		err = groups.ResolveStockAdjustment(core.StockAdjustment{SKU: "NOPE", NewStockLevel: &newLevel})
		assert.Error(t, err)
	})
}
