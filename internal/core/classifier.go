package core

import (
	"context"
	"fmt"
)

// CatalogMatch is the match/stock signal the inventory collaborator returns
// for one extracted line.
type CatalogMatch struct {
	Found        bool   `json:"found"`
	SKU          string `json:"sku,omitempty"`
	CurrentStock int    `json:"currentStock"`
}

// CatalogMatcher supplies catalog match signals during classification.
// Implemented by the inventory collaborator client; tests use an in-memory
// fake.
type CatalogMatcher interface {
	MatchProduct(ctx context.Context, productName string, sku *string) (CatalogMatch, error)
}

// Classify partitions a flat item list into the three remediation groups.
// Routing priority per item: no catalog match → new; matched with
// insufficient stock → insufficient; otherwise → ready. Every input item
// lands in exactly one group and input order is preserved.
func Classify(ctx context.Context, items []LineItem, matcher CatalogMatcher) (GroupedItems, error) {
	out := make([]ClassifiedItem, 0, len(items))
	for _, item := range items {
		ci, err := classifyOne(ctx, item, matcher)
		if err != nil {
			return GroupedItems{}, err
		}
		out = append(out, ci)
	}
	return NewGroupedItems(out), nil
}

// Reclassify re-runs classification after a remediation step. Items already
// in the ready group are preserved as-is — resolution only ever moves items
// into ready, never out — while new and insufficient items are re-matched
// against the current catalog signals.
func Reclassify(ctx context.Context, g GroupedItems, matcher CatalogMatcher) (GroupedItems, error) {
	items := g.Items()
	for i, ci := range items {
		if ci.Kind == KindReady {
			continue
		}
		reclassified, err := classifyOne(ctx, ci.Item, matcher)
		if err != nil {
			return GroupedItems{}, err
		}
		items[i] = reclassified
	}
	return NewGroupedItems(items), nil
}

func classifyOne(ctx context.Context, item LineItem, matcher CatalogMatcher) (ClassifiedItem, error) {
	match, err := matcher.MatchProduct(ctx, item.ProductName, item.SKU)
	if err != nil {
		return ClassifiedItem{}, fmt.Errorf("catalog match for %q: %w", item.ProductName, err)
	}

	if !match.Found {
		item.SKU = nil
		item.CurrentStock = nil
		item.NotFound = true
		item.InsufficientStock = false
		return ClassifiedItem{Kind: KindNew, Item: item}, nil
	}

	sku := match.SKU
	stock := match.CurrentStock
	item.SKU = &sku
	item.CurrentStock = &stock
	item.NotFound = false

	if stock < item.Quantity {
		item.InsufficientStock = true
		return ClassifiedItem{Kind: KindInsufficient, Item: item}, nil
	}
	item.InsufficientStock = false
	return ClassifiedItem{Kind: KindReady, Item: item}, nil
}
