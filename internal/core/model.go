package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is a single line extracted from a purchase document.
// CurrentStock is nil until the item has been matched against the catalog.
type LineItem struct {
	ProductName       string          `json:"productName"`
	SKU               *string         `json:"sku"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	CurrentStock      *int            `json:"currentStock,omitempty"`
	NotFound          bool            `json:"notFound"`
	InsufficientStock bool            `json:"insufficientStock"`
}

// ItemKind tags which remediation path a classified item is on.
type ItemKind string

const (
	// KindNew — no matching catalog entry; a product must be created first.
	KindNew ItemKind = "new"
	// KindInsufficient — matched, but current stock < requested quantity.
	KindInsufficient ItemKind = "insufficient"
	// KindReady — matched with sufficient stock; eligible for order creation.
	KindReady ItemKind = "ready"
)

// ClassifiedItem pairs a line item with its current group tag.
type ClassifiedItem struct {
	Kind ItemKind `json:"kind"`
	Item LineItem `json:"item"`
}

// GroupedItems holds every classified item in one ordered collection.
// Each item carries exactly one tag, so the groups are disjoint and
// exhaustive by construction; moving an item between groups is a retag,
// never a copy.
type GroupedItems struct {
	items []ClassifiedItem
}

// NewGroupedItems builds a GroupedItems from an already-classified sequence.
func NewGroupedItems(items []ClassifiedItem) GroupedItems {
	return GroupedItems{items: items}
}

// Items returns a copy of the full ordered collection.
func (g GroupedItems) Items() []ClassifiedItem {
	out := make([]ClassifiedItem, len(g.items))
	copy(out, g.items)
	return out
}

// Len returns the total number of items across all groups.
func (g GroupedItems) Len() int { return len(g.items) }

func (g GroupedItems) byKind(kind ItemKind) []LineItem {
	var out []LineItem
	for _, ci := range g.items {
		if ci.Kind == kind {
			out = append(out, ci.Item)
		}
	}
	return out
}

// NewProducts returns the items with no matching catalog entry.
func (g GroupedItems) NewProducts() []LineItem { return g.byKind(KindNew) }

// InsufficientStock returns the matched items whose stock cannot cover the
// requested quantity.
func (g GroupedItems) InsufficientStock() []LineItem { return g.byKind(KindInsufficient) }

// ReadyToProcess returns the items eligible for order creation.
func (g GroupedItems) ReadyToProcess() []LineItem { return g.byKind(KindReady) }

func (g GroupedItems) count(kind ItemKind) int {
	n := 0
	for _, ci := range g.items {
		if ci.Kind == kind {
			n++
		}
	}
	return n
}

// CountNew, CountInsufficient and CountReady avoid slice allocation for
// callers that only need group sizes.
func (g GroupedItems) CountNew() int          { return g.count(KindNew) }
func (g GroupedItems) CountInsufficient() int { return g.count(KindInsufficient) }
func (g GroupedItems) CountReady() int        { return g.count(KindReady) }

// ResolveNewProduct moves the first unresolved "new" item with the given
// product name into the ready group, rewriting it with the server-assigned
// SKU and stock level.
func (g *GroupedItems) ResolveNewProduct(productName, sku string, stock int) error {
	for i := range g.items {
		ci := &g.items[i]
		if ci.Kind != KindNew || ci.Item.ProductName != productName {
			continue
		}
		ci.Kind = KindReady
		ci.Item.SKU = &sku
		ci.Item.CurrentStock = &stock
		ci.Item.NotFound = false
		return nil
	}
	return fmt.Errorf("no unresolved new product named %q", productName)
}

// ResolveStockAdjustment moves the insufficient-stock item with the given SKU
// into the ready group, applying exactly one resolution: a raised stock level
// or a reduced order quantity.
func (g *GroupedItems) ResolveStockAdjustment(adj StockAdjustment) error {
	for i := range g.items {
		ci := &g.items[i]
		if ci.Kind != KindInsufficient || ci.Item.SKU == nil || *ci.Item.SKU != adj.SKU {
			continue
		}
		switch {
		case adj.NewStockLevel != nil:
			stock := *adj.NewStockLevel
			ci.Item.CurrentStock = &stock
		case adj.ModifiedOrderQuantity != nil:
			ci.Item.Quantity = *adj.ModifiedOrderQuantity
		default:
			return fmt.Errorf("stock adjustment for %s has no resolution", adj.SKU)
		}
		ci.Kind = KindReady
		ci.Item.InsufficientStock = false
		return nil
	}
	return fmt.Errorf("no insufficient-stock item with SKU %s", adj.SKU)
}

// DocumentMetadata carries document-level info from the extraction service.
type DocumentMetadata struct {
	FileName           string          `json:"fileName,omitempty"`
	DocumentTotal      decimal.Decimal `json:"documentTotal"`
	Currency           string          `json:"currency"`
	ExtractedItemCount int             `json:"extractedItemCount"`
}

// StatusFlags mirrors the extraction service's status object.
type StatusFlags struct {
	Completed bool `json:"completed"`
	HasErrors bool `json:"hasErrors"`
}

// AnalysisResult is the unit of work for one document: the classified items
// plus the financial summary computed over the ready group. It is mutated in
// place as items move between groups and discarded when the workflow returns
// to idle.
type AnalysisResult struct {
	Metadata   DocumentMetadata
	Items      GroupedItems
	Financials FinancialSummary
	Status     StatusFlags
}

// RefreshFinancials recomputes the financial summary from the current ready
// group. Must be called after any group mutation; the summary is never cached
// across one.
func (r *AnalysisResult) RefreshFinancials() {
	r.Financials = ComputeFinancials(r.Items.ReadyToProcess())
}

// StockAdjustment resolves one insufficient-stock item. Exactly one of
// NewStockLevel (raise stock to cover the order) or ModifiedOrderQuantity
// (shrink the order to fit current stock) is set.
type StockAdjustment struct {
	SKU                   string `json:"sku"`
	CurrentStock          int    `json:"currentStock"`
	RequestedQuantity     int    `json:"requestedQuantity"`
	NewStockLevel         *int   `json:"newStockLevel,omitempty"`
	ModifiedOrderQuantity *int   `json:"modifiedOrderQuantity,omitempty"`
}

// RawAnalysis is the payload shape produced by the extraction collaborator,
// before validation and classification.
type RawAnalysis struct {
	Metadata   map[string]any `json:"metadata"`
	Items      *RawItemGroups `json:"items"`
	Financials map[string]any `json:"financials"`
	Status     map[string]any `json:"status"`
}

// RawItemGroups splits extracted lines the way the collaborator reports them.
// existingProducts is an input-side hint only: every line is re-matched
// against the catalog during classification, so readyToProcess remains the
// single canonical "matched and coverable" group.
type RawItemGroups struct {
	ExistingProducts []RawLineItem `json:"existingProducts"`
	NewProducts      []RawLineItem `json:"newProducts"`
}

// RawLineItem is one extracted line before decimal parsing.
type RawLineItem struct {
	ProductName string `json:"productName"`
	SKU         string `json:"sku,omitempty"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

// LineItems flattens the raw groups into the ordered line-item list used by
// the classifier, parsing prices into decimals.
func (r *RawAnalysis) LineItems() ([]LineItem, error) {
	if r.Items == nil {
		return nil, fmt.Errorf("raw analysis has no items")
	}
	raw := make([]RawLineItem, 0, len(r.Items.ExistingProducts)+len(r.Items.NewProducts))
	raw = append(raw, r.Items.ExistingProducts...)
	raw = append(raw, r.Items.NewProducts...)

	items := make([]LineItem, 0, len(raw))
	for _, rl := range raw {
		price, err := decimal.NewFromString(rl.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for %s: %w", rl.Price, rl.ProductName, err)
		}
		li := LineItem{
			ProductName: rl.ProductName,
			Quantity:    rl.Quantity,
			Price:       price,
		}
		if rl.SKU != "" {
			sku := rl.SKU
			li.SKU = &sku
		}
		items = append(items, li)
	}
	return items, nil
}
