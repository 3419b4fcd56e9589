package core

import "github.com/shopspring/decimal"

// taxRate is the fixed 6% sales tax applied to every order subtotal.
var taxRate = decimal.New(6, -2)

// FlatShippingFee is charged per order regardless of item count or value.
var FlatShippingFee = decimal.NewFromInt(500)

// FinancialSummary is the priced breakdown of an order. Amounts are in the
// document currency.
type FinancialSummary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeFinancials prices an order from its line items:
//
//	subtotal = Σ(price × quantity)
//	tax      = round(subtotal × 0.06, 2)
//	total    = subtotal + tax + shipping
//
// The same function backs both the preview shown to the operator and the
// final order submission, so the two can never disagree.
func ComputeFinancials(items []LineItem) FinancialSummary {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	tax := subtotal.Mul(taxRate).Round(2)
	return FinancialSummary{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: FlatShippingFee,
		Total:    subtotal.Add(tax).Add(FlatShippingFee),
	}
}
