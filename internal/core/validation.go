package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationCode identifies which structural check failed, so callers can
// decide whether a failure is recoverable without parsing a message.
type ValidationCode string

const (
	ValidationMissingResult     ValidationCode = "missing_result"
	ValidationInvalidMetadata   ValidationCode = "invalid_metadata"
	ValidationInvalidItems      ValidationCode = "invalid_items"
	ValidationInvalidFinancials ValidationCode = "invalid_financials"
	ValidationInvalidStatus     ValidationCode = "invalid_status"
)

// ValidationError is a typed structural validation failure.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("analysis validation failed (%s): %s", e.Code, e.Message)
}

// ValidateAnalysisResult checks the raw extraction payload structurally,
// short-circuiting on the first failure. The checks run in a fixed order:
// result present, metadata object, items object with both array fields,
// financials object, status object.
func ValidateAnalysisResult(r *RawAnalysis) error {
	if r == nil {
		return &ValidationError{Code: ValidationMissingResult, Message: "no analysis result"}
	}
	if r.Metadata == nil {
		return &ValidationError{Code: ValidationInvalidMetadata, Message: "metadata must be an object"}
	}
	if r.Items == nil {
		return &ValidationError{Code: ValidationInvalidItems, Message: "items must be an object"}
	}
	if r.Items.ExistingProducts == nil {
		return &ValidationError{Code: ValidationInvalidItems, Message: "items.existingProducts must be an array"}
	}
	if r.Items.NewProducts == nil {
		return &ValidationError{Code: ValidationInvalidItems, Message: "items.newProducts must be an array"}
	}
	if r.Financials == nil {
		return &ValidationError{Code: ValidationInvalidFinancials, Message: "financials must be an object"}
	}
	if r.Status == nil {
		return &ValidationError{Code: ValidationInvalidStatus, Message: "status must be an object"}
	}
	return nil
}

// NewProductEntry is the operator-edited form for one product to be created.
// Price and cost arrive as strings from the form layer and are parsed here.
type NewProductEntry struct {
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Cost        string `json:"cost"`
}

// ValidateNewProduct returns field-keyed error messages for a new-product
// entry. An empty map means the entry is valid. A product whose cost is not
// strictly below its price is rejected at entry. Initial stock is not part of
// the form at all: newly created products are always stocked at zero, and
// stock arrives later through an explicit inventory operation.
func ValidateNewProduct(e NewProductEntry) map[string]string {
	errs := make(map[string]string)

	if e.ProductName == "" {
		errs["product_name"] = "product name is required"
	}

	price, err := decimal.NewFromString(e.Price)
	switch {
	case err != nil:
		errs["price"] = "price must be a number"
	case !price.IsPositive():
		errs["price"] = "price must be greater than 0"
	}

	cost, err := decimal.NewFromString(e.Cost)
	switch {
	case err != nil:
		errs["cost"] = "cost must be a number"
	case !cost.IsPositive():
		errs["cost"] = "cost must be greater than 0"
	case errs["price"] == "" && !cost.LessThan(price):
		errs["cost"] = "cost must be less than price"
	}

	return errs
}

// ValidateStockAdjustment returns field-keyed error messages for one stock
// adjustment. Exactly one resolution mode must be active: raising stock to at
// least the requested quantity, or shrinking the order to fit current stock.
func ValidateStockAdjustment(adj StockAdjustment) map[string]string {
	errs := make(map[string]string)

	if adj.SKU == "" {
		errs["sku"] = "sku is required"
	}

	switch {
	case adj.NewStockLevel != nil && adj.ModifiedOrderQuantity != nil:
		errs["resolution"] = "choose either a new stock level or a modified quantity, not both"
	case adj.NewStockLevel != nil:
		if *adj.NewStockLevel < 0 {
			errs["newStockLevel"] = "new stock level cannot be negative"
		} else if *adj.NewStockLevel < adj.RequestedQuantity {
			errs["newStockLevel"] = fmt.Sprintf("new stock level must cover the requested quantity of %d", adj.RequestedQuantity)
		}
	case adj.ModifiedOrderQuantity != nil:
		if *adj.ModifiedOrderQuantity <= 0 {
			errs["modifiedOrderQuantity"] = "modified quantity must be greater than 0"
		} else if *adj.ModifiedOrderQuantity > adj.CurrentStock {
			errs["modifiedOrderQuantity"] = fmt.Sprintf("modified quantity cannot exceed current stock of %d", adj.CurrentStock)
		}
	default:
		errs["resolution"] = "a resolution is required: new stock level or modified quantity"
	}

	return errs
}
