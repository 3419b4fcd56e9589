package app

import (
	"procurement-agent/internal/workflow"
)

// AnalyzeDocumentRequest starts one workflow cycle from an uploaded document.
type AnalyzeDocumentRequest struct {
	SessionID string
	FileName  string
	Content   string
}

// WorkflowResult wraps the workflow snapshot returned by state-changing
// operations.
type WorkflowResult struct {
	Snapshot workflow.Snapshot
}

// AddProductsResult carries the created catalog records alongside the updated
// snapshot.
type AddProductsResult struct {
	Created  []workflow.CreatedProduct
	Snapshot workflow.Snapshot
}

// ConfirmOrderResult carries the created order identifier alongside the final
// snapshot.
type ConfirmOrderResult struct {
	OrderID  string
	Snapshot workflow.Snapshot
}
