package app

import (
	"context"

	"procurement-agent/internal/conversation"
	"procurement-agent/internal/core"
	"procurement-agent/internal/workflow"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples presentation from the workflow engine; implementations contain no
// HTTP or display logic of any kind.
type ApplicationService interface {
	// AnalyzeDocument runs one purchase document through extraction,
	// validation and classification for the given session.
	AnalyzeDocument(ctx context.Context, req AnalyzeDocumentRequest) (*WorkflowResult, error)

	// GetWorkflowState returns the session's current workflow snapshot.
	GetWorkflowState(ctx context.Context, sessionID string) (*WorkflowResult, error)

	// AddProducts creates catalog entries for the submitted new-product forms
	// and advances the remediation step.
	AddProducts(ctx context.Context, sessionID string, entries []core.NewProductEntry) (*AddProductsResult, error)

	// AdjustStock resolves the insufficient-stock items and advances the
	// remediation step.
	AdjustStock(ctx context.Context, sessionID string, adjustments []core.StockAdjustment) (*WorkflowResult, error)

	// ConfirmOrder submits the final purchase order.
	ConfirmOrder(ctx context.Context, sessionID string, req workflow.ConfirmOrderRequest) (*ConfirmOrderResult, error)

	// CancelWorkflow discards the session's current cycle and clears stale
	// automation artifacts from its conversation.
	CancelWorkflow(ctx context.Context, sessionID string) (*WorkflowResult, error)

	// GetConversation returns the session's persisted conversation log.
	GetConversation(ctx context.Context, sessionID string) ([]conversation.Entry, error)

	// AppendUserMessage records one operator chat turn in the session log.
	AppendUserMessage(ctx context.Context, sessionID, text string) error
}
