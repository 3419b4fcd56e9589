package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"procurement-agent/internal/app"
	"procurement-agent/internal/conversation"
	"procurement-agent/internal/core"
	"procurement-agent/internal/workflow"
)

// ── Request types ─────────────────────────────────────────────────────────────

type analyzeDocumentRequest struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

type addProductsRequest struct {
	Products []core.NewProductEntry `json:"products"`
}

type adjustStockRequest struct {
	Adjustments []core.StockAdjustment `json:"adjustments"`
}

type appendMessageRequest struct {
	Text string `json:"text"`
}

// ── SSE helpers ───────────────────────────────────────────────────────────────

// sendSSE writes one SSE event and flushes. data is JSON-marshalled.
func sendSSE(w http.ResponseWriter, f http.Flusher, event string, data any) {
	b, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(b))
	f.Flush()
}

// ── analyzeDocument — POST /api/sessions/{sessionID}/documents ────────────────

// analyzeDocument accepts a purchase document and streams analysis progress
// via SSE.
//
// SSE event types:
//
//	status    {"status":"analyzing"}
//	workflow  {...snapshot...}
//	error     {"message":"...","code":"..."}
//	done      {}
func (h *Handler) analyzeDocument(w http.ResponseWriter, r *http.Request) {
	var req analyzeDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FileName == "" || req.Content == "" {
		writeError(w, r, "file_name and content are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, "streaming not supported", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering if present

	sendSSE(w, flusher, "status", map[string]any{"status": "analyzing"})

	result, err := h.svc.AnalyzeDocument(r.Context(), app.AnalyzeDocumentRequest{
		SessionID: sessionID(r),
		FileName:  req.FileName,
		Content:   req.Content,
	})
	if err != nil {
		h.metrics.RecordAnalysis("failed")
		sendSSE(w, flusher, "error", map[string]any{"message": err.Error(), "code": analysisErrorCode(err)})
		sendSSE(w, flusher, "done", map[string]any{})
		return
	}

	h.metrics.RecordAnalysis("ok")
	sendSSE(w, flusher, "workflow", result.Snapshot)
	sendSSE(w, flusher, "done", map[string]any{})
}

func analysisErrorCode(err error) string {
	switch {
	case workflow.IsCritical(err):
		return "CRITICAL_ERROR"
	default:
		return "ANALYSIS_ERROR"
	}
}

// ── workflowState — GET /api/sessions/{sessionID}/workflow ────────────────────

func (h *Handler) workflowState(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetWorkflowState(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Snapshot)
}

// ── addProducts — POST /api/sessions/{sessionID}/workflow/products ────────────

func (h *Handler) addProducts(w http.ResponseWriter, r *http.Request) {
	var req addProductsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Products) == 0 {
		writeError(w, r, "products must not be empty", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.AddProducts(r.Context(), sessionID(r), req.Products)
	if err != nil {
		h.metrics.RecordMutation("create_products", "failed")
		writeDomainError(w, r, err)
		return
	}

	h.metrics.RecordMutation("create_products", "ok")
	writeJSON(w, http.StatusOK, struct {
		Created  []workflow.CreatedProduct `json:"created"`
		Workflow workflow.Snapshot         `json:"workflow"`
	}{Created: result.Created, Workflow: result.Snapshot})
}

// ── adjustStock — POST /api/sessions/{sessionID}/workflow/stock ───────────────

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Adjustments) == 0 {
		writeError(w, r, "adjustments must not be empty", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.AdjustStock(r.Context(), sessionID(r), req.Adjustments)
	if err != nil {
		h.metrics.RecordMutation("adjust_stock", "failed")
		writeDomainError(w, r, err)
		return
	}

	h.metrics.RecordMutation("adjust_stock", "ok")
	writeJSON(w, http.StatusOK, result.Snapshot)
}

// ── confirmOrder — POST /api/sessions/{sessionID}/workflow/confirm ────────────

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	var req workflow.ConfirmOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.ConfirmOrder(r.Context(), sessionID(r), req)
	if err != nil {
		h.metrics.RecordMutation("create_order", "failed")
		writeDomainError(w, r, err)
		return
	}

	h.metrics.RecordMutation("create_order", "ok")
	h.metrics.RecordOrderCreated()
	writeJSON(w, http.StatusOK, struct {
		OrderID  string            `json:"order_id"`
		Workflow workflow.Snapshot `json:"workflow"`
	}{OrderID: result.OrderID, Workflow: result.Snapshot})
}

// ── cancelWorkflow — POST /api/sessions/{sessionID}/workflow/cancel ───────────

func (h *Handler) cancelWorkflow(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CancelWorkflow(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Snapshot)
}

// ── conversation — GET /api/sessions/{sessionID}/conversation ─────────────────

func (h *Handler) conversation(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.GetConversation(r.Context(), sessionID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Entries []conversation.Entry `json:"entries"`
	}{Entries: entries})
}

// ── appendMessage — POST /api/sessions/{sessionID}/conversation/messages ──────

func (h *Handler) appendMessage(w http.ResponseWriter, r *http.Request) {
	var req appendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, r, "text is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.AppendUserMessage(r.Context(), sessionID(r), req.Text); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
