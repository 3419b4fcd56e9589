package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"procurement-agent/internal/app"
	"procurement-agent/internal/clients"
	"procurement-agent/internal/core"
	"procurement-agent/internal/workflow"
)

type errorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code"`
	RequestID string                 `json:"request_id,omitempty"`
	Entries   []workflow.EntryErrors `json:"entries,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps workflow and collaborator errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *workflow.InvalidEntriesError
	if errors.As(err, &invalid) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(errorResponse{
			Error:     invalid.Error(),
			Code:      "VALIDATION_FAILED",
			RequestID: requestIDFromContext(r.Context()),
			Entries:   invalid.Entries,
		})
		return
	}

	var validation *core.ValidationError
	var remote *clients.RemoteError

	switch {
	case errors.Is(err, app.ErrMissingSession):
		writeError(w, r, err.Error(), "MISSING_SESSION", http.StatusBadRequest)
	case errors.Is(err, workflow.ErrOperationInFlight):
		writeError(w, r, err.Error(), "OPERATION_IN_FLIGHT", http.StatusConflict)
	case errors.Is(err, workflow.ErrNoActiveWorkflow):
		writeError(w, r, err.Error(), "NO_ACTIVE_WORKFLOW", http.StatusConflict)
	case errors.Is(err, workflow.ErrItemsUnresolved):
		writeError(w, r, err.Error(), "ITEMS_UNRESOLVED", http.StatusConflict)
	case errors.As(err, &validation):
		writeError(w, r, validation.Error(), "ANALYSIS_INVALID", http.StatusUnprocessableEntity)
	case errors.As(err, &remote):
		writeError(w, r, remote.Error(), "UPSTREAM_ERROR", http.StatusBadGateway)
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
