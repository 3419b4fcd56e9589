// Package web is the HTTP adapter: routing, middleware and the JSON/SSE
// translation over the application service.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"procurement-agent/internal/app"
	"procurement-agent/internal/observability/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc     app.ApplicationService
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, logger *slog.Logger, m *metrics.Metrics, allowedOrigins string, bodyLimit int64) http.Handler {
	h := &Handler{svc: svc, logger: logger, metrics: m}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))
	r.Use(m.Middleware)

	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
		// Document upload carries the raw text; it gets a larger ceiling
		// than the form endpoints.
		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(bodyLimit * 8))
			r.Post("/documents", h.analyzeDocument)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(bodyLimit))
			r.Get("/workflow", h.workflowState)
			r.Post("/workflow/products", h.addProducts)
			r.Post("/workflow/stock", h.adjustStock)
			r.Post("/workflow/confirm", h.confirmOrder)
			r.Post("/workflow/cancel", h.cancelWorkflow)
			r.Get("/conversation", h.conversation)
			r.Post("/conversation/messages", h.appendMessage)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

// sessionID extracts the {sessionID} URL parameter.
func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// decodeJSON decodes the request body into v and writes an appropriate error
// response on failure. Returns HTTP 413 when the body exceeds the limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
