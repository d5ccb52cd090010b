package handlers

import (
	"context"
	"net/http"
	"time"

	"policy-rag/internal/contextutil"
	"policy-rag/internal/rag"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	index              rag.IndexCounter
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(index rag.IndexCounter) *HealthHandler {
	return &HealthHandler{
		index:              index,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Number of chunks in the vector index
	IndexedChunks uint64 `json:"indexed_chunks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Reports vector store reachability and the number of indexed chunks.
// An empty index is "degraded" (200); an unreachable store is "unhealthy" (503).
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"vector_store": "ok", "index": "ok"},
	}
	httpStatus := http.StatusOK

	count, err := h.index.IndexSize(checkCtx)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		response.Status = "unhealthy"
		response.Checks["vector_store"] = "error"
		response.Checks["index"] = "unknown"
		response.Issues = append(response.Issues, "vector_store_unavailable")
		httpStatus = http.StatusServiceUnavailable
	case count == 0:
		logger.WarnContext(ctx, "vector index is empty", "error", rag.ErrEmptyIndex)
		response.Status = "degraded"
		response.Checks["index"] = "empty"
		response.Issues = append(response.Issues, "empty_index")
	default:
		response.IndexedChunks = count
	}

	writeJSON(ctx, w, httpStatus, response)
}
