package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"policy-rag/internal/contextutil"
	"policy-rag/internal/indexer"
)

// Indexer is the part of the ingestion pipeline the HTTP layer drives.
type Indexer interface {
	IndexAll(ctx context.Context) (*indexer.RunStats, error)
	ClearAll(ctx context.Context) error
	CoverageStats(ctx context.Context, embeddingModelName string) (*indexer.CoverageStats, error)
}

// IndexHandler handles HTTP requests for re-indexing the corpus.
type IndexHandler struct {
	indexer            Indexer
	embeddingModelName string
	running            atomic.Bool
	// done runs after each background run.
	done func()
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(idx Indexer, embeddingModelName string) *IndexHandler {
	return &IndexHandler{
		indexer:            idx,
		embeddingModelName: embeddingModelName,
		done:               func() {},
	}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP starts a background re-index. ?force=true clears the index first.
//
// swagger:route POST /api/v1/index reindex
//
// responses:
//
//	'202':
//	  description: Indexing started
//	'409':
//	  description: An indexing run is already in progress
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "Indexing already in progress")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	logger.InfoContext(ctx, "re-indexing triggered via API", "force", force)

	// The run outlives the request, so it gets a fresh context carrying the request logger.
	indexCtx := contextutil.WithLogger(context.Background(), logger)
	go func() {
		defer h.done()
		defer h.running.Store(false)

		if force {
			if err := h.indexer.ClearAll(indexCtx); err != nil {
				logger.ErrorContext(indexCtx, "failed to clear existing data", "error", err)
				return
			}
			logger.InfoContext(indexCtx, "cleared all existing indexed data")
		}
		if _, err := h.indexer.IndexAll(indexCtx); err != nil {
			logger.ErrorContext(indexCtx, "re-indexing completed with errors", "error", err)
			return
		}
		logger.InfoContext(indexCtx, "re-indexing completed successfully")
	}()

	message := "Indexing started. Check server logs for progress."
	if force {
		message = "Force re-indexing started (all existing data cleared). Check server logs for progress."
	}
	writeJSON(ctx, w, http.StatusAccepted, IndexResponse{Message: message, Status: "accepted"})
}

// Stats returns coverage statistics of the current index.
//
// swagger:route GET /api/v1/index/stats indexStats
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.indexer.CoverageStats(ctx, h.embeddingModelName)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get coverage stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get index statistics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
