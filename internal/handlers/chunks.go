package handlers

import (
	"net/http"

	"policy-rag/internal/contextutil"
	"policy-rag/internal/indexer"
	"policy-rag/internal/vectorstore"
)

// ChunksHandler lists every chunk stored in the vector index.
type ChunksHandler struct {
	store      vectorstore.VectorStore
	collection string
}

// NewChunksHandler creates a new ChunksHandler.
func NewChunksHandler(store vectorstore.VectorStore, collection string) *ChunksHandler {
	return &ChunksHandler{store: store, collection: collection}
}

// ChunksResponse is the chunk listing.
type ChunksResponse struct {
	Count  int                    `json:"count"`
	Chunks []indexer.IndexedChunk `json:"chunks"`
}

// ServeHTTP handles GET /api/v1/chunks.
func (h *ChunksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	chunks, err := indexer.ListIndexed(ctx, h.store, h.collection)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list chunks", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
		return
	}
	if chunks == nil {
		chunks = []indexer.IndexedChunk{}
	}

	writeJSON(ctx, w, http.StatusOK, ChunksResponse{Count: len(chunks), Chunks: chunks})
}
