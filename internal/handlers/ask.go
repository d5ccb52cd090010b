package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"policy-rag/internal/contextutil"
	"policy-rag/internal/rag"
)

// AskHandler handles HTTP requests for clause-grounded answers.
type AskHandler struct {
	ragEngine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(ragEngine rag.Engine) *AskHandler {
	return &AskHandler{ragEngine: ragEngine}
}

// AskRequest represents the HTTP request payload for questions.
//
// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse represents the HTTP response payload for questions.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer, or the fixed not-found message
	Answer string `json:"answer"`

	// Clauses the answer was generated from, in fused order
	SourceDocuments []SourceDocument `json:"source_documents"`

	// Every executed search query, the original question first
	DebugQueries []string `json:"debug_queries"`

	// NoContent is true when no clause was retrieved and the answer model was skipped
	NoContent bool `json:"no_content"`
}

// SourceDocument is one retrieved clause with its display fields resolved.
//
// swagger:model SourceDocument
type SourceDocument struct {
	Source     string `json:"source"`
	Clause     string `json:"clause"`
	Title      string `json:"title"`
	ChunkID    string `json:"chunk_id,omitempty"`
	Content    string `json:"content"`
	QueryIndex int    `json:"query_index"`
	Rank       int    `json:"rank"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewSourceDocument resolves the display fields of doc with the same key
// priority and placeholders the answer context uses.
func NewSourceDocument(doc rag.Document) SourceDocument {
	return SourceDocument{
		Source:     rag.MetaValue(doc.Metadata, rag.DefaultSource, rag.SourceKeys...),
		Clause:     rag.MetaValue(doc.Metadata, rag.DefaultSection, rag.SectionKeys...),
		Title:      rag.MetaValue(doc.Metadata, rag.DefaultTitle, rag.TitleKeys...),
		ChunkID:    doc.Metadata["chunk_id"],
		Content:    doc.Content,
		QueryIndex: doc.QueryIndex,
		Rank:       doc.Rank,
	}
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question about the indexed policies
//
// Expands the question into several search queries, retrieves clauses for each,
// fuses them and generates an answer that cites clause numbers.
//
// responses:
//
//	'200':
//	  description: Answer with source clauses and executed queries
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Invalid or empty question
//	'502':
//	  description: Language model unavailable
//	'503':
//	  description: Request canceled or timed out
//	'500':
//	  description: Internal server error
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		logger.WarnContext(ctx, "empty question in request")
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	ragResp, err := h.ragEngine.Ask(ctx, rag.AskRequest{Question: req.Question})
	if err != nil {
		h.handleRAGError(w, ctx, err)
		return
	}

	sources := make([]SourceDocument, len(ragResp.SourceDocuments))
	for i, doc := range ragResp.SourceDocuments {
		sources[i] = NewSourceDocument(doc)
	}

	queries := ragResp.DebugQueries
	if queries == nil {
		queries = []string{}
	}

	writeJSON(ctx, w, http.StatusOK, AskResponse{
		Answer:          ragResp.Answer,
		SourceDocuments: sources,
		DebugQueries:    queries,
		NoContent:       ragResp.NoContent,
	})
}

// handleRAGError maps engine errors to HTTP status codes.
func (h *AskHandler) handleRAGError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case errors.Is(err, rag.ErrInvalidInput):
		logger.WarnContext(ctx, "invalid question", "error", err)
		writeError(w, http.StatusBadRequest, "Question is required")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Checked before generation failures: a canceled model call is wrapped in one.
		logger.WarnContext(ctx, "request abandoned", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Request canceled or timed out")
	case errors.Is(err, rag.ErrGenerationFailure):
		logger.ErrorContext(ctx, "language model error", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		logger.ErrorContext(ctx, "RAG engine error", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to answer question")
	}
}
