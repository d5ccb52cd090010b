package rag

import (
	"context"
	"fmt"
	"log/slog"

	"policy-rag/internal/contextutil"
	"policy-rag/internal/llm"
	"policy-rag/internal/vectorstore"
)

// ContentPayloadKey is the payload key holding the chunk text.
const ContentPayloadKey = "content"

// Default MMR settings.
const (
	DefaultK      = 6
	DefaultFetchK = 30
	DefaultLambda = 0.5
)

// Retriever runs one similarity search and returns its ranked result set.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (ResultSet, error)
}

// IndexCounter reports how many chunks the index holds.
type IndexCounter interface {
	IndexSize(ctx context.Context) (uint64, error)
}

// VectorRetriever embeds a query and runs an MMR search against the vector store.
type VectorRetriever struct {
	embedder   llm.Embedder
	store      vectorstore.VectorStore
	collection string
	params     vectorstore.MMRParams
}

// NewVectorRetriever creates a VectorRetriever. A zero params uses K=6, FetchK=30, Lambda=0.5.
func NewVectorRetriever(embedder llm.Embedder, store vectorstore.VectorStore, collection string, params vectorstore.MMRParams) *VectorRetriever {
	if params == (vectorstore.MMRParams{}) {
		params = vectorstore.MMRParams{K: DefaultK, FetchK: DefaultFetchK, Lambda: DefaultLambda}
	}
	return &VectorRetriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
		params:     params,
	}
}

// Retrieve returns the MMR-selected documents for query in rank order.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) (ResultSet, error) {
	vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	results, err := r.store.SearchMMR(ctx, r.collection, vectors[0], r.params)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	set := make(ResultSet, 0, len(results))
	for i, result := range results {
		doc := documentFromPayload(result.Meta)
		doc.Rank = i
		set = append(set, doc)
	}
	return set, nil
}

// IndexSize returns the number of points in the collection.
func (r *VectorRetriever) IndexSize(ctx context.Context) (uint64, error) {
	return r.store.Count(ctx, r.collection)
}

// documentFromPayload splits a vector payload into chunk text and string metadata.
func documentFromPayload(payload map[string]any) Document {
	doc := Document{Metadata: make(map[string]string, len(payload))}
	for key, value := range payload {
		if value == nil {
			continue
		}
		if key == ContentPayloadKey {
			doc.Content, _ = value.(string)
			continue
		}
		if s, ok := value.(string); ok {
			doc.Metadata[key] = s
		} else {
			doc.Metadata[key] = fmt.Sprint(value)
		}
	}
	return doc
}

// WarnIfEmptyIndex logs a warning and returns ErrEmptyIndex when the index holds no chunks.
// Queries still run against an empty index; they just find nothing.
func WarnIfEmptyIndex(ctx context.Context, counter IndexCounter, logger *slog.Logger) error {
	if logger == nil {
		logger = contextutil.LoggerFromContext(ctx)
	}

	count, err := counter.IndexSize(ctx)
	if err != nil {
		return fmt.Errorf("failed to count indexed chunks: %w", err)
	}
	if count == 0 {
		logger.WarnContext(ctx, "vector index is empty; every question will return the no-content answer")
		return ErrEmptyIndex
	}

	logger.InfoContext(ctx, "vector index loaded", "chunks", count)
	return nil
}
