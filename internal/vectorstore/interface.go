package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks policy-rag/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// Record is a stored point returned by Scroll, without its vector.
type Record struct {
	PointID string
	Meta    map[string]any
}

// MMRParams tunes a maximal marginal relevance query.
// Lambda 1 ranks purely by relevance, 0 purely by diversity.
type MMRParams struct {
	K      int
	FetchK int
	Lambda float64
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// SearchMMR returns up to K points picked by MMR from the FetchK nearest neighbours of query.
	SearchMMR(ctx context.Context, collection string, query []float32, params MMRParams) ([]SearchResult, error)

	// Count returns the exact number of points in the collection.
	Count(ctx context.Context, collection string) (uint64, error)

	// Scroll pages through stored points. An empty offset starts from the beginning;
	// the returned offset is empty when no pages remain.
	Scroll(ctx context.Context, collection string, limit int, offset string) ([]Record, string, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
