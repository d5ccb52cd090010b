package rag

import (
	"context"
	"strings"

	"policy-rag/internal/contextutil"
	"policy-rag/internal/llm"
)

const (
	// DefaultExpansionCount is how many queries the model is asked for.
	DefaultExpansionCount = 4
	// DefaultMaxQueries caps the parsed model output before the original question is added.
	DefaultMaxQueries = 5
)

// QueryExpander rewrites one question into several search queries with a single model call.
type QueryExpander struct {
	model      llm.ChatModel
	count      int
	maxQueries int
}

// NewQueryExpander creates a QueryExpander. Non-positive counts use the defaults.
func NewQueryExpander(model llm.ChatModel, count, maxQueries int) *QueryExpander {
	if count <= 0 {
		count = DefaultExpansionCount
	}
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}
	return &QueryExpander{
		model:      model,
		count:      count,
		maxQueries: maxQueries,
	}
}

// Expand returns the queries to execute, original question first.
// Model failures come back as *GenerationError.
func (e *QueryExpander) Expand(ctx context.Context, question string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := e.model.Complete(ctx, expansionPrompt(question, e.count), llm.ChatParams{})
	if err != nil {
		logger.ErrorContext(ctx, "query expansion failed", "error", err)
		return nil, &GenerationError{Stage: "expand", Err: err}
	}

	queries := parseQueries(raw, e.maxQueries)
	if len(queries) == 0 {
		logger.WarnContext(ctx, "query expansion returned no queries")
	}

	return withOriginal(queries, question), nil
}

// parseQueries splits model output into trimmed, non-empty lines, keeping at most limit.
func parseQueries(raw string, limit int) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	queries := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, line)
	}
	if len(queries) > limit {
		queries = queries[:limit]
	}
	return queries
}

// withOriginal prepends question unless it is already one of the queries verbatim.
func withOriginal(queries []string, question string) []string {
	for _, q := range queries {
		if q == question {
			return queries
		}
	}
	return append([]string{question}, queries...)
}
