package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks policy-rag/internal/rag Engine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"policy-rag/internal/contextutil"
)

// DefaultConcurrency bounds parallel per-query retrievals.
const DefaultConcurrency = 5

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question from the clause index.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// Options tunes fusion and retrieval fan-out. Zero values use the defaults.
type Options struct {
	PerQueryCap int
	FinalCap    int
	Concurrency int
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	expander  *QueryExpander
	retriever Retriever
	generator *AnswerGenerator
	opts      Options
}

// NewEngine creates a new RAG engine.
func NewEngine(expander *QueryExpander, retriever Retriever, generator *AnswerGenerator, opts Options) Engine {
	if opts.PerQueryCap <= 0 {
		opts.PerQueryCap = DefaultPerQueryCap
	}
	if opts.FinalCap <= 0 {
		opts.FinalCap = DefaultFinalCap
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &ragEngine{
		expander:  expander,
		retriever: retriever,
		generator: generator,
		opts:      opts,
	}
}

// Ask expands the question, retrieves per query, fuses the result sets and
// generates an answer. An empty fusion returns NoContentAnswer without calling
// the answer model.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Question) == "" {
		return AskResponse{}, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	question := req.Question

	logger.InfoContext(ctx, "RAG query started", "question", question)

	queries, err := e.expander.Expand(ctx, question)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to expand question: %w", err)
	}
	logger.InfoContext(ctx, "executing search queries", "queries", queries)

	sets, err := e.retrieveAll(ctx, queries)
	if err != nil {
		return AskResponse{}, err
	}

	fused := Fuse(sets, e.opts.PerQueryCap, e.opts.FinalCap)
	logger.InfoContext(ctx, "fusion completed", "documents", len(fused), "clauses", clauseNumbers(fused))

	if len(fused) == 0 {
		logger.InfoContext(ctx, "no clauses retrieved, skipping answer generation")
		return AskResponse{
			Answer:          NoContentAnswer,
			SourceDocuments: FusedContext{},
			DebugQueries:    queries,
			NoContent:       true,
		}, nil
	}

	clauses := FormatContext(fused)
	answer, err := e.generator.Answer(ctx, clauses, question)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	logger.InfoContext(ctx, "RAG query completed", "queries", len(queries), "documents", len(fused), "answer_length", len(answer))

	return AskResponse{
		Answer:          answer,
		SourceDocuments: fused,
		DebugQueries:    queries,
	}, nil
}

// retrieveAll runs one retrieval per query concurrently. Results land at the index
// of their query, so fusion sees query order no matter which search finishes first.
// A failing query is logged and contributes an empty set.
func (e *ragEngine) retrieveAll(ctx context.Context, queries []string) ([]ResultSet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	sets := make([]ResultSet, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, query := range queries {
		g.Go(func() error {
			set, err := e.retriever.Retrieve(gctx, query)
			if err != nil {
				logger.WarnContext(ctx, "retrieval failed for query", "query_index", i, "query", query, "error", err)
				return nil
			}
			for j := range set {
				set[j].QueryIndex = i
			}
			sets[i] = set
			logger.DebugContext(ctx, "query retrieved", "query_index", i, "results", len(set))
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieval abandoned: %w", err)
	}
	return sets, nil
}

func clauseNumbers(docs FusedContext) []string {
	numbers := make([]string, 0, len(docs))
	for _, doc := range docs {
		numbers = append(numbers, MetaValue(doc.Metadata, "Unknown", SectionKeys...))
	}
	return numbers
}
