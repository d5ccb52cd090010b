package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"policy-rag/internal/clause"
	"policy-rag/internal/config"
	"policy-rag/internal/corpus"
	"policy-rag/internal/http"
	"policy-rag/internal/indexer"
	"policy-rag/internal/llm"
	"policy-rag/internal/rag"
	"policy-rag/internal/storage"
	"policy-rag/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about insurance policies from an index of policy clauses.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Policy RAG API
//   description: |
//     Clause-grounded question answering over insurance policy documents.
//     Every answer lists the clauses it was generated from and the search queries that found them.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx := context.Background()

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	defer func() {
		_ = vectorStore.Close()
	}()

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	chatModel, embedder, err := llm.NewProviders(ctx, cfg.Providers())
	if err != nil {
		log.Fatalf("Failed to create model clients: %v", err)
	}

	// Validate embedding client vector size (fail-fast)
	if err := llm.ValidateEmbedder(ctx, embedder, cfg.QdrantVectorSize); err != nil {
		log.Fatal(err)
	}
	slog.Info("Embedding client validated", "provider", cfg.EmbeddingProvider, "model", cfg.EmbeddingModelName)

	rc := cfg.Retrieval
	retriever := rag.NewVectorRetriever(embedder, vectorStore, cfg.QdrantCollection, vectorstore.MMRParams{
		K:      rc.K,
		FetchK: rc.FetchK,
		Lambda: rc.Lambda,
	})
	if err := rag.WarnIfEmptyIndex(ctx, retriever, logger); err != nil && !errors.Is(err, rag.ErrEmptyIndex) {
		log.Fatalf("Failed to read vector index: %v", err)
	}

	ragEngine := rag.NewEngine(
		rag.NewQueryExpander(chatModel, rc.ExpansionCount, rc.MaxQueries),
		retriever,
		rag.NewAnswerGenerator(chatModel),
		rag.Options{PerQueryCap: rc.PerQueryCap, FinalCap: rc.FinalCap, Concurrency: rc.Concurrency},
	)
	slog.Info("RAG engine initialized", "provider", cfg.LLMProvider, "model", cfg.LLMModelName)

	deps := &http.Deps{
		RAGEngine:      ragEngine,
		Index:          retriever,
		VectorStore:    vectorStore,
		CollectionName: cfg.QdrantCollection,
		EmbeddingModel: cfg.EmbeddingModelName,
	}

	// Re-indexing over HTTP is only offered when the server can see the corpus.
	if cfg.CorpusPath != "" {
		pipeline, closeDB, err := newPipeline(cfg, embedder, vectorStore)
		if err != nil {
			log.Fatalf("Failed to set up indexing: %v", err)
		}
		defer closeDB()
		deps.Indexer = pipeline
		slog.Info("Indexing endpoint enabled", "corpus", cfg.CorpusPath)
	}

	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

func newPipeline(cfg *config.Config, embedder llm.Embedder, store vectorstore.VectorStore) (*indexer.Pipeline, func(), error) {
	if err := cfg.RequireCorpus(); err != nil {
		return nil, nil, err
	}
	scanner, err := corpus.NewScanner(cfg.CorpusPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	pipeline := indexer.NewPipeline(
		scanner,
		storage.NewDocumentRepo(db),
		storage.NewChunkRepo(db),
		embedder,
		store,
		cfg.QdrantCollection,
		clause.NewChunker(clause.DefaultChunkSize, clause.DefaultOverlap),
	)
	return pipeline, func() { _ = db.Close() }, nil
}
