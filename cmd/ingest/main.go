// Command ingest builds the clause index from the policy corpus directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"policy-rag/internal/clause"
	"policy-rag/internal/config"
	"policy-rag/internal/contextutil"
	"policy-rag/internal/corpus"
	"policy-rag/internal/indexer"
	"policy-rag/internal/llm"
	"policy-rag/internal/storage"
	"policy-rag/internal/vectorstore"
)

func main() {
	force := flag.Bool("force", false, "drop the collection and bookkeeping and rebuild from scratch")
	chunkSize := flag.Int("chunk-size", clause.DefaultChunkSize, "rune budget of one chunk")
	overlap := flag.Int("overlap", clause.DefaultOverlap, "runes shared by consecutive sub-chunks")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireCorpus(); err != nil {
		log.Fatal(err)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = contextutil.WithLogger(ctx, logger)

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	defer func() {
		_ = vectorStore.Close()
	}()

	_, embedder, err := llm.NewProviders(ctx, cfg.Providers())
	if err != nil {
		log.Fatalf("Failed to create model clients: %v", err)
	}
	if err := llm.ValidateEmbedder(ctx, embedder, cfg.QdrantVectorSize); err != nil {
		log.Fatal(err)
	}

	scanner, err := corpus.NewScanner(cfg.CorpusPath)
	if err != nil {
		log.Fatal(err)
	}
	documents := storage.NewDocumentRepo(db)
	pipeline := indexer.NewPipeline(
		scanner,
		documents,
		storage.NewChunkRepo(db),
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		clause.NewChunker(*chunkSize, *overlap),
	)

	if *force {
		if err := vectorStore.DropCollection(ctx, cfg.QdrantCollection); err != nil {
			log.Fatalf("Failed to drop collection: %v", err)
		}
		// Chunk rows cascade with their documents.
		if err := documents.DeleteAll(ctx); err != nil {
			log.Fatalf("Failed to clear bookkeeping: %v", err)
		}
	}
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}

	logger.Info("Indexing corpus", "corpus", scanner.Root(), "collection", cfg.QdrantCollection, "force", *force)
	runStats, runErr := pipeline.IndexAll(ctx)
	if runStats == nil {
		log.Fatalf("Indexing failed: %v", runErr)
	}

	coverage, err := pipeline.CoverageStats(ctx, cfg.EmbeddingModelName)
	if err != nil {
		log.Fatalf("Failed to compute coverage stats: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(struct {
		Run      *indexer.RunStats      `json:"run"`
		Coverage *indexer.CoverageStats `json:"coverage"`
	}{runStats, coverage})

	if runErr != nil {
		logger.Error("Indexing completed with errors", "error", runErr)
		os.Exit(1)
	}
	if coverage.ChunksIndexed == 0 {
		logger.Warn("No chunks were indexed; queries will return the no-content answer")
	}
}
