// Command chat is a terminal client that asks the clause index questions.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"policy-rag/internal/config"
	"policy-rag/internal/llm"
	"policy-rag/internal/rag"
	"policy-rag/internal/tui"
	"policy-rag/internal/vectorstore"
)

func main() {
	timeout := flag.Duration("timeout", tui.DefaultTimeout, "time limit for one question")
	logPath := flag.String("log", "chat.log", "file that receives logs while the UI owns the terminal")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer func() {
		_ = logFile.Close()
	}()
	logger := cfg.NewLogger(logFile)
	slog.SetDefault(logger)

	ctx := context.Background()

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	chatModel, embedder, err := llm.NewProviders(ctx, cfg.Providers())
	if err != nil {
		log.Fatalf("Failed to create model clients: %v", err)
	}

	rc := cfg.Retrieval
	retriever := rag.NewVectorRetriever(embedder, store, cfg.QdrantCollection, vectorstore.MMRParams{
		K:      rc.K,
		FetchK: rc.FetchK,
		Lambda: rc.Lambda,
	})
	if err := rag.WarnIfEmptyIndex(ctx, retriever, logger); err != nil {
		if !errors.Is(err, rag.ErrEmptyIndex) {
			log.Fatalf("Failed to read vector index: %v", err)
		}
		log.Printf("Warning: collection %s is empty; run ingest first", cfg.QdrantCollection)
	}

	engine := rag.NewEngine(
		rag.NewQueryExpander(chatModel, rc.ExpansionCount, rc.MaxQueries),
		retriever,
		rag.NewAnswerGenerator(chatModel),
		rag.Options{PerQueryCap: rc.PerQueryCap, FinalCap: rc.FinalCap, Concurrency: rc.Concurrency},
	)

	if _, err := tea.NewProgram(tui.New(engine, *timeout), tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
