// Command inspect prints every clause chunk stored in the vector index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"policy-rag/internal/config"
	"policy-rag/internal/contextutil"
	"policy-rag/internal/indexer"
	"policy-rag/internal/vectorstore"
)

func main() {
	source := flag.String("source", "", "only show chunks from this source")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	ctx := contextutil.WithLogger(context.Background(), logger)

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	count, err := store.Count(ctx, cfg.QdrantCollection)
	if err != nil {
		log.Fatalf("Failed to count points: %v", err)
	}
	fmt.Printf("Collection %s holds %d chunks\n\n", cfg.QdrantCollection, count)
	if count == 0 {
		return
	}

	chunks, err := indexer.ListIndexed(ctx, store, cfg.QdrantCollection)
	if err != nil {
		log.Fatalf("Failed to list chunks: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, c := range chunks {
		if *source != "" && c.Source != *source {
			continue
		}
		fmt.Fprintf(w, "%s\t#%d\t%s\t%s\t%s\n", c.Source, c.ChunkIndex, c.ArticleNo, c.ArticleTitle, c.ChunkID)
		fmt.Fprintf(w, "\t\t%s\n", strings.ReplaceAll(c.Preview, "\n", " "))
	}
	_ = w.Flush()
}
