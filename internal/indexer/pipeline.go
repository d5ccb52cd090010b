// Package indexer ingests the policy corpus into SQLite and the vector index.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"policy-rag/internal/clause"
	"policy-rag/internal/contextutil"
	"policy-rag/internal/corpus"
	"policy-rag/internal/llm"
	"policy-rag/internal/storage"
	"policy-rag/internal/vectorstore"
)

// Pipeline orchestrates the indexing of corpus files into SQLite and Qdrant.
type Pipeline struct {
	scanner     *corpus.Scanner
	documents   storage.DocumentStore
	chunks      storage.ChunkStore
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	chunker     *clause.Chunker
}

// NewPipeline creates a new indexing pipeline. A nil chunker uses the default sizes.
func NewPipeline(
	scanner *corpus.Scanner,
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	chunker *clause.Chunker,
) *Pipeline {
	if chunker == nil {
		chunker = clause.NewChunker(clause.DefaultChunkSize, clause.DefaultOverlap)
	}
	return &Pipeline{
		scanner:     scanner,
		documents:   documents,
		chunks:      chunks,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		chunker:     chunker,
	}
}

// RunStats summarizes one IndexAll run.
type RunStats struct {
	Files     int `json:"files"`
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
	Removed   int `json:"removed"`
	Chunks    int `json:"chunks"`
}

// stableChunkID derives the point ID from the document path and the chunk's
// position, so re-indexing a file overwrites its previous points.
func stableChunkID(relPath, clauseID string, index int) string {
	name := fmt.Sprintf("%s#%d#%s", relPath, index, clauseID)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// IndexFile indexes a single corpus file and returns how many chunks it produced.
// Files whose hash matches the stored one are skipped and report changed == false.
func (p *Pipeline) IndexFile(ctx context.Context, f corpus.File) (chunkCount int, changed bool, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, hash, err := p.scanner.Read(f)
	if err != nil {
		return 0, false, err
	}

	existing, err := p.documents.GetByPath(ctx, f.RelPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, false, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		logger.DebugContext(ctx, "skipping unchanged file", "rel_path", f.RelPath, "hash", hash)
		return existing.ChunkCount, false, nil
	}

	text, err := clause.ExtractText(f.RelPath, content)
	if err != nil {
		return 0, false, err
	}
	chunks := p.chunker.Chunk(text, f.RelPath)

	if existing != nil {
		if err := p.removeChunks(ctx, existing.ID); err != nil {
			return 0, false, err
		}
	}

	points := make([]vectorstore.Point, len(chunks))
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		embeddings, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return 0, false, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(embeddings) != len(chunks) {
			return 0, false, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
		}

		for i, c := range chunks {
			points[i] = vectorstore.Point{
				ID:   stableChunkID(f.RelPath, c.ID, c.Index),
				Vec:  embeddings[i],
				Meta: c.Payload(),
			}
		}

		if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
			return 0, false, fmt.Errorf("failed to upsert vectors: %w", err)
		}
	} else {
		logger.WarnContext(ctx, "no chunks generated", "rel_path", f.RelPath)
	}

	doc := &storage.DocumentRecord{RelPath: f.RelPath, Hash: hash, ChunkCount: len(chunks)}
	if err := p.documents.Upsert(ctx, doc); err != nil {
		return 0, false, fmt.Errorf("failed to upsert document: %w", err)
	}

	for i, c := range chunks {
		record := &storage.ChunkRecord{
			ID:           points[i].ID,
			DocumentID:   doc.ID,
			ChunkIndex:   c.Index,
			ClauseID:     c.ID,
			ArticleNo:    c.ArticleNo,
			ArticleTitle: c.ArticleTitle,
			Text:         c.Text,
		}
		if err := p.chunks.Insert(ctx, record); err != nil {
			return 0, false, fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	logger.InfoContext(ctx, "indexed document", "rel_path", f.RelPath, "chunks", len(chunks))
	return len(chunks), true, nil
}

// IndexAll scans the corpus, indexes every changed file and removes documents
// that no longer exist on disk. Errors for individual files are logged and
// counted; the run continues with the next file.
func (p *Pipeline) IndexAll(ctx context.Context) (*RunStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := p.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	logger.InfoContext(ctx, "starting indexing", "total_files", len(files), "root", p.scanner.Root())

	stats := &RunStats{Files: len(files)}
	seen := make(map[string]bool, len(files))

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		seen[f.RelPath] = true

		n, changed, err := p.IndexFile(ctx, f)
		if err != nil {
			stats.Failed++
			logger.ErrorContext(ctx, "failed to index file", "rel_path", f.RelPath, "error", err)
			continue
		}
		stats.Chunks += n
		if changed {
			stats.Indexed++
		} else {
			stats.Unchanged++
		}
	}

	docs, err := p.documents.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list documents: %w", err)
	}
	for _, doc := range docs {
		if seen[doc.RelPath] {
			continue
		}
		if err := p.removeDocument(ctx, doc.ID); err != nil {
			stats.Failed++
			logger.ErrorContext(ctx, "failed to remove stale document", "rel_path", doc.RelPath, "error", err)
			continue
		}
		stats.Removed++
		logger.InfoContext(ctx, "removed stale document", "rel_path", doc.RelPath)
	}

	logger.InfoContext(ctx, "indexing completed",
		"total_files", stats.Files,
		"indexed", stats.Indexed,
		"unchanged", stats.Unchanged,
		"removed", stats.Removed,
		"errors", stats.Failed,
		"chunks", stats.Chunks,
	)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("indexing completed with %d errors", stats.Failed)
	}
	return stats, nil
}

// ClearAll removes every indexed point and all bookkeeping rows.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	docs, err := p.documents.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	for _, doc := range docs {
		if err := p.removeChunks(ctx, doc.ID); err != nil {
			return err
		}
	}
	if err := p.documents.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

func (p *Pipeline) removeDocument(ctx context.Context, documentID string) error {
	if err := p.removeChunks(ctx, documentID); err != nil {
		return err
	}
	if err := p.documents.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// removeChunks deletes a document's points from the vector index and its chunk rows.
func (p *Pipeline) removeChunks(ctx context.Context, documentID string) error {
	ids, err := p.chunks.ListIDsByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to list old chunk IDs: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := p.vectorStore.Delete(ctx, p.collection, ids); err != nil {
		return fmt.Errorf("failed to delete old chunks from vector store: %w", err)
	}
	if err := p.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete old chunks from SQLite: %w", err)
	}
	return nil
}
