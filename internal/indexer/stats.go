package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// ChunkerVersion identifies the clause chunking rules. Update it when chunk
// boundaries or chunk text layout change.
const ChunkerVersion = "clause-v1"

// CoverageStats describes what the index currently holds.
type CoverageStats struct {
	DocsProcessed   int `json:"docs_processed"`
	DocsWith0Chunks int `json:"docs_with_0_chunks"`
	ChunksIndexed   int `json:"chunks_indexed"`
	// ArticleChunks carry an article number; GeneralChunks are fallback context.
	ArticleChunks int `json:"article_chunks"`
	GeneralChunks int `json:"general_chunks"`
	// ContinuationChunks are pieces of articles that exceeded the chunk size.
	ContinuationChunks int `json:"continuation_chunks"`
	// Articles counts distinct articles per document.
	Articles       int              `json:"articles"`
	ChunkLengths   ChunkLengthStats `json:"chunk_lengths"`
	ChunkerVersion string           `json:"chunker_version"`
	// IndexVersion is a hash of the chunker version, embedding model and chunk sizes.
	IndexVersion string `json:"index_version"`
}

// ChunkLengthStats holds chunk lengths in runes.
type ChunkLengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// CoverageStats computes coverage statistics from the bookkeeping tables.
func (p *Pipeline) CoverageStats(ctx context.Context, embeddingModelName string) (*CoverageStats, error) {
	docs, err := p.documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	chunks, err := p.chunks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	stats := &CoverageStats{
		DocsProcessed:  len(docs),
		ChunksIndexed:  len(chunks),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   indexVersion(embeddingModelName, p.chunker.Size(), p.chunker.Overlap()),
	}

	withChunks := make(map[string]bool, len(docs))
	articles := make(map[string]bool)
	lengths := make([]int, 0, len(chunks))

	for _, c := range chunks {
		withChunks[c.DocumentID] = true
		lengths = append(lengths, utf8.RuneCountInString(c.Text))

		if c.ArticleNo == "" {
			stats.GeneralChunks++
			continue
		}
		stats.ArticleChunks++
		articles[c.DocumentID+"|"+c.ArticleNo] = true
		if strings.HasPrefix(c.ClauseID, c.ArticleNo+"_") {
			stats.ContinuationChunks++
		}
	}

	for _, doc := range docs {
		if !withChunks[doc.ID] {
			stats.DocsWith0Chunks++
		}
	}
	stats.Articles = len(articles)
	stats.ChunkLengths = computeLengthStats(lengths)

	return stats, nil
}

func indexVersion(embeddingModelName string, size, overlap int) string {
	input := fmt.Sprintf("%s|%s|chunkSize=%d|overlap=%d", ChunkerVersion, embeddingModelName, size, overlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeLengthStats computes min, max, mean, and p95.
func computeLengthStats(lengths []int) ChunkLengthStats {
	if len(lengths) == 0 {
		return ChunkLengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, n := range sorted {
		sum += n
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return ChunkLengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
