package indexer

import (
	"context"
	"fmt"
	"sort"

	"policy-rag/internal/clause"
	"policy-rag/internal/rag"
	"policy-rag/internal/vectorstore"
)

const (
	// PreviewRunes is the length of chunk previews in listings.
	PreviewRunes   = 150
	scrollPageSize = 256
)

// IndexedChunk is one stored chunk as shown by listings.
type IndexedChunk struct {
	PointID      string `json:"point_id"`
	Source       string `json:"source"`
	ArticleNo    string `json:"article_no"`
	ArticleTitle string `json:"article_title"`
	ChunkID      string `json:"chunk_id"`
	ChunkIndex   int64  `json:"chunk_index"`
	Preview      string `json:"preview"`
}

// ListIndexed pages through every point of collection and returns the chunks
// ordered by source and chunk index.
func ListIndexed(ctx context.Context, store vectorstore.VectorStore, collection string) ([]IndexedChunk, error) {
	var chunks []IndexedChunk
	offset := ""
	for {
		records, next, err := store.Scroll(ctx, collection, scrollPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list indexed chunks: %w", err)
		}
		for _, r := range records {
			chunks = append(chunks, indexedChunk(r))
		}
		if next == "" || len(records) == 0 {
			break
		}
		offset = next
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Source != chunks[j].Source {
			return chunks[i].Source < chunks[j].Source
		}
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	return chunks, nil
}

func indexedChunk(r vectorstore.Record) IndexedChunk {
	meta := make(map[string]string, len(r.Meta))
	var index int64
	for k, v := range r.Meta {
		switch val := v.(type) {
		case string:
			meta[k] = val
		case int64:
			if k == clause.KeyChunkIndex {
				index = val
			}
		}
	}

	return IndexedChunk{
		PointID:      r.PointID,
		Source:       rag.MetaValue(meta, rag.DefaultSource, rag.SourceKeys...),
		ArticleNo:    rag.MetaValue(meta, "", rag.SectionKeys...),
		ArticleTitle: rag.MetaValue(meta, "", rag.TitleKeys...),
		ChunkID:      meta[clause.KeyChunkID],
		ChunkIndex:   index,
		Preview:      Preview(meta[clause.KeyContent], PreviewRunes),
	}
}

// Preview returns the first n runes of text, with "..." appended when text is longer.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
