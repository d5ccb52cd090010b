package storage

import "time"

// DocumentRecord is an ingested corpus file.
type DocumentRecord struct {
	ID         string // UUID
	RelPath    string // Relative path from the corpus root
	Hash       string // SHA256 hex string of file content
	ChunkCount int
	UpdatedAt  time.Time
}

// ChunkRecord is one clause chunk of a document, indexed for vector search.
type ChunkRecord struct {
	ID           string // UUID (same as Qdrant point ID)
	DocumentID   string // UUID (foreign key to documents.id)
	ChunkIndex   int    // Index within document (starts at 0)
	ClauseID     string // "第十條", "第十條_1" or "fallback_0"
	ArticleNo    string // Empty for general context
	ArticleTitle string
	Text         string
}
