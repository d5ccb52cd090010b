package rag

// Document is one retrieved clause chunk. It is not modified after retrieval.
type Document struct {
	// Content is the chunk text as stored in the index.
	Content string `json:"content"`
	// Metadata carries source, article_no/section_id, article_title/title and chunk_id.
	Metadata map[string]string `json:"metadata"`
	// Rank is the position of the document in the result set of its query (0 = best).
	Rank int `json:"rank"`
	// QueryIndex is the position of the originating query in the executed query list.
	QueryIndex int `json:"query_index"`
}

// ResultSet is the ranked output of one query, best first.
// Fusion interleaves result sets but never reorders one.
type ResultSet []Document

// FusedContext is the deduplicated, length-bounded merge of several result sets.
type FusedContext []Document

// AskRequest represents a question to answer from the clause index.
type AskRequest struct {
	// Question is the user's question, used verbatim as the first search query.
	Question string `json:"question"`
}

// AskResponse represents the response from a RAG query.
type AskResponse struct {
	// Answer is the generated answer, or NoContentAnswer when nothing was retrieved.
	Answer string `json:"answer"`
	// SourceDocuments are the fused clauses the answer was generated from.
	SourceDocuments FusedContext `json:"source_documents"`
	// DebugQueries lists every executed search query in execution order.
	DebugQueries []string `json:"debug_queries"`
	// NoContent reports that fusion was empty and the answer model was not called.
	NoContent bool `json:"no_content"`
}
