package rag

import "strings"

const (
	// DefaultPerQueryCap bounds how many ranks of each result set take part in interleaving.
	DefaultPerQueryCap = 8
	// DefaultFinalCap bounds the fused context.
	DefaultFinalCap = 18

	contentKeyRunes = 100
)

// Interleave merges result sets round-robin by rank: every set's rank 0, then every
// set's rank 1, and so on up to perQueryCap ranks. Sets are visited in query order and
// the order inside a set is kept.
func Interleave(sets []ResultSet, perQueryCap int) []Document {
	if perQueryCap <= 0 {
		perQueryCap = DefaultPerQueryCap
	}

	merged := make([]Document, 0)
	for i := 0; i < perQueryCap; i++ {
		for _, set := range sets {
			if i < len(set) {
				merged = append(merged, set[i])
			}
		}
	}
	return merged
}

// ContentKey identifies a document for deduplication: its clause identifier
// (section_id, then article_no) qualified by source, else the first 100 runes of
// its trimmed content. Two policies that both have a 第三條 keep both clauses.
func ContentKey(doc Document) string {
	if section := doc.Section(); section != "" {
		if source := doc.Source(); source != "" {
			return source + "#" + section
		}
		return section
	}

	content := strings.TrimSpace(doc.Content)
	runes := []rune(content)
	if len(runes) > contentKeyRunes {
		return string(runes[:contentKeyRunes])
	}
	return content
}

// Dedup keeps the first document seen for each content key.
func Dedup(docs []Document) []Document {
	seen := make(map[string]struct{}, len(docs))
	unique := make([]Document, 0, len(docs))
	for _, doc := range docs {
		key := ContentKey(doc)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, doc)
	}
	return unique
}

// Fuse interleaves sets, drops duplicates and truncates to finalCap.
// Non-positive caps use DefaultPerQueryCap and DefaultFinalCap.
func Fuse(sets []ResultSet, perQueryCap, finalCap int) FusedContext {
	if finalCap <= 0 {
		finalCap = DefaultFinalCap
	}

	unique := Dedup(Interleave(sets, perQueryCap))
	if len(unique) > finalCap {
		unique = unique[:finalCap]
	}
	return FusedContext(unique)
}
