package rag

import "strings"

// Metadata key priority lists. The legacy keys come first so that an index built
// with either naming scheme reads the same way everywhere.
var (
	SectionKeys = []string{"section_id", "article_no"}
	TitleKeys   = []string{"title", "article_title"}
	SourceKeys  = []string{"source"}
)

// Placeholders used when a document carries none of the keys.
const (
	DefaultSource  = "Insurance policy"
	DefaultSection = "No clause number"
	DefaultTitle   = "Untitled"
)

// MetaValue returns the first non-blank value among keys, else placeholder.
func MetaValue(meta map[string]string, placeholder string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(meta[key]); v != "" {
			return v
		}
	}
	return placeholder
}

// Section returns the clause number of doc, or "" if it has none.
func (d Document) Section() string {
	return MetaValue(d.Metadata, "", SectionKeys...)
}

// Title returns the clause title of doc, or "" if it has none.
func (d Document) Title() string {
	return MetaValue(d.Metadata, "", TitleKeys...)
}

// Source returns the source document label of doc, or "" if it has none.
func (d Document) Source() string {
	return MetaValue(d.Metadata, "", SourceKeys...)
}
