package rag

import (
	"fmt"
	"strings"
)

// ContextSeparator is placed between formatted clause blocks.
const ContextSeparator = "\n--------------------\n"

// FormatContext renders docs as annotated clause blocks for the answer prompt.
func FormatContext(docs []Document) string {
	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		blocks = append(blocks, formatDocument(doc))
	}
	return strings.Join(blocks, ContextSeparator)
}

func formatDocument(doc Document) string {
	return fmt.Sprintf("Source: %s | Clause: %s | Title: %s\nContent: %s",
		MetaValue(doc.Metadata, DefaultSource, SourceKeys...),
		MetaValue(doc.Metadata, DefaultSection, SectionKeys...),
		MetaValue(doc.Metadata, DefaultTitle, TitleKeys...),
		doc.Content,
	)
}
