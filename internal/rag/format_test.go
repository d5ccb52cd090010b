package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatContext(t *testing.T) {
	docs := []Document{
		{
			Content:  "條款：第十條 班機延誤\n內容：延誤達四小時以上...",
			Metadata: map[string]string{"source": "travel.txt", "article_no": "第十條", "article_title": "班機延誤"},
		},
		{
			Content:  "legacy",
			Metadata: map[string]string{"section_id": "S-2", "article_no": "第二條", "title": "Legacy title", "article_title": "ignored"},
		},
		{
			Content: "no metadata",
		},
	}

	got := FormatContext(docs)

	blocks := strings.Split(got, ContextSeparator)
	assert.Len(t, blocks, 3)
	assert.Equal(t, "Source: travel.txt | Clause: 第十條 | Title: 班機延誤\nContent: 條款：第十條 班機延誤\n內容：延誤達四小時以上...", blocks[0])
	assert.Equal(t, "Source: Insurance policy | Clause: S-2 | Title: Legacy title\nContent: legacy", blocks[1])
	assert.Equal(t, "Source: Insurance policy | Clause: No clause number | Title: Untitled\nContent: no metadata", blocks[2])
}

func TestFormatContext_Deterministic(t *testing.T) {
	docs := []Document{clause("第一條"), clause("第二條")}
	assert.Equal(t, FormatContext(docs), FormatContext(docs))
}

func TestFormatContext_Empty(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil))
}

func TestMetaValue(t *testing.T) {
	meta := map[string]string{"section_id": "  ", "article_no": "第三條", "source": ""}

	assert.Equal(t, "第三條", MetaValue(meta, "none", SectionKeys...))
	assert.Equal(t, "none", MetaValue(meta, "none", SourceKeys...))
	assert.Equal(t, "none", MetaValue(nil, "none", TitleKeys...))
	assert.Equal(t, "none", MetaValue(meta, "none"))
}
