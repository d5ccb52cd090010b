package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clause(no string) Document {
	return Document{
		Content:  "條款：" + no + "\n內容：...",
		Metadata: map[string]string{"article_no": no, "source": "policy.txt"},
	}
}

func ranked(docs ...Document) ResultSet {
	set := make(ResultSet, len(docs))
	for i, d := range docs {
		d.Rank = i
		set[i] = d
	}
	return set
}

func sections(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Section())
	}
	return out
}

func numbered(prefix string, n int) ResultSet {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = clause(fmt.Sprintf("%s%d", prefix, i))
	}
	return ranked(docs...)
}

func TestFuse_DuplicateAcrossSets(t *testing.T) {
	doc1, doc2, doc3 := clause("第一條"), clause("第二條"), clause("第三條")
	a := ranked(doc1, doc2)
	b := ranked(doc3, doc1)

	interleaved := Interleave([]ResultSet{a, b}, 8)
	assert.Equal(t, []string{"第一條", "第三條", "第二條", "第一條"}, sections(interleaved))

	fused := Fuse([]ResultSet{a, b}, 8, 18)
	assert.Equal(t, []string{"第一條", "第三條", "第二條"}, sections(fused))
	assert.Equal(t, 0, fused[0].Rank, "first occurrence (rank 0 of A) must win")
}

func TestInterleave_PerQueryCap(t *testing.T) {
	a := numbered("a", 3)
	b := numbered("b", 10)

	interleaved := Interleave([]ResultSet{a, b}, 8)

	require.Len(t, interleaved, 11)
	got := sections(interleaved)
	assert.NotContains(t, got, "b8")
	assert.NotContains(t, got, "b9")
	assert.Equal(t, []string{"a0", "b0", "a1", "b1", "a2", "b2", "b3"}, got[:7])
}

func TestFuse_FinalCap(t *testing.T) {
	sets := []ResultSet{numbered("a", 8), numbered("b", 8), numbered("c", 8), numbered("d", 1)}

	fused := Fuse(sets, 8, 18)

	require.Len(t, fused, 18)
	want := sections(Dedup(Interleave(sets, 8)))[:18]
	assert.Equal(t, want, sections(fused))
}

func TestFuse_FinalCapLargerThanUnique(t *testing.T) {
	sets := []ResultSet{numbered("a", 2), numbered("b", 2)}

	fused := Fuse(sets, 8, 18)

	assert.Equal(t, []string{"a0", "b0", "a1", "b1"}, sections(fused))
}

func TestFuse_AllEmpty(t *testing.T) {
	tests := []struct {
		name string
		sets []ResultSet
	}{
		{name: "nil", sets: nil},
		{name: "no sets", sets: []ResultSet{}},
		{name: "empty sets", sets: []ResultSet{{}, nil, {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fused := Fuse(tt.sets, 8, 18)
			assert.NotNil(t, fused)
			assert.Empty(t, fused)
		})
	}
}

func TestFuse_DefaultCaps(t *testing.T) {
	sets := []ResultSet{numbered("a", 10), numbered("b", 10), numbered("c", 10)}

	fused := Fuse(sets, 0, -1)

	assert.Len(t, fused, DefaultFinalCap)
	assert.NotContains(t, sections(Interleave(sets, 0)), "a8")
}

func TestInterleave_PreservesOrderWithinSet(t *testing.T) {
	sets := []ResultSet{numbered("a", 5), numbered("b", 2), numbered("c", 4)}

	interleaved := Interleave(sets, 8)

	lastRank := map[int]int{}
	for _, doc := range interleaved {
		prefix := doc.Section()[0]
		idx := int(prefix - 'a')
		if prev, ok := lastRank[idx]; ok {
			assert.Greater(t, doc.Rank, prev, "set %c went backwards", prefix)
		}
		lastRank[idx] = doc.Rank
	}
}

func TestDedup_KeepsEarliest(t *testing.T) {
	first := clause("第五條")
	first.QueryIndex = 2
	later := clause("第五條")
	later.QueryIndex = 0
	later.Rank = 3

	unique := Dedup([]Document{clause("第一條"), first, later})

	require.Len(t, unique, 2)
	assert.Equal(t, 2, unique[1].QueryIndex)
}

func TestContentKey(t *testing.T) {
	long := strings.Repeat("保", 150)

	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{
			name: "section_id wins",
			doc:  Document{Content: "x", Metadata: map[string]string{"section_id": "S1", "article_no": "第一條"}},
			want: "S1",
		},
		{
			name: "article_no fallback",
			doc:  Document{Content: "x", Metadata: map[string]string{"article_no": "第一條"}},
			want: "第一條",
		},
		{
			name: "section scoped by source",
			doc:  Document{Content: "x", Metadata: map[string]string{"article_no": "第三條", "source": "a.txt"}},
			want: "a.txt#第三條",
		},
		{
			name: "blank identifiers ignored",
			doc:  Document{Content: "  body  ", Metadata: map[string]string{"section_id": " ", "article_no": ""}},
			want: "body",
		},
		{
			name: "content prefix in runes",
			doc:  Document{Content: "\n" + long + "\n"},
			want: strings.Repeat("保", 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentKey(tt.doc))
		})
	}
}

func TestFuse_SameArticleInDifferentSources(t *testing.T) {
	inSource := func(no, source string) Document {
		doc := clause(no)
		doc.Metadata["source"] = source
		return doc
	}

	fused := Fuse([]ResultSet{
		ranked(inSource("第三條", "a.txt"), inSource("第三條", "b.txt")),
		ranked(inSource("第三條", "b.txt"), inSource("第三條", "a.txt")),
	}, 0, 0)

	require.Len(t, fused, 2)
	assert.Equal(t, "a.txt", fused[0].Source())
	assert.Equal(t, "b.txt", fused[1].Source())
	assert.Equal(t, []string{"第三條", "第三條"}, sections(fused))
}

func TestDedup_ContinuationPiecesShareClause(t *testing.T) {
	piece := func(idx int) Document {
		meta := map[string]string{
			"source":     "health.txt",
			"article_no": "第五條",
			"chunk_id":   fmt.Sprintf("第五條_%d", idx),
		}
		return Document{Content: fmt.Sprintf("【續】第五條 醫療費用\npart %d", idx), Metadata: meta}
	}

	unique := Dedup([]Document{piece(1), piece(0), clause("第六條")})

	require.Len(t, unique, 2)
	assert.Equal(t, "第五條_1", unique[0].Metadata["chunk_id"])
	assert.Equal(t, "第六條", unique[1].Section())
}

func TestDedup_FallbackChunksByContent(t *testing.T) {
	general := func(text string) Document {
		return Document{Content: text, Metadata: map[string]string{"article_title": "General Context"}}
	}
	prefix := strings.Repeat("a", 100)

	unique := Dedup([]Document{general(prefix + "one"), general(prefix + "two"), general("other")})

	assert.Len(t, unique, 2, "documents sharing the first 100 characters collapse")
}
