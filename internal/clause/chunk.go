// Package clause cuts policy text into clause-aligned chunks for the vector index.
package clause

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the rune budget of one chunk.
	DefaultChunkSize = 800
	// DefaultOverlap is how many runes consecutive sub-chunks share.
	DefaultOverlap = 150

	// GeneralContextTitle labels chunks that belong to no article.
	GeneralContextTitle = "General Context"
)

// Payload keys written to the vector index.
const (
	KeyContent      = "content"
	KeySource       = "source"
	KeyArticleNo    = "article_no"
	KeyArticleTitle = "article_title"
	KeyChunkID      = "chunk_id"
	KeyChunkIndex   = "chunk_index"
)

var (
	// spacedArticleNo matches article numbers broken up by whitespace, e.g. "第 三 十 條".
	spacedArticleNo = regexp.MustCompile(`第\s*[一二三四五六七八九十百\s]+\s*條`)
	// articleHeading matches an article number at the start of a line followed by its title.
	articleHeading = regexp.MustCompile(`(?m)^[ \t\x{3000}]*(第[一二三四五六七八九十百]+條)[\s\x{3000}]+(.*)`)
	whitespace     = regexp.MustCompile(`[\s\x{3000}]+`)
)

// Chunk is one indexable piece of a policy document.
type Chunk struct {
	Index        int
	ID           string // chunk_id: article number, article number + "_" + sub index, or fallback_<n>
	Source       string
	ArticleNo    string // empty for general context
	ArticleTitle string
	Text         string
}

// Payload returns the vector payload for the chunk. Chunks without an article
// number carry no article_no key so that retrieval dedups them by content.
func (c Chunk) Payload() map[string]any {
	payload := map[string]any{
		KeyContent:      c.Text,
		KeySource:       c.Source,
		KeyArticleTitle: c.ArticleTitle,
		KeyChunkID:      c.ID,
		KeyChunkIndex:   int64(c.Index),
	}
	if c.ArticleNo != "" {
		payload[KeyArticleNo] = c.ArticleNo
	}
	return payload
}

// NormalizeArticleNumbers removes whitespace inside article numbers
// ("第 三 十 條" becomes "第三十條"), which PDF extraction often introduces.
func NormalizeArticleNumbers(text string) string {
	return spacedArticleNo.ReplaceAllStringFunc(text, func(match string) string {
		return whitespace.ReplaceAllString(match, "")
	})
}

// Chunker splits documents at article headings.
type Chunker struct {
	splitter *Splitter
	size     int
}

// NewChunker creates a Chunker. Non-positive values use DefaultChunkSize and DefaultOverlap.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Chunker{splitter: NewSplitter(size, overlap), size: size}
}

// Size returns the rune budget of one chunk.
func (c *Chunker) Size() int {
	return c.size
}

// Overlap returns how many runes consecutive sub-chunks share.
func (c *Chunker) Overlap() int {
	return c.splitter.Overlap
}

// Chunk cuts text from source into clause chunks. Each article becomes
// "條款：<no> <title>\n內容：<body>"; articles over the size budget are sub-split and
// every piece is prefixed with "【續】<no> <title>". Text before the first article,
// or a whole document with no articles, is split plainly as general context.
func (c *Chunker) Chunk(text, source string) []Chunk {
	text = NormalizeArticleNumbers(strings.ReplaceAll(text, "\r\n", "\n"))

	matches := articleHeading.FindAllStringSubmatchIndex(text, -1)

	preamble := text
	if len(matches) > 0 {
		preamble = text[:matches[0][0]]
	}
	chunks := c.general(nil, preamble, source)

	for i, m := range matches {
		articleNo := text[m[2]:m[3]]
		title := strings.TrimSpace(text[m[4]:m[5]])

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[1]:end])

		chunks = c.article(chunks, articleNo, title, body, source)
	}

	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

func (c *Chunker) article(chunks []Chunk, articleNo, title, body, source string) []Chunk {
	full := fmt.Sprintf("條款：%s %s\n內容：%s", articleNo, title, body)
	if utf8.RuneCountInString(full) <= c.size {
		return append(chunks, Chunk{
			ID:           articleNo,
			Source:       source,
			ArticleNo:    articleNo,
			ArticleTitle: title,
			Text:         full,
		})
	}

	for idx, piece := range c.splitter.Split(full) {
		chunks = append(chunks, Chunk{
			ID:           fmt.Sprintf("%s_%d", articleNo, idx),
			Source:       source,
			ArticleNo:    articleNo,
			ArticleTitle: title,
			Text:         fmt.Sprintf("【續】%s %s\n%s", articleNo, title, piece),
		})
	}
	return chunks
}

func (c *Chunker) general(chunks []Chunk, text, source string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return chunks
	}
	for _, piece := range c.splitter.Split(text) {
		chunks = append(chunks, Chunk{
			ID:           fmt.Sprintf("fallback_%d", len(chunks)),
			Source:       source,
			ArticleTitle: GeneralContextTitle,
			Text:         piece,
		})
	}
	return chunks
}
