package clause

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order, coarsest first. The empty separator splits
// between runes and always succeeds.
var DefaultSeparators = []string{"\n\n", "\n", "。", "；", " ", ""}

// Splitter cuts text into pieces of at most Size runes, repeating up to Overlap
// runes of the previous piece at the start of the next one.
type Splitter struct {
	Size       int
	Overlap    int
	Separators []string
}

// NewSplitter creates a Splitter using DefaultSeparators.
func NewSplitter(size, overlap int) *Splitter {
	if overlap >= size {
		overlap = size / 4
	}
	return &Splitter{Size: size, Overlap: overlap, Separators: DefaultSeparators}
}

// Split returns the trimmed, non-empty pieces of text in order.
func (s *Splitter) Split(text string) []string {
	separators := s.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return s.split(text, separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep, rest := "", []string(nil)
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep, rest = candidate, separators[i+1:]
			break
		}
	}
	if len(rest) == 0 {
		rest = []string{""}
	}

	var chunks, pending []string
	for _, piece := range splitKeep(text, sep) {
		if utf8.RuneCountInString(piece) <= s.Size {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending)...)
			pending = nil
		}
		chunks = append(chunks, s.split(piece, rest)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending)...)
	}
	return chunks
}

// merge packs pieces into chunks of at most Size runes with Overlap runes carried over.
func (s *Splitter) merge(pieces []string) []string {
	var chunks, window []string
	total := 0
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.Size && len(window) > 0 {
			chunks = appendTrimmed(chunks, strings.Join(window, ""))
			for len(window) > 0 && (total > s.Overlap || total+n > s.Size) {
				total -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}
	if len(window) > 0 {
		chunks = appendTrimmed(chunks, strings.Join(window, ""))
	}
	return chunks
}

// splitKeep splits text after every sep, so separators stay attached to the
// piece they end. An empty sep yields one piece per rune.
func splitKeep(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.SplitAfter(text, sep)
	pieces := parts[:0]
	for _, part := range parts {
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

func appendTrimmed(chunks []string, chunk string) []string {
	if chunk = strings.TrimSpace(chunk); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
