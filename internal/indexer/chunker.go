package indexer

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the default number of characters per window.
	DefaultChunkSize = 900
	// DefaultOverlap is the default number of characters shared by consecutive windows.
	DefaultOverlap = 150
	// SentenceLookahead is how far past the raw cutoff a sentence end may extend a window.
	SentenceLookahead = 120
)

// WindowChunker slides a fixed-size, overlapping window across page text,
// snapping window ends to a nearby sentence boundary.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a chunker. size must be positive and overlap must
// lie in [0, size) so that every window advances.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than 0, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", size, overlap)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Size returns the window size in characters.
func (c *WindowChunker) Size() int { return c.size }

// Overlap returns the overlap in characters.
func (c *WindowChunker) Overlap() int { return c.overlap }

// Chunk normalizes raw page text and returns its windows in order.
// Empty text yields no windows.
func (c *WindowChunker) Chunk(raw string, page int) []Window {
	text := []rune(Normalize(raw))
	n := len(text)

	var windows []Window
	i := 0
	for i < n {
		end := min(i+c.size, n)
		end += sentenceEnd(text[end:min(end+SentenceLookahead, n)])

		windows = append(windows, Window{
			Page:  page,
			Start: i,
			End:   end,
			Text:  string(text[i:end]),
		})

		if end >= n {
			break
		}
		i = end - c.overlap
	}

	return windows
}

// sentenceEnd returns the length of the shortest prefix of ext that ends with
// sentence punctuation followed by whitespace, or 0 if there is none.
// Abbreviations are not special-cased: "e.g. " counts as a sentence end.
func sentenceEnd(ext []rune) int {
	for j := 0; j+1 < len(ext); j++ {
		switch ext[j] {
		case '.', '!', '?':
			if isSpace(ext[j+1]) {
				return j + 2
			}
		}
	}
	return 0
}

// Normalize collapses every whitespace run to a single space and trims both ends.
func Normalize(s string) string {
	return strings.Join(strings.FieldsFunc(s, isSpace), " ")
}

// isSpace extends unicode.IsSpace with the ASCII information separators
// (U+001C..U+001F), which PDF text extraction sometimes emits between lines.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
