package indexer

import (
	"math"
	"sort"
	"strings"
)

// minTokenLength is the shortest token kept; shorter ones are dropped.
const minTokenLength = 3

// Tokenize lower-cases text, blanks every rune other than a-z, 0-9,
// whitespace and '-', and returns the whitespace-separated tokens of three
// or more characters in order, repeats included.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', isSpace(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))

	fields := strings.FieldsFunc(cleaned, isSpace)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// IDF is the smoothed inverse document frequency ln((n+1)/(df+1)) + 1.
// It is positive for every 0 <= df <= n and decreases as df grows.
func IDF(n, df int) float64 {
	return math.Log(float64(n+1)/float64(df+1)) + 1.0
}

// BuildIndex counts, for every token, the chunks containing it at least
// once and derives its IDF weight.
func BuildIndex(chunks []Chunk) *Index {
	df := make(map[string]int)
	for _, c := range chunks {
		for token := range TokenSet(c.Text) {
			df[token]++
		}
	}

	n := len(chunks)
	idf := make(map[string]float64, len(df))
	for token, count := range df {
		idf[token] = IDF(n, count)
	}

	return &Index{IDF: idf, N: n, DF: df}
}

// Vocabulary returns the indexed tokens sorted, so position i is a stable
// dimension for token i across runs on the same input.
func (idx *Index) Vocabulary() []string {
	vocab := make([]string, 0, len(idx.IDF))
	for token := range idx.IDF {
		vocab = append(vocab, token)
	}
	sort.Strings(vocab)
	return vocab
}

// SparseVector weights text's tokens by tf * idf. dims maps each token to its
// vocabulary position; tokens missing from dims are ignored. Indices are
// returned in ascending order.
func (idx *Index) SparseVector(text string, dims map[string]uint32) ([]uint32, []float32) {
	tf := make(map[string]int)
	for _, t := range Tokenize(text) {
		tf[t]++
	}

	type entry struct {
		dim    uint32
		weight float32
	}
	entries := make([]entry, 0, len(tf))
	for token, count := range tf {
		dim, ok := dims[token]
		if !ok {
			continue
		}
		entries = append(entries, entry{dim: dim, weight: float32(float64(count) * idx.IDF[token])})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].dim < entries[j].dim })

	indices := make([]uint32, len(entries))
	values := make([]float32, len(entries))
	for i, e := range entries {
		indices[i] = e.dim
		values[i] = e.weight
	}
	return indices, values
}

// Dimensions maps every vocabulary token to its position in Vocabulary().
func (idx *Index) Dimensions() map[string]uint32 {
	vocab := idx.Vocabulary()
	dims := make(map[string]uint32, len(vocab))
	for i, token := range vocab {
		dims[token] = uint32(i)
	}
	return dims
}
