package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// ChunkerVersion is the version identifier for the chunker implementation.
// Update this when chunking logic changes significantly.
const ChunkerVersion = "v1.0"

// CoverageStats contains statistics about a preprocessing run.
type CoverageStats struct {
	// PagesProcessed is the number of pages the extractor returned.
	PagesProcessed int `json:"pages_processed"`
	// PagesWith0Chunks is the number of pages that produced no chunks.
	PagesWith0Chunks int `json:"pages_with_0_chunks"`
	// Chunks is the total number of chunks produced.
	Chunks int `json:"chunks"`
	// ChunkLength contains statistics about chunk length in characters.
	ChunkLength LengthStats `json:"chunk_length"`
	// Vocabulary is the number of distinct indexed tokens.
	Vocabulary int `json:"vocabulary"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the chunking parameters of the build.
	IndexVersion string `json:"index_version"`
}

// LengthStats contains statistics about chunk lengths.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeCoverageStats summarizes a run over pageCount pages.
func ComputeCoverageStats(pageCount int, chunks []Chunk, idx *Index, chunker *WindowChunker) *CoverageStats {
	stats := &CoverageStats{
		PagesProcessed: pageCount,
		Chunks:         len(chunks),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   IndexVersion(chunker.Size(), chunker.Overlap()),
	}
	if idx != nil {
		stats.Vocabulary = len(idx.IDF)
	}

	pagesWithChunks := make(map[int]struct{})
	lengths := make([]int, 0, len(chunks))
	for _, c := range chunks {
		pagesWithChunks[c.Page] = struct{}{}
		lengths = append(lengths, utf8.RuneCountInString(c.Text))
	}
	stats.PagesWith0Chunks = pageCount - len(pagesWithChunks)
	stats.ChunkLength = computeLengthStats(lengths)

	return stats
}

// IndexVersion hashes the chunker version and window parameters into a
// short identifier; two builds with equal ids chunk identically.
func IndexVersion(size, overlap int) string {
	input := fmt.Sprintf("%s|size=%d|overlap=%d|lookahead=%d",
		ChunkerVersion, size, overlap, SentenceLookahead)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}

// computeLengthStats computes min, max, mean, and p95 from lengths.
func computeLengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	// Sort for percentile calculation
	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, l := range lengths {
		sum += l
	}
	mean := float64(sum) / float64(len(lengths))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return LengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
