package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"bgs-preprocess/internal/contextutil"
	"bgs-preprocess/internal/extract"
	"bgs-preprocess/internal/storage"
	"bgs-preprocess/internal/textindex"
	"bgs-preprocess/internal/vectorstore"
)

// Outputs names the artifact files a run writes.
type Outputs struct {
	ChunksPath string
	IndexPath  string
}

// Result is what a successful run produced.
type Result struct {
	Chunks []Chunk
	Index  *Index
	Stats  *CoverageStats
}

// Pipeline turns a source document into chunk and index artifacts, and
// optionally mirrors them into SQLite, Qdrant and a bleve index.
type Pipeline struct {
	source     string
	extractor  extract.Extractor
	chunker    *WindowChunker
	annotator  *Annotator
	outputs    Outputs
	chunkRepo  storage.ChunkStore
	termRepo   storage.TermStore
	vecStore   vectorstore.VectorStore
	collection string
	textIndex  textindex.Indexer
	logger     *slog.Logger
}

// Option configures optional pipeline components.
type Option func(*Pipeline)

// WithAnnotator replaces the default entity annotator.
func WithAnnotator(a *Annotator) Option {
	return func(p *Pipeline) {
		p.annotator = a
	}
}

// WithChunkStore mirrors chunks and terms into SQLite after the files are written.
func WithChunkStore(chunks storage.ChunkStore, terms storage.TermStore) Option {
	return func(p *Pipeline) {
		p.chunkRepo = chunks
		p.termRepo = terms
	}
}

// WithVectorStore exports chunks as sparse TF-IDF points into collection.
func WithVectorStore(vs vectorstore.VectorStore, collection string) Option {
	return func(p *Pipeline) {
		p.vecStore = vs
		p.collection = collection
	}
}

// WithTextIndex rebuilds a full-text index from the chunks.
func WithTextIndex(ti textindex.Indexer) Option {
	return func(p *Pipeline) {
		p.textIndex = ti
	}
}

// WithLogger sets a logger that takes precedence over the run context's.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a new preprocessing pipeline for source.
func NewPipeline(source string, extractor extract.Extractor, chunker *WindowChunker, outputs Outputs, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    source,
		extractor: extractor,
		chunker:   chunker,
		annotator: DefaultAnnotator(),
		outputs:   outputs,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// getLogger returns the pipeline's logger, falling back to the context's.
func (p *Pipeline) getLogger(ctx context.Context) *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return contextutil.LoggerFromContext(ctx)
}

// BuildChunks chunks and tags pages in order. pages[i] is page i+1; ids run
// from 0 across the whole document.
func (p *Pipeline) BuildChunks(pages []string) []Chunk {
	var chunks []Chunk
	id := 0
	for i, text := range pages {
		for _, w := range p.chunker.Chunk(text, i+1) {
			c := Chunk{ID: id, Page: w.Page, Text: w.Text}
			p.annotator.Annotate(&c)
			chunks = append(chunks, c)
			id++
		}
	}
	return chunks
}

// Run extracts, chunks, tags and indexes the source, then writes the chunk
// file followed by the index file. Mirrors run only after both files exist;
// a mirror failure is returned but leaves the files in place.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	logger := p.getLogger(ctx)

	if err := p.checkTextIndexPath(); err != nil {
		return nil, err
	}

	pages, err := p.extractor.Pages(ctx, p.source)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pages: %w", err)
	}
	logger.InfoContext(ctx, "extracted pages", "source", p.source, "pages", len(pages))

	chunks := p.BuildChunks(pages)
	if chunks == nil {
		chunks = []Chunk{}
	}
	idx := BuildIndex(chunks)

	if err := storage.WriteJSONFile(p.outputs.ChunksPath, chunks); err != nil {
		return nil, fmt.Errorf("failed to write chunks: %w", err)
	}
	if err := storage.WriteJSONFile(p.outputs.IndexPath, idx); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}

	stats := ComputeCoverageStats(len(pages), chunks, idx, p.chunker)
	logger.InfoContext(ctx, "preprocessing completed",
		"pages", stats.PagesProcessed,
		"pages_with_0_chunks", stats.PagesWith0Chunks,
		"chunks", stats.Chunks,
		"vocabulary", stats.Vocabulary,
		"chunk_len_min", stats.ChunkLength.Min,
		"chunk_len_max", stats.ChunkLength.Max,
		"chunk_len_mean", stats.ChunkLength.Mean,
		"chunk_len_p95", stats.ChunkLength.P95,
		"index_version", stats.IndexVersion,
	)

	result := &Result{Chunks: chunks, Index: idx, Stats: stats}

	if p.chunkRepo != nil {
		if err := p.mirrorSQLite(ctx, chunks, idx, stats); err != nil {
			return result, err
		}
	}
	if p.vecStore != nil {
		if err := p.exportVectors(ctx, chunks, idx); err != nil {
			return result, err
		}
	}
	if p.textIndex != nil {
		if err := p.textIndex.Rebuild(ctx, toDocuments(chunks)); err != nil {
			return result, fmt.Errorf("failed to rebuild text index: %w", err)
		}
	}

	return result, nil
}

// checkTextIndexPath refuses a text index whose rebuild would remove the
// source document or the artifact files.
func (p *Pipeline) checkTextIndexPath() error {
	located, ok := p.textIndex.(interface{ Path() string })
	if !ok {
		return nil
	}
	return textindex.CheckPath(located.Path(),
		p.source,
		p.outputs.ChunksPath,
		p.outputs.IndexPath,
		filepath.Dir(p.outputs.ChunksPath),
		filepath.Dir(p.outputs.IndexPath),
	)
}

func (p *Pipeline) mirrorSQLite(ctx context.Context, chunks []Chunk, idx *Index, stats *CoverageStats) error {
	records := make([]*storage.ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = &storage.ChunkRecord{
			ID:       c.ID,
			PointID:  pointID(p.source, c.ID),
			Page:     c.Page,
			Systems:  c.Systems,
			Factions: c.Factions,
			Dates:    c.Dates,
			Text:     c.Text,
		}
	}
	if err := p.chunkRepo.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	if p.termRepo == nil {
		return nil
	}

	vocab := idx.Vocabulary()
	terms := make([]*storage.TermRecord, len(vocab))
	for i, token := range vocab {
		terms[i] = &storage.TermRecord{Token: token, DF: idx.DF[token], IDF: idx.IDF[token]}
	}
	meta := &storage.IndexMeta{
		N:              idx.N,
		Source:         p.source,
		ChunkerVersion: stats.ChunkerVersion,
		IndexVersion:   stats.IndexVersion,
	}
	if err := p.termRepo.ReplaceAll(ctx, terms, meta); err != nil {
		return fmt.Errorf("failed to store terms: %w", err)
	}
	return nil
}

func (p *Pipeline) exportVectors(ctx context.Context, chunks []Chunk, idx *Index) error {
	if err := p.vecStore.ResetCollection(ctx, p.collection); err != nil {
		return fmt.Errorf("failed to reset collection: %w", err)
	}

	dims := idx.Dimensions()
	points := make([]vectorstore.SparsePoint, len(chunks))
	for i, c := range chunks {
		indices, values := idx.SparseVector(c.Text, dims)
		points[i] = vectorstore.SparsePoint{
			ID:      pointID(p.source, c.ID),
			Indices: indices,
			Values:  values,
			Meta:    pointPayload(c),
		}
	}

	if err := p.vecStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// pointPayload flattens a chunk into Qdrant payload values. Lists are
// converted to []any, the only slice type the payload encoder accepts.
func pointPayload(c Chunk) map[string]any {
	payload := map[string]any{
		"chunk_id": c.ID,
		"page":     c.Page,
		"systems":  toAnySlice(c.Systems),
		"factions": toAnySlice(c.Factions),
		"dates":    toAnySlice(c.Dates),
		"text":     c.Text,
	}

	kinds := make([]string, 0, len(c.Entities))
	for kind := range c.Entities {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if _, taken := payload[kind]; taken {
			continue
		}
		payload[kind] = toAnySlice(c.Entities[kind])
	}
	return payload
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func toDocuments(chunks []Chunk) []textindex.Document {
	docs := make([]textindex.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = textindex.Document{
			ID:       c.ID,
			Page:     c.Page,
			Systems:  c.Systems,
			Factions: c.Factions,
			Dates:    c.Dates,
			Text:     c.Text,
		}
	}
	return docs
}

// pointID derives a stable UUID for chunk id of source, so re-exporting the
// same document overwrites the same points.
func pointID(source string, id int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+strconv.Itoa(id))).String()
}
