// Package textindex mirrors preprocessed chunks into a full-text search index.
package textindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"bgs-preprocess/internal/contextutil"
)

// batchSize is the number of documents submitted per bleve batch.
const batchSize = 100

// ErrUnsafePath is returned when rebuilding an index would remove files
// that must survive the run.
var ErrUnsafePath = errors.New("index path would remove protected files")

// Document is one chunk as stored in the search index.
type Document struct {
	ID       int      `json:"id"`
	Page     int      `json:"page"`
	Systems  []string `json:"systems"`
	Factions []string `json:"factions"`
	Dates    []string `json:"dates"`
	Text     string   `json:"text"`
}

// Indexer rebuilds a full-text index from a complete set of documents.
type Indexer interface {
	Rebuild(ctx context.Context, docs []Document) error
}

// BleveIndexer implements Indexer with an on-disk bleve index.
type BleveIndexer struct {
	path string
}

// NewBleveIndexer creates an indexer that writes to the index directory at path.
func NewBleveIndexer(path string) *BleveIndexer {
	return &BleveIndexer{path: path}
}

// Path returns the index directory.
func (b *BleveIndexer) Path() string {
	return b.path
}

// Rebuild removes any existing index at the configured path and indexes docs
// into a fresh one. Document ids are the decimal chunk ids.
func (b *BleveIndexer) Rebuild(ctx context.Context, docs []Document) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := os.RemoveAll(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	index, err := bleve.New(b.path, bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := indexBatches(ctx, index, docs); err != nil {
		_ = index.Close()
		return err
	}

	if err := index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	logger.InfoContext(ctx, "text index rebuilt", "path", b.path, "documents", len(docs))
	return nil
}

// CheckPath fails with ErrUnsafePath when indexPath is one of keep or a
// directory holding one of them. Rebuild removes everything under indexPath.
// Empty entries in keep are ignored.
func CheckPath(indexPath string, keep ...string) error {
	base, err := filepath.Abs(indexPath)
	if err != nil {
		return fmt.Errorf("failed to resolve index path: %w", err)
	}

	for _, p := range keep {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		rel, err := filepath.Rel(base, abs)
		if err != nil {
			// Different volumes
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return fmt.Errorf("%w: %s contains %s", ErrUnsafePath, indexPath, p)
		}
	}
	return nil
}

func indexBatches(ctx context.Context, index bleve.Index, docs []Document) error {
	batch := index.NewBatch()
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := batch.Index(strconv.Itoa(doc.ID), doc); err != nil {
			return fmt.Errorf("failed to add document %d to batch: %w", doc.ID, err)
		}

		if (i+1)%batchSize == 0 {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return nil
}
