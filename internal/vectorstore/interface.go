package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks bgs-preprocess/internal/vectorstore VectorStore

import "context"

// SparseVectorName is the named sparse vector every point carries.
const SparseVectorName = "tfidf"

// SparsePoint represents a point with a sparse TF-IDF vector and metadata.
// Indices must be ascending and unique; Values[i] is the weight of Indices[i].
type SparsePoint struct {
	ID      string
	Indices []uint32
	Values  []float32
	Meta    map[string]any
}

// VectorStore defines the interface for sparse vector export.
type VectorStore interface {
	// ResetCollection drops the collection if present and recreates it empty.
	ResetCollection(ctx context.Context, collection string) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []SparsePoint) error
}
