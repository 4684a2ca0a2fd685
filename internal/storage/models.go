package storage

import "errors"

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// ChunkRecord is a chunk as stored in the chunks table.
type ChunkRecord struct {
	ID       int      // Sequential chunk id (starts at 0)
	PointID  string   // Deterministic UUID shared with the vector store
	Page     int      // 1-based page number
	Systems  []string // Stored as a JSON array
	Factions []string // Stored as a JSON array
	Dates    []string // Stored as a JSON array
	Text     string
}

// TermRecord is one row of the terms table.
type TermRecord struct {
	Token string
	DF    int
	IDF   float64
}

// IndexMeta describes the build that produced the stored index.
type IndexMeta struct {
	N              int
	Source         string
	ChunkerVersion string
	IndexVersion   string
}
