package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_term_store.go -package=mocks bgs-preprocess/internal/storage TermStore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// TermStore defines the interface for term weight storage operations.
type TermStore interface {
	// ReplaceAll swaps the stored terms and build metadata in one transaction.
	ReplaceAll(ctx context.Context, terms []*TermRecord, meta *IndexMeta) error
	// Get gets a term by token. Returns ErrNotFound if not found.
	Get(ctx context.Context, token string) (*TermRecord, error)
	// Meta returns the metadata of the stored build. Returns ErrNotFound before the first build.
	Meta(ctx context.Context) (*IndexMeta, error)
}

// TermRepo provides methods for term operations.
// It implements the TermStore interface.
type TermRepo struct {
	db *sql.DB
}

// NewTermRepo creates a new TermRepo.
func NewTermRepo(db *sql.DB) *TermRepo {
	return &TermRepo{db: db}
}

const (
	metaN              = "n"
	metaSource         = "source"
	metaChunkerVersion = "chunker_version"
	metaIndexVersion   = "index_version"
)

// ReplaceAll swaps the stored terms and build metadata in one transaction.
func (r *TermRepo) ReplaceAll(ctx context.Context, terms []*TermRecord, meta *IndexMeta) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM terms"); err != nil {
		return fmt.Errorf("failed to clear terms: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO terms (token, df, idf) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare term insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, term := range terms {
		if _, err := stmt.ExecContext(ctx, term.Token, term.DF, term.IDF); err != nil {
			return fmt.Errorf("failed to insert term %q: %w", term.Token, err)
		}
	}

	if meta != nil {
		values := map[string]string{
			metaN:              strconv.Itoa(meta.N),
			metaSource:         meta.Source,
			metaChunkerVersion: meta.ChunkerVersion,
			metaIndexVersion:   meta.IndexVersion,
		}
		for key, value := range values {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO index_meta (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
			`, key, value)
			if err != nil {
				return fmt.Errorf("failed to upsert index meta %s: %w", key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit terms: %w", err)
	}
	return nil
}

// Get gets a term by token. Returns ErrNotFound if not found.
func (r *TermRepo) Get(ctx context.Context, token string) (*TermRecord, error) {
	var term TermRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT token, df, idf FROM terms WHERE token = ?",
		token,
	).Scan(&term.Token, &term.DF, &term.IDF)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query term: %w", err)
	}

	return &term, nil
}

// Meta returns the metadata of the stored build. Returns ErrNotFound before the first build.
func (r *TermRepo) Meta(ctx context.Context) (*IndexMeta, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return nil, fmt.Errorf("failed to query index meta: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan index meta: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	nStr, ok := values[metaN]
	if !ok {
		return nil, ErrNotFound
	}
	n, err := strconv.Atoi(nStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored chunk count %q: %w", nStr, err)
	}

	return &IndexMeta{
		N:              n,
		Source:         values[metaSource],
		ChunkerVersion: values[metaChunkerVersion],
		IndexVersion:   values[metaIndexVersion],
	}, nil
}
