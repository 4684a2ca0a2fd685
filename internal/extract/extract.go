// Package extract turns a source document into page-indexed plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrSourceUnreadable is returned when the source document cannot be opened or read.
	ErrSourceUnreadable = errors.New("source document unreadable")
	// ErrUnsupportedSource is returned when no extractor handles the source's format.
	ErrUnsupportedSource = errors.New("unsupported source format")
)

// Extractor returns the plain text of every page in a document.
// Element i holds page i+1. Pages without text are returned as "".
type Extractor interface {
	Pages(ctx context.Context, path string) ([]string, error)
}

// New picks an extractor for source by file extension.
// pdfKind selects the PDF backend: "fitz" or "pdftotext".
func New(source, pdfKind string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".pdf":
		switch pdfKind {
		case "fitz", "":
			return NewFitzExtractor(), nil
		case "pdftotext":
			return NewPDFToTextExtractor(), nil
		default:
			return nil, fmt.Errorf("%w: pdf extractor %q", ErrUnsupportedSource, pdfKind)
		}
	case ".md", ".markdown":
		return NewMarkdownExtractor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}

// checkReadable fails fast with ErrSourceUnreadable before a backend sees the path.
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSourceUnreadable, path)
	}
	return nil
}
