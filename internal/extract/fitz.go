package extract

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"bgs-preprocess/internal/contextutil"
)

// FitzExtractor reads PDF pages in-process through MuPDF.
type FitzExtractor struct{}

// NewFitzExtractor creates a new MuPDF-backed extractor.
func NewFitzExtractor() *FitzExtractor {
	return &FitzExtractor{}
}

// Pages extracts the text of every page. A page that fails to extract is
// logged and kept as an empty page so page numbering stays aligned.
func (e *FitzExtractor) Pages(ctx context.Context, path string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := checkReadable(path); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open PDF: %w", ErrSourceUnreadable, err)
	}
	defer func() {
		_ = doc.Close()
	}()

	numPages := doc.NumPage()
	pages := make([]string, numPages)
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := doc.Text(i)
		if err != nil {
			logger.WarnContext(ctx, "failed to extract page text", "page", i+1, "error", err)
			continue
		}
		pages[i] = text
	}

	logger.DebugContext(ctx, "extracted pdf", "path", path, "pages", numPages)
	return pages, nil
}
