package extract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"bgs-preprocess/internal/contextutil"
)

// ErrPDFToolNotFound is returned when pdftotext is not on PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const pdfToTextBinary = "pdftotext"

// pageBreak is the form feed pdftotext writes after every page.
const pageBreak = "\f"

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFToTextExtractor extracts PDF pages with poppler's pdftotext.
type PDFToTextExtractor struct {
	runner CommandRunner
}

// NewPDFToTextExtractor creates an extractor that executes pdftotext.
func NewPDFToTextExtractor() *PDFToTextExtractor {
	return &PDFToTextExtractor{runner: execRunner{}}
}

// NewPDFToTextExtractorWithRunner creates an extractor with a custom runner.
func NewPDFToTextExtractorWithRunner(runner CommandRunner) *PDFToTextExtractor {
	return &PDFToTextExtractor{runner: runner}
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdfToTextBinary); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to get pdftotext.
func InstallInstructions() string {
	return "pdftotext is part of poppler:\n" +
		"  macOS:         brew install poppler\n" +
		"  Debian/Ubuntu: apt install poppler-utils"
}

// Pages runs pdftotext over path and splits its output on form feeds.
func (e *PDFToTextExtractor) Pages(ctx context.Context, path string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := checkReadable(path); err != nil {
		return nil, err
	}

	if _, ok := e.runner.(execRunner); ok {
		if err := CheckAvailable(); err != nil {
			return nil, fmt.Errorf("%w\n%s", err, InstallInstructions())
		}
	}

	output, err := e.runner.Run(ctx, pdfToTextBinary, "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext failed: %w", ErrSourceUnreadable, err)
	}

	pages := splitPages(string(output))
	logger.DebugContext(ctx, "extracted pdf", "path", path, "pages", len(pages), "backend", pdfToTextBinary)
	return pages, nil
}

// splitPages splits pdftotext output into pages. The form feed terminates
// each page, so the element after the last one is dropped when empty.
func splitPages(output string) []string {
	if output == "" {
		return nil
	}
	pages := strings.Split(output, pageBreak)
	if pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
