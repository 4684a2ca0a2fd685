package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"bgs-preprocess/internal/contextutil"
)

// MarkdownExtractor extracts plain text from markdown using goldmark AST parsing.
// Every level-1 heading opens a new page; text before the first one is page 1.
type MarkdownExtractor struct {
	parser goldmark.Markdown
}

// NewMarkdownExtractor creates a new goldmark-backed extractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Pages reads the markdown file at path and returns its pages.
func (e *MarkdownExtractor) Pages(ctx context.Context, path string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := checkReadable(path); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}

	pages := e.split(content)
	logger.DebugContext(ctx, "extracted markdown", "path", path, "pages", len(pages))
	return pages, nil
}

func (e *MarkdownExtractor) split(content []byte) []string {
	if len(content) == 0 {
		return nil
	}

	doc := e.parser.Parser().Parse(text.NewReader(content))

	var pages []string
	var current strings.Builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok && heading.Level == 1 && current.Len() > 0 {
			pages = append(pages, current.String())
			current.Reset()
		}

		block := blockText(n, content)
		if block == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	if current.Len() > 0 {
		pages = append(pages, current.String())
	}

	return pages
}

// blockText extracts text content from a block node and its children.
func blockText(n ast.Node, content []byte) string {
	var b strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := v.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(content))
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *east.TableCell:
			// Table cells carry no separator of their own
			if b.Len() > 0 {
				b.WriteString(" ")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}
