package parser

import (
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docchunk/internal/strategy"
)

// MarkdownParser handles Markdown files. The body stays Markdown; strategies
// render it to HTML themselves.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return &Document{
		Name:      baseName(filename),
		Title:     frontTitle(src),
		InputType: strategy.Markdown,
		Body:      string(src),
	}, nil
}

// frontTitle returns the text of a level-1 heading that opens the document.
func frontTitle(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	first := doc.FirstChild()
	if first == nil {
		return ""
	}
	h, ok := first.(*ast.Heading)
	if !ok || h.Level != 1 {
		return ""
	}
	return string(h.Text(src))
}
