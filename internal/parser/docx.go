package parser

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docchunk/internal/strategy"
)

// DOCXParser handles .docx files. Heading-styled paragraphs become <hN>
// elements and the rest <p>, so heading strategies work on Word documents.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docchunk-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var body strings.Builder
	var title string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		level := docxHeadingLevel(para)
		if isTitleStyle(para) && title == "" {
			title = text
			continue
		}
		body.WriteString(paragraphHTML(text, level))
	}

	return &Document{
		Name:      baseName(filename),
		Title:     title,
		InputType: strategy.HTML,
		Body:      body.String(),
	}, nil
}

// paragraphHTML renders one paragraph, as a heading when level is 1..6.
func paragraphHTML(text string, level int) string {
	tag := "p"
	if level > 0 {
		tag = fmt.Sprintf("h%d", level)
	}
	return "<" + tag + ">" + html.EscapeString(text) + "</" + tag + ">\n"
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func isTitleStyle(para *docx.Paragraph) bool {
	return strings.EqualFold(docxStyle(para), "Title")
}

func docxHeadingLevel(para *docx.Paragraph) int {
	return headingLevel(docxStyle(para))
}

// headingLevel maps Word style names such as "Heading2" or "heading 2" to
// a level.
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if len(s) != len("heading1") || !strings.HasPrefix(s, "heading") {
		return 0
	}
	if d := s[len(s)-1]; d >= '1' && d <= '6' {
		return int(d - '0')
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
