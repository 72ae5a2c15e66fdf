package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/codefence"
	"github.com/dgallion1/docchunk/internal/strategy"
)

// TextParser handles plain text files. Blank lines separate paragraphs and
// hard-wrapped lines within a paragraph are joined with spaces, so the
// default newline delimiter yields one unit per paragraph. Lines inside
// fenced code are kept as they are, and a fence always starts and ends its
// own paragraph.
type TextParser struct {
	KeepLineBreaks bool
}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder
	inCode := false

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		wasCode := inCode
		if strings.Count(line, codefence.Marker)%2 == 1 {
			inCode = !inCode
		}

		switch {
		case wasCode || inCode:
			if !wasCode {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
			if !inCode {
				flush()
			}
		case strings.TrimSpace(line) == "":
			flush()
		default:
			if current.Len() > 0 {
				if p.KeepLineBreaks {
					current.WriteString("\n")
				} else {
					current.WriteString(" ")
				}
			}
			current.WriteString(strings.TrimSpace(line))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Document{
		Name:      baseName(filename),
		InputType: strategy.Text,
		Body:      strings.Join(paragraphs, "\n"),
	}, nil
}
