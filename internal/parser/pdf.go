package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/docchunk/internal/strategy"
)

// PDFParser handles PDF files. Each non-blank page becomes one line of the
// text payload, so paragraph chunking packs whole pages. When the Go reader
// fails and FallbackPdftotext is set, pdftotext is tried instead.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	// The reader needs random access, so spool to disk.
	tmp, err := os.CreateTemp("", "docchunk-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, r)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	pages, err := readPages(tmp.Name())
	if err != nil && p.FallbackPdftotext {
		pages, err = pdftotextPages(tmp.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return &Document{
		Name:      baseName(filename),
		InputType: strategy.Text,
		Body:      joinPages(pages),
	}, nil
}

// readPages returns the plain text of every page. Pages that fail to decode
// come back empty rather than failing the document.
func readPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pdftotextPages(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext ends every page with a form feed.
	return strings.Split(string(out), "\f"), nil
}

// joinPages collapses each page onto one line and drops blank pages.
func joinPages(pages []string) string {
	var lines []string
	for _, page := range pages {
		if line := strings.Join(strings.Fields(page), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
