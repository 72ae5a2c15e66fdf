package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/strategy"
)

// CSVParser handles CSV files. Each data row becomes one line of
// "header: value" pairs, so paragraph chunking packs whole rows.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{
		Name:      baseName(filename),
		InputType: strategy.Text,
	}
	if len(records) == 0 {
		return doc, nil
	}

	// First row is headers.
	headers := records[0]
	var text strings.Builder
	for _, row := range records[1:] {
		for j, cell := range row {
			if j > 0 {
				text.WriteString(", ")
			}
			if j < len(headers) && headers[j] != "" {
				text.WriteString(headers[j] + ": " + cell)
			} else {
				text.WriteString(cell)
			}
		}
		text.WriteString("\n")
	}
	doc.Body = strings.TrimSuffix(text.String(), "\n")
	return doc, nil
}
