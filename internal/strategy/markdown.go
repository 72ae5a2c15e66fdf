package strategy

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/docchunk/internal/chunkerr"
)

// md renders CommonMark plus tables, strikethrough and autolinks. Fenced code
// becomes <pre><code>, which the HTML cleaner fences again.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// toMarkup returns input as HTML, rendering markdown first.
func toMarkup(input string, t InputType) (string, error) {
	if t != Markdown {
		return input, nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(input), &buf); err != nil {
		return "", &chunkerr.InputError{Message: "render markdown", Err: err}
	}
	return buf.String(), nil
}
