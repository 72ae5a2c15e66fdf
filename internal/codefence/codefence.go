// Package codefence classifies text by its triple-backtick fenced code spans.
package codefence

import (
	"regexp"
	"strings"
)

// Marker opens and closes a fenced code span.
const Marker = "```"

// placeholder stands in for a protected span. Private-use runes never occur
// in cleaned text and are not whitespace, so trimming leaves them alone.
const placeholder = "\uE000fence\uE001"

var (
	// Non-greedy: a span runs from one marker to the next.
	spanPattern = regexp.MustCompile("(?s)```.*?```")
	codeWord    = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// Detect reports whether text contains fenced code and whether it is nothing
// but a single fenced span.
func Detect(text string) (containsCode, onlyCode bool) {
	t := strings.TrimSpace(text)
	n := strings.Count(t, Marker)
	containsCode = n >= 2
	onlyCode = n == 2 && strings.HasPrefix(t, Marker) && strings.HasSuffix(t, Marker)
	return containsCode, onlyCode
}

// CountWords counts maximal runs of word characters. It replaces linguistic
// word counting for code, where a tokenizer trained on prose is meaningless.
func CountWords(text string) int {
	return len(codeWord.FindAllStringIndex(text, -1))
}

// Spans returns the byte ranges of all fenced spans in text, in order.
func Spans(text string) [][2]int {
	locs := spanPattern.FindAllStringIndex(text, -1)
	out := make([][2]int, len(locs))
	for i, l := range locs {
		out[i] = [2]int{l[0], l[1]}
	}
	return out
}

// Protected is text with its fenced spans swapped out for placeholders.
type Protected struct {
	Text  string
	spans []string
}

// Protect replaces every fenced span in text with a placeholder so that
// splitting and whitespace normalization cannot reach inside code.
func Protect(text string) Protected {
	spans := spanPattern.FindAllString(text, -1)
	if len(spans) == 0 {
		return Protected{Text: text}
	}
	return Protected{
		Text:  spanPattern.ReplaceAllLiteralString(text, placeholder),
		spans: spans,
	}
}

// Restore puts the original spans back into text.
func (p Protected) Restore(text string) string {
	out, _ := p.RestoreAll([]string{text})
	return out[0]
}

// RestoreAll puts the original spans back into parts, consuming spans in
// first-seen order across the parts. It returns the number of spans consumed.
func (p Protected) RestoreAll(parts []string) ([]string, int) {
	out := make([]string, len(parts))
	next := 0
	for i, part := range parts {
		for next < len(p.spans) {
			idx := strings.Index(part, placeholder)
			if idx < 0 {
				break
			}
			part = part[:idx] + p.spans[next] + part[idx+len(placeholder):]
			next++
		}
		out[i] = part
	}
	return out, next
}

// Collides reports whether splitting protected text on sep could cut a
// placeholder apart.
func Collides(sep string) bool {
	return strings.Contains(placeholder, sep) || strings.ContainsAny(sep, "\uE000\uE001")
}

// SpanCount returns the number of protected spans.
func (p Protected) SpanCount() int {
	return len(p.spans)
}
