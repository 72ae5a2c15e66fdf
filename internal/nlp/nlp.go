// Package nlp provides the linguistic capability the chunker depends on:
// sentence boundary detection and a count of non-punctuation tokens.
package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/segment"

	"github.com/dgallion1/docchunk/internal/codefence"
)

// Analyzer segments prose. Implementations must be safe for concurrent use.
type Analyzer interface {
	// Sentences splits text into trimmed, non-empty sentences.
	Sentences(text string) []string
	// CountWords counts tokens that are not punctuation or whitespace.
	CountWords(text string) int
}

// Segmenter is the default Analyzer. It holds no mutable state, so one value
// is built at startup and shared by every request.
type Segmenter struct {
	abbreviations map[string]struct{}
}

var defaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st", "vs",
	"e.g", "i.e", "fig", "inc", "ltd", "co", "approx", "dept", "est", "u.s",
	"etc", "cf", "al",
}

// New returns a Segmenter with the default English abbreviation list.
func New() *Segmenter {
	return NewWithAbbreviations(defaultAbbreviations)
}

// NewWithAbbreviations returns a Segmenter that never ends a sentence after
// one of abbrevs. Entries are matched case-insensitively without the final dot.
func NewWithAbbreviations(abbrevs []string) *Segmenter {
	m := make(map[string]struct{}, len(abbrevs))
	for _, a := range abbrevs {
		m[strings.ToLower(strings.TrimSuffix(a, "."))] = struct{}{}
	}
	return &Segmenter{abbreviations: m}
}

// CountWords counts Unicode word segments carrying letters, digits, kana or
// ideographs. Punctuation and whitespace segments are skipped.
func (s *Segmenter) CountWords(text string) int {
	if text == "" {
		return 0
	}
	seg := segment.NewWordSegmenterDirect([]byte(text))
	n := 0
	for seg.Segment() {
		if seg.Type() != segment.None {
			n++
		}
	}
	if seg.Err() != nil {
		// Segmentation only fails on invalid input; fall back to the code
		// tokenizer rather than reporting zero.
		return codefence.CountWords(text)
	}
	return n
}

// Sentences splits text on terminal punctuation followed by whitespace and a
// token that does not start lowercase. Fenced code spans are never split.
func (s *Segmenter) Sentences(text string) []string {
	spans := codefence.Spans(text)
	var out []string
	start := 0
	i := 0
	for i < len(text) {
		if sp, ok := inSpan(spans, i); ok {
			i = sp[1]
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTerminal(r) {
			i += size
			continue
		}
		end := i + size
		for end < len(text) {
			r2, sz := utf8.DecodeRuneInString(text[end:])
			if !isTerminal(r2) && !isCloser(r2) {
				break
			}
			end += sz
		}
		if s.isBoundary(text, i, end) {
			if sent := strings.TrimSpace(text[start:end]); sent != "" {
				out = append(out, sent)
			}
			start = end
		}
		i = end
	}
	if sent := strings.TrimSpace(text[start:]); sent != "" {
		out = append(out, sent)
	}
	return out
}

// isBoundary decides whether the punctuation run text[punct:end] ends a
// sentence.
func (s *Segmenter) isBoundary(text string, punct, end int) bool {
	if end >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	if !unicode.IsSpace(r) {
		return false
	}
	rest := strings.TrimLeftFunc(text[end:], unicode.IsSpace)
	if rest == "" {
		return false
	}
	next, _ := utf8.DecodeRuneInString(rest)
	if unicode.IsLower(next) {
		return false
	}
	if text[punct] != '.' {
		return true
	}
	word := previousWord(text[:punct])
	if word == "" {
		return true
	}
	if utf8.RuneCountInString(word) == 1 {
		r, _ := utf8.DecodeRuneInString(word)
		if unicode.IsLetter(r) {
			return false // initial, as in "J. Smith"
		}
	}
	_, abbrev := s.abbreviations[strings.ToLower(word)]
	return !abbrev
}

// previousWord returns the run of non-space characters ending at the end of
// text, without leading opening punctuation.
func previousWord(text string) string {
	i := strings.LastIndexFunc(text, unicode.IsSpace)
	word := text[i+1:]
	return strings.TrimLeft(word, "\"'([{“‘")
}

func inSpan(spans [][2]int, i int) ([2]int, bool) {
	for _, sp := range spans {
		if i >= sp[0] && i < sp[1] {
			return sp, true
		}
	}
	return [2]int{}, false
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '}', '’', '”':
		return true
	}
	return false
}
