// Package textsplit breaks cleaned text into paragraphs and sentences, the
// units consumed by the chunk assembler.
package textsplit

import (
	"strings"

	"github.com/dgallion1/docchunk/internal/chunkerr"
	"github.com/dgallion1/docchunk/internal/codefence"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/nlp"
)

// DefaultDelimiter separates paragraphs when none is configured.
const DefaultDelimiter = "\n"

// Options controls paragraph extraction.
type Options struct {
	Delimiter  string // "" means DefaultDelimiter
	CountWords bool
}

// Paragraphs splits text on the delimiter, dropping blank results. A delimiter
// inside a fenced code span never splits it.
func Paragraphs(text string, an nlp.Analyzer, opts Options) ([]doctree.Unit, error) {
	delim := opts.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}
	if codefence.Collides(delim) {
		return nil, chunkerr.Configf("paragraph_delimiter %q is reserved", delim)
	}

	p := codefence.Protect(text)
	var parts []string
	for _, s := range strings.Split(p.Text, delim) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	parts, restored := p.RestoreAll(parts)
	if restored != p.SpanCount() {
		return nil, chunkerr.Configf("paragraph_delimiter %q lost fenced code: restored %d of %d spans", delim, restored, p.SpanCount())
	}

	fields := doctree.FieldParagraphIndex | doctree.FieldCodeFlags
	if opts.CountWords {
		fields |= doctree.FieldWordCount
	}
	units := make([]doctree.Unit, len(parts))
	for i, para := range parts {
		contains, only := codefence.Detect(para)
		meta := doctree.UnitMeta{
			Fields:         fields,
			ParagraphIndex: i,
			ContainsCode:   contains,
			OnlyCode:       only,
		}
		if opts.CountWords {
			meta.WordCount = countWords(para, only, an)
		}
		units[i] = doctree.Unit{Text: para, Meta: meta}
	}
	return units, nil
}

// Sentences splits text into paragraphs, then each paragraph into sentences.
func Sentences(text string, an nlp.Analyzer, delimiter string) ([]doctree.Unit, error) {
	paras, err := Paragraphs(text, an, Options{Delimiter: delimiter})
	if err != nil {
		return nil, err
	}
	return SplitSentences(paras, an), nil
}

// SplitSentences splits already extracted paragraphs into sentences. Code-only
// paragraphs split on newlines; prose goes through the analyzer. Each sentence
// keeps its paragraph's metadata, with paragraph_index set to the paragraph's
// position in paragraphs and a fresh word count.
func SplitSentences(paragraphs []doctree.Unit, an nlp.Analyzer) []doctree.Unit {
	var out []doctree.Unit
	for pi, para := range paragraphs {
		var pieces []string
		if para.Meta.OnlyCode {
			for _, line := range strings.Split(para.Text, "\n") {
				if strings.TrimSpace(line) != "" {
					pieces = append(pieces, line)
				}
			}
		} else {
			pieces = an.Sentences(para.Text)
		}

		for si, s := range pieces {
			meta := para.Meta
			meta.Fields |= doctree.FieldParagraphIndex | doctree.FieldSentenceIndex |
				doctree.FieldWordCount | doctree.FieldCodeFlags
			meta.ParagraphIndex = pi
			meta.SentenceIndex = si
			meta.WordCount = countWords(s, para.Meta.OnlyCode, an)
			out = append(out, doctree.Unit{Text: s, Meta: meta})
		}
	}
	return out
}

// Zip pairs caller-split texts with their metadata. When meta is nil each
// text is classified and counted as a paragraph of its own.
func Zip(texts []string, meta []doctree.UnitMeta, an nlp.Analyzer) ([]doctree.Unit, error) {
	if meta != nil && len(meta) != len(texts) {
		return nil, chunkerr.Configf("got %d texts but %d metadata entries", len(texts), len(meta))
	}
	units := make([]doctree.Unit, len(texts))
	for i, t := range texts {
		if meta != nil {
			units[i] = doctree.Unit{Text: t, Meta: meta[i]}
			continue
		}
		contains, only := codefence.Detect(t)
		units[i] = doctree.Unit{Text: t, Meta: doctree.UnitMeta{
			Fields:         doctree.FieldParagraphIndex | doctree.FieldWordCount | doctree.FieldCodeFlags,
			ParagraphIndex: i,
			WordCount:      countWords(t, only, an),
			ContainsCode:   contains,
			OnlyCode:       only,
		}}
	}
	return units, nil
}

func countWords(text string, onlyCode bool, an nlp.Analyzer) int {
	if onlyCode {
		return codefence.CountWords(text)
	}
	return an.CountWords(text)
}
