// Package strategy maps a named chunking strategy to the extractor that feeds
// the chunk assembler and the parameters it runs with.
package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/chunkerr"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/htmlclean"
	"github.com/dgallion1/docchunk/internal/nlp"
	"github.com/dgallion1/docchunk/internal/sections"
	"github.com/dgallion1/docchunk/internal/textsplit"
)

// Name identifies a chunking strategy.
type Name string

const (
	Sentence                Name = "sentence"
	Paragraph               Name = "paragraph"
	HeadingSection          Name = "heading_section"
	HeadingSectionSentence  Name = "heading_section_sentence"
	HeadingSectionParagraph Name = "heading_section_paragraph"
)

// InputType is the format of the payload handed to a strategy.
type InputType string

const (
	Text     InputType = "text"
	HTML     InputType = "html"
	Markdown InputType = "markdown"
)

// Info describes a strategy.
type Info struct {
	Name                Name                 `json:"name" yaml:"name"`
	Inputs              []InputType          `json:"input_types" yaml:"input_types"`
	DefaultCodeBehavior chunker.CodeBehavior `json:"default_code_behavior" yaml:"default_code_behavior"`
	Description         string               `json:"description" yaml:"description"`
}

var registry = []Info{
	{
		Name:                Sentence,
		Inputs:              []InputType{Text, HTML, Markdown},
		DefaultCodeBehavior: chunker.RespectCodeBoundaries,
		Description:         "Split into sentences, then pack sentences up to the minimum word count.",
	},
	{
		Name:                Paragraph,
		Inputs:              []InputType{Text, HTML, Markdown},
		DefaultCodeBehavior: chunker.RespectCodeBoundaries,
		Description:         "Split on the paragraph delimiter, then pack paragraphs up to the minimum word count.",
	},
	{
		Name:                HeadingSection,
		Inputs:              []InputType{HTML, Markdown},
		DefaultCodeBehavior: chunker.IgnoreCodeBoundaries,
		Description:         "One chunk per heading section.",
	},
	{
		Name:                HeadingSectionSentence,
		Inputs:              []InputType{HTML, Markdown},
		DefaultCodeBehavior: chunker.RespectCodeBoundaries,
		Description:         "Split heading sections into sentences, then pack across sections.",
	},
	{
		Name:                HeadingSectionParagraph,
		Inputs:              []InputType{HTML, Markdown},
		DefaultCodeBehavior: chunker.RespectCodeBoundaries,
		Description:         "Split heading sections into paragraphs, then pack across sections.",
	},
}

// List returns every strategy in a stable order.
func List() []Info {
	out := make([]Info, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a strategy by case-insensitive name.
func Lookup(name string) (Info, error) {
	n := Name(strings.ToLower(strings.TrimSpace(name)))
	for _, info := range registry {
		if info.Name == n {
			return info, nil
		}
	}
	names := make([]string, len(registry))
	for i, info := range registry {
		names[i] = "'" + string(info.Name) + "'"
	}
	return Info{}, chunkerr.Configf("Chunking strategy '%s' is currently unsupported. Please use one of %s, or %s.",
		name, strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
}

// DefaultFor picks the strategy used when a caller names none: heading-aware
// paragraphs for markup, plain paragraphs for text.
func DefaultFor(t InputType) Name {
	if t == Text {
		return Paragraph
	}
	return HeadingSectionParagraph
}

// Accepts reports whether the strategy takes the input type.
func (i Info) Accepts(t InputType) bool {
	for _, in := range i.Inputs {
		if in == t {
			return true
		}
	}
	return false
}

// check rejects an input type the strategy cannot handle.
func (i Info) check(t InputType) error {
	if i.Accepts(t) {
		return nil
	}
	allowed := make([]string, len(i.Inputs))
	for j, in := range i.Inputs {
		allowed[j] = string(in)
	}
	return &chunkerr.InputTypeError{Strategy: string(i.Name), InputType: string(t), Allowed: allowed}
}

// Options are the caller-tunable chunking parameters.
type Options struct {
	MinWords           int
	OverlapWords       int
	CodeBehavior       string // "" selects the strategy default
	ParagraphDelimiter string
	Metadata           map[string]any
}

func (o Options) validate() error {
	if o.MinWords < 0 {
		return chunkerr.Configf("chunk_min_words must be >= 0, got %d", o.MinWords)
	}
	if o.OverlapWords < 0 {
		return chunkerr.Configf("chunk_overlap_words must be >= 0, got %d", o.OverlapWords)
	}
	return nil
}

func (o Options) chunkerConfig(info Info) (chunker.Config, error) {
	behavior, err := chunker.ParseCodeBehavior(o.CodeBehavior, info.DefaultCodeBehavior)
	if err != nil {
		return chunker.Config{}, err
	}
	return chunker.Config{
		MinWords:     o.MinWords,
		OverlapWords: o.OverlapWords,
		CodeBehavior: behavior,
		Metadata:     o.Metadata,
	}, nil
}

// documentTitle returns the document_title entry of the metadata, if any.
func (o Options) documentTitle() *string {
	v, ok := o.Metadata[doctree.KeyDocumentTitle]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	return doctree.StringPtr(fmt.Sprint(v))
}

// Chunk runs the named strategy over input.
func Chunk(name string, inputType string, input string, an nlp.Analyzer, opts Options) ([]doctree.Chunk, error) {
	info, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	t := InputType(strings.ToLower(strings.TrimSpace(inputType)))
	switch info.Name {
	case Sentence:
		return ChunkSentences(input, t, an, opts)
	case Paragraph:
		return ChunkParagraphs(input, t, an, opts)
	case HeadingSection:
		return ChunkHeadingSections(input, t, an, opts)
	case HeadingSectionSentence:
		return ChunkHeadingSectionSentences(input, t, an, opts)
	default:
		return ChunkHeadingSectionParagraphs(input, t, an, opts)
	}
}

// ChunkSentences packs sentences of text or markup.
func ChunkSentences(input string, t InputType, an nlp.Analyzer, opts Options) ([]doctree.Chunk, error) {
	info, cfg, err := prepare(Sentence, t, opts)
	if err != nil {
		return nil, err
	}
	text, err := plainText(input, t)
	if err != nil {
		return nil, err
	}
	units, err := textsplit.Sentences(text, an, opts.ParagraphDelimiter)
	if err != nil {
		return nil, err
	}
	return assemble(info, units, cfg)
}

// ChunkParagraphs packs paragraphs of text or markup.
func ChunkParagraphs(input string, t InputType, an nlp.Analyzer, opts Options) ([]doctree.Chunk, error) {
	info, cfg, err := prepare(Paragraph, t, opts)
	if err != nil {
		return nil, err
	}
	text, err := plainText(input, t)
	if err != nil {
		return nil, err
	}
	units, err := textsplit.Paragraphs(text, an, textsplit.Options{
		Delimiter:  opts.ParagraphDelimiter,
		CountWords: true,
	})
	if err != nil {
		return nil, err
	}
	return assemble(info, units, cfg)
}

// ChunkUnits packs units the caller has already split, skipping extraction.
// meta, when non-nil, must hold one entry per text; otherwise each text is
// classified and counted on its own. Code behavior defaults as for paragraphs.
func ChunkUnits(texts []string, meta []doctree.UnitMeta, an nlp.Analyzer, opts Options) ([]doctree.Chunk, error) {
	info, cfg, err := prepare(Paragraph, Text, opts)
	if err != nil {
		return nil, err
	}
	units, err := textsplit.Zip(texts, meta, an)
	if err != nil {
		return nil, err
	}
	return assemble(info, units, cfg)
}

// ChunkHeadingSections emits one chunk per heading section. Size and overlap
// options are ignored.
func ChunkHeadingSections(input string, t InputType, an nlp.Analyzer, opts Options) ([]doctree.Chunk, error) {
	info, cfg, err := prepare(HeadingSection, t, opts)
	if err != nil {
		return nil, err
	}
	markup, err := toMarkup(input, t)
	if err != nil {
		return nil, err
	}
	units, err := sections.Paragraphs(markup, an, sectionOptions(opts))
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, chunkerr.Inputf("strategy %s found no text in the input", info.Name)
	}

	cfg.MinWords = math.MaxInt
	cfg.OverlapWords = 0
	var out []doctree.Chunk
	for start := 0; start < len(units); {
		end := start + 1
		for end < len(units) && units[end].Meta.SectionIndex == units[start].Meta.SectionIndex {
			end++
		}
		chunks, err := chunker.ChunkByWordCount(units[start:end], cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, chunks...)
		start = end
	}
	return out, nil
}

// ChunkHeadingSectionSentences packs the sentences of every heading section.
func ChunkHeadingSectionSentences(input string, t InputType, an nlp.Analyzer, opts Options) ([]doctree.Chunk, error) {
	info, cfg, err := prepare(HeadingSectionSentence, t, opts)
	if err != nil {
		return nil, err
	}
	markup, err := toMarkup(input, t)
	if err != nil {
		return nil, err
	}
	units, err := sections.Sentences(markup, an, sectionOptions(opts))
	if err != nil {
		return nil, err
	}
	return assemble(info, units, cfg)
}

// ChunkHeadingSectionParagraphs packs the paragraphs of every heading section.
func ChunkHeadingSectionParagraphs(input string, t InputType, an nlp.Analyzer, opts Options) ([]doctree.Chunk, error) {
	info, cfg, err := prepare(HeadingSectionParagraph, t, opts)
	if err != nil {
		return nil, err
	}
	markup, err := toMarkup(input, t)
	if err != nil {
		return nil, err
	}
	units, err := sections.Paragraphs(markup, an, sectionOptions(opts))
	if err != nil {
		return nil, err
	}
	return assemble(info, units, cfg)
}

// Sections returns the heading sections of markup without chunking them.
func Sections(input string, t InputType, an nlp.Analyzer, opts Options) ([]doctree.Section, error) {
	info, err := Lookup(string(HeadingSection))
	if err != nil {
		return nil, err
	}
	if err := info.check(t); err != nil {
		return nil, err
	}
	markup, err := toMarkup(input, t)
	if err != nil {
		return nil, err
	}
	so := sectionOptions(opts)
	return sections.Extract(markup, an, sections.Options{CountWords: true, DocumentTitle: so.DocumentTitle})
}

func prepare(name Name, t InputType, opts Options) (Info, chunker.Config, error) {
	info, err := Lookup(string(name))
	if err != nil {
		return Info{}, chunker.Config{}, err
	}
	if err := info.check(t); err != nil {
		return Info{}, chunker.Config{}, err
	}
	if err := opts.validate(); err != nil {
		return Info{}, chunker.Config{}, err
	}
	cfg, err := opts.chunkerConfig(info)
	if err != nil {
		return Info{}, chunker.Config{}, err
	}
	return info, cfg, nil
}

func assemble(info Info, units []doctree.Unit, cfg chunker.Config) ([]doctree.Chunk, error) {
	if len(units) == 0 {
		return nil, chunkerr.Inputf("strategy %s found no text in the input", info.Name)
	}
	chunks, err := chunker.ChunkByWordCount(units, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", info.Name, err)
	}
	return chunks, nil
}

func sectionOptions(opts Options) sections.Options {
	return sections.Options{
		CountWords:    true,
		DocumentTitle: opts.documentTitle(),
		Delimiter:     opts.ParagraphDelimiter,
	}
}

// plainText turns any accepted payload into cleaned text.
func plainText(input string, t InputType) (string, error) {
	if t == Text {
		return input, nil
	}
	markup, err := toMarkup(input, t)
	if err != nil {
		return "", err
	}
	return htmlclean.Text(markup)
}
