// Package sections partitions markup into heading sections and splits each
// section into paragraphs or sentences stamped with its heading.
package sections

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/htmlclean"
	"github.com/dgallion1/docchunk/internal/nlp"
	"github.com/dgallion1/docchunk/internal/textsplit"
)

// Options controls section extraction.
type Options struct {
	CountWords bool
	// DocumentTitle names the content before the first heading. When nil that
	// leading section is untitled.
	DocumentTitle *string
	// Delimiter separates paragraphs within a section body.
	Delimiter string
}

// Extract parses markup and returns its heading sections in document order.
func Extract(markup string, an nlp.Analyzer, opts Options) ([]doctree.Section, error) {
	doc, err := htmlclean.Parse(markup)
	if err != nil {
		return nil, err
	}
	htmlclean.Clean(doc)
	return fromTree(doc, an, opts), nil
}

func fromTree(doc *html.Node, an nlp.Analyzer, opts Options) []doctree.Section {
	acc := walk(doc, accumulator{}).finish()

	var out []doctree.Section
	for i, h := range acc.headings {
		var title, tag *string
		if h != nil {
			title = doctree.StringPtr(htmlclean.TextContent(h))
			tag = doctree.StringPtr(h.Data)
		} else if opts.DocumentTitle != nil {
			title = opts.DocumentTitle
			tag = doctree.StringPtr("h1")
		}

		var body string
		hasBody := i < len(acc.bodies)
		if hasBody {
			body = acc.bodies[i]
		}
		// A heading with nothing after it survives only on its title. An
		// untitled leading section with no text carries nothing at all.
		untitled := title == nil || *title == ""
		if untitled && (!hasBody || (h == nil && body == "")) {
			continue
		}

		s := doctree.Section{
			Index: len(out),
			Title: title,
			Tag:   tag,
			Body:  body,
		}
		if opts.CountWords {
			s.Counted = true
			if body != "" {
				s.WordCount = an.CountWords(body)
			}
		}
		out = append(out, s)
	}
	return out
}

// accumulator is threaded through the traversal by value. Loose text runs
// collect in strs until the next heading closes them into a section body.
type accumulator struct {
	strs     []string
	bodies   []string
	headings []*html.Node // nil opens the untitled leading section
}

// open closes pending text and starts a section under heading h.
func (a accumulator) open(h *html.Node) accumulator {
	switch {
	case len(a.headings) == 0 && len(a.strs) > 0:
		a.headings = append(a.headings, nil)
		a.bodies = append(a.bodies, htmlclean.Concat(a.strs))
	case len(a.headings) > 0:
		a.bodies = append(a.bodies, htmlclean.Concat(a.strs))
	}
	a.headings = append(a.headings, h)
	a.strs = nil
	return a
}

// finish closes trailing text. A document without headings is one untitled
// section.
func (a accumulator) finish() accumulator {
	if len(a.strs) > 0 {
		a.bodies = append(a.bodies, htmlclean.Concat(a.strs))
		a.strs = nil
	}
	if len(a.headings) == 0 {
		a.headings = []*html.Node{nil}
	}
	return a
}

// walk visits the children of n in document order. Subtrees without headings
// are flattened whole; subtrees holding a heading are descended so the heading
// splits the text around it.
func walk(n *html.Node, acc accumulator) accumulator {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				acc.strs = append(acc.strs, htmlclean.Strings(c)...)
			}
		case htmlclean.IsHeading(c):
			acc = acc.open(c)
		case c.Type != html.ElementNode && c.Type != html.DocumentNode:
			// comments and doctypes
		case htmlclean.ContainsHeading(c):
			acc = walk(c, acc)
		default:
			acc.strs = append(acc.strs, htmlclean.Strings(c)...)
		}
	}
	return acc
}

// Paragraphs splits every section into paragraphs. Paragraph indices restart
// in each section.
func Paragraphs(markup string, an nlp.Analyzer, opts Options) ([]doctree.Unit, error) {
	secs, err := Extract(markup, an, Options{DocumentTitle: opts.DocumentTitle})
	if err != nil {
		return nil, err
	}
	var out []doctree.Unit
	for _, s := range secs {
		units, err := textsplit.Paragraphs(s.Body, an, textsplit.Options{
			Delimiter:  opts.Delimiter,
			CountWords: opts.CountWords,
		})
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			out = append(out, stamp(u, s))
		}
	}
	return out, nil
}

// Sentences splits every section into sentences. Paragraph indices run across
// the whole document.
func Sentences(markup string, an nlp.Analyzer, opts Options) ([]doctree.Unit, error) {
	paras, err := Paragraphs(markup, an, Options{DocumentTitle: opts.DocumentTitle, Delimiter: opts.Delimiter})
	if err != nil {
		return nil, err
	}
	return textsplit.SplitSentences(paras, an), nil
}

func stamp(u doctree.Unit, s doctree.Section) doctree.Unit {
	u.Meta.Fields |= doctree.FieldHeadingSection
	u.Meta.SectionIndex = s.Index
	u.Meta.SectionTitle = s.Title
	u.Meta.SectionTag = s.Tag
	return u
}
