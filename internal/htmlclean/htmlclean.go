// Package htmlclean flattens HTML into text runs with fenced code spans
// marked by triple backticks and block-level elements ended by newlines.
package htmlclean

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/docchunk/internal/chunkerr"
	"github.com/dgallion1/docchunk/internal/codefence"
)

// removed elements never carry document text.
var removed = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"meta": true, "link": true, "base": true, "area": true,
	"video": true, "audio": true, "source": true, "track": true,
	"iframe": true, "object": true, "embed": true, "svg": true,
}

var blockLevel = map[string]bool{
	"div": true, "p": true, "ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "td": true, "th": true, "form": true,
	"nav": true, "blockquote": true, "section": true, "article": true, "aside": true,
}

// Parse parses markup into a document tree.
func Parse(markup string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, &chunkerr.InputError{Message: "parse html", Err: err}
	}
	return doc, nil
}

// Text parses, cleans and flattens markup into a single string.
func Text(markup string) (string, error) {
	doc, err := Parse(markup)
	if err != nil {
		return "", err
	}
	Clean(doc)
	return Concat(Strings(doc)), nil
}

// Clean rewrites the tree in place: non-content elements are dropped, images
// become their alt text, code is fenced, and block-level elements end in a
// newline.
func Clean(doc *html.Node) {
	for _, n := range collect(doc, func(n *html.Node) bool { return removed[n.Data] }) {
		n.Parent.RemoveChild(n)
	}
	for _, img := range collect(doc, func(n *html.Node) bool { return n.Data == "img" }) {
		replaceImage(img)
	}
	for _, code := range collect(doc, isOutermostCode) {
		first, last := firstText(code), lastText(code)
		if first == nil {
			continue
		}
		first.Data = codefence.Marker + first.Data
		last.Data += codefence.Marker
	}
	for _, br := range collect(doc, func(n *html.Node) bool { return n.Data == "br" }) {
		br.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: "\n"}, br)
		br.Parent.RemoveChild(br)
	}
	for _, block := range collect(doc, func(n *html.Node) bool { return blockLevel[n.Data] }) {
		if last := lastText(block); last != nil {
			last.Data += "\n"
		}
	}
}

// Strings returns the text runs under n in document order, with
// non-breaking spaces turned into spaces and empty runs dropped.
func Strings(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.ReplaceAll(n.Data, "\u00a0", " "); s != "" {
				out = append(out, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

var (
	newlines    = regexp.MustCompile(`\n+`)
	spaces      = regexp.MustCompile(` {2,}`)
	punctuation = ",.?!:-"
)

// Concat joins text runs into one block of text. Runs are space-separated
// unless they start with punctuation or follow a newline, and adjacent code
// runs merge into one span. Whitespace is normalized outside code spans.
func Concat(strs []string) string {
	var b strings.Builder
	lastCode := false
	for _, s := range strs {
		trimmed := strings.TrimSpace(s)
		switch {
		case len(trimmed) > 2*len(codefence.Marker) &&
			strings.HasPrefix(trimmed, codefence.Marker) && strings.HasSuffix(trimmed, codefence.Marker):
			if !lastCode {
				b.WriteByte(' ')
			}
			b.WriteString(s)
			lastCode = true
		case (s != "" && strings.IndexByte(punctuation, s[0]) >= 0) || strings.HasSuffix(b.String(), "\n"):
			b.WriteString(s)
			lastCode = false
		default:
			b.WriteByte(' ')
			b.WriteString(s)
			lastCode = false
		}
	}

	p := codefence.Protect(strings.TrimSpace(b.String()))
	text := strings.ReplaceAll(p.Text, "\r\n", "\n")
	text = newlines.ReplaceAllString(text, "\n")
	text = spaces.ReplaceAllString(text, " ")
	for strings.Contains(text, "\n \n") {
		text = strings.ReplaceAll(text, "\n \n", "\n")
	}
	text = p.Restore(text)

	fence := codefence.Marker
	text = strings.ReplaceAll(text, fence+fence, "")
	text = strings.ReplaceAll(text, fence+" "+fence, " ")
	text = strings.ReplaceAll(text, fence+"\n"+fence, "\n")
	return text
}

// IsHeading reports whether n is an h1..h6 element.
func IsHeading(n *html.Node) bool {
	return n.Type == html.ElementNode && len(n.Data) == 2 && n.Data[0] == 'h' && n.Data[1] >= '1' && n.Data[1] <= '6'
}

// ContainsHeading reports whether any descendant of n is a heading.
func ContainsHeading(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsHeading(c) || ContainsHeading(c) {
			return true
		}
	}
	return false
}

// TextContent returns all text under n, NBSP replaced and trimmed.
func TextContent(n *html.Node) string {
	return strings.TrimSpace(strings.Join(Strings(n), ""))
}

func replaceImage(img *html.Node) {
	var alt string
	for _, a := range img.Attr {
		if a.Key == "alt" {
			alt = strings.TrimSpace(a.Val)
		}
	}
	if alt != "" {
		div := &html.Node{Type: html.ElementNode, Data: "div"}
		div.AppendChild(&html.Node{Type: html.TextNode, Data: alt})
		img.Parent.InsertBefore(div, img)
	}
	img.Parent.RemoveChild(img)
}

// isOutermostCode matches code and pre elements that are not nested inside
// another one, so a <pre><code> block is fenced exactly once.
func isOutermostCode(n *html.Node) bool {
	if !isCode(n) {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if isCode(p) {
			return false
		}
	}
	return true
}

func isCode(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.Data == "code" || n.Data == "pre")
}

// collect returns matching elements in document order. The tree is walked in
// full before any caller mutates it.
func collect(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func firstText(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && c.Data != "" {
			return c
		}
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}

func lastText(n *html.Node) *html.Node {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.TextNode && c.Data != "" {
			return c
		}
		if t := lastText(c); t != nil {
			return t
		}
	}
	return nil
}
