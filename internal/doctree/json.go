package doctree

import "encoding/json"

// MarshalJSON flattens a chunk into the wire shape: text, text_components,
// one sequence per per-unit metadata key aligned with text_components, and
// the document metadata merged at the top level. Document metadata wins on
// key collisions.
func (c Chunk) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 10+len(c.Metadata))
	out["text"] = c.Text
	out["text_components"] = c.TextComponents()

	fields := c.Fields()
	n := len(c.Units)
	if fields.Has(FieldParagraphIndex) {
		seq := make([]int, n)
		for i, u := range c.Units {
			seq[i] = u.Meta.ParagraphIndex
		}
		out[KeyParagraphIndex] = seq
	}
	if fields.Has(FieldSentenceIndex) {
		seq := make([]int, n)
		for i, u := range c.Units {
			seq[i] = u.Meta.SentenceIndex
		}
		out[KeySentenceIndex] = seq
	}
	if fields.Has(FieldWordCount) {
		out[KeyWordCount] = c.WordCounts()
	}
	if fields.Has(FieldCodeFlags) {
		contains := make([]bool, n)
		for i, u := range c.Units {
			contains[i] = u.Meta.ContainsCode
		}
		out[KeyContainsCode] = contains
		out[KeyOnlyCode] = c.OnlyCode()
	}
	if fields.Has(FieldHeadingSection) {
		idx := make([]int, n)
		titles := make([]*string, n)
		tags := make([]*string, n)
		for i, u := range c.Units {
			idx[i] = u.Meta.SectionIndex
			titles[i] = u.Meta.SectionTitle
			tags[i] = u.Meta.SectionTag
		}
		out[KeyHeadingSectionIndex] = idx
		out[KeyHeadingSectionTitle] = titles
		out[KeyHeadingSectionTag] = tags
	}

	for k, v := range c.Metadata {
		out[k] = v
	}
	return json.Marshal(out)
}

// sectionJSON is the wire shape of a Section.
type sectionJSON struct {
	Index     int     `json:"heading_section_index"`
	Title     *string `json:"heading_section_title"`
	Tag       *string `json:"heading_section_tag"`
	Text      string  `json:"text"`
	WordCount *int    `json:"word_count,omitempty"`
}

func (s Section) MarshalJSON() ([]byte, error) {
	out := sectionJSON{
		Index: s.Index,
		Title: s.Title,
		Tag:   s.Tag,
		Text:  s.Body,
	}
	if s.Counted {
		wc := s.WordCount
		out.WordCount = &wc
	}
	return json.Marshal(out)
}
