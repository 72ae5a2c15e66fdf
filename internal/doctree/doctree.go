package doctree

// Field flags which per-unit metadata keys a unit carries. Every unit produced
// by one extraction call carries the same set.
type Field uint8

const (
	FieldParagraphIndex Field = 1 << iota
	FieldSentenceIndex
	FieldWordCount
	FieldCodeFlags
	FieldHeadingSection
)

// Has reports whether all bits of other are set.
func (f Field) Has(other Field) bool {
	return f&other == other
}

// Metadata key names as they appear on serialized chunks.
const (
	KeyParagraphIndex      = "paragraph_index"
	KeySentenceIndex       = "paragraph_sentence_index"
	KeyWordCount           = "word_count"
	KeyContainsCode        = "contains_code"
	KeyOnlyCode            = "only_code"
	KeyHeadingSectionIndex = "heading_section_index"
	KeyHeadingSectionTag   = "heading_section_tag"
	KeyHeadingSectionTitle = "heading_section_title"
	KeyDocumentTitle       = "document_title"
)

// UnitMeta is the metadata attached to one paragraph or sentence.
type UnitMeta struct {
	Fields Field

	ParagraphIndex int
	SentenceIndex  int // Position within the parent paragraph.
	WordCount      int
	ContainsCode   bool
	OnlyCode       bool

	SectionIndex int
	SectionTitle *string // nil for an untitled leading section
	SectionTag   *string
}

// Title returns the heading section title, or "" when there is none.
func (m UnitMeta) Title() string {
	if m.SectionTitle == nil {
		return ""
	}
	return *m.SectionTitle
}

// Unit is a paragraph or sentence: the atomic input to chunk assembly.
// Units are built once by an extractor and never modified afterwards.
type Unit struct {
	Text string
	Meta UnitMeta
}

// Section is one heading section of a markup document.
type Section struct {
	Index     int
	Title     *string
	Tag       *string // h1..h6, nil for an untitled leading section
	Body      string  // Cleaned text of the section, before splitting.
	WordCount int
	Counted   bool // WordCount was computed.
}

// Chunk is a packed group of units ready for embedding.
type Chunk struct {
	Text     string         // Rendered text, heading titles inlined.
	Units    []Unit         // Components in document order.
	Metadata map[string]any // Document-level metadata, merged verbatim.
}

// TextComponents returns the raw unit texts that compose the chunk.
func (c Chunk) TextComponents() []string {
	out := make([]string, len(c.Units))
	for i, u := range c.Units {
		out[i] = u.Text
	}
	return out
}

// Fields returns the per-unit metadata keys carried by the chunk's units.
func (c Chunk) Fields() Field {
	if len(c.Units) == 0 {
		return 0
	}
	return c.Units[0].Meta.Fields
}

// OnlyCode returns the only_code flag of every component.
func (c Chunk) OnlyCode() []bool {
	out := make([]bool, len(c.Units))
	for i, u := range c.Units {
		out[i] = u.Meta.OnlyCode
	}
	return out
}

// WordCounts returns the word count of every component.
func (c Chunk) WordCounts() []int {
	out := make([]int, len(c.Units))
	for i, u := range c.Units {
		out[i] = u.Meta.WordCount
	}
	return out
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}
