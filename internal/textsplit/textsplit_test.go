package textsplit

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchunk/internal/chunkerr"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/nlp"
)

func texts(units []doctree.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

func mustParagraphs(t *testing.T, text string, opts Options) []doctree.Unit {
	t.Helper()
	units, err := Paragraphs(text, nlp.New(), opts)
	require.NoError(t, err)
	return units
}

func mustSentences(t *testing.T, text string) []doctree.Unit {
	t.Helper()
	units, err := Sentences(text, nlp.New(), "")
	require.NoError(t, err)
	return units
}

func TestParagraphsSplitsAndTrims(t *testing.T) {
	units := mustParagraphs(t, "  First para.  \n\n\nSecond para here.\n   \n", Options{CountWords: true})
	require.Len(t, units, 2)
	assert.Equal(t, []string{"First para.", "Second para here."}, texts(units))
	assert.Equal(t, 0, units[0].Meta.ParagraphIndex)
	assert.Equal(t, 1, units[1].Meta.ParagraphIndex)
	assert.Equal(t, 2, units[0].Meta.WordCount)
	assert.Equal(t, 3, units[1].Meta.WordCount)
	assert.True(t, units[0].Meta.Fields.Has(doctree.FieldWordCount|doctree.FieldCodeFlags|doctree.FieldParagraphIndex))
}

func TestParagraphsNeverSplitInsideCode(t *testing.T) {
	text := "```\nline one\n\nline two\n```"
	units := mustParagraphs(t, text, Options{CountWords: true})
	require.Len(t, units, 1)
	assert.Equal(t, text, units[0].Text)
	assert.True(t, units[0].Meta.OnlyCode)
	assert.True(t, units[0].Meta.ContainsCode)
	assert.Equal(t, 4, units[0].Meta.WordCount)
}

func TestParagraphsRestoresSpansInOrder(t *testing.T) {
	text := "Intro ```a\nb``` mid\n```c\nd```\nOutro"
	units := mustParagraphs(t, text, Options{})
	assert.Equal(t, []string{"Intro ```a\nb``` mid", "```c\nd```", "Outro"}, texts(units))
	assert.True(t, units[0].Meta.ContainsCode)
	assert.False(t, units[0].Meta.OnlyCode)
	assert.True(t, units[1].Meta.OnlyCode)
	assert.False(t, units[0].Meta.Fields.Has(doctree.FieldWordCount))
}

func TestParagraphsCustomDelimiter(t *testing.T) {
	units := mustParagraphs(t, "one|two\nstill two|three", Options{Delimiter: "|"})
	assert.Equal(t, []string{"one", "two\nstill two", "three"}, texts(units))
}

func TestParagraphsEmpty(t *testing.T) {
	assert.Empty(t, mustParagraphs(t, "   \n  \n", Options{}))
}

func TestSentences(t *testing.T) {
	units := mustSentences(t, "Sentence one. Sentence two. Sentence three.")
	require.Len(t, units, 3)
	for i, u := range units {
		assert.Equal(t, 0, u.Meta.ParagraphIndex)
		assert.Equal(t, i, u.Meta.SentenceIndex)
		assert.Equal(t, 2, u.Meta.WordCount)
	}
}

func TestSentencesResetIndexPerParagraph(t *testing.T) {
	units := mustSentences(t, "A one. A two.\nB one.")
	require.Len(t, units, 3)
	assert.Equal(t, []int{0, 0, 1}, []int{units[0].Meta.ParagraphIndex, units[1].Meta.ParagraphIndex, units[2].Meta.ParagraphIndex})
	assert.Equal(t, []int{0, 1, 0}, []int{units[0].Meta.SentenceIndex, units[1].Meta.SentenceIndex, units[2].Meta.SentenceIndex})
}

func TestSentencesSplitCodeOnLines(t *testing.T) {
	text := "Intro text.\n```\nx := 1\n\ny := 2\n```"
	units := mustSentences(t, text)
	assert.Equal(t, []string{"Intro text.", "```", "x := 1", "y := 2", "```"}, texts(units))
	for _, u := range units[1:] {
		assert.True(t, u.Meta.OnlyCode)
		assert.Equal(t, 1, u.Meta.ParagraphIndex)
	}
	assert.Equal(t, 2, units[2].Meta.WordCount)
	assert.Equal(t, 0, units[1].Meta.WordCount)
}

func TestSplitSentencesInheritsMetadata(t *testing.T) {
	title := "Setup"
	paras := []doctree.Unit{{
		Text: "First. Second.",
		Meta: doctree.UnitMeta{
			Fields:       doctree.FieldCodeFlags | doctree.FieldHeadingSection,
			SectionIndex: 2,
			SectionTitle: &title,
		},
	}}
	units := SplitSentences(paras, nlp.New())
	require.Len(t, units, 2)
	for _, u := range units {
		assert.Equal(t, 2, u.Meta.SectionIndex)
		assert.Equal(t, "Setup", u.Meta.Title())
		assert.True(t, u.Meta.Fields.Has(doctree.FieldHeadingSection|doctree.FieldSentenceIndex))
	}
}

func TestParagraphsRejectsReservedDelimiter(t *testing.T) {
	// Each of these would cut the stand-in for a fenced span apart.
	for _, delim := range []string{"e", "n", "c", "f", "fence", "\uE000"} {
		_, err := Paragraphs("one\n```a```\n two", nlp.New(), Options{Delimiter: delim})
		var cfgErr *chunkerr.ConfigError
		require.True(t, errors.As(err, &cfgErr), "delimiter %q", delim)
		assert.Contains(t, err.Error(), "paragraph_delimiter")
	}

	_, err := Sentences("one\n```a```\n two", nlp.New(), "e")
	require.Error(t, err)
}

func TestParagraphsKeepsCodeWithLetterDelimiter(t *testing.T) {
	units := mustParagraphs(t, "onexx```a b```xxtwo", Options{Delimiter: "xx"})
	assert.Equal(t, []string{"one", "```a b```", "two"}, texts(units))
	assert.True(t, units[1].Meta.OnlyCode)
}

func TestZip(t *testing.T) {
	units, err := Zip([]string{"plain words", "```code here```"}, nil, nlp.New())
	require.NoError(t, err)
	assert.False(t, units[0].Meta.OnlyCode)
	assert.True(t, units[1].Meta.OnlyCode)
	assert.Equal(t, 2, units[0].Meta.WordCount)
	assert.Equal(t, 2, units[1].Meta.WordCount)
	assert.Equal(t, 1, units[1].Meta.ParagraphIndex)
	assert.True(t, units[0].Meta.Fields.Has(doctree.FieldWordCount|doctree.FieldCodeFlags))

	given := []doctree.UnitMeta{{WordCount: 7}}
	units, err = Zip([]string{"kept"}, given, nlp.New())
	require.NoError(t, err)
	assert.Equal(t, 7, units[0].Meta.WordCount)

	_, err = Zip([]string{"a", "b"}, []doctree.UnitMeta{{}}, nlp.New())
	var cfgErr *chunkerr.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, strings.Contains(err.Error(), "2 texts"))
}
