package chunker

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/docchunk/internal/chunkerr"
	"github.com/dgallion1/docchunk/internal/doctree"
)

const counted = doctree.FieldWordCount | doctree.FieldCodeFlags

func prose(text string, words int) doctree.Unit {
	return doctree.Unit{Text: text, Meta: doctree.UnitMeta{Fields: counted, WordCount: words}}
}

func code(text string, words int) doctree.Unit {
	return doctree.Unit{Text: text, Meta: doctree.UnitMeta{Fields: counted, WordCount: words, ContainsCode: true, OnlyCode: true}}
}

func titled(u doctree.Unit, title string) doctree.Unit {
	u.Meta.Fields |= doctree.FieldHeadingSection
	u.Meta.SectionTitle = doctree.StringPtr(title)
	return u
}

func components(chunks []doctree.Chunk) [][]string {
	out := make([][]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.TextComponents()
	}
	return out
}

func mustChunk(t *testing.T, units []doctree.Unit, cfg Config) []doctree.Chunk {
	t.Helper()
	chunks, err := ChunkByWordCount(units, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return chunks
}

func TestChunkByWordCount_NoMinimumIsOneToOne(t *testing.T) {
	units := []doctree.Unit{prose("a b", 2), titled(prose("c", 1), "Intro"), code("```x```", 1)}
	chunks := mustChunk(t, units, DefaultConfig())

	if len(chunks) != len(units) {
		t.Fatalf("expected %d chunks, got %d", len(units), len(chunks))
	}
	want := []string{"a b", "Intro\nc", "```x```"}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], c.Text)
		}
		if len(c.Units) != 1 {
			t.Errorf("chunk %d: expected 1 component, got %d", i, len(c.Units))
		}
	}
}

func TestChunkByWordCount_NoMinimumRemovesCode(t *testing.T) {
	units := []doctree.Unit{prose("a", 1), code("```x```", 1)}
	chunks := mustChunk(t, units, Config{CodeBehavior: RemoveCodeSections})
	if chunks[1].Text != "" {
		t.Errorf("expected empty text for removed code, got %q", chunks[1].Text)
	}
	if got := chunks[1].TextComponents(); got[0] != "```x```" {
		t.Errorf("expected code kept as component, got %q", got[0])
	}
}

func TestChunkByWordCount_PacksToMinimum(t *testing.T) {
	units := []doctree.Unit{prose("u0", 3), prose("u1", 3), prose("u2", 3), prose("u3", 3)}
	chunks := mustChunk(t, units, Config{MinWords: 5})

	want := [][]string{{"u0", "u1"}, {"u2", "u3"}}
	if got := components(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if chunks[0].Text != "u0 u1" {
		t.Errorf("expected text %q, got %q", "u0 u1", chunks[0].Text)
	}
}

func TestChunkByWordCount_LastChunkMayBeShort(t *testing.T) {
	units := []doctree.Unit{prose("u0", 3), prose("u1", 3), prose("u2", 1)}
	chunks := mustChunk(t, units, Config{MinWords: 5})
	want := [][]string{{"u0", "u1"}, {"u2"}}
	if got := components(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestChunkByWordCount_Overlap(t *testing.T) {
	units := []doctree.Unit{prose("u0", 3), prose("u1", 3), prose("u2", 3), prose("u3", 3)}
	chunks := mustChunk(t, units, Config{MinWords: 5, OverlapWords: 2})

	// The seed repeats u1 but does not count toward the next minimum.
	want := [][]string{{"u0", "u1"}, {"u1", "u2", "u3"}}
	if got := components(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestChunkByWordCount_RespectFlushesOnTransition(t *testing.T) {
	units := []doctree.Unit{prose("p0", 2), code("c1", 5), code("c2", 5), prose("p3", 2)}

	chunks := mustChunk(t, units, Config{MinWords: 8, CodeBehavior: RespectCodeBoundaries})
	want := [][]string{{"p0"}, {"c1", "c2"}, {"p3"}}
	if got := components(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("respect: expected %v, got %v", want, got)
	}
	if chunks[1].Text != "c1\nc2" {
		t.Errorf("expected code joined by newline, got %q", chunks[1].Text)
	}

	chunks = mustChunk(t, units, Config{MinWords: 8, CodeBehavior: IgnoreCodeBoundaries})
	want = [][]string{{"p0", "c1", "c2"}, {"p3"}}
	if got := components(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("ignore: expected %v, got %v", want, got)
	}
}

func TestChunkByWordCount_RespectNeverMixes(t *testing.T) {
	var units []doctree.Unit
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			units = append(units, code("```c```", 1))
		} else {
			units = append(units, prose("p", 1))
		}
	}
	chunks := mustChunk(t, units, Config{MinWords: 1, OverlapWords: 3, CodeBehavior: RespectCodeBoundaries})
	for i, c := range chunks {
		kinds := c.OnlyCode()
		for _, k := range kinds[1:] {
			if k != kinds[0] {
				t.Fatalf("chunk %d mixes code and prose: %v", i, kinds)
			}
		}
	}
}

func TestChunkByWordCount_OverlapSkippedAcrossTransition(t *testing.T) {
	units := []doctree.Unit{prose("p0", 5), code("c1", 5)}
	chunks := mustChunk(t, units, Config{MinWords: 5, OverlapWords: 3})
	want := [][]string{{"p0"}, {"c1"}}
	if got := components(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestChunkByWordCount_OverlapStopsAtTransition(t *testing.T) {
	units := []doctree.Unit{code("c0", 2), prose("p1", 2), prose("p2", 2), prose("p3", 2)}
	chunks := mustChunk(t, units, Config{MinWords: 4, OverlapWords: 10})
	want := [][]string{{"c0"}, {"p1", "p2"}, {"p1", "p2", "p3"}}
	if got := components(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestChunkByWordCount_RemoveCodeSections(t *testing.T) {
	units := []doctree.Unit{prose("p0", 3), code("```big```", 10), prose("p2", 3)}
	chunks := mustChunk(t, units, Config{MinWords: 5, CodeBehavior: RemoveCodeSections})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "p0 p2" {
		t.Errorf("expected code dropped from text, got %q", chunks[0].Text)
	}
	if len(chunks[0].Units) != 3 {
		t.Errorf("expected code kept in components, got %d components", len(chunks[0].Units))
	}
}

func TestChunkByWordCount_RemoveOverlapCountsProseOnly(t *testing.T) {
	units := []doctree.Unit{prose("p0", 3), code("c1", 9), prose("p2", 3), prose("p3", 3)}
	chunks := mustChunk(t, units, Config{MinWords: 3, OverlapWords: 4, CodeBehavior: RemoveCodeSections})

	// After p2 closes, the walk passes c1 (not counted) and stops at p0.
	want := [][]string{{"p0"}, {"p0", "c1", "p2"}, {"p0", "c1", "p2", "p3"}}
	if got := components(chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestChunkByWordCount_RendersHeadingTitles(t *testing.T) {
	units := []doctree.Unit{
		titled(prose("p0", 1), "A"),
		titled(code("```x```", 1), "A"),
		titled(prose("p2", 1), "B"),
	}
	chunks := mustChunk(t, units, Config{MinWords: 100, CodeBehavior: IgnoreCodeBoundaries})
	want := "A\np0 ```x```\n\nB\np2"
	if chunks[0].Text != want {
		t.Errorf("expected %q, got %q", want, chunks[0].Text)
	}
}

func TestChunkByWordCount_MonotonicInMinimum(t *testing.T) {
	counts := []int{4, 1, 7, 2, 2, 9, 3, 1, 5, 6, 2, 8}
	var units []doctree.Unit
	for i, n := range counts {
		if i%4 == 3 {
			units = append(units, code("c", n))
		} else {
			units = append(units, prose("p", n))
		}
	}
	for _, b := range CodeBehaviors {
		prev := len(units) + 1
		for min := 1; min <= 30; min++ {
			chunks := mustChunk(t, units, Config{MinWords: min, CodeBehavior: b})
			if len(chunks) > prev {
				t.Fatalf("%s: min %d produced %d chunks, more than %d at min %d", b, min, len(chunks), prev, min-1)
			}
			prev = len(chunks)
		}
	}
}

func TestChunkByWordCount_ComponentsRoundTrip(t *testing.T) {
	counts := []int{4, 1, 7, 2, 2, 9, 3, 1, 5, 6, 2, 8}
	var units []doctree.Unit
	index := map[string]int{}
	for i, n := range counts {
		if i%4 == 3 {
			units = append(units, code(fmt.Sprintf("```c%d```", i), n))
		} else {
			units = append(units, prose(fmt.Sprintf("p%d", i), n))
		}
		index[units[i].Text] = i
	}

	for _, b := range CodeBehaviors {
		for min := 1; min <= 30; min++ {
			for _, overlap := range []int{0, 3} {
				chunks := mustChunk(t, units, Config{MinWords: min, OverlapWords: overlap, CodeBehavior: b})
				var joined []string
				for ci, c := range chunks {
					comps := c.TextComponents()
					start := index[comps[0]]
					for k, text := range comps {
						if text != units[start+k].Text {
							t.Fatalf("%s min=%d overlap=%d chunk %d: expected contiguous units from %d, got %v", b, min, overlap, ci, start, comps)
						}
					}
					if overlap == 0 {
						joined = append(joined, comps...)
					}
				}
				last := chunks[len(chunks)-1].TextComponents()
				if last[len(last)-1] != units[len(units)-1].Text {
					t.Fatalf("%s min=%d overlap=%d: expected last unit to close the final chunk, got %v", b, min, overlap, last)
				}
				if overlap == 0 && !reflect.DeepEqual(joined, textsOf(units)) {
					t.Fatalf("%s min=%d: expected components to rebuild the input, got %v", b, min, joined)
				}
			}
		}
	}
}

func textsOf(units []doctree.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Text
	}
	return out
}

func TestChunkByWordCount_MetadataCopiedPerChunk(t *testing.T) {
	units := []doctree.Unit{prose("a", 1), prose("b", 1)}
	chunks := mustChunk(t, units, Config{MinWords: 1, Metadata: map[string]any{"source": "x"}})
	chunks[0].Metadata["source"] = "changed"
	if chunks[1].Metadata["source"] != "x" {
		t.Errorf("expected independent metadata, got %v", chunks[1].Metadata["source"])
	}
}

func TestChunkByWordCount_Errors(t *testing.T) {
	var cfgErr *chunkerr.ConfigError

	_, err := ChunkByWordCount([]doctree.Unit{prose("a", 1)}, Config{CodeBehavior: "sometimes"})
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for unknown behavior, got %v", err)
	}

	bare := []doctree.Unit{{Text: "a", Meta: doctree.UnitMeta{Fields: doctree.FieldCodeFlags}}}
	_, err = ChunkByWordCount(bare, Config{MinWords: 3})
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for missing word counts, got %v", err)
	}

	chunks, err := ChunkByWordCount(nil, Config{MinWords: 3})
	if err != nil || chunks != nil {
		t.Fatalf("expected no chunks and no error, got %v, %v", chunks, err)
	}
}

func TestParseCodeBehavior(t *testing.T) {
	b, err := ParseCodeBehavior("IGNORE_Code_Boundaries", RespectCodeBoundaries)
	if err != nil || b != IgnoreCodeBoundaries {
		t.Errorf("expected %s, got %s (%v)", IgnoreCodeBoundaries, b, err)
	}
	b, err = ParseCodeBehavior("", IgnoreCodeBoundaries)
	if err != nil || b != IgnoreCodeBoundaries {
		t.Errorf("expected default, got %s (%v)", b, err)
	}
	if _, err := ParseCodeBehavior("strict", RespectCodeBoundaries); err == nil || !strings.Contains(err.Error(), "strict") {
		t.Errorf("expected error naming the value, got %v", err)
	}
}
