package chunker

import (
	"maps"
	"strings"

	"github.com/dgallion1/docchunk/internal/chunkerr"
	"github.com/dgallion1/docchunk/internal/doctree"
)

// CodeBehavior selects how fenced code units take part in packing.
type CodeBehavior string

const (
	// RespectCodeBoundaries never mixes code-only and prose units in a chunk.
	RespectCodeBoundaries CodeBehavior = "respect_code_boundaries"
	// IgnoreCodeBoundaries packs code and prose alike.
	IgnoreCodeBoundaries CodeBehavior = "ignore_code_boundaries"
	// RemoveCodeSections keeps code units as components but drops them from
	// the rendered text and from word counts.
	RemoveCodeSections CodeBehavior = "remove_code_sections"
)

// CodeBehaviors lists the supported behaviors.
var CodeBehaviors = []CodeBehavior{RespectCodeBoundaries, IgnoreCodeBoundaries, RemoveCodeSections}

// ParseCodeBehavior maps a case-insensitive name to a CodeBehavior. An empty
// name yields def.
func ParseCodeBehavior(name string, def CodeBehavior) (CodeBehavior, error) {
	if name == "" {
		return def, nil
	}
	b := CodeBehavior(strings.ToLower(name))
	for _, known := range CodeBehaviors {
		if b == known {
			return b, nil
		}
	}
	return "", chunkerr.Configf("code_behavior %s is not supported", name)
}

// Config controls chunking behavior.
type Config struct {
	MinWords     int // Close a chunk once it holds this many words. <= 0 means one chunk per unit.
	OverlapWords int // Words of trailing context repeated at the start of the next chunk.
	CodeBehavior CodeBehavior
	Metadata     map[string]any // Document-level metadata copied onto every chunk.
}

// DefaultConfig returns one chunk per unit, respecting code boundaries.
func DefaultConfig() Config {
	return Config{CodeBehavior: RespectCodeBoundaries}
}

// policy is the packing rule set derived from a CodeBehavior.
type policy struct {
	flushOnTransition bool // a code/prose switch closes the open chunk
	stopAtTransition  bool // overlap never reaches across a code/prose switch
	countCode         bool // code-only units count toward word totals
	renderCode        bool
}

func policyFor(b CodeBehavior) policy {
	switch b {
	case RespectCodeBoundaries:
		return policy{flushOnTransition: true, stopAtTransition: true, countCode: true, renderCode: true}
	case IgnoreCodeBoundaries:
		return policy{countCode: true, renderCode: true}
	default:
		return policy{}
	}
}

// ChunkByWordCount packs units, in order, into chunks of at least
// cfg.MinWords words.
func ChunkByWordCount(units []doctree.Unit, cfg Config) ([]doctree.Chunk, error) {
	behavior, err := ParseCodeBehavior(string(cfg.CodeBehavior), RespectCodeBoundaries)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, nil
	}
	pol := policyFor(behavior)

	if cfg.MinWords <= 0 {
		chunks := make([]doctree.Chunk, len(units))
		for i, u := range units {
			chunks[i] = doctree.Chunk{
				Text:     single(u, pol),
				Units:    []doctree.Unit{u},
				Metadata: maps.Clone(cfg.Metadata),
			}
		}
		return chunks, nil
	}

	if !units[0].Meta.Fields.Has(doctree.FieldWordCount) {
		return nil, chunkerr.Configf("units carry no word_count; chunk_min_words %d needs one", cfg.MinWords)
	}

	groups := pack(units, cfg.MinWords, cfg.OverlapWords, pol)
	chunks := make([]doctree.Chunk, len(groups))
	for i, g := range groups {
		chunks[i] = doctree.Chunk{
			Text:     render(g, pol),
			Units:    g,
			Metadata: maps.Clone(cfg.Metadata),
		}
	}
	return chunks, nil
}

// accumulator is the open chunk of the packing loop.
type accumulator struct {
	units []doctree.Unit
	words int
}

func (a *accumulator) add(u doctree.Unit, words int) {
	a.units = append(a.units, u)
	a.words += words
}

// take returns the open units and resets the accumulator.
func (a *accumulator) take() []doctree.Unit {
	out := a.units
	*a = accumulator{}
	return out
}

func pack(units []doctree.Unit, minWords, overlapWords int, pol policy) [][]doctree.Unit {
	var out [][]doctree.Unit
	var acc accumulator
	last := len(units) - 1
	prevOnlyCode := false

	for i, u := range units {
		onlyCode := u.Meta.OnlyCode
		if pol.flushOnTransition && len(acc.units) > 0 && onlyCode != prevOnlyCode {
			out = append(out, acc.take())
		}

		acc.add(u, pol.words(u))

		if acc.words >= minWords || i == last {
			out = append(out, acc.take())

			// Overlap seeds the next chunk but does not count toward its minimum.
			nextMatches := i < last && (!pol.stopAtTransition || units[i+1].Meta.OnlyCode == onlyCode)
			if overlapWords > 0 && nextMatches {
				acc.units = overlap(units, i, overlapWords, pol)
			}
		}
		prevOnlyCode = onlyCode
	}
	return out
}

// overlap walks back from units[end] collecting units until they hold
// overlapWords words.
func overlap(units []doctree.Unit, end, overlapWords int, pol policy) []doctree.Unit {
	onlyCode := units[end].Meta.OnlyCode
	start := end + 1
	words := 0
	for j := end; j >= 0; j-- {
		if pol.stopAtTransition && units[j].Meta.OnlyCode != onlyCode {
			break
		}
		start = j
		words += pol.words(units[j])
		if words >= overlapWords {
			break
		}
	}
	seed := make([]doctree.Unit, end+1-start)
	copy(seed, units[start:end+1])
	return seed
}

func (p policy) words(u doctree.Unit) int {
	if u.Meta.OnlyCode && !p.countCode {
		return 0
	}
	return u.Meta.WordCount
}

// single renders a unit that forms a chunk on its own.
func single(u doctree.Unit, pol policy) string {
	if u.Meta.OnlyCode && !pol.renderCode {
		return ""
	}
	if title := u.Meta.Title(); title != "" {
		return title + "\n" + u.Text
	}
	return u.Text
}

// render joins components into chunk text. A heading title is written on its
// own line whenever it differs from the last title written.
func render(units []doctree.Unit, pol policy) string {
	var b strings.Builder
	lastTitle := ""
	for _, u := range units {
		if title := u.Meta.Title(); title != "" && title != lastTitle {
			b.WriteString("\n" + title + "\n")
			lastTitle = title
		}
		switch {
		case !u.Meta.OnlyCode:
			b.WriteString(u.Text + " ")
		case pol.renderCode:
			b.WriteString(u.Text + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}
