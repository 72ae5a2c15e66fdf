package strategy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/dgallion1/docchunk/internal/chunkerr"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/nlp"
)

// Request is one chunking call as accepted over HTTP and from request files.
type Request struct {
	Strategy           string         `json:"strategy" yaml:"strategy"`
	InputType          string         `json:"input_type" yaml:"input_type"`
	InputStr           string         `json:"input_str" yaml:"input_str"`
	InputUnits         []string       `json:"input_units,omitempty" yaml:"input_units,omitempty"`
	ChunkMinWords      int            `json:"chunk_min_words" yaml:"chunk_min_words"`
	ChunkOverlapWords  int            `json:"chunk_overlap_words" yaml:"chunk_overlap_words"`
	CodeBehavior       string         `json:"code_behavior,omitempty" yaml:"code_behavior,omitempty"`
	ParagraphDelimiter string         `json:"paragraph_delimiter,omitempty" yaml:"paragraph_delimiter,omitempty"`
	AdditionalMetadata map[string]any `json:"additional_metadata,omitempty" yaml:"additional_metadata,omitempty"`
}

// Options returns the chunking parameters carried by the request.
func (r Request) Options() Options {
	return Options{
		MinWords:           r.ChunkMinWords,
		OverlapWords:       r.ChunkOverlapWords,
		CodeBehavior:       r.CodeBehavior,
		ParagraphDelimiter: r.ParagraphDelimiter,
		Metadata:           r.AdditionalMetadata,
	}
}

// Run executes the request. Pre-split input_units bypass extraction, so
// strategy and input_type are not consulted for them.
func Run(r Request, an nlp.Analyzer) ([]doctree.Chunk, error) {
	if len(r.InputUnits) > 0 {
		if r.InputStr != "" {
			return nil, chunkerr.Configf("input_str and input_units cannot both be set")
		}
		return ChunkUnits(r.InputUnits, nil, an, r.Options())
	}
	return Chunk(r.Strategy, r.InputType, r.InputStr, an, r.Options())
}

// Key returns a digest identifying the request's content. Map keys are
// sorted by encoding/json, so equal requests hash equally.
func (r Request) Key() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
