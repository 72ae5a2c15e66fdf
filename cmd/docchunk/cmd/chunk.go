package cmd

import (
	"fmt"
	"maps"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/nlp"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/strategy"
)

type chunkFlags struct {
	strategy       string
	inputType      string
	minWords       int
	overlapWords   int
	codeBehavior   string
	delimiter      string
	meta           []string
	title          string
	request        string
	keepLineBreaks bool
	jobs           int
}

// fileResult is the output for one file when several are chunked at once.
type fileResult struct {
	File   string          `json:"file"`
	Chunks []doctree.Chunk `json:"chunks"`
}

func newChunkCmd() *cobra.Command {
	var f chunkFlags

	cmd := &cobra.Command{
		Use:   "chunk [FILE...]",
		Short: "Chunk one or more files",
		Long: `Chunk files and print the chunks as JSON.

The input type is taken from the file extension unless --input-type is set,
in which case the file is read verbatim. With --request, a YAML or JSON
request file carrying the full request (strategy, input_type, input_str, ...)
is run instead of files.`,
		Example: `  docchunk chunk README.md
  docchunk chunk --strategy sentence --min-words 50 --overlap-words 10 notes.txt
  docchunk chunk --meta source=wiki --title "Runbook" page.html
  docchunk chunk --request request.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunk(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "Chunking strategy (default depends on the input type)")
	cmd.Flags().StringVarP(&f.inputType, "input-type", "t", "", "Read files verbatim as text, html or markdown")
	cmd.Flags().IntVar(&f.minWords, "min-words", 0, "Minimum words per chunk")
	cmd.Flags().IntVar(&f.overlapWords, "overlap-words", 0, "Words carried over from the previous chunk")
	cmd.Flags().StringVar(&f.codeBehavior, "code-behavior", "", "respect_code_boundaries, ignore_code_boundaries or remove_code_sections")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", `Paragraph delimiter, escapes allowed (default "\n")`)
	cmd.Flags().StringArrayVar(&f.meta, "meta", nil, "Metadata key=value added to every chunk (repeatable)")
	cmd.Flags().StringVar(&f.title, "title", "", "Document title used for untitled leading sections")
	cmd.Flags().StringVar(&f.request, "request", "", "Run a YAML or JSON request file")
	cmd.Flags().BoolVar(&f.keepLineBreaks, "keep-line-breaks", false, "Do not unwrap hard-wrapped lines in .txt files")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", runtime.NumCPU(), "Files chunked in parallel")

	return cmd
}

func runChunk(cmd *cobra.Command, args []string, f chunkFlags) error {
	log := newLogger(cmd)
	cfg := config.Load()
	an := nlp.New()

	if f.request != "" {
		if len(args) > 0 {
			return fmt.Errorf("--request cannot be combined with files")
		}
		req, err := loadRequest(f.request)
		if err != nil {
			return err
		}
		if req.ParagraphDelimiter == "" {
			req.ParagraphDelimiter = cfg.ParagraphDelimiter
		}
		chunks, err := strategy.Run(req, an)
		if err != nil {
			return fmt.Errorf("%s: %w", f.request, err)
		}
		log.Debug("chunked request", "file", f.request, "strategy", req.Strategy, "chunks", len(chunks))
		return writeJSON(cmd, chunks)
	}

	if len(args) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	meta, err := parseMeta(f.meta)
	if err != nil {
		return err
	}

	results := make([]fileResult, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(f.jobs, 1))
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			req, err := buildRequest(path, f, cfg, meta)
			if err != nil {
				return err
			}
			start := time.Now()
			chunks, err := strategy.Run(req, an)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Debug("chunked file",
				"file", path,
				"strategy", req.Strategy,
				"input_type", req.InputType,
				"chunks", len(chunks),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			results[i] = fileResult{File: path, Chunks: chunks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(results) == 1 {
		return writeJSON(cmd, results[0].Chunks)
	}
	return writeJSON(cmd, results)
}

// buildRequest loads path and turns it into a request using the flags.
func buildRequest(path string, f chunkFlags, cfg config.Config, meta map[string]any) (strategy.Request, error) {
	var (
		body  string
		t     strategy.InputType
		title string
	)
	if f.inputType != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return strategy.Request{}, err
		}
		body = string(b)
		t = strategy.InputType(strings.ToLower(f.inputType))
	} else {
		doc, err := parser.Load(path, parser.Options{
			PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
			KeepLineBreaks:       f.keepLineBreaks,
		})
		if err != nil {
			return strategy.Request{}, err
		}
		body, t, title = doc.Body, doc.InputType, doc.Title
	}

	name := f.strategy
	if name == "" {
		name = string(strategy.DefaultFor(t))
	}
	delimiter := cfg.ParagraphDelimiter
	if f.delimiter != "" {
		delimiter = unescape(f.delimiter)
	}

	md := maps.Clone(meta)
	if f.title != "" {
		title = f.title
	}
	if title != "" {
		if md == nil {
			md = map[string]any{}
		}
		md[doctree.KeyDocumentTitle] = title
	}

	return strategy.Request{
		Strategy:           name,
		InputType:          string(t),
		InputStr:           body,
		ChunkMinWords:      f.minWords,
		ChunkOverlapWords:  f.overlapWords,
		CodeBehavior:       f.codeBehavior,
		ParagraphDelimiter: delimiter,
		AdditionalMetadata: md,
	}, nil
}

func parseMeta(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("--meta %q: expected key=value", p)
		}
		meta[k] = v
	}
	return meta, nil
}

// loadRequest reads a request file. JSON is accepted as YAML.
func loadRequest(path string) (strategy.Request, error) {
	var req strategy.Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parse request %s: %w", path, err)
	}
	return req, nil
}
