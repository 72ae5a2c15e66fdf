package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/nlp"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/strategy"
)

func newSectionsCmd() *cobra.Command {
	var inputType string
	var title string

	cmd := &cobra.Command{
		Use:   "sections FILE",
		Short: "Print the heading sections of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg := config.Load()

			var body string
			var t strategy.InputType
			if inputType != "" {
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				body, t = string(b), strategy.InputType(strings.ToLower(inputType))
			} else {
				doc, err := parser.Load(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
				if err != nil {
					return err
				}
				body, t = doc.Body, doc.InputType
				if title == "" {
					title = doc.Title
				}
			}

			var opts strategy.Options
			if title != "" {
				opts.Metadata = map[string]any{doctree.KeyDocumentTitle: title}
			}
			secs, err := strategy.Sections(body, t, nlp.New(), opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			newLogger(cmd).Debug("extracted sections", "file", path, "sections", len(secs))
			return writeJSON(cmd, secs)
		},
	}

	cmd.Flags().StringVarP(&inputType, "input-type", "t", "", "Read the file verbatim as html or markdown")
	cmd.Flags().StringVar(&title, "title", "", "Title for the untitled leading section")

	return cmd
}
