// Package cmd provides the CLI commands for docchunk.
package cmd

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the docchunk CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docchunk",
		Short: "Split documents into word-count-bounded chunks for embedding",
		Long: `docchunk splits text, HTML, markdown and office documents into ordered
chunks annotated with paragraph, sentence, heading and code metadata.

Fenced code blocks are kept whole and, by default, never share a chunk
with prose.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().Bool("pretty", false, "Indent JSON output (default when stdout is a terminal)")

	cmd.AddCommand(newChunkCmd())
	cmd.AddCommand(newSectionsCmd())
	cmd.AddCommand(newStrategiesCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()
	return NewRootCmd().Execute()
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func writeJSON(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty || isTerminal(out) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// unescape turns a shell-typed `\n\n` into real newlines. Anything that is
// not a valid Go string body is returned as typed.
func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
