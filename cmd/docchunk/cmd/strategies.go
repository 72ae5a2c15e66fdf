package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/strategy"
)

func newStrategiesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List chunking strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := strategy.List()
			if jsonOutput {
				return writeJSON(cmd, infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STRATEGY\tINPUT TYPES\tCODE BEHAVIOR\tDESCRIPTION")
			for _, info := range infos {
				inputs := make([]string, len(info.Inputs))
				for i, in := range info.Inputs {
					inputs[i] = string(in)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Name, strings.Join(inputs, ","), info.DefaultCodeBehavior, info.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
