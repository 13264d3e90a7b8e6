package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gauntlet/internal/ledger"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered scenarios",
		Long: `List the scenario names a suite file may reference.

Examples:
  gauntlet list
  gauntlet list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}

			names := ledger.Names()
			if formatter.Format == "json" {
				return formatter.Success(names)
			}
			return formatter.Success(strings.Join(names, "\n"))
		},
	}
}
