package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/gauntlet/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Scenario string
}

// HistoryEntry is one stored result in JSON output.
type HistoryEntry struct {
	ID       string          `json:"id"`
	Seq      int64           `json:"seq"`
	Base     string          `json:"base"`
	Scenario string          `json:"scenario"`
	Passed   bool            `json:"passed"`
	Result   json.RawMessage `json:"result"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <database>",
		Short: "Show results recorded by previous runs",
		Long: `Show the result log of a gauntlet database in the order results were
recorded.

Examples:
  gauntlet history gauntlet.db
  gauntlet history gauntlet.db --scenario transfer --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only show results for this scenario")

	return cmd
}

func showHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening would create an empty database.
	if _, err := os.Stat(dbPath); err != nil {
		return formatter.commandError(ExitCommandError, CodeStore, "database not found", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.commandError(ExitCommandError, CodeStore, "failed to open database", err)
	}
	defer st.Close()

	records, err := st.ReadResults(cmd.Context(), opts.Scenario)
	if err != nil {
		return formatter.commandError(ExitCommandError, CodeStore, "failed to read results", err)
	}

	if formatter.Format == "json" {
		entries := make([]HistoryEntry, len(records))
		for i, r := range records {
			entries[i] = HistoryEntry{
				ID:       r.ID,
				Seq:      r.Seq,
				Base:     r.Base,
				Scenario: r.Scenario,
				Passed:   r.Passed,
				Result:   r.Record,
			}
		}
		return formatter.Success(entries)
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No results recorded.")
		return nil
	}
	for _, r := range records {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(formatter.Writer, "%d %s %s base=%s id=%s\n", r.Seq, status, r.Scenario, r.Base, r.ID)
	}
	return nil
}
