package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/gauntlet/internal/ledger"
	"github.com/roach88/gauntlet/internal/metrics"
	"github.com/roach88/gauntlet/internal/report"
	"github.com/roach88/gauntlet/internal/runner"
	"github.com/roach88/gauntlet/internal/store"
	"github.com/roach88/gauntlet/internal/suite"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Database overrides the suite's database path.
	Database string

	// MetricsFile overrides the suite's metrics file.
	MetricsFile string

	// Trace includes failure traces in text output.
	Trace bool

	// IDGenerator overrides snapshot handle and result ID generation (for
	// testing). If nil, the store's UUIDv7 default is used.
	IDGenerator store.IDGenerator

	// Clock overrides the runner's wall clock (for testing).
	Clock func() time.Time
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Results []json.RawMessage `json:"results"`
	Total   int               `json:"total"`
	Passed  int               `json:"passed"`
	Failed  int               `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <suite.yaml>",
		Short: "Run the scenarios listed in a suite file",
		Long: `Run every scenario named in a suite file against a SQLite world.

Each scenario is expanded into all combinations of its constraint
solutions. Results are printed, appended to the database's result log,
and, when a metrics file is configured, exported as Prometheus metrics.
The world is restored to its pre-run state afterwards.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (bad suite file, unknown scenario, database error)

Examples:
  gauntlet run suite.yaml
  gauntlet run suite.yaml --db /tmp/world.db --format json
  gauntlet run suite.yaml --trace --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path (overrides the suite)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Prometheus textfile path (overrides the suite)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include failure traces in text output")

	return cmd
}

// newLogger builds the text logger used by long-running commands. Debug
// output is enabled by --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

func runSuite(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	s, err := suite.Load(path)
	if err != nil {
		return formatter.commandError(ExitCommandError, CodeSuite, "failed to load suite", err)
	}
	if opts.Database != "" {
		s.Database = opts.Database
	}
	if opts.MetricsFile != "" {
		s.MetricsFile = opts.MetricsFile
	}

	// Resolve every scenario before touching the database.
	scenarios := make([]runner.Runnable, 0, len(s.Scenarios))
	for _, e := range s.Scenarios {
		sc, err := ledger.Lookup(e.Name, ledger.Requirements{Amount: e.Amount})
		if err != nil {
			return formatter.commandError(ExitCommandError, CodeScenario, "unknown scenario", err)
		}
		scenarios = append(scenarios, sc)
	}

	var storeOpts []store.Option
	if opts.IDGenerator != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDGenerator))
	}
	formatter.VerboseLog("Opening database %s", s.Database)
	st, err := store.Open(s.Database, storeOpts...)
	if err != nil {
		return formatter.commandError(ExitCommandError, CodeStore, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := execute(ctx, opts, s, st, scenarios, logger)
	if err != nil {
		return formatter.commandError(ExitCommandError, CodeStore, "failed to record results", err)
	}

	summary := report.Summarize(results)
	if err := writeResults(formatter, results, opts.Trace); err != nil {
		return err
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, summary.String())
	}
	return nil
}

// execute runs the scenarios in order on one runner, persisting each
// result. The world is reverted to its pre-run state before returning.
func execute(
	ctx context.Context,
	opts *RunOptions,
	s *suite.Suite,
	st *store.Store,
	scenarios []runner.Runnable,
	logger *slog.Logger,
) (results []runner.Result, err error) {
	start, err := st.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot world: %w", err)
	}
	defer func() {
		if rerr := st.Revert(context.WithoutCancel(ctx), start); rerr != nil {
			logger.Error("failed to restore world", "error", rerr)
		}
	}()

	collector := metrics.New()
	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithRecorder(collector),
	}
	if opts.Clock != nil {
		runnerOpts = append(runnerOpts, runner.WithClock(opts.Clock))
	}
	r := runner.New(s.Base, st, runnerOpts...)

	results = make([]runner.Result, 0, len(scenarios))
	for _, sc := range scenarios {
		res := r.Run(ctx, sc)
		results = append(results, res)

		if _, err := st.WriteResult(ctx, res); err != nil {
			return results, err
		}
	}

	if s.MetricsFile != "" {
		if err := collector.WriteTextfile(s.MetricsFile); err != nil {
			return results, err
		}
		logger.Debug("metrics written", "path", s.MetricsFile)
	}
	return results, nil
}

func writeResults(formatter *OutputFormatter, results []runner.Result, withTrace bool) error {
	if formatter.Format != "json" {
		return report.WriteText(formatter.Writer, results, withTrace)
	}

	summary := report.Summarize(results)
	out := RunOutput{
		Results: make([]json.RawMessage, len(results)),
		Total:   summary.Total,
		Passed:  summary.Passed,
		Failed:  summary.Failed,
	}
	for i, res := range results {
		data, err := report.Canonical(res)
		if err != nil {
			return fmt.Errorf("encode %s: %w", res.Scenario, err)
		}
		out.Results[i] = data
	}
	return formatter.Success(out)
}
