package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gauntlet/internal/ledger"
	"github.com/roach88/gauntlet/internal/runner"
	"github.com/roach88/gauntlet/internal/store"
	"github.com/roach88/gauntlet/internal/testutil"
)

// writeSuite writes a suite file into a fresh directory and returns its path.
func writeSuite(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// newTestRunCommand builds a run command with deterministic handles and a
// stepping clock.
func newTestRunCommand(format string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	return newTestRunCommandWithIDs(format, testutil.NewSequentialGenerator("id"))
}

// newTestRunCommandWithIDs is newTestRunCommand with a caller-owned ID
// generator, for runs that share one database.
func newTestRunCommandWithIDs(format string, ids store.IDGenerator) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: format},
		IDGenerator: ids,
		Clock:       testutil.NewStepClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond).Now,
	}

	cmd := newRunCommand(opts)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd, stdout, stderr
}

// registerBroken registers a transfer scenario that never unfreezes the
// recipient.
func registerBroken(t *testing.T) {
	t.Helper()
	err := ledger.Register("broken_transfer", func(req ledger.Requirements) runner.Runnable {
		sc := ledger.TransferScenario(req)
		sc.Name = "broken_transfer"
		sc.Constraints = sc.Constraints[:1]
		return sc
	})
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Unregister("broken_transfer") })
}
