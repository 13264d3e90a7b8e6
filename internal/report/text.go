package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/gauntlet/internal/runner"
)

// Summary counts outcomes over a set of results.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Summarize tallies results.
func Summarize(results []runner.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// String renders the summary line printed after a run.
func (s Summary) String() string {
	return fmt.Sprintf("%d scenarios, %d passed, %d failed", s.Total, s.Passed, s.Failed)
}

// WriteText writes one block per result followed by the summary line.
// Traces are included only when withTrace is set.
func WriteText(w io.Writer, results []runner.Result, withTrace bool) error {
	var b strings.Builder
	for _, r := range results {
		writeResultText(&b, r, withTrace)
	}
	b.WriteString(Summarize(results).String())
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func writeResultText(b *strings.Builder, r runner.Result, withTrace bool) {
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(b, "%s %s (%s) base=%s sets=%d gas=%.2f elapsed=%.3fms\n",
		status, r.Scenario, r.File, r.Base, r.NumSolutionSets, r.GasUsed, runner.Milliseconds(r.Elapsed))

	if r.Passed() {
		return
	}

	fmt.Fprintf(b, "  error: %v\n", r.Err)
	if r.Combo != nil {
		fmt.Fprintf(b, "  combo: #%d choices=%v\n", r.Combo.Index, r.Combo.Choices)
	}
	if r.Diff != nil {
		fmt.Fprintf(b, "  expected: %v\n  actual:   %v\n", r.Diff.Expected, r.Diff.Actual)
		if r.Diff.Text != "" {
			b.WriteString("  diff:\n")
			writeIndented(b, r.Diff.Text, "    ")
		}
	}
	if withTrace && r.Trace != "" {
		b.WriteString("  trace:\n")
		writeIndented(b, r.Trace, "    ")
	}
}

func writeIndented(b *strings.Builder, text, indent string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
}
