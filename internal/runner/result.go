package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
)

// Result is the outcome of one scenario run.
type Result struct {
	// Base is the base fork the runner was built for.
	Base string

	// File is the scenario's source identifier, or its name.
	File string

	Scenario string

	// GasUsed is the mean cumulative gas over the solution sets that ran.
	// Zero when none ran.
	GasUsed float64

	// NumSolutionSets counts the combos whose property succeeded.
	NumSolutionSets int

	Elapsed time.Duration

	// Err is nil when every combo passed.
	Err error

	// Trace is the stack or error chain behind Err.
	Trace string

	// Diff is set when Err is an AssertionError with differing values.
	Diff *Diff

	// Combo identifies the combo that failed, if one did.
	Combo *ComboRef
}

// Diff holds the compared values of a failed assertion.
type Diff struct {
	Actual   any    `json:"actual"`
	Expected any    `json:"expected"`
	Text     string `json:"text,omitempty"` // cmp.Diff(Expected, Actual)
}

// ComboRef locates a combo in the enumeration.
type ComboRef struct {
	// Index is the combo's position in enumeration order, from zero.
	Index int `json:"index"`

	// Choices holds the chosen solution index for every choice group.
	// Choices[0] is the implicit identity group and is always zero;
	// Choices[i+1] belongs to the scenario's i-th constraint.
	Choices []int `json:"choices"`
}

// Passed reports whether the scenario succeeded.
func (r Result) Passed() bool {
	return r.Err == nil
}

type resultJSON struct {
	Base            string    `json:"base"`
	File            string    `json:"file"`
	Scenario        string    `json:"scenario"`
	GasUsed         float64   `json:"gasUsed"`
	NumSolutionSets int       `json:"numSolutionSets"`
	Elapsed         float64   `json:"elapsed"`
	Error           *string   `json:"error"`
	Trace           *string   `json:"trace"`
	Diff            *Diff     `json:"diff"`
	Combo           *ComboRef `json:"combo,omitempty"`
}

// MarshalJSON encodes the result with elapsed time in milliseconds and the
// error as its message.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Base:            r.Base,
		File:            r.File,
		Scenario:        r.Scenario,
		GasUsed:         r.GasUsed,
		NumSolutionSets: r.NumSolutionSets,
		Elapsed:         Milliseconds(r.Elapsed),
		Diff:            r.Diff,
		Combo:           r.Combo,
	}
	if r.Err != nil {
		msg := r.Err.Error()
		out.Error = &msg
		trace := r.Trace
		out.Trace = &trace
	}
	return json.Marshal(out)
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// aggregate fills in the outcome fields of res.
func aggregate(res Result, t tally, ref *ComboRef, err error, elapsed time.Duration) Result {
	res.NumSolutionSets = t.solutionSets
	if t.solutionSets > 0 {
		res.GasUsed = float64(t.gas) / float64(t.solutionSets)
	}
	res.Elapsed = elapsed

	if err == nil {
		return res
	}

	res.Err = err
	res.Trace = traceOf(err)
	res.Diff = diffOf(err)
	res.Combo = ref
	return res
}

// diffOf extracts the compared values from an assertion failure. Equal
// values produce no diff.
func diffOf(err error) *Diff {
	var ae *AssertionError
	if !errors.As(err, &ae) {
		return nil
	}
	if equal(ae.Actual, ae.Expected) {
		return nil
	}
	return &Diff{
		Actual:   ae.Actual,
		Expected: ae.Expected,
		Text:     diffText(ae.Expected, ae.Actual),
	}
}

func diffText(expected, actual any) (text string) {
	defer func() {
		if recover() != nil {
			text = fmt.Sprintf("- %#v\n+ %#v\n", expected, actual)
		}
	}()
	return cmp.Diff(expected, actual)
}

// traceOf returns the first captured stack in err's chain. Errors without
// one are rendered as their wrap chain, outermost first.
func traceOf(err error) string {
	var st interface{ StackTrace() string }
	if errors.As(err, &st) {
		if s := st.StackTrace(); s != "" {
			return s
		}
	}

	var buf strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&buf, "%T: %s\n", e, e.Error())
	}
	return buf.String()
}
