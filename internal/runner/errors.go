package runner

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/google/go-cmp/cmp"
)

var (
	// ErrNoSolutionSets is reported when a run finishes without executing a
	// single combo, which happens when a constraint hands back an empty
	// choice list.
	ErrNoSolutionSets = errors.New("no solution set was executed")

	// ErrRunnerBusy is reported when Run is called on a Runner that is
	// already executing a scenario.
	ErrRunnerBusy = errors.New("runner is already executing a scenario")

	// ErrInvalidScenario is reported when a scenario is missing a callback.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// AssertionError is a property failure carrying the compared values.
//
// When Actual and Expected differ the runner attaches them to the Result
// as a Diff.
type AssertionError struct {
	Message  string
	Actual   any
	Expected any

	stack string
}

// NewAssertionError creates an AssertionError and captures the caller's stack.
func NewAssertionError(message string, actual, expected any) *AssertionError {
	return &AssertionError{
		Message:  message,
		Actual:   actual,
		Expected: expected,
		stack:    string(debug.Stack()),
	}
}

// AssertEqual returns nil when actual equals expected and an AssertionError
// otherwise.
func AssertEqual(actual, expected any, message string) error {
	if equal(actual, expected) {
		return nil
	}
	return NewAssertionError(message, actual, expected)
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	if e.Message != "" {
		buf.WriteString(e.Message)
	} else {
		buf.WriteString("assertion failed")
	}
	fmt.Fprintf(&buf, ": expected %v, actual %v", e.Expected, e.Actual)
	return buf.String()
}

// StackTrace returns the stack captured when the error was created.
func (e *AssertionError) StackTrace() string {
	return e.stack
}

// CheckError reports a constraint that rejected a combo during
// re-validation.
type CheckError struct {
	// Constraint is the position of the constraint in the scenario.
	Constraint int

	// Name is the constraint's String() form, if it has one.
	Name string

	Err error
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("constraint %d (%s) not satisfied: %v", e.Constraint, e.Name, e.Err)
	}
	return fmt.Sprintf("constraint %d not satisfied: %v", e.Constraint, e.Err)
}

// Unwrap returns the underlying check failure.
func (e *CheckError) Unwrap() error {
	return e.Err
}

// PanicError is a panic recovered from scenario code.
type PanicError struct {
	Value any
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// StackTrace returns the goroutine stack at the point of the panic.
func (e *PanicError) StackTrace() string {
	return e.Stack
}

// IsAssertionError returns true if err wraps an AssertionError.
func IsAssertionError(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// IsCheckError returns true if err wraps a CheckError.
func IsCheckError(err error) bool {
	var ce *CheckError
	return errors.As(err, &ce)
}

// protect runs fn and converts a panic into a PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}

// equal compares with go-cmp. Values cmp refuses to inspect (structs with
// unexported fields) are compared by their Go-syntax rendering.
func equal(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
		}
	}()
	return cmp.Equal(a, b)
}
