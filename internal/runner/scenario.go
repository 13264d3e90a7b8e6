package runner

import (
	"context"
	"fmt"

	"github.com/roach88/gauntlet/internal/world"
)

// Receipt is the optional value a property returns. Its cumulative gas is
// folded into the scenario's mean gas figure.
type Receipt interface {
	CumulativeGasUsed() uint64
}

// Gas is a Receipt carrying only a gas figure.
type Gas uint64

// CumulativeGasUsed implements Receipt.
func (g Gas) CumulativeGasUsed() uint64 { return uint64(g) }

// Solution adjusts a context (and possibly the world) so that one
// constraint holds.
//
// A solution either mutates c in place and returns replaced == false, or
// returns a new context with replaced == true.
type Solution[T any] func(ctx context.Context, c T, w world.World) (next T, replaced bool, err error)

// Identity returns the solution that changes nothing.
func Identity[T any]() Solution[T] {
	return func(_ context.Context, _ T, _ world.World) (T, bool, error) {
		var zero T
		return zero, false, nil
	}
}

// Mutate builds a solution that works on the context in place.
func Mutate[T any](fn func(ctx context.Context, c T, w world.World) error) Solution[T] {
	return func(ctx context.Context, c T, w world.World) (T, bool, error) {
		var zero T
		return zero, false, fn(ctx, c, w)
	}
}

// Replace builds a solution that produces a new context.
func Replace[T any](fn func(ctx context.Context, c T, w world.World) (T, error)) Solution[T] {
	return func(ctx context.Context, c T, w world.World) (T, bool, error) {
		next, err := fn(ctx, c, w)
		if err != nil {
			var zero T
			return zero, false, err
		}
		return next, true, nil
	}
}

type solutionsKind int

const (
	kindNone solutionsKind = iota
	kindSingle
	kindChoices
)

// Solutions is what a constraint's Solve hands back: nothing, a single
// solution, or a list of alternative solutions. The zero value is
// NoSolution.
type Solutions[T any] struct {
	kind solutionsKind
	list []Solution[T]
}

// NoSolution reports that the constraint needs no adjustment.
func NoSolution[T any]() Solutions[T] {
	return Solutions[T]{kind: kindNone}
}

// Single reports exactly one way to satisfy the constraint.
func Single[T any](s Solution[T]) Solutions[T] {
	return Solutions[T]{kind: kindSingle, list: []Solution[T]{s}}
}

// Choices reports alternative ways to satisfy the constraint; each is tried
// in its own combo. An empty list means the constraint cannot be satisfied
// and no combo runs.
func Choices[T any](s ...Solution[T]) Solutions[T] {
	return Solutions[T]{kind: kindChoices, list: s}
}

// Group returns the choice group s contributes to the combo space. A
// NoSolution contributes the single Identity solution.
func (s Solutions[T]) Group() []Solution[T] {
	return s.normalize()
}

// normalize turns s into the ordered choice group fed to the combo
// generator. Nil entries become Identity.
func (s Solutions[T]) normalize() []Solution[T] {
	if s.kind == kindNone {
		return []Solution[T]{Identity[T]()}
	}

	out := make([]Solution[T], len(s.list))
	for i, sol := range s.list {
		if sol == nil {
			sol = Identity[T]()
		}
		out[i] = sol
	}
	return out
}

// Constraint is a precondition over a context and the world.
//
// Solve must not mutate the context or the world: the runner calls Solve
// for every constraint concurrently. Check is the authoritative gate and
// runs after a combo's solutions have been applied.
type Constraint[T, U any] interface {
	Solve(ctx context.Context, req U, c T, w world.World) (Solutions[T], error)
	Check(ctx context.Context, req U, c T, w world.World) error
}

// ConstraintFuncs adapts plain functions to Constraint.
// A nil SolveFunc solves to NoSolution; a nil CheckFunc always passes.
type ConstraintFuncs[T, U any] struct {
	Name      string
	SolveFunc func(ctx context.Context, req U, c T, w world.World) (Solutions[T], error)
	CheckFunc func(ctx context.Context, req U, c T, w world.World) error
}

// Solve implements Constraint.
func (f ConstraintFuncs[T, U]) Solve(ctx context.Context, req U, c T, w world.World) (Solutions[T], error) {
	if f.SolveFunc == nil {
		return NoSolution[T](), nil
	}
	return f.SolveFunc(ctx, req, c, w)
}

// Check implements Constraint.
func (f ConstraintFuncs[T, U]) Check(ctx context.Context, req U, c T, w world.World) error {
	if f.CheckFunc == nil {
		return nil
	}
	return f.CheckFunc(ctx, req, c, w)
}

// String returns the constraint name.
func (f ConstraintFuncs[T, U]) String() string {
	return f.Name
}

// Scenario is an immutable test definition.
//
// T is the context built by Initializer and threaded through solutions.
// U is the requirements value handed to constraints. V is what Transformer
// derives from the context for the property.
type Scenario[T, U, V any] struct {
	// Name identifies the scenario in results.
	Name string

	// File is the scenario's source identifier; results fall back to Name.
	File string

	Requirements U

	// Initializer builds the base context. It may mutate the world; the
	// runner snapshots the world right after it returns.
	Initializer func(ctx context.Context, w world.World) (T, error)

	// Forker deep-copies a context so solutions can mutate it freely.
	Forker func(c T) T

	// Transformer adapts the context for the property call.
	Transformer func(c T) V

	// Property is the behaviour under test. A nil Receipt is valid.
	Property func(ctx context.Context, v V, w world.World, c T) (Receipt, error)

	// Constraints are solved and checked in declaration order.
	Constraints []Constraint[T, U]
}

// Runnable is implemented by every Scenario instantiation.
type Runnable interface {
	identity() (name, file string)
	execute(ctx context.Context, r *Runner) (tally, *ComboRef, error)
}

func (s Scenario[T, U, V]) identity() (string, string) {
	return s.Name, s.File
}

func (s Scenario[T, U, V]) validate() error {
	switch {
	case s.Initializer == nil:
		return fmt.Errorf("%w: initializer is required", ErrInvalidScenario)
	case s.Forker == nil:
		return fmt.Errorf("%w: forker is required", ErrInvalidScenario)
	case s.Transformer == nil:
		return fmt.Errorf("%w: transformer is required", ErrInvalidScenario)
	case s.Property == nil:
		return fmt.Errorf("%w: property is required", ErrInvalidScenario)
	}
	for i, c := range s.Constraints {
		if c == nil {
			return fmt.Errorf("%w: constraint %d is nil", ErrInvalidScenario, i)
		}
	}
	return nil
}

func constraintName(c any) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}
