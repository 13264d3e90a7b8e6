package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/gauntlet/internal/world"
)

// solveAll asks every constraint for its solutions and returns the choice
// groups for the combo generator.
//
// Group 0 is always [Identity], so the unmodified context is exercised
// first. Group i+1 belongs to constraints[i]. Constraints are solved
// concurrently against the same base context; the first failure cancels
// the others.
func solveAll[T, U any](
	ctx context.Context,
	constraints []Constraint[T, U],
	req U,
	base T,
	w world.World,
) ([][]Solution[T], error) {
	groups := make([][]Solution[T], len(constraints)+1)
	groups[0] = []Solution[T]{Identity[T]()}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range constraints {
		g.Go(func() error {
			err := protect(func() error {
				sols, err := c.Solve(gctx, req, base, w)
				if err != nil {
					return err
				}
				groups[i+1] = sols.normalize()
				return nil
			})
			if err != nil {
				return fmt.Errorf("solve constraint %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}
