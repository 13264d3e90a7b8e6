// Package runner executes combinatorial test scenarios against a
// snapshot-capable world.
//
// A Scenario declares constraints over a context and a world. Each
// constraint offers one or more solutions, which are alternative ways to
// make it hold. The runner tries every combination of solutions (one per
// constraint, plus an implicit identity choice that always comes first),
// re-checks the constraints, and runs the scenario's property under each
// combination.
//
// # Isolation
//
// Two snapshot tiers keep trials independent:
//
//   - The Runner's rolling snapshot resets the world between scenarios.
//   - A per-run context snapshot, taken right after the initializer, resets
//     the world between combos. It is restored after every combo on every
//     exit path, success, failure or panic.
//
// Every combo also starts from a fresh Forker copy of the post-initializer
// context, never from the previous combo's mutated copy.
//
// # Failure
//
// The first combo whose solutions, checks or property fail stops the run.
// Run never returns an error; failures are reported in Result.Err, with a
// Diff when the failure is an AssertionError whose values differ and a
// ComboRef naming the failing combination.
//
// # Example
//
//	r := runner.New("mainnet-fork", w)
//	res := r.Run(ctx, runner.Scenario[*Ctx, Req, *Ctx]{
//	    Name:        "transfer",
//	    Initializer: initCtx,
//	    Forker:      (*Ctx).Clone,
//	    Transformer: func(c *Ctx) *Ctx { return c },
//	    Property:    transfer,
//	    Constraints: []runner.Constraint[*Ctx, Req]{funded, notFrozen},
//	})
//	if !res.Passed() {
//	    log.Println(res.Err, res.Diff)
//	}
package runner
