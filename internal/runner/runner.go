package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/gauntlet/internal/combo"
	"github.com/roach88/gauntlet/internal/world"
)

const tracerName = "gauntlet.runner"

// Recorder receives run outcomes, typically to feed metrics.
type Recorder interface {
	RecordCombo(scenario string, passed bool)
	RecordScenario(res Result)
}

type nopRecorder struct{}

func (nopRecorder) RecordCombo(string, bool) {}
func (nopRecorder) RecordScenario(Result)    {}

// Runner executes scenarios against one base world.
//
// A Runner is built once per base fork and reused across scenarios. The
// only state it keeps between runs is a rolling world snapshot: the first
// run captures it, every later run reverts to it and captures it again, so
// each scenario starts from the same base state no matter what the previous
// one did.
//
// Thread-safety: Run must not be called concurrently on the same Runner.
// A concurrent call is rejected with ErrRunnerBusy rather than racing on the
// world. Use one Runner per independent world to run scenarios in parallel.
type Runner struct {
	base     string
	world    world.World
	logger   *slog.Logger
	now      func() time.Time
	tracer   trace.Tracer
	recorder Recorder

	busy          atomic.Bool
	worldSnapshot world.Handle
	hasSnapshot   bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithClock sets the wall clock used for elapsed time. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithRecorder sets the outcome recorder. Default: none.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		r.tracer = tp.Tracer(tracerName)
	}
}

// New creates a Runner for the base fork named base, backed by w.
func New(base string, w world.World, opts ...Option) *Runner {
	r := &Runner{
		base:     base,
		world:    w,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
		recorder: nopRecorder{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Base returns the base fork name stamped on every Result.
func (r *Runner) Base() string {
	return r.base
}

// Run executes one scenario and reports its outcome.
//
// Run never returns an error and never panics: every failure, including
// panics in scenario code, ends up in Result.Err.
//
// Execution:
// 1. Reset the world to the rolling snapshot (or take the first one)
// 2. Build the base context and snapshot the world again
// 3. Solve every constraint concurrently
// 4. For each combo: fork, apply, check, run the property, revert
// 5. Stop at the first failing combo; otherwise report mean gas
func (r *Runner) Run(ctx context.Context, s Runnable) Result {
	start := r.now()
	name, file := s.identity()
	if file == "" {
		file = name
	}
	res := Result{Base: r.base, File: file, Scenario: name}

	if !r.busy.CompareAndSwap(false, true) {
		return aggregate(res, tally{}, nil, ErrRunnerBusy, r.now().Sub(start))
	}
	defer r.busy.Store(false)

	ctx, span := r.tracer.Start(ctx, "runner.Run",
		trace.WithAttributes(
			attribute.String("gauntlet.base", r.base),
			attribute.String("gauntlet.scenario", name),
		),
	)
	defer span.End()

	t, ref, err := r.run(ctx, s)
	res = aggregate(res, t, ref, err, r.now().Sub(start))

	span.SetAttributes(
		attribute.Int("gauntlet.combos", t.combos),
		attribute.Int("gauntlet.solution_sets", t.solutionSets),
		attribute.Float64("gauntlet.gas_used", res.GasUsed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("scenario failed",
			"scenario", name,
			"base", r.base,
			"solution_sets", t.solutionSets,
			"elapsed", res.Elapsed,
			"error", err,
		)
	} else {
		r.logger.Info("scenario passed",
			"scenario", name,
			"base", r.base,
			"solution_sets", t.solutionSets,
			"gas_used", res.GasUsed,
			"elapsed", res.Elapsed,
		)
	}

	r.recorder.RecordScenario(res)
	return res
}

func (r *Runner) run(ctx context.Context, s Runnable) (t tally, ref *ComboRef, err error) {
	err = protect(func() error {
		if err := r.resetWorld(ctx); err != nil {
			return fmt.Errorf("reset world: %w", err)
		}
		var runErr error
		t, ref, runErr = s.execute(ctx, r)
		return runErr
	})
	return t, ref, err
}

// resetWorld restores the base state captured by the previous run, or
// captures it on first use.
func (r *Runner) resetWorld(ctx context.Context) error {
	if !r.hasSnapshot {
		h, err := r.world.Snapshot(ctx)
		if err != nil {
			return err
		}
		r.worldSnapshot, r.hasSnapshot = h, true
		return nil
	}

	h, err := r.world.RevertAndSnapshot(ctx, r.worldSnapshot)
	if err != nil {
		// The old handle may already be consumed; start over next time.
		r.hasSnapshot = false
		return err
	}
	r.worldSnapshot = h
	return nil
}

// tally accumulates per-run counters.
type tally struct {
	gas          uint64
	solutionSets int
	combos       int
}

func (s Scenario[T, U, V]) execute(ctx context.Context, r *Runner) (tally, *ComboRef, error) {
	var t tally

	if err := s.validate(); err != nil {
		return t, nil, err
	}

	var base T
	err := protect(func() error {
		var err error
		base, err = s.Initializer(ctx, r.world)
		return err
	})
	if err != nil {
		return t, nil, fmt.Errorf("initialize context: %w", err)
	}

	contextSnapshot, err := r.world.Snapshot(ctx)
	if err != nil {
		return t, nil, fmt.Errorf("snapshot context: %w", err)
	}

	solveCtx, solveSpan := r.tracer.Start(ctx, "runner.solve",
		trace.WithAttributes(attribute.Int("gauntlet.constraints", len(s.Constraints))))
	groups, err := solveAll(solveCtx, s.Constraints, s.Requirements, base, r.world)
	if err != nil {
		solveSpan.SetStatus(codes.Error, err.Error())
		solveSpan.End()
		return t, nil, err
	}
	sizes := combo.Sizes(groups)
	solveSpan.SetAttributes(attribute.Int("gauntlet.combos_total", combo.Count(sizes)))
	solveSpan.End()

	for idx := range combo.Indices(sizes) {
		ref := &ComboRef{Index: t.combos, Choices: idx}
		t.combos++

		gas, err := s.trial(ctx, r, base, combo.Pick(groups, idx), ref, &contextSnapshot)
		r.recorder.RecordCombo(s.Name, err == nil)
		if err != nil {
			return t, ref, err
		}

		t.gas += gas
		t.solutionSets++
		r.logger.Debug("combo passed",
			"scenario", s.Name,
			"combo", ref.Index,
			"choices", ref.Choices,
			"gas_used", gas,
		)
	}

	if t.solutionSets == 0 {
		return t, nil, ErrNoSolutionSets
	}
	return t, nil, nil
}

// trial runs one combo. The world is reverted to *snap on every exit path
// and *snap is replaced with the fresh handle.
func (s Scenario[T, U, V]) trial(
	ctx context.Context,
	r *Runner,
	base T,
	solutions []Solution[T],
	ref *ComboRef,
	snap *world.Handle,
) (gas uint64, err error) {
	ctx, span := r.tracer.Start(ctx, "runner.combo",
		trace.WithAttributes(attribute.Int("gauntlet.combo", ref.Index)))
	defer span.End()

	defer func() {
		// Cleanup must survive a cancelled caller context.
		next, rerr := r.world.RevertAndSnapshot(context.WithoutCancel(ctx), *snap)
		if rerr != nil {
			err = errors.Join(err, fmt.Errorf("revert world: %w", rerr))
		} else {
			*snap = next
		}
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	err = protect(func() error {
		c := s.Forker(base)

		for i, sol := range solutions {
			next, replaced, err := sol(ctx, c, r.world)
			if err != nil {
				return fmt.Errorf("apply solution for group %d: %w", i, err)
			}
			if replaced {
				c = next
			}
		}

		for i, con := range s.Constraints {
			if err := con.Check(ctx, s.Requirements, c, r.world); err != nil {
				return &CheckError{Constraint: i, Name: constraintName(con), Err: err}
			}
		}

		receipt, err := s.Property(ctx, s.Transformer(c), r.world, c)
		if err != nil {
			return err
		}
		if receipt != nil {
			gas = receipt.CumulativeGasUsed()
		}
		return nil
	})
	return gas, err
}
