// Package metrics exports runner outcomes as Prometheus metrics.
//
// A Collector owns a private registry, so several runs in one process do
// not share counters. The CLI writes the registry in the node_exporter
// textfile format after a suite finishes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/gauntlet/internal/runner"
)

const namespace = "gauntlet"

// Outcome label values.
const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)

// Collector records scenario and combo outcomes. It implements
// runner.Recorder.
type Collector struct {
	reg *prometheus.Registry

	// scenarios counts finished runs.
	// Labels: scenario, outcome (pass, fail)
	scenarios *prometheus.CounterVec

	// combos counts executed combos.
	// Labels: scenario, outcome (pass, fail)
	combos *prometheus.CounterVec

	// duration measures wall time per run.
	// Labels: scenario
	duration *prometheus.HistogramVec

	// gasUsed holds the mean gas of the latest run.
	// Labels: scenario
	gasUsed *prometheus.GaugeVec

	// solutionSets holds the number of successful combos of the latest run.
	// Labels: scenario
	solutionSets *prometheus.GaugeVec
}

var _ runner.Recorder = (*Collector)(nil)

// New creates a Collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		reg: reg,
		scenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_total",
			Help:      "Scenario runs by outcome",
		}, []string{"scenario", "outcome"}),
		combos: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "combos_total",
			Help:      "Executed combos by outcome",
		}, []string{"scenario", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scenario_duration_seconds",
			Help:      "Scenario run wall time in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"scenario"}),
		gasUsed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_gas_used",
			Help:      "Mean cumulative gas over the solution sets of the latest run",
		}, []string{"scenario"}),
		solutionSets: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_solution_sets",
			Help:      "Successful combos in the latest run",
		}, []string{"scenario"}),
	}
}

// RecordCombo implements runner.Recorder.
func (c *Collector) RecordCombo(scenario string, passed bool) {
	c.combos.WithLabelValues(scenario, outcome(passed)).Inc()
}

// RecordScenario implements runner.Recorder.
func (c *Collector) RecordScenario(res runner.Result) {
	c.scenarios.WithLabelValues(res.Scenario, outcome(res.Passed())).Inc()
	c.duration.WithLabelValues(res.Scenario).Observe(res.Elapsed.Seconds())
	c.gasUsed.WithLabelValues(res.Scenario).Set(res.GasUsed)
	c.solutionSets.WithLabelValues(res.Scenario).Set(float64(res.NumSolutionSets))
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.reg); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

func outcome(passed bool) string {
	if passed {
		return OutcomePass
	}
	return OutcomeFail
}
