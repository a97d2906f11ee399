package gotdoa

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// MonteCarloRuns stores the localization errors of simulations run with
// different noise seeds.
type MonteCarloRuns struct {
	runs, steps int
	Runs        []MonteCarloRun
}

// MonteCarloRun stores the results of an MC run.
type MonteCarloRun struct {
	Seed   uint64
	Errors []float64
	Report Report
}

// samples returns the finite errors of all runs at the given step.
func (mc MonteCarloRuns) samples(step int) []float64 {
	var errs []float64
	for _, run := range mc.Runs {
		if step < len(run.Errors) && !math.IsNaN(run.Errors[step]) {
			errs = append(errs, run.Errors[step])
		}
	}
	return errs
}

// Mean returns the mean localization error of all the runs for the given time step.
func (mc MonteCarloRuns) Mean(step int) float64 {
	errs := mc.samples(step)
	if len(errs) == 0 {
		return math.NaN()
	}
	return stat.Mean(errs, nil)
}

// StdDev returns the standard deviation of the localization error of all the runs for the given time step.
func (mc MonteCarloRuns) StdDev(step int) float64 {
	errs := mc.samples(step)
	if len(errs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(errs, nil)
}

// AsCSV is used as a CSV serializer, one line per step and one column per run,
// followed by the mean and the standard deviation.
func (mc MonteCarloRuns) AsCSV() string {
	lines := make([]string, mc.steps+1)
	hdr := []string{"step"}
	for _, run := range mc.Runs {
		hdr = append(hdr, fmt.Sprintf("error-%d", run.Seed))
	}
	lines[0] = strings.Join(append(hdr, "error-mean", "error-stddev"), ",")
	for k := 0; k < mc.steps; k++ {
		vals := []string{fmt.Sprintf("%d", k)}
		for _, run := range mc.Runs {
			e := math.NaN()
			if k < len(run.Errors) {
				e = run.Errors[k]
			}
			vals = append(vals, fmt.Sprintf("%f", e))
		}
		vals = append(vals, fmt.Sprintf("%f", mc.Mean(k)), fmt.Sprintf("%f", mc.StdDev(k)))
		lines[k+1] = strings.Join(vals, ",")
	}
	return strings.Join(lines, "\n")
}

// NewMonteCarloRuns runs one simulation per seed, each with the noise of cfg
// drawn from that seed. A nil cfg uses the default configuration.
func NewMonteCarloRuns(ctx context.Context, cfg *SimulationConfig, seeds []uint64, solver Solver) (MonteCarloRuns, error) {
	if len(seeds) == 0 {
		return MonteCarloRuns{}, fmt.Errorf("%w: at least one seed is required", ErrInvalidInput)
	}
	if cfg == nil {
		cfg = DefaultSimulationConfig()
	}
	runs := make([]MonteCarloRun, len(seeds))
	for i, seed := range seeds {
		runCfg := *cfg
		runCfg.Seed = seed
		sim, err := NewSimulation(&runCfg, solver)
		if err != nil {
			return MonteCarloRuns{}, err
		}
		if err := sim.Run(ctx); err != nil {
			return MonteCarloRuns{}, fmt.Errorf("run with seed %d: %w", seed, err)
		}
		runs[i] = MonteCarloRun{Seed: seed, Errors: sim.Errors(), Report: sim.Report()}
		Logf("[montecarlo] %s", runs[i].Report)
	}
	return MonteCarloRuns{len(seeds), cfg.Steps, runs}, nil
}
