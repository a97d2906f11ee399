package gotdoa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// GroundTruth records the true target positions of a simulation to compute
// the error of the hyperbolic solutions.
type GroundTruth struct {
	targets []Point2D
}

// NewGroundTruth initializes a new ground truth, optionally from known positions.
func NewGroundTruth(targets ...Point2D) *GroundTruth {
	return &GroundTruth{append([]Point2D(nil), targets...)}
}

// Record appends the true target position of the next step.
func (t *GroundTruth) Record(target Point2D) {
	t.targets = append(t.targets, target)
}

// Len returns the number of recorded steps.
func (t *GroundTruth) Len() int {
	return len(t.targets)
}

// Error returns the localization error of the solution of step k.
func (t *GroundTruth) Error(k int, solution []Point2D) (float64, error) {
	if k < 0 || k >= len(t.targets) {
		return math.NaN(), fmt.Errorf("%w: no ground truth at step %d", ErrInvalidInput, k)
	}
	return LocalizationError(t.targets[k], solution), nil
}

// LocalizationError returns the distance from the target to the closest point
// of the solution, or NaN if the solution is empty.
func LocalizationError(target Point2D, solution []Point2D) float64 {
	if len(solution) == 0 {
		return math.NaN()
	}
	dist := make([]float64, len(solution))
	for i, p := range solution {
		dist[i] = target.Distance(p)
	}
	return floats.Min(dist)
}
