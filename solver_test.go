package gotdoa

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestImplementsSolver(t *testing.T) {
	implements := func(Solver) {}
	implements(new(PenaltySolver))
}

func TestNewPenaltySolverErrors(t *testing.T) {
	for _, mod := range []func(*PenaltySettings){
		func(s *PenaltySettings) { s.OuterIterations = 0 },
		func(s *PenaltySettings) { s.InnerIterations = -1 },
		func(s *PenaltySettings) { s.InitialPenalty = 0 },
		func(s *PenaltySettings) { s.PenaltyGrowth = 0.5 },
		func(s *PenaltySettings) { s.Tolerance = 0 },
	} {
		settings := DefaultPenaltySettings()
		mod(&settings)
		if _, err := NewPenaltySolver(settings); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%+v: expected ErrInvalidInput, got %v", settings, err)
		}
	}
}

// lineProblem returns a problem tracking a straight line along x at the
// provided reference velocity, with a tracker starting off the line.
func lineProblem(t *testing.T, N int, Δt, vref, vmax float64) (*Problem, Parameters) {
	tr, err := NewTracker("t", N)
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := tr.BuildObjective(mat.NewDiagDense(3, []float64{10, 10, 1}), mat.NewDiagDense(2, []float64{0.1, 0.1}))
	cons, _ := tr.BuildEqualityConstraints(Δt)
	lower, upper, _ := tr.BuildBounds([]float64{0, vmax}, []float64{-1, 1})
	p, err := NewProblem(obj, cons, lower, upper)
	if err != nil {
		t.Fatal(err)
	}
	params := tr.NewParameters()
	params.Initial.SetVec(1, 0.5)
	for k := 0; k < N; k++ {
		params.Reference.SetVec(k*ReferenceStride, vref*Δt*float64(k+1))
		params.Reference.SetVec(k*ReferenceStride+3, vref)
	}
	return p, params
}

func TestPenaltySolverTracksLine(t *testing.T) {
	muteLogs(t)
	p, params := lineProblem(t, 8, 0.2, 1, 2)
	solver, err := NewPenaltySolver(DefaultPenaltySettings())
	if err != nil {
		t.Fatal(err)
	}
	x0 := p.InitialGuess(params)
	sol, err := solver.Solve(p, params, x0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sol.X) != p.DecisionSize() {
		t.Fatalf("solution has %d elements", len(sol.X))
	}
	if sol.ConstraintNorm > 1e-9 {
		t.Fatalf("constraint norm %e", sol.ConstraintNorm)
	}
	if !mat.Equal(p.PredictedState(sol.X, 0), params.Initial) {
		t.Fatal("first predicted state differs from the initial state")
	}
	// The replayed guess is a feasible point, the solution must do at least as well.
	if f0 := p.Objective.Value(p.Constraints.Rollout(x0, params), params); sol.F > f0 {
		t.Fatalf("objective %f worse than the rolled out guess %f", sol.F, f0)
	}
	// The tracker moves toward the line.
	S := p.PredictedStates(sol.X)
	if y := S.At(1, p.Horizon()); y >= 0.5 {
		t.Fatalf("final lateral offset %f did not decrease", y)
	}
	if sol.Iterations == 0 {
		t.Fatal("no iteration recorded")
	}
}

func TestPenaltySolverRespectsBounds(t *testing.T) {
	muteLogs(t)
	// The reference runs faster than the tracker can.
	p, params := lineProblem(t, 6, 0.5, 3, 1)
	solver, _ := NewPenaltySolver(DefaultPenaltySettings())
	sol, err := solver.Solve(p, params, make([]float64, p.DecisionSize()))
	if err != nil {
		t.Fatal(err)
	}
	U := p.PredictedControls(sol.X)
	v := mat.Row(nil, 0, U)
	ω := mat.Row(nil, 1, U)
	if floats.Max(v) > 1 || floats.Min(v) < 0 || floats.Max(ω) > 1 || floats.Min(ω) < -1 {
		t.Fatalf("controls out of bounds\n%v", mat.Formatted(U))
	}
	if sol.ConstraintNorm > 1e-9 {
		t.Fatalf("constraint norm %e", sol.ConstraintNorm)
	}
}

func TestPenaltySolverErrors(t *testing.T) {
	p, params := lineProblem(t, 3, 0.1, 1, 2)
	solver, _ := NewPenaltySolver(DefaultPenaltySettings())
	if _, err := solver.Solve(p, params, make([]float64, 2)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := solver.Solve(p, Parameters{}, make([]float64, p.DecisionSize())); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
