package gotdoa

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// PenaltySettings configures a PenaltySolver.
type PenaltySettings struct {
	// OuterIterations is the number of multiplier updates.
	OuterIterations int `json:"outer_iterations"`
	// InitialPenalty is the initial weight of the quadratic penalty.
	InitialPenalty float64 `json:"initial_penalty"`
	// PenaltyGrowth multiplies the penalty after each outer iteration.
	PenaltyGrowth float64 `json:"penalty_growth"`
	// InnerIterations caps the major iterations of each LBFGS minimization.
	InnerIterations int `json:"inner_iterations"`
	// Tolerance on the constraint norm to stop the outer iterations.
	Tolerance float64 `json:"tolerance"`
}

// DefaultPenaltySettings returns the settings used by the simulation.
func DefaultPenaltySettings() PenaltySettings {
	return PenaltySettings{OuterIterations: 8, InitialPenalty: 10, PenaltyGrowth: 10, InnerIterations: 200, Tolerance: 1e-6}
}

// PenaltySolver is an augmented Lagrangian Solver whose unconstrained
// subproblems are minimized with LBFGS. Bound violations are penalized
// quadratically. The returned decision vector always has its controls within
// bounds and its states rolled out from the initial state, so it satisfies
// the equality constraints exactly.
type PenaltySolver struct {
	settings PenaltySettings
}

// NewPenaltySolver returns a new PenaltySolver.
func NewPenaltySolver(settings PenaltySettings) (*PenaltySolver, error) {
	if settings.OuterIterations <= 0 || settings.InnerIterations <= 0 {
		return nil, fmt.Errorf("%w: iteration counts must be positive", ErrInvalidInput)
	}
	if !(settings.InitialPenalty > 0) || !(settings.PenaltyGrowth >= 1) || !(settings.Tolerance > 0) {
		return nil, fmt.Errorf("%w: penalty=%f growth=%f tolerance=%f", ErrInvalidInput, settings.InitialPenalty, settings.PenaltyGrowth, settings.Tolerance)
	}
	return &PenaltySolver{settings}, nil
}

// Solve implements the Solver interface.
func (s *PenaltySolver) Solve(p *Problem, params Parameters, x0 []float64) (*Solution, error) {
	if err := params.Validate(p.Layout); err != nil {
		return nil, err
	}
	if len(x0) != p.DecisionSize() {
		return nil, fmt.Errorf("%w: initial guess has %d elements, expected %d", ErrInvalidInput, len(x0), p.DecisionSize())
	}
	n, m := p.DecisionSize(), p.ConstraintSize()
	λ := make([]float64, m)
	μ := s.settings.InitialPenalty
	c := make([]float64, m)
	w := make([]float64, m)
	J := mat.NewDense(m, n, nil)
	x := make([]float64, n)
	copy(x, x0)
	iterations := 0

	lagrangian := optimize.Problem{
		Func: func(x []float64) float64 {
			p.Constraints.Residual(c, x, params)
			v := p.Objective.Value(x, params) + floats.Dot(λ, c) + μ/2*floats.Dot(c, c)
			for i, xi := range x {
				d := p.violation(i, xi)
				v += μ / 2 * d * d
			}
			return v
		},
		Grad: func(grad, x []float64) {
			p.Objective.Gradient(grad, x, params)
			p.Constraints.Residual(c, x, params)
			p.Constraints.Jacobian(J, x, params)
			for i := range w {
				w[i] = λ[i] + μ*c[i]
			}
			jtw := mat.NewVecDense(n, nil)
			jtw.MulVec(J.T(), mat.NewVecDense(m, w))
			floats.Add(grad, jtw.RawVector().Data)
			for i, xi := range x {
				grad[i] += μ * p.violation(i, xi)
			}
		},
	}

	for outer := 0; outer < s.settings.OuterIterations; outer++ {
		settings := &optimize.Settings{MajorIterations: s.settings.InnerIterations, GradientThreshold: s.settings.Tolerance}
		result, err := optimize.Minimize(lagrangian, x, settings, &optimize.LBFGS{})
		if result == nil {
			return nil, fmt.Errorf("%w: %v", ErrSolverFailed, err)
		}
		if err != nil {
			Logf("[penalty] outer iteration %d: %v (status %v)", outer, err, result.Status)
		}
		if !allFinite(result.X) {
			return nil, fmt.Errorf("%w: non finite decision vector at outer iteration %d", ErrSolverFailed, outer)
		}
		copy(x, result.X)
		iterations += result.Stats.MajorIterations

		p.Constraints.Residual(c, x, params)
		if floats.Norm(c, 2) < s.settings.Tolerance {
			break
		}
		floats.AddScaled(λ, μ, c)
		μ *= s.settings.PenaltyGrowth
	}
	if norm := floats.Norm(c, 2); norm >= s.settings.Tolerance {
		Logf("[penalty] constraint norm %.3e above tolerance, rolling out controls", norm)
	}

	p.Clip(x, x)
	x = p.Constraints.Rollout(x, params)
	p.Constraints.Residual(c, x, params)
	return &Solution{X: x, F: p.Objective.Value(x, params), ConstraintNorm: floats.Norm(c, 2), Iterations: iterations}, nil
}

// violation returns by how much x exceeds its i-th bound, signed.
func (p *Problem) violation(i int, x float64) float64 {
	if lo := p.Lower.AtVec(i); x < lo {
		return x - lo
	}
	if hi := p.Upper.AtVec(i); x > hi {
		return x - hi
	}
	return 0
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
