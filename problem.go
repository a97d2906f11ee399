package gotdoa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Objective is the quadratic tracking cost of a tracker over its horizon.
type Objective struct {
	Layout
	Ws, Wc *mat.Dense
}

// Value returns Σ (sₖ-refₖ)ᵀ Ws (sₖ-refₖ) + (uₖ-refₖ)ᵀ Wc (uₖ-refₖ) for k < N.
func (o *Objective) Value(x []float64, p Parameters) float64 {
	var cost float64
	for k := 0; k < o.horizon; k++ {
		es, ec := o.trackingErrors(x, p, k)
		cost += mat.Inner(es, o.Ws, es) + mat.Inner(ec, o.Wc, ec)
	}
	return cost
}

// Gradient stores the gradient of the objective with respect to x in grad.
func (o *Objective) Gradient(grad, x []float64, p Parameters) {
	if len(grad) != len(x) {
		panic("gradient and decision vector lengths differ")
	}
	for i := range grad {
		grad[i] = 0
	}
	var Ss, Sc mat.Dense
	Ss.Add(o.Ws, o.Ws.T())
	Sc.Add(o.Wc, o.Wc.T())
	gs := mat.NewVecDense(StateSize, nil)
	gc := mat.NewVecDense(ControlSize, nil)
	for k := 0; k < o.horizon; k++ {
		es, ec := o.trackingErrors(x, p, k)
		gs.MulVec(&Ss, es)
		gc.MulVec(&Sc, ec)
		copy(grad[o.StateOffset(k):], gs.RawVector().Data)
		copy(grad[o.ControlOffset(k):], gc.RawVector().Data)
	}
}

// trackingErrors returns the state and control tracking errors at step k.
func (o *Objective) trackingErrors(x []float64, p Parameters, k int) (es, ec *mat.VecDense) {
	es = mat.NewVecDense(StateSize, nil)
	es.SubVec(o.PredictedState(x, k), p.ReferenceState(k))
	ec = mat.NewVecDense(ControlSize, nil)
	ec.SubVec(o.PredictedControl(x, k), p.ReferenceControl(k))
	return
}

// Constraints are the multiple shooting equality constraints. Block 0 forces
// the first predicted state to the initial state, and block k+1 forces the
// predicted state k+1 to the Euler prediction from state k and control k.
type Constraints struct {
	Layout
	Δt    float64
	model Kinematics
}

// Len returns the number of constraint blocks, N+1.
func (c *Constraints) Len() int {
	return c.horizon + 1
}

// Block returns the residual of the k-th constraint block.
func (c *Constraints) Block(k int, x []float64, p Parameters) *mat.VecDense {
	r := mat.NewVecDense(StateSize, nil)
	if k == 0 {
		r.SubVec(c.PredictedState(x, 0), p.Initial)
		return r
	}
	pred := c.model.Predict(c.PredictedState(x, k-1), c.PredictedControl(x, k-1), c.Δt)
	r.SubVec(c.PredictedState(x, k), pred)
	return r
}

// Residual stores all the stacked constraint blocks in dst.
func (c *Constraints) Residual(dst, x []float64, p Parameters) {
	if len(dst) != c.ConstraintSize() {
		panic(fmt.Errorf("residual has %d elements, expected %d", len(dst), c.ConstraintSize()))
	}
	for k := 0; k < c.Len(); k++ {
		copy(dst[StateSize*k:], c.Block(k, x, p).RawVector().Data)
	}
}

// Jacobian stores the Jacobian of the residual with respect to x in dst,
// which must be 3(N+1) x DecisionSize.
func (c *Constraints) Jacobian(dst *mat.Dense, x []float64, p Parameters) {
	r, cols := dst.Dims()
	if r != c.ConstraintSize() || cols != c.DecisionSize() {
		panic(fmt.Errorf("jacobian is %dx%d, expected %dx%d", r, cols, c.ConstraintSize(), c.DecisionSize()))
	}
	dst.Zero()
	for i := 0; i < StateSize; i++ {
		dst.Set(i, c.StateOffset(0)+i, 1)
	}
	for k := 0; k < c.horizon; k++ {
		F, G := c.model.Linearize(c.PredictedState(x, k), c.PredictedControl(x, k), c.Δt)
		row := StateSize * (k + 1)
		for i := 0; i < StateSize; i++ {
			dst.Set(row+i, c.StateOffset(k+1)+i, 1)
			for j := 0; j < StateSize; j++ {
				dst.Set(row+i, c.StateOffset(k)+j, -F.At(i, j))
			}
			for j := 0; j < ControlSize; j++ {
				dst.Set(row+i, c.ControlOffset(k)+j, -G.At(i, j))
			}
		}
	}
}

// Rollout returns the decision vector whose states are integrated from the
// initial state with the controls of x, so every constraint block is zero.
func (c *Constraints) Rollout(x []float64, p Parameters) []float64 {
	c.checkDecision(x)
	out := make([]float64, len(x))
	copy(out, x)
	copy(out[c.StateOffset(0):], p.Initial.RawVector().Data)
	for k := 0; k < c.horizon; k++ {
		next := c.model.Predict(c.PredictedState(out, k), c.PredictedControl(out, k), c.Δt)
		copy(out[c.StateOffset(k+1):], next.RawVector().Data)
	}
	return out
}

// ConstraintBounds returns the lower and upper bounds of the equality
// constraints, both zero.
func (l Layout) ConstraintBounds() (lower, upper *mat.VecDense) {
	return mat.NewVecDense(l.ConstraintSize(), nil), mat.NewVecDense(l.ConstraintSize(), nil)
}

// BuildBounds returns the decision vector bounds: states are unbounded and
// each control is bounded by the min and max of its range.
func (l Layout) BuildBounds(linear, angular []float64) (lower, upper *mat.VecDense, err error) {
	if len(linear) == 0 || len(angular) == 0 {
		return nil, nil, fmt.Errorf("%w: velocity ranges cannot be empty", ErrInvalidInput)
	}
	lower = mat.NewVecDense(l.DecisionSize(), nil)
	upper = mat.NewVecDense(l.DecisionSize(), nil)
	for i := 0; i < l.ControlOffset(0); i++ {
		lower.SetVec(i, math.Inf(-1))
		upper.SetVec(i, math.Inf(1))
	}
	vmin, vmax := floats.Min(linear), floats.Max(linear)
	ωmin, ωmax := floats.Min(angular), floats.Max(angular)
	for k := 0; k < l.horizon; k++ {
		off := l.ControlOffset(k)
		lower.SetVec(off, vmin)
		upper.SetVec(off, vmax)
		lower.SetVec(off+1, ωmin)
		upper.SetVec(off+1, ωmax)
	}
	return lower, upper, nil
}

// Problem is the description of a tracker's nonlinear program, handed to a Solver.
type Problem struct {
	Layout
	Objective   *Objective
	Constraints *Constraints
	// Lower and Upper bound the decision vector.
	Lower, Upper *mat.VecDense
	// ConstraintLower and ConstraintUpper bound the stacked constraint residual.
	ConstraintLower, ConstraintUpper *mat.VecDense
}

// NewProblem returns a new problem description after checking that all its parts agree.
func NewProblem(obj *Objective, cons *Constraints, lower, upper *mat.VecDense) (*Problem, error) {
	if obj == nil || cons == nil {
		return nil, fmt.Errorf("%w: objective and constraints are required", ErrInvalidInput)
	}
	if obj.Layout != cons.Layout {
		return nil, fmt.Errorf("%w: objective horizon %d and constraint horizon %d differ", ErrInvalidInput, obj.horizon, cons.horizon)
	}
	for _, b := range []*mat.VecDense{lower, upper} {
		if b == nil || b.Len() != obj.DecisionSize() {
			return nil, fmt.Errorf("%w: bounds must have %d elements", ErrInvalidInput, obj.DecisionSize())
		}
	}
	for i := 0; i < lower.Len(); i++ {
		if lower.AtVec(i) > upper.AtVec(i) {
			return nil, fmt.Errorf("%w: lower bound %d exceeds upper bound", ErrInvalidInput, i)
		}
	}
	cl, cu := obj.ConstraintBounds()
	return &Problem{obj.Layout, obj, cons, lower, upper, cl, cu}, nil
}

// Clip stores in dst the projection of x onto the decision bounds.
func (p *Problem) Clip(dst, x []float64) {
	for i := range x {
		dst[i] = math.Min(math.Max(x[i], p.Lower.AtVec(i)), p.Upper.AtVec(i))
	}
}

// Solution is the result of a Solver.
type Solution struct {
	// X is the decision vector, [states 3(N+1) | controls 2N].
	X []float64
	// F is the objective value at X.
	F float64
	// ConstraintNorm is the Euclidean norm of the constraint residual at X.
	ConstraintNorm float64
	Iterations     int
}

// Solver solves a Problem for the provided parameters starting from x0.
type Solver interface {
	Solve(p *Problem, params Parameters, x0 []float64) (*Solution, error)
}
