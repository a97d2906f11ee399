package gotdoa

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// StateSize is the size of the tracker state vector (x, y, θ).
	StateSize = 3
	// ControlSize is the size of the tracker control vector (v, ω).
	ControlSize = 2
)

// KinematicFunc maps a state and a control to the state derivative.
type KinematicFunc func(state, control mat.Vector) *mat.VecDense

// Unicycle is the differential drive kinematic model: ẋ = v cosθ, ẏ = v sinθ, θ̇ = ω.
func Unicycle(state, control mat.Vector) *mat.VecDense {
	θ := state.AtVec(2)
	v, ω := control.AtVec(0), control.AtVec(1)
	return mat.NewVecDense(StateSize, []float64{v * math.Cos(θ), v * math.Sin(θ), ω})
}

// LinearizeFunc returns the Jacobians of the Euler prediction with respect to
// the state (F) and the control (G).
type LinearizeFunc func(state, control mat.Vector, Δt float64) (F, G *mat.Dense)

// Kinematics pairs a kinematic model with the Jacobians of its Euler prediction.
type Kinematics struct {
	Derivative KinematicFunc
	Linearize  LinearizeFunc
}

// UnicycleKinematics is the differential drive model with its exact Jacobians.
var UnicycleKinematics = Kinematics{Unicycle, Linearize}

// Predict returns the explicit Euler prediction of the next state after Δt.
func (m Kinematics) Predict(state, control mat.Vector, Δt float64) *mat.VecDense {
	return Predict(m.Derivative, state, control, Δt)
}

// Predict returns the explicit Euler prediction of the next state after Δt.
func Predict(f KinematicFunc, state, control mat.Vector, Δt float64) *mat.VecDense {
	next := f(state, control)
	next.AddScaledVec(state, Δt, next)
	return next
}

// Linearize returns the Jacobians of the Euler prediction of the unicycle with
// respect to the state (F) and the control (G).
func Linearize(state, control mat.Vector, Δt float64) (F, G *mat.Dense) {
	θ := state.AtVec(2)
	v := control.AtVec(0)
	sθ, cθ := math.Sin(θ), math.Cos(θ)
	F = mat.NewDense(StateSize, StateSize, []float64{
		1, 0, -Δt * v * sθ,
		0, 1, Δt * v * cθ,
		0, 0, 1,
	})
	G = mat.NewDense(StateSize, ControlSize, []float64{
		Δt * cθ, 0,
		Δt * sθ, 0,
		0, Δt,
	})
	return F, G
}
