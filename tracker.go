package gotdoa

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ReferenceStride is the size of one step of a reference block: a state and a control.
const ReferenceStride = StateSize + ControlSize

// Layout describes the decision vector of a multiple shooting problem over a
// horizon of N steps: the N+1 predicted states (x, y, θ) followed by the N
// controls (v, ω).
type Layout struct {
	horizon int
}

// Horizon returns the number of prediction steps N.
func (l Layout) Horizon() int {
	return l.horizon
}

// DecisionSize returns 3(N+1) + 2N.
func (l Layout) DecisionSize() int {
	return StateSize*(l.horizon+1) + ControlSize*l.horizon
}

// ConstraintSize returns the size of the stacked equality constraints, 3(N+1).
func (l Layout) ConstraintSize() int {
	return StateSize * (l.horizon + 1)
}

// ReferenceSize returns the size of a reference block, 5N.
func (l Layout) ReferenceSize() int {
	return ReferenceStride * l.horizon
}

// StateOffset returns the index of the k-th predicted state in the decision vector.
func (l Layout) StateOffset(k int) int {
	return StateSize * k
}

// ControlOffset returns the index of the k-th control in the decision vector.
func (l Layout) ControlOffset(k int) int {
	return StateSize*(l.horizon+1) + ControlSize*k
}

func (l Layout) checkDecision(x []float64) {
	if len(x) != l.DecisionSize() {
		panic(fmt.Errorf("decision vector has %d elements, expected %d", len(x), l.DecisionSize()))
	}
}

// PredictedState returns the k-th predicted state of x. The vector shares its data with x.
func (l Layout) PredictedState(x []float64, k int) *mat.VecDense {
	l.checkDecision(x)
	off := l.StateOffset(k)
	return mat.NewVecDense(StateSize, x[off:off+StateSize])
}

// PredictedControl returns the k-th control of x. The vector shares its data with x.
func (l Layout) PredictedControl(x []float64, k int) *mat.VecDense {
	l.checkDecision(x)
	off := l.ControlOffset(k)
	return mat.NewVecDense(ControlSize, x[off:off+ControlSize])
}

// PredictedStates returns the predicted states of x as a 3x(N+1) matrix.
func (l Layout) PredictedStates(x []float64) *mat.Dense {
	l.checkDecision(x)
	S := mat.NewDense(StateSize, l.horizon+1, nil)
	for k := 0; k <= l.horizon; k++ {
		S.SetCol(k, x[l.StateOffset(k):l.StateOffset(k)+StateSize])
	}
	return S
}

// PredictedControls returns the controls of x as a 2xN matrix.
func (l Layout) PredictedControls(x []float64) *mat.Dense {
	l.checkDecision(x)
	U := mat.NewDense(ControlSize, l.horizon, nil)
	for k := 0; k < l.horizon; k++ {
		U.SetCol(k, x[l.ControlOffset(k):l.ControlOffset(k)+ControlSize])
	}
	return U
}

// Parameters are the numerical values of the problem parameters: the initial
// state of the tracker and the reference block, [x y θ v ω] for each step.
type Parameters struct {
	Initial   *mat.VecDense
	Reference *mat.VecDense
}

// NewParameters returns zeroed parameters of the right sizes.
func (l Layout) NewParameters() Parameters {
	return Parameters{mat.NewVecDense(StateSize, nil), mat.NewVecDense(l.ReferenceSize(), nil)}
}

// Validate returns an error if the parameters do not match the layout.
func (p Parameters) Validate(l Layout) error {
	if p.Initial == nil || p.Reference == nil {
		return fmt.Errorf("%w: parameters are not set", ErrInvalidInput)
	}
	if err := checkMatDims(p.Initial, Identity(StateSize), "initial state", "I3", rows2rows); err != nil {
		return err
	}
	if p.Reference.Len() != l.ReferenceSize() {
		return fmt.Errorf("%w: reference has %d elements, expected %d", ErrInvalidInput, p.Reference.Len(), l.ReferenceSize())
	}
	return nil
}

// ReferenceState returns the reference state of step k.
func (p Parameters) ReferenceState(k int) *mat.VecDense {
	return p.Reference.SliceVec(k*ReferenceStride, k*ReferenceStride+StateSize).(*mat.VecDense)
}

// ReferenceControl returns the reference control of step k.
func (p Parameters) ReferenceControl(k int) *mat.VecDense {
	return p.Reference.SliceVec(k*ReferenceStride+StateSize, (k+1)*ReferenceStride).(*mat.VecDense)
}

// InitialGuess returns a decision vector built from the parameters: the
// initial state, then the reference states and controls.
func (l Layout) InitialGuess(p Parameters) []float64 {
	x := make([]float64, l.DecisionSize())
	copy(x[l.StateOffset(0):], p.Initial.RawVector().Data)
	for k := 1; k <= l.horizon; k++ {
		ref := p.ReferenceState(min(k, l.horizon-1))
		for i := 0; i < StateSize; i++ {
			x[l.StateOffset(k)+i] = ref.AtVec(i)
		}
	}
	for k := 0; k < l.horizon; k++ {
		ref := p.ReferenceControl(k)
		for i := 0; i < ControlSize; i++ {
			x[l.ControlOffset(k)+i] = ref.AtVec(i)
		}
	}
	return x
}

// ShiftGuess returns a warm start from a previous solution: every state and
// control moves one step earlier and the last ones are repeated.
func (l Layout) ShiftGuess(x []float64) []float64 {
	l.checkDecision(x)
	shifted := make([]float64, len(x))
	for k := 0; k <= l.horizon; k++ {
		src := min(k+1, l.horizon)
		copy(shifted[l.StateOffset(k):l.StateOffset(k)+StateSize], x[l.StateOffset(src):l.StateOffset(src)+StateSize])
	}
	for k := 0; k < l.horizon; k++ {
		src := min(k+1, l.horizon-1)
		copy(shifted[l.ControlOffset(k):l.ControlOffset(k)+ControlSize], x[l.ControlOffset(src):l.ControlOffset(src)+ControlSize])
	}
	return shifted
}

// Tracker builds the optimal control problem of a single mobile receiver and
// records its history during a simulation.
type Tracker struct {
	Layout
	label       string
	kinematics  Kinematics
	states      []*mat.VecDense
	controls    []*mat.VecDense
	predictions []*mat.Dense
}

// NewTracker returns a new tracker problem builder with the provided prediction horizon.
func NewTracker(label string, horizon int) (*Tracker, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: prediction horizon must be positive, got %d", ErrInvalidInput, horizon)
	}
	return &Tracker{Layout: Layout{horizon}, label: label, kinematics: UnicycleKinematics}, nil
}

// Label returns the name of the tracker.
func (tr *Tracker) Label() string {
	return tr.label
}

// StateSize returns the size of the state vector.
func (tr *Tracker) StateSize() int {
	return StateSize
}

// ControlSize returns the size of the control vector.
func (tr *Tracker) ControlSize() int {
	return ControlSize
}

// StateNames returns the names of the state vector elements.
func (tr *Tracker) StateNames() []string {
	return []string{tr.label + "_x", tr.label + "_y", tr.label + "_theta"}
}

// ControlNames returns the names of the control vector elements.
func (tr *Tracker) ControlNames() []string {
	return []string{tr.label + "_v", tr.label + "_omega"}
}

// Kinematics returns the kinematic model of the tracker, the unicycle unless
// replaced with SetKinematics.
func (tr *Tracker) Kinematics() Kinematics {
	return tr.kinematics
}

// SetKinematics replaces the kinematic model used by the constraints built afterwards.
func (tr *Tracker) SetKinematics(m Kinematics) error {
	if m.Derivative == nil || m.Linearize == nil {
		return fmt.Errorf("%w: kinematic model needs a derivative and its linearization", ErrInvalidInput)
	}
	tr.kinematics = m
	return nil
}

// BuildObjective returns the tracking cost over the horizon, given the state
// and control weights (3x3 and 2x2, usually diagonal).
func (tr *Tracker) BuildObjective(Ws, Wc mat.Matrix) (*Objective, error) {
	if err := checkMatDims(Ws, Identity(StateSize), "Ws", "I3", rowsAndcols); err != nil {
		return nil, err
	}
	if err := checkMatDims(Wc, Identity(ControlSize), "Wc", "I2", rowsAndcols); err != nil {
		return nil, err
	}
	return &Objective{tr.Layout, mat.DenseCopyOf(Ws), mat.DenseCopyOf(Wc)}, nil
}

// BuildEqualityConstraints returns the N+1 multiple shooting constraints for a time step Δt.
func (tr *Tracker) BuildEqualityConstraints(Δt float64) (*Constraints, error) {
	if !(Δt > 0) {
		return nil, fmt.Errorf("%w: time step must be positive, got %f", ErrInvalidInput, Δt)
	}
	return &Constraints{tr.Layout, Δt, tr.kinematics}, nil
}

func (tr *Tracker) String() string {
	return fmt.Sprintf("Tracker %s [N=%d, decision=%d, records=%d]", tr.label, tr.horizon, tr.DecisionSize(), len(tr.states))
}
