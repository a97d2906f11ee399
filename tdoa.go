package gotdoa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultHyperbolaParameterMax bounds the hyperbolic parameter table to [-max, max].
	DefaultHyperbolaParameterMax = 4.0
	// DefaultHyperbolaSamples is the number of points of each hyperbola branch.
	DefaultHyperbolaSamples = 1000

	// semiAxisTolerance is the relative tolerance under which a negative b² is rounding noise.
	semiAxisTolerance = 1e-9
)

// HyperbolicSolver computes the branch of hyperbola of all positions
// consistent with the range difference observed by two receivers.
type HyperbolicSolver struct {
	parameters []float64
}

// NewHyperbolicSolver returns a solver whose branches are discretized over
// [-parameterMax, parameterMax] with the provided number of samples. The
// parameters are spaced so that sinh(t) is evenly spaced, which evens out the
// density of points along the branch.
func NewHyperbolicSolver(parameterMax float64, samples int) (*HyperbolicSolver, error) {
	if !(parameterMax > 0) || math.IsInf(parameterMax, 1) {
		return nil, fmt.Errorf("%w: hyperbolic parameter max must be positive, got %f", ErrInvalidInput, parameterMax)
	}
	if samples < 2 {
		return nil, fmt.Errorf("%w: hyperbola requires at least 2 samples, got %d", ErrInvalidInput, samples)
	}
	params := floats.Span(make([]float64, samples), math.Sinh(-parameterMax), math.Sinh(parameterMax))
	for i, s := range params {
		params[i] = math.Asinh(s)
	}
	return &HyperbolicSolver{params}, nil
}

// Parameters returns a copy of the discretization table.
func (s *HyperbolicSolver) Parameters() []float64 {
	params := make([]float64, len(s.parameters))
	copy(params, s.parameters)
	return params
}

// Samples returns the number of points per branch.
func (s *HyperbolicSolver) Samples() int {
	return len(s.parameters)
}

// RangeDifference returns ‖target-tracker1‖ - ‖target-tracker2‖. It is
// negative when tracker1 is the nearer receiver.
func RangeDifference(target, tracker1, tracker2 Point2D) float64 {
	return target.Distance(tracker1) - target.Distance(tracker2)
}

// SemiAxes returns the squared semi-axes a² and b² of the hyperbola for the
// provided range difference and distance between receivers.
func SemiAxes(rangeDiff, trackerDistance float64) (a2, b2 float64, err error) {
	a2 = 0.25 * rangeDiff * rangeDiff
	c2 := 0.25 * trackerDistance * trackerDistance
	b2 = c2 - a2
	if b2 < 0 {
		if b2 < -semiAxisTolerance*c2 {
			return 0, 0, fmt.Errorf("%w: b²=%g < 0 (range difference %f, receivers %f apart)", ErrIllFormedGeometry, b2, rangeDiff, trackerDistance)
		}
		b2 = 0
	}
	return a2, b2, nil
}

// LocalBranch returns the hyperbola branch in the frame of the receiver pair.
// The branch opens toward tracker1 if it is the nearer receiver, and toward
// tracker2 otherwise.
func (s *HyperbolicSolver) LocalBranch(a2, b2 float64, tracker1Nearest bool) []Point2D {
	a := math.Sqrt(a2)
	b := math.Sqrt(b2)
	if !tracker1Nearest {
		a = -a
	}
	pts := make([]Point2D, len(s.parameters))
	for i, t := range s.parameters {
		pts[i] = Point2D{a * math.Cosh(t), b * math.Sinh(t)}
	}
	return pts
}

// SolveLocal returns the branch consistent with the target position in the
// frame of the receiver pair, and that frame.
func (s *HyperbolicSolver) SolveLocal(target, tracker1, tracker2 Point2D) ([]Point2D, *FrameTransform, error) {
	return s.solveLocal(RangeDifference(target, tracker1, tracker2), tracker1, tracker2)
}

// Solve returns the branch consistent with the target position in the inertial frame.
func (s *HyperbolicSolver) Solve(target, tracker1, tracker2 Point2D) ([]Point2D, error) {
	return s.SolveRangeDifference(RangeDifference(target, tracker1, tracker2), tracker1, tracker2)
}

// SolveRangeDifference returns the branch consistent with an observed range
// difference in the inertial frame.
func (s *HyperbolicSolver) SolveRangeDifference(rangeDiff float64, tracker1, tracker2 Point2D) ([]Point2D, error) {
	local, T, err := s.solveLocal(rangeDiff, tracker1, tracker2)
	if err != nil {
		return nil, err
	}
	return T.ToInertialAll(local), nil
}

func (s *HyperbolicSolver) solveLocal(rangeDiff float64, tracker1, tracker2 Point2D) ([]Point2D, *FrameTransform, error) {
	if !isFinite(rangeDiff) {
		return nil, nil, fmt.Errorf("%w: range difference is %f", ErrInvalidInput, rangeDiff)
	}
	T, err := NewFrameTransform(tracker1, tracker2)
	if err != nil {
		return nil, nil, err
	}
	a2, b2, err := SemiAxes(rangeDiff, tracker1.Distance(tracker2))
	if err != nil {
		return nil, nil, err
	}
	return s.LocalBranch(a2, b2, rangeDiff < 0), T, nil
}

// FrameTransform is the rigid transform between the inertial frame and the
// frame of a receiver pair: origin at their midpoint, x-axis toward tracker1,
// y-axis the x-axis rotated by -90°.
type FrameTransform struct {
	toLocal, toInertial *mat.Dense // 3x3 homogeneous
}

// NewFrameTransform returns the transform of the frame of the receiver pair.
func NewFrameTransform(tracker1, tracker2 Point2D) (*FrameTransform, error) {
	origin := tracker1.Add(tracker2).Scale(0.5)
	vx := tracker1.Sub(origin)
	norm := vx.Norm()
	if norm == 0 || !isFinite(norm) {
		return nil, fmt.Errorf("%w: receivers at %s and %s do not define a baseline", ErrIllFormedGeometry, tracker1, tracker2)
	}
	vx = vx.Scale(1 / norm)
	vy := Point2D{vx.Y, -vx.X}

	// Rows of the rotation are the local axes expressed in the inertial frame.
	R := mat.NewDense(2, 2, []float64{vx.X, vx.Y, vy.X, vy.Y})
	var Ro mat.VecDense
	Ro.MulVec(R, mat.NewVecDense(2, []float64{origin.X, origin.Y}))

	toLocal := mat.NewDense(3, 3, nil)
	toLocal.Copy(Identity(3))
	toLocal.Slice(0, 2, 0, 2).(*mat.Dense).Copy(R)
	toLocal.Set(0, 2, -Ro.AtVec(0))
	toLocal.Set(1, 2, -Ro.AtVec(1))

	toInertial := mat.NewDense(3, 3, nil)
	toInertial.Copy(Identity(3))
	toInertial.Slice(0, 2, 0, 2).(*mat.Dense).Copy(R.T())
	toInertial.Set(0, 2, origin.X)
	toInertial.Set(1, 2, origin.Y)
	return &FrameTransform{toLocal, toInertial}, nil
}

// LocalMatrix returns the homogeneous inertial to local transform.
func (T *FrameTransform) LocalMatrix() mat.Matrix {
	return T.toLocal
}

// InertialMatrix returns the homogeneous local to inertial transform.
func (T *FrameTransform) InertialMatrix() mat.Matrix {
	return T.toInertial
}

// ToLocal expresses an inertial point in the receiver pair frame.
func (T *FrameTransform) ToLocal(p Point2D) Point2D {
	return applyHomogeneous(T.toLocal, []Point2D{p})[0]
}

// ToInertial expresses a receiver pair frame point in the inertial frame.
func (T *FrameTransform) ToInertial(p Point2D) Point2D {
	return applyHomogeneous(T.toInertial, []Point2D{p})[0]
}

// ToInertialAll expresses all the provided local points in the inertial frame.
func (T *FrameTransform) ToInertialAll(pts []Point2D) []Point2D {
	return applyHomogeneous(T.toInertial, pts)
}

func (T *FrameTransform) String() string {
	return fmt.Sprintf("FrameTransform{\nlocal=%v\ninertial=%v}\n", mat.Formatted(T.toLocal, mat.Prefix("  ")), mat.Formatted(T.toInertial, mat.Prefix("  ")))
}

// applyHomogeneous applies a 3x3 homogeneous transform to the points stacked as a 3xN matrix.
func applyHomogeneous(M mat.Matrix, pts []Point2D) []Point2D {
	if len(pts) == 0 {
		return nil
	}
	P := mat.NewDense(3, len(pts), nil)
	for j, p := range pts {
		P.Set(0, j, p.X)
		P.Set(1, j, p.Y)
		P.Set(2, j, 1)
	}
	var out mat.Dense
	out.Mul(M, P)
	rtn := make([]Point2D, len(pts))
	for j := range rtn {
		rtn[j] = Point2D{out.At(0, j), out.At(1, j)}
	}
	return rtn
}
