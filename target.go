package gotdoa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// FullTrajectorySamples is the number of samples returned by FullTrajectory.
const FullTrajectorySamples = 100

// Target moves along a B-spline at an approximately constant linear velocity.
type Target struct {
	curve    *Curve
	velocity float64
	u        float64
}

// NewTarget returns a new target at the start of the trajectory defined by
// the control points.
func NewTarget(points []Point2D, velocity float64) (*Target, error) {
	if !(velocity > 0) || math.IsInf(velocity, 1) {
		return nil, fmt.Errorf("%w: target velocity must be positive, got %f", ErrInvalidInput, velocity)
	}
	curve, err := NewCurve(points, DefaultDegree)
	if err != nil {
		return nil, err
	}
	return NewTargetOnCurve(curve, velocity)
}

// NewTargetOnCurve returns a new target at the start of the provided curve.
func NewTargetOnCurve(c *Curve, velocity float64) (*Target, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil curve", ErrInvalidInput)
	}
	if !(velocity > 0) || math.IsInf(velocity, 1) {
		return nil, fmt.Errorf("%w: target velocity must be positive, got %f", ErrInvalidInput, velocity)
	}
	return &Target{curve: c, velocity: velocity}, nil
}

// Curve returns the trajectory of the target.
func (t *Target) Curve() *Curve {
	return t.curve
}

// Velocity returns the nominal linear velocity of the target.
func (t *Target) Velocity() float64 {
	return t.velocity
}

// Parameter returns the current normalized trajectory parameter.
func (t *Target) Parameter() float64 {
	return t.u
}

// Finished returns whether the target reached the end of its trajectory.
func (t *Target) Finished() bool {
	return t.u >= 1
}

// Telemetry returns the current pose of the target and its linear velocity,
// which is zero once the end of the trajectory is reached.
func (t *Target) Telemetry() (Pose2D, float64) {
	p := t.curve.PositionAt(t.u)
	d := t.curve.DerivativeAt(t.u)
	pose := Pose2D{p.X, p.Y, math.Atan2(d.Y, d.X)}
	if t.u >= 1 {
		return pose, 0
	}
	return pose, t.velocity
}

// Advance moves the target along its trajectory for Δt seconds. This is an
// explicit Euler step on the arc length, so the speed is only approximately
// constant on sharp turns or with large time steps.
func (t *Target) Advance(Δt float64) error {
	u, err := t.next(Δt)
	if err != nil {
		return err
	}
	t.u = u
	return nil
}

// next returns the parameter reached after Δt without moving the target.
func (t *Target) next(Δt float64) (float64, error) {
	if !(Δt > 0) {
		return t.u, fmt.Errorf("%w: time step must be positive, got %f", ErrInvalidInput, Δt)
	}
	return advanceParameter(t.curve, min(t.u, 1), t.velocity, Δt)
}

// FullTrajectory returns FullTrajectorySamples evenly spaced positions of the whole trajectory.
func (t *Target) FullTrajectory() []Point2D {
	return t.TrajectorySamples(FullTrajectorySamples)
}

// TrajectorySamples returns n evenly spaced positions of the whole trajectory.
func (t *Target) TrajectorySamples(n int) []Point2D {
	if n < 2 {
		return []Point2D{t.curve.PositionAt(0)}
	}
	return t.curve.Positions(floats.Span(make([]float64, n), 0, 1))
}

// advanceParameter returns u + vΔt/‖c'(u)‖.
func advanceParameter(c *Curve, u, velocity, Δt float64) (float64, error) {
	speed := c.DerivativeAt(u).Norm()
	if speed == 0 {
		return u, fmt.Errorf("%w: trajectory derivative vanishes at u=%f", ErrInvalidInput, u)
	}
	return u + velocity*Δt/speed, nil
}
