package gotdoa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SliceTrajectory returns a reference block of `steps` entries [x y θ v ω]
// sampled along the curve from startU, advancing the parameter as a target
// moving at the provided velocity would. The parameter is frozen at 1 once
// exceeded and frozen entries have a zero velocity. The final parameter is
// also returned.
func SliceTrajectory(c *Curve, startU float64, steps int, velocity, Δt float64) (*mat.VecDense, float64, error) {
	if c == nil || steps <= 0 {
		return nil, 0, fmt.Errorf("%w: a curve and a positive number of steps are required", ErrInvalidInput)
	}
	if !(velocity >= 0) || !(Δt > 0) {
		return nil, 0, fmt.Errorf("%w: velocity=%f Δt=%f", ErrInvalidInput, velocity, Δt)
	}
	u := math.Max(0, math.Min(startU, 1))
	ref := mat.NewVecDense(ReferenceStride*steps, nil)
	frozen := make([]bool, steps)
	for i := 0; i < steps; i++ {
		frozen[i] = u >= 1
		p, d := c.PositionAt(u), c.DerivativeAt(u)
		off := i * ReferenceStride
		ref.SetVec(off, p.X)
		ref.SetVec(off+1, p.Y)
		ref.SetVec(off+2, math.Atan2(d.Y, d.X))
		if !frozen[i] {
			ref.SetVec(off+3, velocity)
			next, err := advanceParameter(c, u, velocity, Δt)
			if err != nil {
				return nil, 0, err
			}
			u = math.Min(next, 1)
		}
	}
	for i := 0; i < steps-1; i++ {
		if frozen[i] {
			continue
		}
		θ, θnext := ref.AtVec(i*ReferenceStride+2), ref.AtVec((i+1)*ReferenceStride+2)
		ref.SetVec(i*ReferenceStride+4, WrapAngle(θnext-θ)/Δt)
	}
	UnwrapHeadings(ref, ref.AtVec(2))
	return ref, u, nil
}

// ReferenceStates returns the 3xsteps matrix of the states of a reference block.
func ReferenceStates(ref mat.Vector, steps int) (*mat.Dense, error) {
	if steps <= 0 || ref.Len() < ReferenceStride*steps {
		return nil, fmt.Errorf("%w: reference of %d elements has fewer than %d steps", ErrInvalidInput, ref.Len(), steps)
	}
	S := mat.NewDense(StateSize, steps, nil)
	for k := 0; k < steps; k++ {
		for i := 0; i < StateSize; i++ {
			S.Set(i, k, ref.AtVec(k*ReferenceStride+i))
		}
	}
	return S, nil
}

// CircularReference returns a reference block orbiting each of the first N
// columns of base (a 3x(N+1) matrix of states), at the angular velocity ω and
// provided radius, starting at angle ω·t0+phase. The heading is tangent to
// the orbit, and the reference control is (|ω|·radius, ω).
func CircularReference(base mat.Matrix, ω, phase, t0, radius, Δt float64) (*mat.VecDense, error) {
	r, c := base.Dims()
	if r < 2 || c < 2 {
		return nil, fmt.Errorf("%w: base states must be at least 2x2, got %dx%d", ErrInvalidInput, r, c)
	}
	if !(radius >= 0) || !(Δt > 0) {
		return nil, fmt.Errorf("%w: radius=%f Δt=%f", ErrInvalidInput, radius, Δt)
	}
	N := c - 1
	ref := mat.NewVecDense(ReferenceStride*N, nil)
	turn := math.Pi / 2
	if ω < 0 {
		turn = -turn
	}
	for k := 0; k < N; k++ {
		angle := ω*(t0+float64(k)*Δt) + phase
		off := k * ReferenceStride
		ref.SetVec(off, base.At(0, k)+radius*math.Cos(angle))
		ref.SetVec(off+1, base.At(1, k)+radius*math.Sin(angle))
		ref.SetVec(off+2, WrapAngle(angle+turn))
		ref.SetVec(off+3, math.Abs(ω)*radius)
		ref.SetVec(off+4, ω)
	}
	UnwrapHeadings(ref, ref.AtVec(2))
	return ref, nil
}

// UnwrapHeadings rewrites the headings of a reference block so that the first
// is within π of θ0 and consecutive headings differ by less than π.
func UnwrapHeadings(ref *mat.VecDense, θ0 float64) {
	prev := θ0
	for off := 2; off < ref.Len(); off += ReferenceStride {
		θ := prev + WrapAngle(ref.AtVec(off)-prev)
		ref.SetVec(off, θ)
		prev = θ
	}
}
