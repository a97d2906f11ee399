package gotdoa

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DefaultDegree is the degree of the target trajectory spline.
const DefaultDegree = 3

// Curve is an open, clamped B-spline over the normalized parameter range [0, 1]
// together with its analytic first derivative. It is immutable once built.
type Curve struct {
	degree  int
	knots   []float64
	points  []Point2D
	dknots  []float64 // derivative spline knots
	dpoints []Point2D // derivative spline control points
}

// NewCurve builds a B-spline from the provided control points. The degree is
// clamped to [1, len(points)-1].
func NewCurve(points []Point2D, degree int) (*Curve, error) {
	count := len(points)
	if count < 2 {
		return nil, fmt.Errorf("%w: B-spline requires at least 2 control points, got %d", ErrInvalidInput, count)
	}
	for i, p := range points {
		if !isFinite(p.X) || !isFinite(p.Y) {
			return nil, fmt.Errorf("%w: control point #%d is not finite %s", ErrInvalidInput, i, p)
		}
	}
	if degree > count-1 {
		degree = count - 1
	}
	if degree < 1 {
		degree = 1
	}

	// degree zeros, 0..count-degree, degree copies of count-degree, normalized.
	span := float64(count - degree)
	knots := make([]float64, 0, count+degree+1)
	for i := 0; i < degree; i++ {
		knots = append(knots, 0)
	}
	for i := 0; i <= count-degree; i++ {
		knots = append(knots, float64(i))
	}
	for i := 0; i < degree; i++ {
		knots = append(knots, span)
	}
	floats.Scale(1/span, knots)

	cpts := make([]Point2D, count)
	copy(cpts, points)

	// Derivative: degree-1 spline on the inner knots.
	dpoints := make([]Point2D, count-1)
	for i := 0; i < count-1; i++ {
		Δ := knots[i+degree+1] - knots[i+1]
		if Δ == 0 {
			continue
		}
		dpoints[i] = cpts[i+1].Sub(cpts[i]).Scale(float64(degree) / Δ)
	}
	dknots := make([]float64, len(knots)-2)
	copy(dknots, knots[1:len(knots)-1])

	return &Curve{degree, knots, cpts, dknots, dpoints}, nil
}

// Degree returns the effective (clamped) degree of the spline.
func (c *Curve) Degree() int {
	return c.degree
}

// Knots returns a copy of the normalized knot vector.
func (c *Curve) Knots() []float64 {
	knots := make([]float64, len(c.knots))
	copy(knots, c.knots)
	return knots
}

// ControlPoints returns a copy of the control points.
func (c *Curve) ControlPoints() []Point2D {
	pts := make([]Point2D, len(c.points))
	copy(pts, c.points)
	return pts
}

// PositionAt returns the curve position at u. Parameters outside [0, 1] are
// clamped to the domain.
func (c *Curve) PositionAt(u float64) Point2D {
	return deBoor(c.knots, c.points, c.degree, u)
}

// DerivativeAt returns the first derivative of the curve with respect to u.
func (c *Curve) DerivativeAt(u float64) Point2D {
	return deBoor(c.dknots, c.dpoints, c.degree-1, u)
}

// Positions evaluates the curve at each of the provided parameters.
func (c *Curve) Positions(us []float64) []Point2D {
	pts := make([]Point2D, len(us))
	for i, u := range us {
		pts[i] = c.PositionAt(u)
	}
	return pts
}

// Derivatives evaluates the curve derivative at each of the provided parameters.
func (c *Curve) Derivatives(us []float64) []Point2D {
	pts := make([]Point2D, len(us))
	for i, u := range us {
		pts[i] = c.DerivativeAt(u)
	}
	return pts
}

// findSpan returns k such that knots[k] <= u < knots[k+1], restricted to
// [p, n-1]. At the right end of the domain the last non-empty span is used.
func findSpan(knots []float64, n, p int, u float64) int {
	if u >= knots[n] {
		k := n - 1
		for k > p && knots[k] == knots[k+1] {
			k--
		}
		return k
	}
	if u <= knots[p] {
		return p
	}
	lo, hi := p, n
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if u < knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// deBoor evaluates a B-spline of degree p with the provided knots and control points.
func deBoor(knots []float64, points []Point2D, p int, u float64) Point2D {
	n := len(points)
	if u < knots[p] {
		u = knots[p]
	} else if u > knots[n] {
		u = knots[n]
	}
	k := findSpan(knots, n, p, u)
	d := make([]Point2D, p+1)
	for j := 0; j <= p; j++ {
		d[j] = points[j+k-p]
	}
	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			den := knots[j+1+k-r] - knots[j+k-p]
			α := 0.0
			if den != 0 {
				α = (u - knots[j+k-p]) / den
			}
			d[j] = d[j-1].Scale(1 - α).Add(d[j].Scale(α))
		}
	}
	return d[p]
}
