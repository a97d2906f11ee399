package gotdoa

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

func squarePath() []Point2D {
	return []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
}

func longPath() []Point2D {
	return []Point2D{{0, 0}, {15, -5}, {30, 10}, {40, 40}, {20, 50}, {-10, 35}, {-20, 10}}
}

func pointsEqualApprox(a, b Point2D, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestNewCurveErrors(t *testing.T) {
	if _, err := NewCurve(nil, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("empty control points do not fail")
	}
	if _, err := NewCurve([]Point2D{{1, 1}}, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("a single control point does not fail")
	}
	if _, err := NewCurve([]Point2D{{1, 1}, {math.NaN(), 2}}, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("NaN control point does not fail")
	}
}

func TestCurveDegreeClamp(t *testing.T) {
	for _, tc := range []struct {
		points         []Point2D
		degree, expDeg int
	}{
		{[]Point2D{{0, 0}, {1, 1}}, 3, 1},
		{[]Point2D{{0, 0}, {1, 1}, {2, 0}}, 3, 2},
		{squarePath(), 3, 3},
		{squarePath(), 0, 1},
		{longPath(), 5, 5},
	} {
		c, err := NewCurve(tc.points, tc.degree)
		if err != nil {
			t.Fatal(err)
		}
		if c.Degree() != tc.expDeg {
			t.Fatalf("degree %d with %d points: got %d expected %d", tc.degree, len(tc.points), c.Degree(), tc.expDeg)
		}
		knots := c.Knots()
		if len(knots) != len(tc.points)+tc.expDeg+1 {
			t.Fatalf("knot vector has %d elements", len(knots))
		}
		if knots[0] != 0 || knots[len(knots)-1] != 1 {
			t.Fatalf("knot vector not normalized: %v", knots)
		}
	}
}

func TestCurveKnotVector(t *testing.T) {
	c, err := NewCurve(longPath(), 3)
	if err != nil {
		t.Fatal(err)
	}
	exp := []float64{0, 0, 0, 0, 0.25, 0.5, 0.75, 1, 1, 1, 1}
	if !floats.EqualApprox(c.Knots(), exp, 1e-12) {
		t.Fatalf("unexpected knots %v", c.Knots())
	}
}

func TestCurveBoundary(t *testing.T) {
	for _, points := range [][]Point2D{squarePath(), longPath(), {{3, 4}, {-1, 2}}, {{0, 0}, {5, 5}, {10, 0}}} {
		c, err := NewCurve(points, DefaultDegree)
		if err != nil {
			t.Fatal(err)
		}
		if p := c.PositionAt(0); !pointsEqualApprox(p, points[0], 1e-12) {
			t.Fatalf("PositionAt(0)=%s != %s", p, points[0])
		}
		if p := c.PositionAt(1); !pointsEqualApprox(p, points[len(points)-1], 1e-12) {
			t.Fatalf("PositionAt(1)=%s != %s", p, points[len(points)-1])
		}
	}
}

func TestCurveBezier(t *testing.T) {
	// Four control points and degree three is a cubic Bézier curve.
	c, err := NewCurve(squarePath(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if p := c.PositionAt(0.5); !pointsEqualApprox(p, Point2D{7.5, 5}, 1e-12) {
		t.Fatalf("PositionAt(0.5)=%s", p)
	}
	if d := c.DerivativeAt(0); !pointsEqualApprox(d, Point2D{30, 0}, 1e-12) {
		t.Fatalf("DerivativeAt(0)=%s", d)
	}
	if d := c.DerivativeAt(1); !pointsEqualApprox(d, Point2D{-30, 0}, 1e-12) {
		t.Fatalf("DerivativeAt(1)=%s", d)
	}
}

func TestCurveDerivative(t *testing.T) {
	c, err := NewCurve(longPath(), DefaultDegree)
	if err != nil {
		t.Fatal(err)
	}
	us := floats.Span(make([]float64, 37), 0.01, 0.99)
	derivs := c.Derivatives(us)
	for i, u := range us {
		dx := fd.Derivative(func(u float64) float64 { return c.PositionAt(u).X }, u, &fd.Settings{Formula: fd.Central})
		dy := fd.Derivative(func(u float64) float64 { return c.PositionAt(u).Y }, u, &fd.Settings{Formula: fd.Central})
		if !pointsEqualApprox(derivs[i], Point2D{dx, dy}, 1e-4) {
			t.Fatalf("u=%f analytic derivative %s != numerical (%f, %f)", u, derivs[i], dx, dy)
		}
	}
	if pts := c.Positions(us); len(pts) != len(us) {
		t.Fatalf("Positions returned %d points", len(pts))
	}
}

func TestCurveLinear(t *testing.T) {
	c, err := NewCurve([]Point2D{{0, 0}, {4, 2}}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []float64{0, 0.25, 0.5, 1} {
		if p := c.PositionAt(u); !pointsEqualApprox(p, Point2D{4 * u, 2 * u}, 1e-12) {
			t.Fatalf("PositionAt(%f)=%s", u, p)
		}
		if d := c.DerivativeAt(u); !pointsEqualApprox(d, Point2D{4, 2}, 1e-12) {
			t.Fatalf("DerivativeAt(%f)=%s", u, d)
		}
	}
	// Out of domain parameters are clamped.
	if p := c.PositionAt(1.5); !pointsEqualApprox(p, Point2D{4, 2}, 1e-12) {
		t.Fatalf("PositionAt(1.5)=%s", p)
	}
}

func TestCurveCopies(t *testing.T) {
	points := squarePath()
	c, _ := NewCurve(points, 3)
	points[0] = Point2D{100, 100}
	cp := c.ControlPoints()
	cp[1] = Point2D{-1, -1}
	if p := c.PositionAt(0); !pointsEqualApprox(p, Point2D{0, 0}, 1e-12) {
		t.Fatal("curve shares its control points with the caller")
	}
	if c.ControlPoints()[1] != (Point2D{10, 0}) {
		t.Fatal("ControlPoints does not return a copy")
	}
}
