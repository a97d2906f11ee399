package gotdoa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"
)

func TestImplementsGridXYZ(t *testing.T) {
	implements := func(plotter.GridXYZ) {}
	implements(new(Grid))
}

func TestNewSolutionCloudErrors(t *testing.T) {
	for _, tc := range []struct {
		rangeX, rangeY [2]float64
		bin            float64
		trace          int
	}{
		{[2]float64{1, 1}, [2]float64{0, 1}, 1, 10},
		{[2]float64{0, 1}, [2]float64{2, 1}, 1, 10},
		{[2]float64{0, 1}, [2]float64{0, 1}, 0, 10},
		{[2]float64{0, 1}, [2]float64{0, 1}, 1, 0},
		{[2]float64{0, 1}, [2]float64{0, 1}, 1, -2},
	} {
		if _, err := NewSolutionCloud(tc.rangeX, tc.rangeY, tc.bin, tc.trace); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%+v: expected ErrInvalidInput, got %v", tc, err)
		}
	}
}

func TestSolutionCloudHistograms(t *testing.T) {
	c, err := NewSolutionCloud([2]float64{0, 4}, [2]float64{0, 2}, 1, 2)
	require.NoError(t, err)
	c.Add(Point2D{0, 0}, Point2D{1, 0}, Point2D{2, 0}, []Point2D{{0.5, 0.5}, {3.9, 1.5}, {4, 2}, {5, 0}})
	assert.Equal(t, 4, c.Len())
	assert.Len(t, c.LastSolution(), 4)

	g := c.Histogram2D()
	nx, ny := g.Dims()
	require.Equal(t, 4, nx)
	require.Equal(t, 2, ny)
	assert.Equal(t, 1.0, g.Z(0, 0))
	// The upper edges are inclusive, points outside the ranges are dropped.
	assert.Equal(t, 2.0, g.Z(3, 1))
	assert.Equal(t, 2.0, g.Max())
	assert.Equal(t, 0.5, g.X(0))
	assert.Equal(t, 1.5, g.Y(1))

	assert.Equal(t, []float64{1, 0, 0, 2}, c.ProjectionX())
	assert.Equal(t, []float64{1, 2}, c.ProjectionY())

	counts, dividers := c.HistogramX()
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, dividers)
	assert.Equal(t, []float64{1, 0, 0, 1}, counts)
	counts, dividers = c.HistogramY()
	assert.Equal(t, []float64{0, 1, 2}, dividers)
	// (5, 0) is outside the x range but counts along y.
	assert.Equal(t, []float64{2, 1}, counts)

	// An empty solution keeps the cloud but clears the last hyperbola.
	c.Add(Point2D{1, 1}, Point2D{1, 0}, Point2D{2, 0}, nil)
	assert.Equal(t, 4, c.Len())
	assert.Empty(t, c.LastSolution())
}

func TestSolutionCloudTraces(t *testing.T) {
	bounded, _ := NewSolutionCloud([2]float64{0, 10}, [2]float64{0, 10}, 1, 2)
	unbounded, _ := NewSolutionCloud([2]float64{0, 10}, [2]float64{0, 10}, 1, -1)
	for k := 0; k < 5; k++ {
		x := float64(k)
		for _, c := range []*SolutionCloud{bounded, unbounded} {
			c.Add(Point2D{x, 0}, Point2D{x, 1}, Point2D{x, 2}, []Point2D{{x, x}})
		}
	}
	assert.Equal(t, []Point2D{{3, 0}, {4, 0}}, bounded.TargetTrace())
	t1, t2 := bounded.TrackerTraces()
	assert.Equal(t, []Point2D{{3, 1}, {4, 1}}, t1)
	assert.Equal(t, []Point2D{{3, 2}, {4, 2}}, t2)
	assert.Len(t, unbounded.TargetTrace(), 5)
	assert.Equal(t, 5, bounded.Len())

	// Accessors return copies.
	trace := bounded.TargetTrace()
	trace[0].X = 100
	assert.Equal(t, 3.0, bounded.TargetTrace()[0].X)
	xs, _ := bounded.Points()
	xs[0] = 100
	xs, _ = bounded.Points()
	assert.Equal(t, 0.0, xs[0])
}
