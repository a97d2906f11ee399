package gotdoa

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SolutionCloud accumulates the hyperbolic solutions of a simulation along
// with bounded traces of the target and the trackers.
type SolutionCloud struct {
	rangeX, rangeY [2]float64
	bin            float64
	trace          int
	xs, ys         []float64
	last           []Point2D
	target         []Point2D
	tracker1       []Point2D
	tracker2       []Point2D
}

// NewSolutionCloud returns a new cloud whose histograms cover rangeX x rangeY
// with square bins of the provided size. Traces keep the last `trace`
// positions, or all of them if trace is -1.
func NewSolutionCloud(rangeX, rangeY [2]float64, bin float64, trace int) (*SolutionCloud, error) {
	if !(rangeX[1] > rangeX[0]) || !(rangeY[1] > rangeY[0]) {
		return nil, fmt.Errorf("%w: empty histogram range %v x %v", ErrInvalidInput, rangeX, rangeY)
	}
	if !(bin > 0) {
		return nil, fmt.Errorf("%w: histogram bin must be positive, got %f", ErrInvalidInput, bin)
	}
	if trace == 0 || trace < -1 {
		return nil, fmt.Errorf("%w: trace must be positive or -1, got %d", ErrInvalidInput, trace)
	}
	return &SolutionCloud{rangeX: rangeX, rangeY: rangeY, bin: bin, trace: trace}, nil
}

// Add accumulates the solution of one step.
func (c *SolutionCloud) Add(target, tracker1, tracker2 Point2D, solution []Point2D) {
	for _, p := range solution {
		c.xs = append(c.xs, p.X)
		c.ys = append(c.ys, p.Y)
	}
	c.last = append(c.last[:0], solution...)
	c.target = c.appendTrace(c.target, target)
	c.tracker1 = c.appendTrace(c.tracker1, tracker1)
	c.tracker2 = c.appendTrace(c.tracker2, tracker2)
}

func (c *SolutionCloud) appendTrace(trace []Point2D, p Point2D) []Point2D {
	trace = append(trace, p)
	if c.trace != -1 && len(trace) > c.trace {
		trace = trace[len(trace)-c.trace:]
	}
	return trace
}

// Len returns the number of accumulated solution points.
func (c *SolutionCloud) Len() int {
	return len(c.xs)
}

// Points returns copies of the accumulated solution coordinates.
func (c *SolutionCloud) Points() (xs, ys []float64) {
	return append([]float64(nil), c.xs...), append([]float64(nil), c.ys...)
}

// LastSolution returns the hyperbola of the last step.
func (c *SolutionCloud) LastSolution() []Point2D {
	return append([]Point2D(nil), c.last...)
}

// TargetTrace returns the last positions of the target.
func (c *SolutionCloud) TargetTrace() []Point2D {
	return append([]Point2D(nil), c.target...)
}

// TrackerTraces returns the last positions of both trackers.
func (c *SolutionCloud) TrackerTraces() (tracker1, tracker2 []Point2D) {
	return append([]Point2D(nil), c.tracker1...), append([]Point2D(nil), c.tracker2...)
}

// Ranges returns the histogram ranges.
func (c *SolutionCloud) Ranges() (rangeX, rangeY [2]float64) {
	return c.rangeX, c.rangeY
}

func (c *SolutionCloud) bins() (nx, ny int) {
	nx = int(math.Ceil((c.rangeX[1] - c.rangeX[0]) / c.bin))
	ny = int(math.Ceil((c.rangeY[1] - c.rangeY[0]) / c.bin))
	return
}

// Histogram2D returns the counts of the accumulated points per bin. Points
// outside the ranges are ignored and the upper edges are inclusive.
func (c *SolutionCloud) Histogram2D() *Grid {
	nx, ny := c.bins()
	counts := mat.NewDense(nx, ny, nil)
	for k := range c.xs {
		i, ok := binIndex(c.xs[k], c.rangeX, c.bin, nx)
		if !ok {
			continue
		}
		j, ok := binIndex(c.ys[k], c.rangeY, c.bin, ny)
		if !ok {
			continue
		}
		counts.Set(i, j, counts.At(i, j)+1)
	}
	return &Grid{Counts: counts, X0: c.rangeX[0], Y0: c.rangeY[0], Bin: c.bin}
}

func binIndex(v float64, rng [2]float64, bin float64, n int) (int, bool) {
	if v < rng[0] || v > rng[1] || math.IsNaN(v) {
		return 0, false
	}
	return min(int((v-rng[0])/bin), n-1), true
}

// ProjectionX returns, for each x bin, the maximum count over the y bins.
func (c *SolutionCloud) ProjectionX() []float64 {
	g := c.Histogram2D()
	nx, _ := g.Counts.Dims()
	proj := make([]float64, nx)
	for i := range proj {
		proj[i] = floats.Max(mat.Row(nil, i, g.Counts))
	}
	return proj
}

// ProjectionY returns, for each y bin, the maximum count over the x bins.
func (c *SolutionCloud) ProjectionY() []float64 {
	g := c.Histogram2D()
	_, ny := g.Counts.Dims()
	proj := make([]float64, ny)
	for j := range proj {
		proj[j] = floats.Max(mat.Col(nil, j, g.Counts))
	}
	return proj
}

// HistogramX returns the 1-D histogram of the x coordinates and its bin dividers.
func (c *SolutionCloud) HistogramX() (counts, dividers []float64) {
	nx, _ := c.bins()
	return histogram(c.xs, c.rangeX[0], c.rangeX[0]+float64(nx)*c.bin, nx)
}

// HistogramY returns the 1-D histogram of the y coordinates and its bin dividers.
func (c *SolutionCloud) HistogramY() (counts, dividers []float64) {
	_, ny := c.bins()
	return histogram(c.ys, c.rangeY[0], c.rangeY[0]+float64(ny)*c.bin, ny)
}

func histogram(values []float64, lo, hi float64, n int) (counts, dividers []float64) {
	dividers = floats.Span(make([]float64, n+1), lo, hi)
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lo && v < hi {
			x = append(x, v)
		}
	}
	sort.Float64s(x)
	counts = stat.Histogram(nil, dividers, x, nil)
	return counts, dividers
}

// Grid is a 2-D histogram: Counts is nx x ny with x bins along the rows.
type Grid struct {
	Counts *mat.Dense
	X0, Y0 float64
	Bin    float64
}

// Dims returns the number of x and y bins.
func (g *Grid) Dims() (c, r int) {
	return g.Counts.Dims()
}

// Z returns the count of the bin.
func (g *Grid) Z(c, r int) float64 {
	return g.Counts.At(c, r)
}

// X returns the center of the c-th x bin.
func (g *Grid) X(c int) float64 {
	return g.X0 + (float64(c)+0.5)*g.Bin
}

// Y returns the center of the r-th y bin.
func (g *Grid) Y(r int) float64 {
	return g.Y0 + (float64(r)+0.5)*g.Bin
}

// Max returns the largest count.
func (g *Grid) Max() float64 {
	return mat.Max(g.Counts)
}
