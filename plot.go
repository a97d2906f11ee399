package gotdoa

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	targetColor   = color.RGBA{R: 220, A: 255}
	tracker1Color = color.RGBA{G: 160, A: 255}
	tracker2Color = color.RGBA{B: 220, A: 255}
	pathColor     = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// PlotRenderer writes PNG figures of a simulation in a directory.
type PlotRenderer struct {
	outputDir     string
	width, height vg.Length
}

// NewPlotRenderer returns a new renderer writing into outputDir, which is created if needed.
func NewPlotRenderer(outputDir string) (*PlotRenderer, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("%w: empty output directory", ErrInvalidInput)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &PlotRenderer{outputDir: outputDir, width: 8 * vg.Inch, height: 8 * vg.Inch}, nil
}

func pointsXY(pts []Point2D) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i].X, xys[i].Y = p.X, p.Y
	}
	return xys
}

// addLine adds a line through pts to the plot, unless pts is empty.
func addLine(p *plot.Plot, label string, pts []Point2D, c color.Color, dashed bool) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pointsXY(pts))
	if err != nil {
		return fmt.Errorf("%s line: %w", label, err)
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	if dashed {
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	}
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	return nil
}

// addMarker adds a scatter marker at the last point of pts.
func addMarker(p *plot.Plot, pts []Point2D, c color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pointsXY(pts[len(pts)-1:]))
	if err != nil {
		return err
	}
	s.Color = c
	s.Radius = vg.Points(4)
	p.Add(s)
	return nil
}

// SaveTrajectories plots the target path, the traces of the target and the
// trackers, and the last hyperbolic solution, in <name>.png.
func (r *PlotRenderer) SaveTrajectories(c *SolutionCloud, path []Point2D, name string) (string, error) {
	p := plot.New()
	p.Title.Text = "Trackers Position"
	p.X.Label.Text = "X coordinate, m"
	p.Y.Label.Text = "Y coordinate, m"
	p.Add(plotter.NewGrid())
	rangeX, rangeY := c.Ranges()
	p.X.Min, p.X.Max = rangeX[0], rangeX[1]
	p.Y.Min, p.Y.Max = rangeY[0], rangeY[1]

	t1, t2 := c.TrackerTraces()
	target := c.TargetTrace()
	if err := addLine(p, "Target path", path, pathColor, false); err != nil {
		return "", err
	}
	if err := addLine(p, "Hyperbolic Solution Line", c.LastSolution(), targetColor, false); err != nil {
		return "", err
	}
	if err := addLine(p, "Target", target, targetColor, true); err != nil {
		return "", err
	}
	if err := addLine(p, "Tracker 1", t1, tracker1Color, false); err != nil {
		return "", err
	}
	if err := addLine(p, "Tracker 2", t2, tracker2Color, false); err != nil {
		return "", err
	}
	for i, pts := range [][]Point2D{target, t1, t2} {
		if err := addMarker(p, pts, []color.Color{targetColor, tracker1Color, tracker2Color}[i]); err != nil {
			return "", err
		}
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return r.save(p, name)
}

// SaveHeatMap plots the 2-D histogram of the solution cloud in <name>.png.
func (r *PlotRenderer) SaveHeatMap(c *SolutionCloud, name string) (string, error) {
	p := plot.New()
	p.Title.Text = "Time-Cumulative Solution Histogram (XY)"
	p.X.Label.Text = "X coordinate, m"
	p.Y.Label.Text = "Y coordinate, m"
	g := c.Histogram2D()
	h := plotter.NewHeatMap(g, palette.Heat(16, 1))
	if g.Max() == 0 {
		// The palette needs a non-empty range.
		h.Min, h.Max = 0, 1
	}
	p.Add(h)
	return r.save(p, name)
}

// SaveProjections plots the maxima of the 2-D histogram along each axis in
// <name>_x.png and <name>_y.png.
func (r *PlotRenderer) SaveProjections(c *SolutionCloud, name string) ([]string, error) {
	rangeX, rangeY := c.Ranges()
	g := c.Histogram2D()
	axes := []struct {
		suffix, title string
		values        []float64
		start         float64
	}{
		{"_x", "Time-Cumulative Solution Histogram (X-Axis)", c.ProjectionX(), rangeX[0]},
		{"_y", "Time-Cumulative Solution Histogram (Y-Axis)", c.ProjectionY(), rangeY[0]},
	}
	var files []string
	for _, axis := range axes {
		p := plot.New()
		p.Title.Text = axis.title
		p.X.Label.Text = "coordinate, m"
		p.Add(plotter.NewGrid())
		h := &plotter.Histogram{Width: g.Bin, FillColor: tracker2Color, LineStyle: plotter.DefaultLineStyle}
		for i, v := range axis.values {
			lo := axis.start + float64(i)*g.Bin
			h.Bins = append(h.Bins, plotter.HistogramBin{Min: lo, Max: lo + g.Bin, Weight: v})
		}
		p.Add(h)
		file, err := r.save(p, name+axis.suffix)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// SaveErrorHistogram plots the histogram of the localization errors in <name>.png.
func (r *PlotRenderer) SaveErrorHistogram(errs []float64, bins int, name string) (string, error) {
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: no localization error to plot", ErrInvalidInput)
	}
	p := plot.New()
	p.Title.Text = "Localization error"
	p.X.Label.Text = "error, m"
	h, err := plotter.NewHist(plotter.Values(errs), bins)
	if err != nil {
		return "", fmt.Errorf("error histogram: %w", err)
	}
	h.FillColor = tracker1Color
	p.Add(h)
	return r.save(p, name)
}

func (r *PlotRenderer) save(p *plot.Plot, name string) (string, error) {
	file := filepath.Join(r.outputDir, name+".png")
	if err := p.Save(r.width, r.height, file); err != nil {
		return "", fmt.Errorf("save %s: %w", file, err)
	}
	return file, nil
}
