package gotdoa

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// EChartsRenderer renders an interactive HTML page of a simulation.
type EChartsRenderer struct {
	Title string
	// AssetsHost overrides the echarts assets location when set.
	AssetsHost string
}

func (r EChartsRenderer) initOpts(subtitle string) []charts.GlobalOpts {
	initialization := opts.Initialization{PageTitle: r.Title, Width: "900px", Height: "900px"}
	if r.AssetsHost != "" {
		initialization.AssetsHost = r.AssetsHost
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(initialization),
		charts.WithTitleOpts(opts.Title{Title: r.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func scatterData(pts []Point2D) []opts.ScatterData {
	data := make([]opts.ScatterData, len(pts))
	for i, p := range pts {
		data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
	}
	return data
}

// HeatMapChart returns a scatter of the non-empty bins of the solution cloud,
// colored by count.
func (r EChartsRenderer) HeatMapChart(c *SolutionCloud) *charts.Scatter {
	g := c.Histogram2D()
	nx, ny := g.Dims()
	data := make([]opts.ScatterData, 0, nx)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if n := g.Z(i, j); n > 0 {
				data = append(data, opts.ScatterData{Value: []interface{}{g.X(i), g.Y(j), n}})
			}
		}
	}
	rangeX, rangeY := c.Ranges()
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(r.initOpts(fmt.Sprintf("points=%d bins=%d", c.Len(), len(data))),
		charts.WithXAxisOpts(opts.XAxis{Min: rangeX[0], Max: rangeX[1], Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: rangeY[0], Max: rangeY[1], Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(max(g.Max(), 1)),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#000004", "#420a68", "#932667", "#dd513a", "#fca50a", "#fcffa4"}},
		}),
	)...)
	scatter.AddSeries("solutions", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter
}

// TracksChart returns a scatter of the traces of the target and the trackers
// and of the last hyperbolic solution.
func (r EChartsRenderer) TracksChart(c *SolutionCloud) *charts.Scatter {
	rangeX, rangeY := c.Ranges()
	t1, t2 := c.TrackerTraces()
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(r.initOpts("tracks"),
		charts.WithXAxisOpts(opts.XAxis{Min: rangeX[0], Max: rangeX[1], Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: rangeY[0], Max: rangeY[1], Name: "Y (m)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)...)
	scatter.AddSeries("hyperbola", scatterData(c.LastSolution()), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 1}))
	scatter.AddSeries("target", scatterData(c.TargetTrace()), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	scatter.AddSeries("tracker 1", scatterData(t1), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	scatter.AddSeries("tracker 2", scatterData(t2), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	return scatter
}

// ErrorChart returns a bar chart of the localization error per step. Steps
// without a finite error are left empty.
func (r EChartsRenderer) ErrorChart(errs []float64) *charts.Bar {
	x := make([]int, len(errs))
	y := make([]opts.BarData, len(errs))
	for i, e := range errs {
		x[i] = i
		y[i] = opts.BarData{Value: e}
		if !isFinite(e) {
			// JSON has no NaN, echarts skips "-".
			y[i].Value = "-"
		}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.initOpts("localization error (m)")...)
	bar.SetXAxis(x).AddSeries("error", y)
	return bar
}

// Render writes an HTML page with the charts of the cloud and the localization errors.
func (r EChartsRenderer) Render(w io.Writer, c *SolutionCloud, errs []float64) error {
	page := components.NewPage()
	if r.AssetsHost != "" {
		page.SetAssetsHost(r.AssetsHost)
	}
	page.AddCharts(r.TracksChart(c), r.HeatMapChart(c))
	if len(errs) > 0 {
		page.AddCharts(r.ErrorChart(errs))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
