package export

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/qsis-io/qsis/internal/relativity"
	"github.com/qsis-io/qsis/internal/spacetime"
)

// RenderDiagram draws a Minkowski diagram of a worldline: x on the
// horizontal axis, ct on the vertical, both in meters, with the light
// cone of the first event drawn as dashed asymptotes. Worldline segments
// steeper than the cone lines are timelike.
func RenderDiagram(path, title string, w spacetime.Worldline) error {
	if len(w.Events) < 2 {
		return fmt.Errorf("render diagram: worldline needs at least 2 events")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "ct (m)"

	line := make(plotter.XYs, len(w.Events))
	extent := 0.0
	for i, e := range w.Events {
		line[i] = plotter.XY{X: e.X, Y: relativity.C * e.T}
		extent = math.Max(extent, math.Max(math.Abs(line[i].X), math.Abs(line[i].Y)))
	}
	if extent == 0 {
		extent = 1
	}

	worldline, points, err := plotter.NewLinePoints(line)
	if err != nil {
		return fmt.Errorf("render diagram: %w", err)
	}
	worldline.Color = color.RGBA{B: 200, A: 255}
	points.Color = color.RGBA{B: 200, A: 255}
	p.Add(worldline, points)
	p.Legend.Add("worldline", worldline)

	// Light cone asymptotes through the first event, spanning the plot.
	origin := w.Events[0]
	for _, slope := range []float64{1, -1} {
		cone := plotter.XYs{
			{X: origin.X - extent, Y: relativity.C*origin.T - slope*extent},
			{X: origin.X + extent, Y: relativity.C*origin.T + slope*extent},
		}
		coneLine, err := plotter.NewLine(cone)
		if err != nil {
			return fmt.Errorf("render diagram: %w", err)
		}
		coneLine.Color = color.RGBA{R: 200, A: 255}
		coneLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(coneLine)
	}

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save diagram %s: %w", path, err)
	}
	return nil
}
