package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/qsis-io/qsis/internal/store"
)

// RenderChart plots the three headline effects against velocity: the
// Lorentz factor, dilated time, and contracted length. The output format
// follows the file extension (.png, .svg, .pdf).
func RenderChart(path, title string, samples []store.Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("render chart: no samples")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "velocity (fraction of c)"
	p.Legend.Top = true
	p.Legend.Left = true

	gamma := make(plotter.XYs, len(samples))
	dilated := make(plotter.XYs, len(samples))
	contracted := make(plotter.XYs, len(samples))
	for i, s := range samples {
		gamma[i] = plotter.XY{X: s.Beta, Y: s.Gamma}
		dilated[i] = plotter.XY{X: s.Beta, Y: s.DilatedTime}
		contracted[i] = plotter.XY{X: s.Beta, Y: s.ContractedLength}
	}

	if err := plotutil.AddLines(p,
		"Lorentz factor γ", gamma,
		"dilated time", dilated,
		"contracted length", contracted,
	); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}
