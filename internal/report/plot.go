package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/jetbench/internal/results"
)

var (
	trialColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	meanColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// RenderPlot saves a static plot of run's per-trial wall time with its mean
// drawn as a dashed line. The image format follows the extension of path
// (png, svg, pdf, ...).
func RenderPlot(path string, run *results.Run) error {
	p, err := trialPlot(run)
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

// WritePNG writes the same plot as RenderPlot to w as a PNG image.
func WritePNG(w io.Writer, run *results.Run) error {
	p, err := trialPlot(run)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

func trialPlot(run *results.Run) (*plot.Plot, error) {
	if run == nil || len(run.TrialUs) == 0 {
		return nil, ErrNoRuns
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trial wall time: %s", RunLabel(run))
	p.X.Label.Text = "Trial"
	p.Y.Label.Text = "Wall time (us)"

	pts := make(plotter.XYs, len(run.TrialUs))
	for i, us := range run.TrialUs {
		pts[i] = plotter.XY{X: float64(i), Y: us}
	}
	mean := stat.Mean(run.TrialUs, nil)

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create trial line: %w", err)
	}
	line.Color = trialColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("trial", line)

	marks, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create trial markers: %w", err)
	}
	marks.Color = trialColor
	p.Add(marks)

	meanPts := plotter.XYs{{X: 0, Y: mean}, {X: float64(max(1, len(pts)-1)), Y: mean}}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mean line: %w", err)
	}
	meanLine.Color = meanColor
	meanLine.Width = vg.Points(1)
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(meanLine)
	p.Legend.Add(fmt.Sprintf("mean %.0f us", mean), meanLine)

	p.Add(plotter.NewGrid())
	return p, nil
}
