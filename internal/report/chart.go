// Package report renders stored benchmark runs as text tables, interactive
// HTML charts and static plots, and serves them over HTTP.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/jetbench/internal/results"
)

// ErrNoRuns is returned when there is nothing to render.
var ErrNoRuns = errors.New("no runs to render")

// ChartOptions controls HTML chart rendering.
type ChartOptions struct {
	// AssetsHost overrides where the echarts javascript is loaded from.
	// Empty uses the go-echarts default CDN.
	AssetsHost string
}

// RunLabel is the short name used for a run in legends and table rows.
func RunLabel(r *results.Run) string {
	id := r.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s %s R=%s", id, r.Algorithm, strconv.FormatFloat(r.Radius, 'g', -1, 64))
}

func initOpts(o ChartOptions, title string) opts.Initialization {
	init := opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}
	if o.AssetsHost != "" {
		init.AssetsHost = o.AssetsHost
	}
	return init
}

// RenderChart writes an HTML page comparing runs. The first chart shows the
// per-trial wall time of every run; the second shows the mean time per event.
// Runs need their TrialUs populated to appear in the trial chart.
func RenderChart(w io.Writer, runs []*results.Run, o ChartOptions) error {
	if len(runs) == 0 {
		return ErrNoRuns
	}

	maxTrials := 0
	for _, r := range runs {
		maxTrials = max(maxTrials, len(r.TrialUs))
	}
	trialAxis := make([]string, maxTrials)
	for i := range trialAxis {
		trialAxis[i] = strconv.Itoa(i)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(o, "jetbench runs")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Trial wall time",
			Subtitle: fmt.Sprintf("%d run(s)", len(runs)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "trial", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "us"}),
	)
	line.SetXAxis(trialAxis)
	for _, r := range runs {
		data := make([]opts.LineData, len(r.TrialUs))
		for i, us := range r.TrialUs {
			data[i] = opts.LineData{Value: us}
		}
		line.AddSeries(RunLabel(r), data)
	}

	labels := make([]string, len(runs))
	means := make([]opts.BarData, len(runs))
	for i, r := range runs {
		labels[i] = RunLabel(r)
		means[i] = opts.BarData{Value: r.MeanUs}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(o, "jetbench runs")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Mean time per event",
			Subtitle: "us, normalized per run",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "us/event"}),
	)
	bar.SetXAxis(labels).AddSeries("mean", means,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.AddCharts(line, bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
