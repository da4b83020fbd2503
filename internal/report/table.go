package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/jetbench/internal/results"
)

func us(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

// WriteRunTable writes one row per run, newest first as given.
func WriteRunTable(w io.Writer, runs []*results.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tALGORITHM\tR\tSELECTION\tTRIALS\tEVENTS\tNORM\tMEAN(us/ev)\tSTDDEV\tMIN")
	for _, r := range runs {
		id := r.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s=%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			id,
			r.Created().UTC().Format(time.DateTime),
			r.Algorithm,
			strconv.FormatFloat(r.Radius, 'g', -1, 64),
			r.SelectionMode, strconv.FormatFloat(r.SelectionValue, 'g', -1, 64),
			r.Trials,
			r.Events,
			r.NormalizedBy,
			us(r.MeanUs), us(r.StdDevUs), us(r.MinUs),
		)
	}
	return tw.Flush()
}

// TrialQuantiles returns the median and 90th percentile of the raw trial
// wall times, or zeros when there are none.
func TrialQuantiles(trialUs []float64) (median, p90 float64) {
	if len(trialUs) == 0 {
		return 0, 0
	}
	sorted := slices.Clone(trialUs)
	slices.Sort(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil),
		stat.Quantile(0.9, stat.Empirical, sorted, nil)
}

// WriteRunDetail writes every stored field of run followed by its trials.
func WriteRunDetail(w io.Writer, r *results.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Run", r.RunID},
		{"Created", r.Created().UTC().Format(time.RFC3339)},
		{"Version", r.Version},
		{"Input", r.InputPath},
		{"Algorithm", r.Algorithm},
		{"Strategy", r.Strategy},
		{"Radius", strconv.FormatFloat(r.Radius, 'g', -1, 64)},
		{"Power", strconv.FormatFloat(r.Power, 'g', -1, 64)},
		{"Selection", r.SelectionMode + "=" + strconv.FormatFloat(r.SelectionValue, 'g', -1, 64)},
		{"Trials", strconv.Itoa(r.Trials)},
		{"Events", strconv.Itoa(r.Events)},
		{"Skipped", strconv.Itoa(r.SkipEvents)},
		{"Normalization", fmt.Sprintf("%s (%d events)", r.Normalization, r.NormalizedBy)},
		{"Total time (us)", us(r.MeanTotalUs)},
		{"Mean (us/event)", us(r.MeanUs)},
		{"StdDev (us/event)", us(r.StdDevUs)},
		{"Min (us/event)", us(r.MinUs)},
	}
	if len(r.TrialUs) > 0 {
		median, p90 := TrialQuantiles(r.TrialUs)
		rows = append(rows,
			[2]string{"Trial median (us)", us(median)},
			[2]string{"Trial p90 (us)", us(p90)},
		)
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for i, t := range r.TrialUs {
		if _, err := fmt.Fprintf(w, "Trial %d %s us\n", i, us(t)); err != nil {
			return err
		}
	}
	return nil
}
