package bench

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/jetbench/internal/config"
)

// Summary is the per-event timing of a run, in microseconds.
type Summary struct {
	Trials     int
	EventCount int // events the timings were normalized by

	MeanTotal float64 // mean per-trial total
	Mean      float64
	StdDev    float64
	Min       float64
}

// Aggregate reduces per-trial totals to per-event statistics. The standard
// deviation is the Bessel-corrected sample deviation of the totals, scaled
// by 1/eventCount; it is zero for a single trial.
func Aggregate(stats []TrialStat, eventCount int) (Summary, error) {
	if eventCount <= 0 {
		return Summary{}, fmt.Errorf("%w (event count %d)", ErrEmptyEventSet, eventCount)
	}
	if len(stats) == 0 {
		return Summary{}, ErrNoTrials
	}

	x := make([]float64, len(stats))
	for i, s := range stats {
		x[i] = s.Micros
	}
	n := float64(len(x))
	mean := floats.Sum(x) / n
	mean2 := floats.Dot(x, x) / n

	var sigma float64
	if len(x) > 1 {
		// Rounding can leave a tiny negative residue for identical trials.
		sigma = math.Sqrt(math.Max(0, n/(n-1)*(mean2-mean*mean)))
	}

	events := float64(eventCount)
	return Summary{
		Trials:     len(x),
		EventCount: eventCount,
		MeanTotal:  mean,
		Mean:       mean / events,
		StdDev:     sigma / events,
		Min:        floats.Min(x) / events,
	}, nil
}

// NormalizationCount returns the event count per-event statistics are
// divided by. "full" uses every loaded event, "processed" only the ones
// after the skipped prefix.
func NormalizationCount(mode string, total, skip int) (int, error) {
	switch mode {
	case "", config.NormalizeFull:
		return total, nil
	case config.NormalizeProcessed:
		return max(0, total-skip), nil
	}
	return 0, configErrorf(nil, "unknown normalization %q (valid values are %s, %s)",
		mode, config.NormalizeFull, config.NormalizeProcessed)
}

// WriteSummary prints the closing report of a run. loaded is the number of
// events in the store.
func WriteSummary(w io.Writer, s Summary, loaded int) {
	fmt.Fprintf(w, "Processed %d events, %d times\n", loaded, s.Trials)
	fmt.Fprintf(w, "Total time %s us\n", shortFloat(s.MeanTotal))
	fmt.Fprintf(w, "Time per event %s +- %s us\n", shortFloat(s.Mean), shortFloat(s.StdDev))
	fmt.Fprintf(w, "Lowest time per event %s us\n", shortFloat(s.Min))
}
