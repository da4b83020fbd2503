package bench

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/jetbench/internal/cluster"
	"github.com/banshee-data/jetbench/internal/monitoring"
	"github.com/banshee-data/jetbench/internal/timeutil"
)

// TrialStat is the wall time of one full pass over the events.
type TrialStat struct {
	Trial  int
	Micros float64
}

// RunnerConfig controls a Runner.
type RunnerConfig struct {
	Trials     int
	SkipEvents int

	// Dump, when set, receives the selected jets of trial 0.
	Dump DumpSink
	// DumpEveryTrial dumps on every trial instead of trial 0 only.
	DumpEveryTrial bool
	// DumpOutsideTiming holds dump records until the trial's clock has
	// stopped. By default dump writes are interleaved with clustering.
	DumpOutsideTiming bool

	// Clock defaults to timeutil.RealClock.
	Clock timeutil.Clock
	// Out receives the "Trial i ... us" progress lines. Defaults to io.Discard.
	Out io.Writer
}

// Runner makes timed passes over an EventStore.
type Runner struct {
	invoker  *Invoker
	selector *Selector
	cfg      RunnerConfig
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(invoker *Invoker, selector *Selector, cfg RunnerConfig) (*Runner, error) {
	if cfg.Trials < 1 {
		return nil, configErrorf(nil, "trials must be at least 1, got %d", cfg.Trials)
	}
	if cfg.SkipEvents < 0 {
		return nil, configErrorf(nil, "skipevents must be non-negative, got %d", cfg.SkipEvents)
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Runner{invoker: invoker, selector: selector, cfg: cfg}, nil
}

type dumpRecord struct {
	index int
	jets  []cluster.PseudoJet
	seq   *cluster.Sequence
}

// Run performs the configured number of trials over store. Events before
// SkipEvents are never clustered.
func (r *Runner) Run(store *EventStore) ([]TrialStat, error) {
	stats := make([]TrialStat, 0, r.cfg.Trials)
	for trial := 0; trial < r.cfg.Trials; trial++ {
		elapsed, err := r.runTrial(store, trial)
		if err != nil {
			return stats, err
		}
		stats = append(stats, TrialStat{Trial: trial, Micros: elapsed})
	}
	return stats, nil
}

func (r *Runner) runTrial(store *EventStore, trial int) (float64, error) {
	dumping := r.cfg.Dump != nil && (trial == 0 || r.cfg.DumpEveryTrial)
	var held []dumpRecord

	fmt.Fprintf(r.cfg.Out, "Trial %d ", trial)
	start := r.cfg.Clock.Now()
	for i := r.cfg.SkipEvents; i < store.Len(); i++ {
		seq, err := r.invoker.Cluster(store.Event(i))
		if err != nil {
			return 0, fmt.Errorf("trial %d, event %d: %w", trial, i+1, err)
		}
		jets, err := r.selector.Select(seq)
		if err != nil {
			if !errors.Is(err, ErrInsufficientJets) {
				return 0, fmt.Errorf("trial %d, event %d: %w", trial, i+1, err)
			}
			if trial == 0 {
				monitoring.Warnf("event %d: %v", i+1, err)
			}
			jets = nil
		}
		if !dumping {
			continue
		}
		if r.cfg.DumpOutsideTiming {
			held = append(held, dumpRecord{index: i, jets: jets, seq: seq})
			continue
		}
		if err := r.cfg.Dump.DumpEvent(i, jets, seq); err != nil {
			return 0, fmt.Errorf("dump event %d: %w", i+1, err)
		}
	}
	// Truncated to whole microseconds.
	elapsed := float64(r.cfg.Clock.Since(start).Microseconds())
	fmt.Fprintf(r.cfg.Out, "%s us\n", shortFloat(elapsed))
	if f, ok := r.cfg.Out.(interface{ Flush() error }); ok {
		f.Flush()
	}

	for _, rec := range held {
		if err := r.cfg.Dump.DumpEvent(rec.index, rec.jets, rec.seq); err != nil {
			return 0, fmt.Errorf("dump event %d: %w", rec.index+1, err)
		}
	}
	return elapsed, nil
}
