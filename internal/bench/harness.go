package bench

import (
	"fmt"
	"io"

	"github.com/banshee-data/jetbench/internal/timeutil"
)

// Options describes one complete benchmark run.
type Options struct {
	MaxEvents  int
	SkipEvents int
	Trials     int

	Algorithm AlgorithmConfig
	Selection SelectionSpec

	Dump              DumpSink
	DumpEveryTrial    bool
	DumpOutsideTiming bool

	// Normalize is config.NormalizeFull (default) or config.NormalizeProcessed.
	Normalize string

	Clock timeutil.Clock
	Out   io.Writer
}

// Result is the outcome of Execute.
type Result struct {
	Store   *EventStore
	Stats   []TrialStat
	Summary Summary
}

// Prepare checks everything that can be checked before reading events and
// returns the Invoker and Selector for the run.
func Prepare(opts Options) (*Invoker, *Selector, error) {
	if _, err := NormalizationCount(opts.Normalize, 0, 0); err != nil {
		return nil, nil, err
	}
	inv, err := NewInvoker(opts.Algorithm)
	if err != nil {
		return nil, nil, err
	}
	sel, err := NewSelector(opts.Selection)
	if err != nil {
		return nil, nil, err
	}
	return inv, sel, nil
}

// Execute loads events from src, runs the trials and aggregates the timings.
// It does not close opts.Dump.
func Execute(src Source, name string, opts Options) (*Result, error) {
	inv, sel, err := Prepare(opts)
	if err != nil {
		return nil, err
	}
	runner, err := NewRunner(inv, sel, RunnerConfig{
		Trials:            opts.Trials,
		SkipEvents:        opts.SkipEvents,
		Dump:              opts.Dump,
		DumpEveryTrial:    opts.DumpEveryTrial,
		DumpOutsideTiming: opts.DumpOutsideTiming,
		Clock:             opts.Clock,
		Out:               opts.Out,
	})
	if err != nil {
		return nil, err
	}

	store, err := LoadEvents(src, name, opts.MaxEvents)
	if err != nil {
		return nil, err
	}

	stats, err := runner.Run(store)
	if err != nil {
		return &Result{Store: store, Stats: stats}, err
	}

	count, err := NormalizationCount(opts.Normalize, store.Len(), opts.SkipEvents)
	if err != nil {
		return nil, err
	}
	summary, err := Aggregate(stats, count)
	if err != nil {
		return &Result{Store: store, Stats: stats}, fmt.Errorf("aggregate %s: %w", name, err)
	}
	return &Result{Store: store, Stats: stats, Summary: summary}, nil
}
