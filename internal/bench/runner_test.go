package bench

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jetbench/internal/cluster"
	"github.com/banshee-data/jetbench/internal/monitoring"
	"github.com/banshee-data/jetbench/internal/timeutil"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRunner(t *testing.T, spec SelectionSpec, cfg RunnerConfig) *Runner {
	t.Helper()
	inv, err := NewInvoker(AlgorithmConfig{Algorithm: cluster.AntiKt, R: 0.4, Power: -1})
	require.NoError(t, err)
	r, err := NewRunner(inv, mustSelector(t, spec), cfg)
	require.NoError(t, err)
	return r
}

func TestNewRunnerValidation(t *testing.T) {
	inv, err := NewInvoker(AlgorithmConfig{Algorithm: cluster.AntiKt, R: 0.4})
	require.NoError(t, err)
	sel := mustSelector(t, PtMinSelection(5))

	_, err = NewRunner(inv, sel, RunnerConfig{Trials: 0})
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = NewRunner(inv, sel, RunnerConfig{Trials: 1, SkipEvents: -2})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRunnerTimesEachTrial(t *testing.T) {
	var out bytes.Buffer
	store := NewEventStore("mem", randomEvents(1, 4, 20))
	r := newTestRunner(t, PtMinSelection(1), RunnerConfig{
		Trials: 3,
		Clock:  timeutil.NewSteppingClock(epoch, 250*time.Microsecond),
		Out:    &out,
	})

	stats, err := r.Run(store)
	require.NoError(t, err)
	assert.Equal(t, []TrialStat{{0, 250}, {1, 250}, {2, 250}}, stats)
	assert.Equal(t, "Trial 0 250 us\nTrial 1 250 us\nTrial 2 250 us\n", out.String())
}

// Three events of ten particles with njets=2 give three dump records of two
// pt-ordered jets each.
func TestRunnerDumpsNJetsScenario(t *testing.T) {
	sink := &recordingSink{}
	store := NewEventStore("mem", randomEvents(21, 3, 10))
	r := newTestRunner(t, NJetsSelection(2), RunnerConfig{Trials: 1, Dump: sink})

	_, err := r.Run(store)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, sink.indices)
	for _, jets := range sink.jets {
		require.Len(t, jets, 2)
		assert.GreaterOrEqual(t, jets[0].Pt(), jets[1].Pt())
	}
}

func TestRunnerDumpTrials(t *testing.T) {
	store := NewEventStore("mem", randomEvents(2, 2, 8))

	t.Run("first trial only", func(t *testing.T) {
		sink := &recordingSink{}
		r := newTestRunner(t, PtMinSelection(0), RunnerConfig{Trials: 4, Dump: sink})
		_, err := r.Run(store)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, sink.indices)
	})

	t.Run("every trial", func(t *testing.T) {
		sink := &recordingSink{}
		r := newTestRunner(t, PtMinSelection(0), RunnerConfig{Trials: 3, Dump: sink, DumpEveryTrial: true})
		_, err := r.Run(store)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, sink.indices)
	})
}

func TestRunnerSkipEvents(t *testing.T) {
	sink := &recordingSink{}
	store := NewEventStore("mem", randomEvents(4, 5, 6))
	r := newTestRunner(t, PtMinSelection(0), RunnerConfig{Trials: 1, SkipEvents: 2, Dump: sink})

	_, err := r.Run(store)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, sink.indices)

	r = newTestRunner(t, PtMinSelection(0), RunnerConfig{Trials: 2, SkipEvents: 9})
	stats, err := r.Run(store)
	require.NoError(t, err)
	assert.Len(t, stats, 2)
}

func TestRunnerDumpOutsideTiming(t *testing.T) {
	store := NewEventStore("mem", randomEvents(6, 3, 10))

	for _, untimed := range []bool{false, true} {
		clock := timeutil.NewMockClock(epoch)
		sink := &recordingSink{onDump: func() { clock.Advance(time.Millisecond) }}
		r := newTestRunner(t, PtMinSelection(0), RunnerConfig{
			Trials:            2,
			Dump:              sink,
			DumpOutsideTiming: untimed,
			Clock:             clock,
		})
		stats, err := r.Run(store)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, sink.indices)

		want := 3000.0
		if untimed {
			want = 0
		}
		assert.Equal(t, want, stats[0].Micros, "untimed=%v", untimed)
		assert.Equal(t, 0.0, stats[1].Micros, "untimed=%v", untimed)
	}
}

func TestRunnerInsufficientJetsIsAWarning(t *testing.T) {
	var logs []string
	defer monitoring.Capture(&logs)()

	sink := &recordingSink{}
	store := NewEventStore("mem", []Event{
		randomEvents(8, 1, 1)[0],
		randomEvents(9, 1, 5)[0],
	})
	r := newTestRunner(t, NJetsSelection(3), RunnerConfig{Trials: 2, Dump: sink})

	stats, err := r.Run(store)
	require.NoError(t, err)
	assert.Len(t, stats, 2)
	require.Len(t, logs, 1, "warned once, on the first trial")
	assert.Contains(t, logs[0], "warning: event 1:")
	assert.Empty(t, sink.jets[0])
	assert.Len(t, sink.jets[1], 3)
}

func TestRunsAreDeterministic(t *testing.T) {
	store := NewEventStore("mem", randomEvents(12, 6, 40))
	dump := func() string {
		var buf bytes.Buffer
		d := NewDumper(&buf, true)
		r := newTestRunner(t, NJetsSelection(4), RunnerConfig{Trials: 1, Dump: d})
		_, err := r.Run(store)
		require.NoError(t, err)
		require.NoError(t, d.Close())
		return buf.String()
	}
	first := dump()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, dump())
}
