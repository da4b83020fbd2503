package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jetbench/internal/hepmc3"
	"github.com/banshee-data/jetbench/internal/monitoring"
	"github.com/banshee-data/jetbench/internal/results"
)

// writeEvents writes two back-to-back dijet events.
func writeEvents(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.hepmc3")
	w, err := hepmc3.Create(path)
	require.NoError(t, err)
	for n := 0; n < 2; n++ {
		require.NoError(t, w.WriteEvent(&hepmc3.Event{Number: n, Particles: []hepmc3.Particle{
			{PID: 211, Px: 10, E: 10, Status: hepmc3.StatusFinal},
			{PID: 211, Px: -20, E: 20, Status: hepmc3.StatusFinal},
			{PID: 2212, Pz: 6500, E: 6500, Status: 4},
		}}))
	}
	require.NoError(t, w.Close())
	return path
}

func runCmd(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var logs []string
	defer monitoring.Capture(&logs)()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunInclusive(t *testing.T) {
	input := writeEvents(t)
	code, stdout, stderr := runCmd(t, input, "--ptmin", "5", "-n", "2")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "Strategy: Best; Power: -1; Algorithm AntiKt\n")
	assert.Contains(t, stdout, "Trial 0 ")
	assert.Contains(t, stdout, "Trial 1 ")
	assert.Contains(t, stdout, "Processed 2 events, 2 times\n")
	assert.Contains(t, stdout, "Total time ")
	assert.Contains(t, stdout, "Time per event ")
	assert.Contains(t, stdout, "Lowest time per event ")
	assert.NotContains(t, stdout, "Jets in processed event")
}

func TestRunFlagsAfterInput(t *testing.T) {
	input := writeEvents(t)
	code, stdout, stderr := runCmd(t, "-s", "N2Plain", input, "--njets", "1", "-A", "Kt")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Strategy: N2Plain; Power: 1; Algorithm Kt\n")
	assert.Contains(t, stdout, "Processed 2 events, 1 times\n")
}

func TestRunConfigurationErrors(t *testing.T) {
	input := writeEvents(t)
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no selection", []string{input}, "One, and only one, of ptmin, dijmax or njets needs to be specified (currently 0)"},
		{"two selections", []string{input, "--ptmin", "5", "--njets", "2"}, "(currently 2)"},
		{"no input", []string{"--ptmin", "5"}, "No <HepMC3_input_file> argument after options"},
		{"two inputs", []string{input, input, "--ptmin", "5"}, "Only one <HepMC3_input_file> supported"},
		{"unknown algorithm", []string{input, "--ptmin", "5", "-A", "Cone"}, "Unknown algorithm type: Cone"},
		{"unknown strategy", []string{input, "--ptmin", "5", "-s", "Fast"}, "unknown strategy"},
		{"bad normalize", []string{input, "--ptmin", "5", "--normalize", "half"}, "unknown normalization"},
		{"zero trials", []string{input, "--ptmin", "5", "-n", "0"}, "trials must be at least 1"},
		{"missing file", []string{filepath.Join(t.TempDir(), "none.hepmc3"), "--ptmin", "5"}, "failed to open event file"},
		{"bad flag", []string{input, "--bogus"}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCmd(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantErr)
			assert.NotContains(t, stdout, "Trial 0")
		})
	}
}

func TestRunHelpAndVersion(t *testing.T) {
	code, stdout, _ := runCmd(t, "-h")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "HEPMC3_INPUT_FILE")
	assert.Contains(t, stdout, "only one of ptmin, dijmax or njets")

	code, stdout, _ = runCmd(t, "--version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "jetfinder "))
}

func TestRunDumpToStdout(t *testing.T) {
	input := writeEvents(t)
	code, stdout, stderr := runCmd(t, input, "--ptmin", "5", "-n", "2", "-d", "-")
	require.Equal(t, 0, code, stderr)

	trial0 := strings.Index(stdout, "Trial 0 ")
	event1 := strings.Index(stdout, "Jets in processed event 1\n")
	event2 := strings.Index(stdout, "Jets in processed event 2\n")
	trial1 := strings.Index(stdout, "Trial 1 ")
	require.True(t, trial0 >= 0 && event1 >= 0 && event2 >= 0 && trial1 >= 0, stdout)
	assert.Less(t, trial0, event1)
	assert.Less(t, event1, event2)
	assert.Less(t, event2, trial1)
	assert.Equal(t, 1, strings.Count(stdout, "Jets in processed event 1\n"), "only trial 0 dumps")
}

func TestRunDumpToFileWithHistory(t *testing.T) {
	input := writeEvents(t)
	dump := filepath.Join(t.TempDir(), "jets.txt")
	code, _, stderr := runCmd(t, input, "--ptmin", "5", "-d", dump, "-c", "--dump-untimed")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Jets in processed event 1\n")
	assert.Contains(t, text, "Jets in processed event 2\n")
	assert.Contains(t, text, "1: px=10 py=0 pz=0 E=10\n")
	assert.Contains(t, text, "1: -1 -1 ")
}

func TestRunDumpOpenFailure(t *testing.T) {
	input := writeEvents(t)
	dump := filepath.Join(t.TempDir(), "missing", "jets.txt")
	code, _, stderr := runCmd(t, input, "--ptmin", "5", "-d", dump)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "jets.txt")
}

func TestRunConfigFile(t *testing.T) {
	input := writeEvents(t)
	cfg := filepath.Join(t.TempDir(), "bench.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"trials": 3, "ptmin": 5, "algorithm": "CA"}`), 0o644))

	code, stdout, stderr := runCmd(t, input, "--config", cfg)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Algorithm CA")
	assert.Contains(t, stdout, "Processed 2 events, 3 times\n")

	// Flags win over the file, including the selection.
	code, stdout, stderr = runCmd(t, input, "--config", cfg, "-n", "1", "--njets", "2")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Processed 2 events, 1 times\n")

	bad := filepath.Join(t.TempDir(), "bench.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"trials": 0}`), 0o644))
	code, _, stderr = runCmd(t, input, "--config", bad, "--ptmin", "5")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "trials must be at least 1")
}

func TestRunRecordsResults(t *testing.T) {
	input := writeEvents(t)
	db := filepath.Join(t.TempDir(), "results.db")
	code, _, stderr := runCmd(t, input, "--ptmin", "5", "-n", "2", "--skipevents", "1",
		"--normalize", "processed", "--results-db", db)
	require.Equal(t, 0, code, stderr)

	store, err := results.OpenAndMigrate(db)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run, err := store.GetRun(runs[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, "AntiKt", run.Algorithm)
	assert.Equal(t, "ptmin", run.SelectionMode)
	assert.Equal(t, 5.0, run.SelectionValue)
	assert.Equal(t, 2, run.Events)
	assert.Equal(t, 1, run.SkipEvents)
	assert.Equal(t, "processed", run.Normalization)
	assert.Equal(t, 1, run.NormalizedBy)
	assert.Len(t, run.TrialUs, 2)
}
