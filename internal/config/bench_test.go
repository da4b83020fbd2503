package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := &BenchConfig{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, -1, cfg.GetMaxEvents())
	assert.Equal(t, 0, cfg.GetSkipEvents())
	assert.Equal(t, 1, cfg.GetTrials())
	assert.Equal(t, "Best", cfg.GetStrategy())
	assert.Equal(t, "", cfg.GetAlgorithm())
	assert.Equal(t, -1.0, cfg.GetPower())
	assert.Equal(t, 0.4, cfg.GetRadius())
	assert.Equal(t, "", cfg.GetDump())
	assert.False(t, cfg.GetDebugClusterSeq())
	assert.False(t, cfg.GetDumpUntimed())
	assert.Equal(t, NormalizeFull, cfg.GetNormalize())
	assert.Equal(t, "", cfg.GetResultsDB())
}

func TestLoadBenchConfig(t *testing.T) {
	path := writeConfig(t, "bench.json", `{
  "trials": 10,
  "skip_events": 2,
  "strategy": "N2Tiled",
  "algorithm": "Kt",
  "radius": 0.6,
  "njets": 4,
  "normalize": "processed",
  "dump_untimed": true
}`)

	cfg, err := LoadBenchConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.GetTrials())
	assert.Equal(t, 2, cfg.GetSkipEvents())
	assert.Equal(t, "N2Tiled", cfg.GetStrategy())
	assert.Equal(t, "Kt", cfg.GetAlgorithm())
	assert.Equal(t, 0.6, cfg.GetRadius())
	require.NotNil(t, cfg.NJets)
	assert.Equal(t, 4, *cfg.NJets)
	assert.Nil(t, cfg.PtMin)
	assert.Equal(t, NormalizeProcessed, cfg.GetNormalize())
	assert.True(t, cfg.GetDumpUntimed())
	assert.Equal(t, -1, cfg.GetMaxEvents())
}

func TestLoadBenchConfigYAML(t *testing.T) {
	path := writeConfig(t, "bench.yaml", `
trials: 5
algorithm: GenKt
power: 0.5
ptmin: 2.5
debug_clusterseq: true
results_db: runs.db
`)

	cfg, err := LoadBenchConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.GetTrials())
	assert.Equal(t, "GenKt", cfg.GetAlgorithm())
	assert.Equal(t, 0.5, cfg.GetPower())
	require.NotNil(t, cfg.PtMin)
	assert.Equal(t, 2.5, *cfg.PtMin)
	assert.True(t, cfg.GetDebugClusterSeq())
	assert.Equal(t, "runs.db", cfg.GetResultsDB())
}

func TestLoadBenchConfigErrors(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "bench.toml", `{}`, ".json, .yaml or .yml extension"},
		{"bad yaml", "bench.yaml", "trials: [", "failed to parse"},
		{"yaml validation", "bench.yml", "trials: 0\n", "trials must be at least 1"},
		{"bad json", "bench.json", `{"trials":`, "failed to parse"},
		{"zero trials", "bench.json", `{"trials": 0}`, "trials must be at least 1"},
		{"negative skip", "bench.json", `{"skip_events": -1}`, "skip_events"},
		{"bad radius", "bench.json", `{"radius": 0}`, "radius must be positive"},
		{"bad strategy", "bench.json", `{"strategy": "Fastest"}`, "unknown strategy"},
		{"bad algorithm", "bench.json", `{"algorithm": "SISCone"}`, "unknown algorithm"},
		{"bad normalize", "bench.json", `{"normalize": "half"}`, "normalize must be"},
		{"two selections", "bench.json", `{"ptmin": 5, "njets": 2}`, "at most one"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadBenchConfig(writeConfig(t, tc.file, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadBenchConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorContains(t, err, "failed to stat")
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"dump": "` + strings.Repeat("x", maxConfigFileSize) + `"}`
		_, err := LoadBenchConfig(writeConfig(t, "big.json", big))
		assert.ErrorContains(t, err, "too large")
	})
}
