package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/jetbench/internal/cluster"
)

// Normalization modes for per-event statistics.
const (
	NormalizeFull      = "full"
	NormalizeProcessed = "processed"
)

// BenchConfig holds defaults for a benchmark run. Every field is optional:
// command-line flags override whatever the file sets, and the Get* methods
// fall back to the built-in defaults for anything left unset.
type BenchConfig struct {
	MaxEvents  *int `json:"max_events,omitempty" yaml:"max_events,omitempty"`
	SkipEvents *int `json:"skip_events,omitempty" yaml:"skip_events,omitempty"`
	Trials     *int `json:"trials,omitempty" yaml:"trials,omitempty"`

	Strategy  *string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Algorithm *string  `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Power     *float64 `json:"power,omitempty" yaml:"power,omitempty"`
	Radius    *float64 `json:"radius,omitempty" yaml:"radius,omitempty"`

	// Selection. At most one may be set.
	PtMin  *float64 `json:"ptmin,omitempty" yaml:"ptmin,omitempty"`
	DijMax *float64 `json:"dijmax,omitempty" yaml:"dijmax,omitempty"`
	NJets  *int     `json:"njets,omitempty" yaml:"njets,omitempty"`

	Dump            *string `json:"dump,omitempty" yaml:"dump,omitempty"`
	DebugClusterSeq *bool   `json:"debug_clusterseq,omitempty" yaml:"debug_clusterseq,omitempty"`
	DumpUntimed     *bool   `json:"dump_untimed,omitempty" yaml:"dump_untimed,omitempty"`
	Normalize       *string `json:"normalize,omitempty" yaml:"normalize,omitempty"`
	ResultsDB       *string `json:"results_db,omitempty" yaml:"results_db,omitempty"`
}

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// LoadBenchConfig loads a BenchConfig from a JSON or YAML file.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
func LoadBenchConfig(path string) (*BenchConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &BenchConfig{}
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *BenchConfig) Validate() error {
	if c.Trials != nil && *c.Trials < 1 {
		return fmt.Errorf("trials must be at least 1, got %d", *c.Trials)
	}
	if c.SkipEvents != nil && *c.SkipEvents < 0 {
		return fmt.Errorf("skip_events must be non-negative, got %d", *c.SkipEvents)
	}
	if c.Radius != nil && *c.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %f", *c.Radius)
	}
	if c.Strategy != nil {
		if _, err := cluster.ParseStrategy(*c.Strategy); err != nil {
			return err
		}
	}
	if c.Algorithm != nil && *c.Algorithm != "" {
		if _, err := cluster.ParseAlgorithm(*c.Algorithm); err != nil {
			return err
		}
	}
	if c.Normalize != nil {
		switch *c.Normalize {
		case NormalizeFull, NormalizeProcessed:
		default:
			return fmt.Errorf("normalize must be %q or %q, got %q", NormalizeFull, NormalizeProcessed, *c.Normalize)
		}
	}
	if c.NJets != nil && *c.NJets < 0 {
		return fmt.Errorf("njets must be non-negative, got %d", *c.NJets)
	}

	set := 0
	for _, ok := range []bool{c.PtMin != nil, c.DijMax != nil, c.NJets != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("at most one of ptmin, dijmax or njets may be set, got %d", set)
	}
	return nil
}

// GetMaxEvents returns max_events or -1 (no limit).
func (c *BenchConfig) GetMaxEvents() int {
	if c.MaxEvents == nil {
		return -1
	}
	return *c.MaxEvents
}

// GetSkipEvents returns skip_events or 0.
func (c *BenchConfig) GetSkipEvents() int {
	if c.SkipEvents == nil {
		return 0
	}
	return *c.SkipEvents
}

// GetTrials returns trials or 1.
func (c *BenchConfig) GetTrials() int {
	if c.Trials == nil {
		return 1
	}
	return *c.Trials
}

// GetStrategy returns strategy or "Best".
func (c *BenchConfig) GetStrategy() string {
	if c.Strategy == nil {
		return cluster.Best.String()
	}
	return *c.Strategy
}

// GetAlgorithm returns algorithm or "" (derive from power).
func (c *BenchConfig) GetAlgorithm() string {
	if c.Algorithm == nil {
		return ""
	}
	return *c.Algorithm
}

// GetPower returns power or -1 (anti-kt).
func (c *BenchConfig) GetPower() float64 {
	if c.Power == nil {
		return -1
	}
	return *c.Power
}

// GetRadius returns radius or 0.4.
func (c *BenchConfig) GetRadius() float64 {
	if c.Radius == nil {
		return 0.4
	}
	return *c.Radius
}

// GetDump returns the dump destination, or "" for none.
func (c *BenchConfig) GetDump() string {
	if c.Dump == nil {
		return ""
	}
	return *c.Dump
}

// GetDebugClusterSeq returns debug_clusterseq or false.
func (c *BenchConfig) GetDebugClusterSeq() bool {
	return c.DebugClusterSeq != nil && *c.DebugClusterSeq
}

// GetDumpUntimed returns dump_untimed or false.
func (c *BenchConfig) GetDumpUntimed() bool {
	return c.DumpUntimed != nil && *c.DumpUntimed
}

// GetNormalize returns normalize or "full".
func (c *BenchConfig) GetNormalize() string {
	if c.Normalize == nil {
		return NormalizeFull
	}
	return *c.Normalize
}

// GetResultsDB returns results_db or "" (results are not stored).
func (c *BenchConfig) GetResultsDB() string {
	if c.ResultsDB == nil {
		return ""
	}
	return *c.ResultsDB
}
