package bench

import (
	"fmt"

	"github.com/banshee-data/jetbench/internal/cluster"
)

// AlgorithmConfig is the fully resolved clustering configuration of a run.
type AlgorithmConfig struct {
	Algorithm cluster.Algorithm
	R         float64
	Power     float64
	Strategy  cluster.Strategy
}

// ResolveAlgorithm picks the algorithm from an explicit name, or from the
// power when name is empty. Named fixed-power algorithms also fix the power
// that is reported back.
func ResolveAlgorithm(name string, power float64) (cluster.Algorithm, float64, error) {
	if name == "" {
		switch power {
		case -1:
			return cluster.AntiKt, power, nil
		case 0:
			return cluster.CambridgeAachen, power, nil
		case 1:
			return cluster.Kt, power, nil
		}
		return cluster.GenKt, power, nil
	}

	alg, err := cluster.ParseAlgorithm(name)
	if err != nil {
		return 0, power, configErrorf(nil, "Unknown algorithm type: %s", name)
	}
	switch alg {
	case cluster.AntiKt:
		power = -1
	case cluster.CambridgeAachen:
		power = 0
	case cluster.Kt, cluster.Durham:
		power = 1
	}
	return alg, power, nil
}

// NewAlgorithmConfig resolves command-line style options into an
// AlgorithmConfig.
func NewAlgorithmConfig(algorithm string, power, r float64, strategy string) (AlgorithmConfig, error) {
	strat, err := cluster.ParseStrategy(strategy)
	if err != nil {
		return AlgorithmConfig{}, configErrorf(err, "%v", err)
	}
	alg, p, err := ResolveAlgorithm(algorithm, power)
	if err != nil {
		return AlgorithmConfig{}, err
	}
	return AlgorithmConfig{Algorithm: alg, R: r, Power: p, Strategy: strat}, nil
}

// Invoker clusters single events under one jet definition. It keeps no
// per-event state, so the same Invoker serves every event of every trial.
type Invoker struct {
	def cluster.JetDefinition
}

// NewInvoker builds the jet definition for cfg once. The generalised
// algorithms take R and the power, Durham takes neither, and the
// fixed-power algorithms take R only.
func NewInvoker(cfg AlgorithmConfig) (*Invoker, error) {
	var (
		def cluster.JetDefinition
		err error
	)
	switch cfg.Algorithm {
	case cluster.GenKt, cluster.EEKt:
		def, err = cluster.NewGenKtDefinition(cfg.Algorithm, cfg.R, cfg.Power, cluster.EScheme, cfg.Strategy)
	case cluster.Durham:
		def = cluster.NewDurhamDefinition(cluster.EScheme, cfg.Strategy)
	default:
		def, err = cluster.NewJetDefinition(cfg.Algorithm, cfg.R, cluster.EScheme, cfg.Strategy)
	}
	if err != nil {
		return nil, configErrorf(err, "%v", err)
	}
	return &Invoker{def: def}, nil
}

// Definition returns the resolved jet definition.
func (inv *Invoker) Definition() cluster.JetDefinition { return inv.def }

// Cluster runs a fresh clustering of ev.
func (inv *Invoker) Cluster(ev Event) (*cluster.Sequence, error) {
	seq, err := cluster.Cluster(ev, inv.def)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}
	return seq, nil
}
