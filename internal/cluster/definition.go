package cluster

import (
	"errors"
	"fmt"
	"math"
)

// Algorithm identifies a sequential-recombination jet algorithm.
type Algorithm int

const (
	AntiKt Algorithm = iota
	CambridgeAachen
	Kt
	GenKt
	EEKt   // generalised e+e- kt, takes R and p
	Durham // e+e- kt, no R and fixed p
)

var algorithmNames = map[Algorithm]string{
	AntiKt:          "AntiKt",
	CambridgeAachen: "CA",
	Kt:              "Kt",
	GenKt:           "GenKt",
	EEKt:            "EEKt",
	Durham:          "Durham",
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// IsEE reports whether the algorithm uses e+e- (energy and angle) distances.
func (a Algorithm) IsEE() bool {
	return a == EEKt || a == Durham
}

// ParseAlgorithm maps a command-line algorithm name onto an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	for a, s := range algorithmNames {
		if s == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown algorithm type: %q", name)
}

// Strategy selects how the engine searches for the next merge.
// It affects performance only, never the clustering result.
type Strategy int

const (
	Best Strategy = iota
	N2Plain
	N2Tiled
)

func (s Strategy) String() string {
	switch s {
	case Best:
		return "Best"
	case N2Plain:
		return "N2Plain"
	case N2Tiled:
		return "N2Tiled"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a strategy name onto a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "Best":
		return Best, nil
	case "N2Plain":
		return N2Plain, nil
	case "N2Tiled":
		return N2Tiled, nil
	}
	return Best, fmt.Errorf("unknown strategy: %q (valid values are Best, N2Plain, N2Tiled)", name)
}

// RecombinationScheme identifies how two jets are combined. Only the
// four-vector sum (E-scheme) is supported.
type RecombinationScheme int

const (
	EScheme RecombinationScheme = iota
)

// ErrInvalidDefinition is returned when a jet definition is constructed with
// parameters that do not fit the algorithm.
var ErrInvalidDefinition = errors.New("invalid jet definition")

// JetDefinition is an immutable description of how to cluster an event.
type JetDefinition struct {
	algorithm Algorithm
	r         float64
	p         float64
	scheme    RecombinationScheme
	strategy  Strategy
}

// NewJetDefinition builds a definition for the fixed-power algorithms
// (AntiKt, CambridgeAachen, Kt), which take a radius but no power.
func NewJetDefinition(alg Algorithm, r float64, scheme RecombinationScheme, strategy Strategy) (JetDefinition, error) {
	var p float64
	switch alg {
	case AntiKt:
		p = -1
	case CambridgeAachen:
		p = 0
	case Kt:
		p = 1
	default:
		return JetDefinition{}, fmt.Errorf("%w: %s needs an explicit power", ErrInvalidDefinition, alg)
	}
	if !(r > 0) {
		return JetDefinition{}, fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidDefinition, r)
	}
	return JetDefinition{algorithm: alg, r: r, p: p, scheme: scheme, strategy: strategy}, nil
}

// NewGenKtDefinition builds a definition for the generalised algorithms
// (GenKt, EEKt), which take both a radius and a power.
func NewGenKtDefinition(alg Algorithm, r, p float64, scheme RecombinationScheme, strategy Strategy) (JetDefinition, error) {
	if alg != GenKt && alg != EEKt {
		return JetDefinition{}, fmt.Errorf("%w: %s does not take a power", ErrInvalidDefinition, alg)
	}
	if !(r > 0) {
		return JetDefinition{}, fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidDefinition, r)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return JetDefinition{}, fmt.Errorf("%w: power must be finite, got %g", ErrInvalidDefinition, p)
	}
	return JetDefinition{algorithm: alg, r: r, p: p, scheme: scheme, strategy: strategy}, nil
}

// NewDurhamDefinition builds a definition for the Durham (e+e- kt) algorithm,
// which has neither a radius nor a free power.
func NewDurhamDefinition(scheme RecombinationScheme, strategy Strategy) JetDefinition {
	return JetDefinition{algorithm: Durham, r: 4, p: 1, scheme: scheme, strategy: strategy}
}

// Algorithm returns the jet algorithm.
func (d JetDefinition) Algorithm() Algorithm { return d.algorithm }

// R returns the radius parameter. It is meaningless for Durham.
func (d JetDefinition) R() float64 { return d.r }

// Power returns the momentum exponent p.
func (d JetDefinition) Power() float64 { return d.p }

// Strategy returns the requested search strategy.
func (d JetDefinition) Strategy() Strategy { return d.strategy }

// Scheme returns the recombination scheme.
func (d JetDefinition) Scheme() RecombinationScheme { return d.scheme }

func (d JetDefinition) String() string {
	switch d.algorithm {
	case Durham:
		return fmt.Sprintf("%s (strategy %s)", d.algorithm, d.strategy)
	case GenKt, EEKt:
		return fmt.Sprintf("%s R=%g p=%g (strategy %s)", d.algorithm, d.r, d.p, d.strategy)
	}
	return fmt.Sprintf("%s R=%g (strategy %s)", d.algorithm, d.r, d.strategy)
}

// momentumScale returns the per-jet factor entering the distance measure:
// pt^(2p) for hadron-collider algorithms and E^(2p) for e+e- algorithms.
func (d JetDefinition) momentumScale(j PseudoJet) float64 {
	var x2 float64
	if d.algorithm.IsEE() {
		x2 = j.e * j.e
	} else {
		x2 = j.pt2
	}
	switch {
	case d.p == 0:
		return 1
	case d.p == 1:
		return x2
	case d.p < 0 && x2 < 1e-300:
		return 1e300
	}
	return math.Pow(x2, d.p)
}

// geometricCutoff is the squared geometric distance beyond which two jets
// are never nearest neighbours. It is also the normalisation of the pair
// distance, so that a jet with no neighbour has dij == diB.
func (d JetDefinition) geometricCutoff() float64 {
	switch d.algorithm {
	case Durham:
		return math.Inf(1)
	case EEKt:
		if d.r > math.Pi {
			return 2 * (3 + math.Cos(d.r))
		}
		return 2 * (1 - math.Cos(d.r))
	}
	return d.r * d.r
}

// invNorm is the factor applied to geometric distances to form dij.
func (d JetDefinition) invNorm() float64 {
	if d.algorithm == Durham {
		return 1
	}
	return 1 / d.geometricCutoff()
}
