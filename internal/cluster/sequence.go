package cluster

import (
	"errors"
	"fmt"
	"math"
)

// Special values used in HistoryElement parent and child references.
const (
	BeamJet          = -1
	InexistentParent = -2
	Invalid          = -3
)

// ErrTooManyJets is returned when more exclusive jets are requested than
// there were input particles.
var ErrTooManyJets = errors.New("requested more exclusive jets than input particles")

// HistoryElement is one step in the clustering history. The first InitialN
// entries describe the input particles; each later entry is either a pair
// merge (Parent2 >= 0) or a merge with the beam (Parent2 == BeamJet).
type HistoryElement struct {
	Parent1     int
	Parent2     int
	Child       int
	JetIndex    int
	Dij         float64
	MaxDijSoFar float64
}

// Sequence is the result of clustering one event: every jet ever formed and
// the history that relates them.
type Sequence struct {
	def          JetDefinition
	jets         []PseudoJet
	history      []HistoryElement
	initialN     int
	strategyUsed Strategy
}

// bestPlainLimit is the multiplicity up to which Best uses the plain strategy.
const bestPlainLimit = 50

// Cluster runs the clustering of particles under def. The input slice is
// copied; the caller keeps ownership of it.
func Cluster(particles []PseudoJet, def JetDefinition) (*Sequence, error) {
	if def.algorithm != Durham && !(def.r > 0) {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidDefinition, def.r)
	}

	n := len(particles)
	s := &Sequence{
		def:      def,
		jets:     make([]PseudoJet, n, 2*n),
		history:  make([]HistoryElement, n, 2*n),
		initialN: n,
	}
	for i, p := range particles {
		p.histIndex = i
		s.jets[i] = p
		s.history[i] = HistoryElement{
			Parent1:  InexistentParent,
			Parent2:  InexistentParent,
			Child:    Invalid,
			JetIndex: i,
		}
	}

	s.strategyUsed = s.chooseStrategy()
	var sp space
	switch s.strategyUsed {
	case N2Tiled:
		sp = newTiledSpace(s.jets, def.r)
	default:
		sp = &plainSpace{}
	}
	s.run(sp)
	return s, nil
}

func (s *Sequence) chooseStrategy() Strategy {
	if s.def.algorithm.IsEE() {
		return N2Plain
	}
	switch s.def.strategy {
	case N2Plain, N2Tiled:
		return s.def.strategy
	}
	if s.initialN <= bestPlainLimit {
		return N2Plain
	}
	return N2Tiled
}

// Definition returns the jet definition used to build the sequence.
func (s *Sequence) Definition() JetDefinition { return s.def }

// StrategyUsed returns the strategy the engine actually ran, which differs
// from the requested one when Best was asked for or the algorithm is e+e-.
func (s *Sequence) StrategyUsed() Strategy { return s.strategyUsed }

// InitialN returns the number of input particles.
func (s *Sequence) InitialN() int { return s.initialN }

// Jets returns every jet formed during clustering: the inputs first, then
// each merged jet in creation order. The slice must not be modified.
func (s *Sequence) Jets() []PseudoJet { return s.jets }

// History returns the clustering history. The slice must not be modified.
func (s *Sequence) History() []HistoryElement { return s.history }

func (s *Sequence) addStep(parent1, parent2, jetIndex int, dij float64) int {
	maxDij := dij
	if len(s.history) > 0 {
		maxDij = math.Max(dij, s.history[len(s.history)-1].MaxDijSoFar)
	}
	idx := len(s.history)
	s.history = append(s.history, HistoryElement{
		Parent1:     parent1,
		Parent2:     parent2,
		Child:       Invalid,
		JetIndex:    jetIndex,
		Dij:         dij,
		MaxDijSoFar: maxDij,
	})
	s.history[parent1].Child = idx
	if parent2 >= 0 {
		s.history[parent2].Child = idx
	}
	return idx
}

// mergePair combines jets i and j and returns the index of the new jet.
func (s *Sequence) mergePair(i, j int, dij float64) int {
	k := len(s.jets)
	s.jets = append(s.jets, s.jets[i].Add(s.jets[j]))
	hi, hj := s.jets[i].histIndex, s.jets[j].histIndex
	s.jets[k].histIndex = s.addStep(min(hi, hj), max(hi, hj), k, dij)
	return k
}

func (s *Sequence) mergeBeam(i int, diB float64) {
	s.addStep(s.jets[i].histIndex, BeamJet, Invalid, diB)
}

// InclusiveJets returns the jets that merged with the beam and have
// transverse momentum of at least ptmin, in history order.
func (s *Sequence) InclusiveJets(ptmin float64) []PseudoJet {
	dcut := ptmin * ptmin
	var jets []PseudoJet
	for _, h := range s.history[s.initialN:] {
		if h.Parent2 != BeamJet {
			continue
		}
		jet := s.jets[s.history[h.Parent1].JetIndex]
		if jet.pt2 >= dcut {
			jets = append(jets, jet)
		}
	}
	return jets
}

// NExclusiveJets returns the number of jets that remain when clustering is
// stopped before the first step whose running maximum dij exceeds dcut.
func (s *Sequence) NExclusiveJets(dcut float64) int {
	i := len(s.history) - 1
	for i >= 0 {
		if s.history[i].MaxDijSoFar <= dcut {
			break
		}
		i--
	}
	stop := i + 1
	return 2*s.initialN - stop
}

// ExclusiveJetsDcut returns the jets present when clustering is stopped at
// the largest merge distance not exceeding dcut.
func (s *Sequence) ExclusiveJetsDcut(dcut float64) ([]PseudoJet, error) {
	return s.ExclusiveJets(s.NExclusiveJets(dcut))
}

// ExclusiveJets returns the jets present when exactly njets remain.
func (s *Sequence) ExclusiveJets(njets int) ([]PseudoJet, error) {
	if njets > s.initialN {
		return nil, fmt.Errorf("%w: requested %d, have %d", ErrTooManyJets, njets, s.initialN)
	}
	if njets < 0 {
		return nil, fmt.Errorf("requested a negative number of exclusive jets: %d", njets)
	}
	if len(s.history) != 2*s.initialN {
		return nil, fmt.Errorf("incomplete clustering history: %d entries for %d particles", len(s.history), s.initialN)
	}

	stop := 2*s.initialN - njets
	jets := make([]PseudoJet, 0, njets)
	for _, h := range s.history[stop:] {
		if h.Parent1 < stop {
			jets = append(jets, s.jets[s.history[h.Parent1].JetIndex])
		}
		if h.Parent2 < stop && h.Parent2 > 0 {
			jets = append(jets, s.jets[s.history[h.Parent2].JetIndex])
		}
	}
	if len(jets) != njets {
		return nil, fmt.Errorf("internal error: expected %d exclusive jets, found %d", njets, len(jets))
	}
	return jets, nil
}
