package bench

import (
	"errors"
	"fmt"
	"slices"

	"github.com/banshee-data/jetbench/internal/cluster"
)

// SelectionMode identifies how final jets are taken from a clustering.
type SelectionMode int

const (
	// SelectPtMin keeps inclusive jets above a transverse momentum.
	SelectPtMin SelectionMode = iota + 1
	// SelectDijMax keeps the exclusive jets left when merging stops at dijmax.
	SelectDijMax
	// SelectNJets keeps the exclusive jets left when exactly n remain.
	SelectNJets
)

func (m SelectionMode) String() string {
	switch m {
	case SelectPtMin:
		return "ptmin"
	case SelectDijMax:
		return "dijmax"
	case SelectNJets:
		return "njets"
	}
	return fmt.Sprintf("SelectionMode(%d)", int(m))
}

// SelectionSpec is exactly one of the three jet selections. The zero value is
// invalid; use NewSelectionSpec or one of the single-mode constructors.
type SelectionSpec struct {
	mode   SelectionMode
	ptmin  float64
	dijmax float64
	njets  int
}

// NewSelectionSpec builds a spec from optional values, of which exactly one
// must be non-nil.
func NewSelectionSpec(ptmin, dijmax *float64, njets *int) (SelectionSpec, error) {
	set := 0
	for _, ok := range []bool{ptmin != nil, dijmax != nil, njets != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return SelectionSpec{}, configErrorf(ErrSelectionCount,
			"One, and only one, of ptmin, dijmax or njets needs to be specified (currently %d)", set)
	}
	switch {
	case ptmin != nil:
		return PtMinSelection(*ptmin), nil
	case dijmax != nil:
		return DijMaxSelection(*dijmax), nil
	}
	if *njets < 0 {
		return SelectionSpec{}, configErrorf(nil, "njets must be non-negative, got %d", *njets)
	}
	return NJetsSelection(*njets), nil
}

// PtMinSelection selects inclusive jets with pt >= ptmin.
func PtMinSelection(ptmin float64) SelectionSpec {
	return SelectionSpec{mode: SelectPtMin, ptmin: ptmin}
}

// DijMaxSelection selects exclusive jets at the merge distance dijmax.
func DijMaxSelection(dijmax float64) SelectionSpec {
	return SelectionSpec{mode: SelectDijMax, dijmax: dijmax}
}

// NJetsSelection selects exactly n exclusive jets.
func NJetsSelection(n int) SelectionSpec {
	return SelectionSpec{mode: SelectNJets, njets: n}
}

// Mode returns the active selection.
func (s SelectionSpec) Mode() SelectionMode { return s.mode }

// Value returns the threshold or jet count of the active selection.
func (s SelectionSpec) Value() float64 {
	switch s.mode {
	case SelectPtMin:
		return s.ptmin
	case SelectDijMax:
		return s.dijmax
	}
	return float64(s.njets)
}

func (s SelectionSpec) String() string {
	if s.mode == SelectNJets {
		return fmt.Sprintf("njets=%d", s.njets)
	}
	return fmt.Sprintf("%s=%g", s.mode, s.Value())
}

// Selector reduces a clustering to its final jets, ordered by descending pt.
type Selector struct {
	spec SelectionSpec
	pick func(*cluster.Sequence) ([]cluster.PseudoJet, error)
}

// NewSelector resolves the selection mode once.
func NewSelector(spec SelectionSpec) (*Selector, error) {
	sel := &Selector{spec: spec}
	switch spec.mode {
	case SelectPtMin:
		ptmin := spec.ptmin
		sel.pick = func(seq *cluster.Sequence) ([]cluster.PseudoJet, error) {
			return seq.InclusiveJets(ptmin), nil
		}
	case SelectDijMax:
		dcut := spec.dijmax
		sel.pick = func(seq *cluster.Sequence) ([]cluster.PseudoJet, error) {
			return seq.ExclusiveJetsDcut(dcut)
		}
	case SelectNJets:
		n := spec.njets
		sel.pick = func(seq *cluster.Sequence) ([]cluster.PseudoJet, error) {
			jets, err := seq.ExclusiveJets(n)
			if errors.Is(err, cluster.ErrTooManyJets) {
				return nil, fmt.Errorf("%w: %w", ErrInsufficientJets, err)
			}
			return jets, err
		}
	default:
		return nil, configErrorf(ErrSelectionCount, "no jet selection given")
	}
	return sel, nil
}

// Spec returns the selection the Selector applies.
func (s *Selector) Spec() SelectionSpec { return s.spec }

// Select returns the final jets of seq sorted by descending pt.
func (s *Selector) Select(seq *cluster.Sequence) ([]cluster.PseudoJet, error) {
	jets, err := s.pick(seq)
	if err != nil {
		return nil, err
	}
	return SortedByPt(jets), nil
}

// SortedByPt returns a copy of jets ordered by descending pt. Equal pt keeps
// the input order.
func SortedByPt(jets []cluster.PseudoJet) []cluster.PseudoJet {
	out := slices.Clone(jets)
	slices.SortStableFunc(out, func(a, b cluster.PseudoJet) int {
		switch {
		case a.Pt2() > b.Pt2():
			return -1
		case a.Pt2() < b.Pt2():
			return 1
		}
		return 0
	})
	return out
}
