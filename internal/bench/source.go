package bench

import (
	"github.com/banshee-data/jetbench/internal/cluster"
	"github.com/banshee-data/jetbench/internal/hepmc3"
)

// Event is the ordered list of final-state particles of one collision.
type Event []cluster.PseudoJet

// Source yields events in file order. Next returns io.EOF when exhausted.
type Source interface {
	Next() (Event, error)
}

// HepMCSource adapts a hepmc3.Reader to Source, keeping only status-1
// particles.
type HepMCSource struct {
	r *hepmc3.Reader
}

// NewHepMCSource wraps r.
func NewHepMCSource(r *hepmc3.Reader) *HepMCSource {
	return &HepMCSource{r: r}
}

// Next decodes the next event.
func (s *HepMCSource) Next() (Event, error) {
	ev, err := s.r.Next()
	if err != nil {
		return nil, err
	}
	final := ev.FinalState()
	out := make(Event, len(final))
	for i, p := range final {
		out[i] = cluster.NewPseudoJet(p.Px, p.Py, p.Pz, p.E)
	}
	return out, nil
}
