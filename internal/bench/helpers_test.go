package bench

import (
	"errors"
	"io"
	"math"
	"math/rand"

	"github.com/banshee-data/jetbench/internal/cluster"
)

// sliceSource serves prepared events, then fails with err (or io.EOF).
type sliceSource struct {
	events []Event
	err    error
	calls  int
}

func (s *sliceSource) Next() (Event, error) {
	s.calls++
	if len(s.events) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

var errBroken = errors.New("broken record")

func massless(pt, rap, phi float64) cluster.PseudoJet {
	return cluster.NewPseudoJet(pt*math.Cos(phi), pt*math.Sin(phi), pt*math.Sinh(rap), pt*math.Cosh(rap))
}

func randomEvent(rng *rand.Rand, n int) Event {
	ev := make(Event, n)
	for i := range ev {
		pt := 1 + 40*rng.Float64()*rng.Float64()
		ev[i] = massless(pt, -3+6*rng.Float64(), 2*math.Pi*rng.Float64())
	}
	return ev
}

func randomEvents(seed int64, count, particles int) []Event {
	rng := rand.New(rand.NewSource(seed))
	events := make([]Event, count)
	for i := range events {
		events[i] = randomEvent(rng, particles)
	}
	return events
}

// recordingSink keeps every dump call.
type recordingSink struct {
	indices []int
	jets    [][]cluster.PseudoJet
	onDump  func()
	closed  bool
}

func (s *recordingSink) DumpEvent(index int, jets []cluster.PseudoJet, _ *cluster.Sequence) error {
	if s.onDump != nil {
		s.onDump()
	}
	s.indices = append(s.indices, index)
	s.jets = append(s.jets, jets)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }
