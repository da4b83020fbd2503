package cluster

import "math"

// nnJet is the engine's working view of an active jet.
type nnJet struct {
	jet   int // index into Sequence.jets
	rap   float64
	phi   float64
	nx    float64 // unit direction, e+e- only
	ny    float64
	nz    float64
	scale float64 // pt^(2p) or E^(2p)

	nn     *nnJet
	nnDist float64

	tile int
	pos  int // position in the active slice
}

// space answers neighbourhood queries over the active jets.
type space interface {
	add(j *nnJet)
	remove(j *nnJet)
	// near calls fn for every active jet that could lie within the
	// geometric cutoff of j, possibly including j itself.
	near(j *nnJet, active []*nnJet, fn func(o *nnJet))
}

// plainSpace considers every active jet a candidate neighbour.
type plainSpace struct{}

func (plainSpace) add(*nnJet)    {}
func (plainSpace) remove(*nnJet) {}

func (plainSpace) near(_ *nnJet, active []*nnJet, fn func(o *nnJet)) {
	for _, o := range active {
		fn(o)
	}
}

type engine struct {
	s      *Sequence
	sp     space
	ee     bool
	cutoff float64
	norm   float64
	active []*nnJet
}

func (s *Sequence) run(sp space) {
	e := &engine{
		s:      s,
		sp:     sp,
		ee:     s.def.algorithm.IsEE(),
		cutoff: s.def.geometricCutoff(),
		norm:   s.def.invNorm(),
		active: make([]*nnJet, 0, s.initialN),
	}
	for i := range s.jets {
		e.insert(i)
	}
	for _, j := range e.active {
		e.findNN(j)
	}

	for len(e.active) > 0 {
		best := e.active[0]
		bestD := e.diJ(best)
		for _, j := range e.active[1:] {
			d := e.diJ(j)
			if d < bestD || (d == bestD && j.jet < best.jet) {
				best, bestD = j, d
			}
		}

		if best.nn == nil {
			e.s.mergeBeam(best.jet, bestD)
			e.delete(best)
			e.rescanNeighboursOf(best)
			continue
		}

		a, b := best, best.nn
		k := e.s.mergePair(a.jet, b.jet, bestD)
		e.delete(a)
		e.delete(b)
		c := e.insert(k)
		e.findNN(c)
		e.rescanNeighboursOf(a)
		e.rescanNeighboursOf(b)
		e.sp.near(c, e.active, func(o *nnJet) {
			if o == c {
				return
			}
			e.consider(o, c, e.dist(o, c))
		})
	}
}

func (e *engine) insert(k int) *nnJet {
	jet := e.s.jets[k]
	j := &nnJet{
		jet:    k,
		rap:    jet.rap,
		phi:    jet.phi,
		scale:  e.s.def.momentumScale(jet),
		nnDist: e.cutoff,
		pos:    len(e.active),
	}
	if e.ee {
		if norm := math.Sqrt(jet.ModP2()); norm > 0 {
			j.nx, j.ny, j.nz = jet.px/norm, jet.py/norm, jet.pz/norm
		}
	}
	e.active = append(e.active, j)
	e.sp.add(j)
	return j
}

// delete removes j from the active set by moving the last jet into its slot.
func (e *engine) delete(j *nnJet) {
	last := e.active[len(e.active)-1]
	last.pos = j.pos
	e.active[j.pos] = last
	e.active = e.active[:len(e.active)-1]
	e.sp.remove(j)
}

func (e *engine) dist(a, b *nnJet) float64 {
	if e.ee {
		return 2 * (1 - (a.nx*b.nx + a.ny*b.ny + a.nz*b.nz))
	}
	dphi := math.Abs(a.phi - b.phi)
	if dphi > math.Pi {
		dphi = 2*math.Pi - dphi
	}
	drap := a.rap - b.rap
	return drap*drap + dphi*dphi
}

// consider makes o the nearest neighbour of j if it is strictly closer, or
// equally close with a lower jet index.
func (e *engine) consider(j, o *nnJet, d float64) {
	if d < j.nnDist || (d == j.nnDist && j.nn != nil && o.jet < j.nn.jet) {
		j.nn = o
		j.nnDist = d
	}
}

func (e *engine) findNN(j *nnJet) {
	j.nn = nil
	j.nnDist = e.cutoff
	e.sp.near(j, e.active, func(o *nnJet) {
		if o == j {
			return
		}
		e.consider(j, o, e.dist(j, o))
	})
}

// rescanNeighboursOf recomputes the nearest neighbour of every active jet
// that pointed at the removed jet gone.
func (e *engine) rescanNeighboursOf(gone *nnJet) {
	e.sp.near(gone, e.active, func(o *nnJet) {
		if o.nn == gone {
			e.findNN(o)
		}
	})
}

// diJ is the smaller of the jet's beam distance and its distance to its
// nearest neighbour.
func (e *engine) diJ(j *nnJet) float64 {
	if j.nn == nil {
		return j.scale
	}
	return j.nnDist * e.norm * math.Min(j.scale, j.nn.scale)
}
