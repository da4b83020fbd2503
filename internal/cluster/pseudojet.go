package cluster

import (
	"fmt"
	"math"
)

// MaxRap is the rapidity assigned to massless particles travelling along the
// beam axis, where the true rapidity is infinite.
const MaxRap = 1e5

// PseudoJet is a four-momentum with cached transverse kinematics.
// The zero value is a particle at rest with zero energy.
type PseudoJet struct {
	px, py, pz, e float64

	pt2 float64
	rap float64
	phi float64

	histIndex int
}

// NewPseudoJet builds a PseudoJet from Cartesian momentum and energy.
func NewPseudoJet(px, py, pz, e float64) PseudoJet {
	j := PseudoJet{px: px, py: py, pz: pz, e: e, histIndex: Invalid}
	j.finishInit()
	return j
}

func (j *PseudoJet) finishInit() {
	j.pt2 = j.px*j.px + j.py*j.py

	if j.pt2 == 0 {
		j.phi = 0
	} else {
		j.phi = math.Atan2(j.py, j.px)
	}
	if j.phi < 0 {
		j.phi += 2 * math.Pi
	}
	if j.phi >= 2*math.Pi {
		j.phi -= 2 * math.Pi
	}

	if j.e == math.Abs(j.pz) && j.pt2 == 0 {
		// Along the beam: push out beyond any physical rapidity, keeping
		// the ordering between particles with different |pz|.
		maxRapHere := MaxRap + math.Abs(j.pz)
		if j.pz >= 0 {
			j.rap = maxRapHere
		} else {
			j.rap = -maxRapHere
		}
		return
	}

	effectiveM2 := math.Max(0, j.M2())
	ePlusPz := j.e + math.Abs(j.pz)
	j.rap = 0.5 * math.Log((j.pt2+effectiveM2)/(ePlusPz*ePlusPz))
	if j.pz > 0 {
		j.rap = -j.rap
	}
}

// Px returns the x component of the momentum.
func (j PseudoJet) Px() float64 { return j.px }

// Py returns the y component of the momentum.
func (j PseudoJet) Py() float64 { return j.py }

// Pz returns the z (beam axis) component of the momentum.
func (j PseudoJet) Pz() float64 { return j.pz }

// E returns the energy.
func (j PseudoJet) E() float64 { return j.e }

// Pt2 returns the squared transverse momentum.
func (j PseudoJet) Pt2() float64 { return j.pt2 }

// Pt returns the transverse momentum.
func (j PseudoJet) Pt() float64 { return math.Sqrt(j.pt2) }

// Rap returns the rapidity.
func (j PseudoJet) Rap() float64 { return j.rap }

// Phi returns the azimuthal angle in [0, 2π).
func (j PseudoJet) Phi() float64 { return j.phi }

// M2 returns the squared invariant mass, which may be slightly negative
// through rounding.
func (j PseudoJet) M2() float64 {
	return (j.e+j.pz)*(j.e-j.pz) - j.pt2
}

// ModP2 returns the squared three-momentum.
func (j PseudoJet) ModP2() float64 {
	return j.pt2 + j.pz*j.pz
}

// ClusterHistIndex returns the index of the history entry that created this
// jet, or Invalid for jets that do not belong to a Sequence.
func (j PseudoJet) ClusterHistIndex() int { return j.histIndex }

// Add returns the E-scheme sum of two jets.
func (j PseudoJet) Add(o PseudoJet) PseudoJet {
	return NewPseudoJet(j.px+o.px, j.py+o.py, j.pz+o.pz, j.e+o.e)
}

// DeltaR2 returns the squared rapidity-azimuth distance between two jets.
func (j PseudoJet) DeltaR2(o PseudoJet) float64 {
	dphi := math.Abs(j.phi - o.phi)
	if dphi > math.Pi {
		dphi = 2*math.Pi - dphi
	}
	drap := j.rap - o.rap
	return drap*drap + dphi*dphi
}

func (j PseudoJet) String() string {
	return fmt.Sprintf("(px=%g py=%g pz=%g E=%g)", j.px, j.py, j.pz, j.e)
}
