// Package evgen generates synthetic collision events for benchmarking jet
// finders without an external Monte Carlo generator.
//
// Events are a toy model: a few collimated sprays of pions around random
// jet axes, plus a soft uniform background in hadron-hadron mode. Beam
// particles (status 4) and one intermediate parton per jet (status 2) are
// written as well so that readers exercise their final-state filter.
package evgen

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/banshee-data/jetbench/internal/hepmc3"
)

const (
	pionMass    = 0.13957
	pidPiPlus   = 211
	pidGluon    = 21
	pidProton   = 2212
	pidElectron = 11

	statusDecayed = 2
	statusBeam    = 4

	maxJetRap   = 2.5
	maxSoftRap  = 5.0
	jetSpread   = 0.15
	minJetPt    = 20.0
	meanSoftPt  = 0.7
	meanExtraPt = 40.0
)

// Mode selects the collision type.
type Mode int

const (
	// PP is hadron-hadron: jets at random rapidity plus soft background.
	PP Mode = iota
	// EE is lepton-lepton: jets in back-to-back pairs, no background.
	EE
)

func (m Mode) String() string {
	if m == EE {
		return "ee"
	}
	return "pp"
}

// ParseMode parses "pp" or "ee".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "pp":
		return PP, nil
	case "ee":
		return EE, nil
	}
	return 0, fmt.Errorf("unknown collision mode %q (want pp or ee)", s)
}

// Config controls the generated events.
type Config struct {
	Mode Mode
	// ECM is the centre-of-mass energy carried by the beam particles.
	ECM float64
	// Jets per event. In EE mode it is rounded up to an even number.
	Jets int
	// Multiplicity is the mean number of particles per jet.
	Multiplicity int
	// Soft is the number of background particles per event (PP only).
	Soft int
	Seed int64
}

// DefaultConfig returns a PP configuration similar to a dijet sample.
func DefaultConfig() Config {
	return Config{Mode: PP, ECM: 13000, Jets: 2, Multiplicity: 30, Soft: 60, Seed: 1}
}

// Validate checks that cfg describes a usable generator.
func (c Config) Validate() error {
	var errs []error
	if c.Jets < 0 {
		errs = append(errs, fmt.Errorf("jets must be non-negative, got %d", c.Jets))
	}
	if c.Multiplicity < 1 {
		errs = append(errs, fmt.Errorf("multiplicity must be at least 1, got %d", c.Multiplicity))
	}
	if c.Soft < 0 {
		errs = append(errs, fmt.Errorf("soft must be non-negative, got %d", c.Soft))
	}
	if !(c.ECM > 0) {
		errs = append(errs, fmt.Errorf("ecm must be positive, got %g", c.ECM))
	}
	return errors.Join(errs...)
}

// Generator produces a deterministic event stream for a given seed.
type Generator struct {
	cfg  Config
	rng  *rand.Rand
	next int
}

// New returns a Generator for cfg.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == EE && cfg.Jets%2 == 1 {
		cfg.Jets++
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}, nil
}

// Next returns the next event. Events are numbered from 0.
func (g *Generator) Next() *hepmc3.Event {
	ev := &hepmc3.Event{Number: g.next, MomentumUnit: "GEV", LengthUnit: "MM"}
	g.next++

	beamPID := pidProton
	if g.cfg.Mode == EE {
		beamPID = pidElectron
	}
	half := g.cfg.ECM / 2
	ev.Particles = append(ev.Particles,
		hepmc3.Particle{PID: beamPID, Pz: half, E: half, Status: statusBeam},
		hepmc3.Particle{PID: -beamPID, Pz: -half, E: half, Status: statusBeam},
	)

	for _, axis := range g.jetAxes() {
		g.addJet(ev, axis)
	}
	if g.cfg.Mode == PP {
		for i := 0; i < g.cfg.Soft; i++ {
			pt := g.rng.ExpFloat64() * meanSoftPt
			rap := (2*g.rng.Float64() - 1) * maxSoftRap
			ev.Particles = append(ev.Particles, pion(pt, rap, g.phi(), hepmc3.StatusFinal))
		}
	}
	return ev
}

type jetAxis struct {
	pt, rap, phi float64
}

func (g *Generator) jetAxes() []jetAxis {
	axes := make([]jetAxis, 0, g.cfg.Jets)
	for len(axes) < g.cfg.Jets {
		a := jetAxis{
			pt:  minJetPt + g.rng.ExpFloat64()*meanExtraPt,
			rap: (2*g.rng.Float64() - 1) * maxJetRap,
			phi: g.phi(),
		}
		axes = append(axes, a)
		if g.cfg.Mode == EE {
			axes = append(axes, jetAxis{pt: a.pt, rap: -a.rap, phi: math.Mod(a.phi+math.Pi, 2*math.Pi)})
		}
	}
	return axes
}

// addJet writes the parton for axis and its fragments. Fragment pts are
// exponential shares of the axis pt.
func (g *Generator) addJet(ev *hepmc3.Event, axis jetAxis) {
	ev.Particles = append(ev.Particles, pion(axis.pt, axis.rap, axis.phi, statusDecayed))
	ev.Particles[len(ev.Particles)-1].PID = pidGluon

	n := g.cfg.Multiplicity/2 + g.rng.Intn(g.cfg.Multiplicity+1)
	n = max(1, n)
	shares := make([]float64, n)
	total := 0.0
	for i := range shares {
		shares[i] = g.rng.ExpFloat64()
		total += shares[i]
	}
	for i, s := range shares {
		pid := pidPiPlus
		if i%2 == 1 {
			pid = -pidPiPlus
		}
		p := pion(axis.pt*s/total, axis.rap+g.rng.NormFloat64()*jetSpread, axis.phi+g.rng.NormFloat64()*jetSpread, hepmc3.StatusFinal)
		p.PID = pid
		ev.Particles = append(ev.Particles, p)
	}
}

func (g *Generator) phi() float64 {
	return 2 * math.Pi * g.rng.Float64()
}

func pion(pt, rap, phi float64, status int) hepmc3.Particle {
	mt := math.Hypot(pt, pionMass)
	return hepmc3.Particle{
		PID:    pidPiPlus,
		Px:     pt * math.Cos(phi),
		Py:     pt * math.Sin(phi),
		Pz:     mt * math.Sinh(rap),
		E:      mt * math.Cosh(rap),
		M:      pionMass,
		Status: status,
	}
}

// Write generates n events into w and returns the number of final-state
// particles written.
func (g *Generator) Write(w *hepmc3.Writer, n int) (int, error) {
	final := 0
	for i := 0; i < n; i++ {
		ev := g.Next()
		if err := w.WriteEvent(ev); err != nil {
			return final, fmt.Errorf("write event %d: %w", ev.Number, err)
		}
		final += len(ev.FinalState())
	}
	return final, nil
}
