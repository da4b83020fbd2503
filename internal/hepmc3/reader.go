// Package hepmc3 reads and writes the HepMC3 ASCII event record format.
//
// Only the information needed to feed a jet finder is kept: the event
// number, the units line and the particle records. Vertex, weight, attribute
// and run-info lines are recognised and skipped.
package hepmc3

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	headerVersion = "HepMC::Version"
	headerStart   = "HepMC::Asciiv3-START_EVENT_LISTING"
	footerEnd     = "HepMC::Asciiv3-END_EVENT_LISTING"

	// StatusFinal marks a stable, final-state particle.
	StatusFinal = 1

	maxLineBytes = 16 * 1024 * 1024
)

// Particle is one P record.
type Particle struct {
	ID     int
	Parent int
	PID    int
	Px     float64
	Py     float64
	Pz     float64
	E      float64
	M      float64
	Status int
}

// Event is one decoded event.
type Event struct {
	Number       int
	MomentumUnit string
	LengthUnit   string
	Particles    []Particle
}

// FinalState returns the status-1 particles in file order.
func (e *Event) FinalState() []Particle {
	out := make([]Particle, 0, len(e.Particles))
	for _, p := range e.Particles {
		if p.Status == StatusFinal {
			out = append(out, p)
		}
	}
	return out
}

// DecodeError reports a malformed record.
type DecodeError struct {
	Line int
	Text string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("hepmc3: line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	errMissingHeader   = errors.New("event before " + headerStart + " header")
	errOrphanParticle  = errors.New("particle record outside an event")
	errShortRecord     = errors.New("too few fields")
	errUnsupportedFile = errors.New("not a HepMC3 ASCII file")
)

// Reader decodes events one at a time.
type Reader struct {
	sc      *bufio.Scanner
	line    int
	started bool
	pending string
	done    bool
	closers []func() error
}

// NewReader returns a Reader decoding from r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{sc: sc}
}

// Open opens path for reading. Files ending in .gz or .zst are decompressed
// transparently.
func Open(path string) (*Reader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open event file: %w", err)
	}

	var src io.Reader = f
	closers := []func() error{f.Close}
	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		src = zr
		closers = append([]func() error{zr.Close}, closers...)
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		src = zr
		closers = append([]func() error{func() error { zr.Close(); return nil }}, closers...)
	}

	r := NewReader(src)
	r.closers = closers
	return r, nil
}

// Close releases any file and decompressor opened by Open.
func (r *Reader) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}

// Next returns the next event, or io.EOF when there are no more.
func (r *Reader) Next() (*Event, error) {
	if r.done {
		return nil, io.EOF
	}

	var cur *Event
	if r.pending != "" {
		ev, err := r.parseEventLine(r.pending)
		r.pending = ""
		if err != nil {
			return nil, err
		}
		cur = ev
	}

	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" {
			continue
		}

		switch {
		case strings.HasPrefix(text, headerVersion):
			continue
		case text == headerStart:
			r.started = true
			continue
		case text == footerEnd:
			r.done = true
			if cur != nil {
				return cur, nil
			}
			return nil, io.EOF
		case strings.HasPrefix(text, "HepMC::"):
			return nil, &DecodeError{Line: r.line, Text: text, Err: errUnsupportedFile}
		}

		switch text[0] {
		case 'E':
			if cur != nil {
				r.pending = text
				return cur, nil
			}
			ev, err := r.parseEventLine(text)
			if err != nil {
				return nil, err
			}
			cur = ev
		case 'U':
			if cur == nil {
				continue
			}
			fields := strings.Fields(text)
			if len(fields) >= 3 {
				cur.MomentumUnit, cur.LengthUnit = fields[1], fields[2]
			}
		case 'P':
			if cur == nil {
				return nil, &DecodeError{Line: r.line, Text: text, Err: errOrphanParticle}
			}
			p, err := parseParticle(text)
			if err != nil {
				return nil, &DecodeError{Line: r.line, Text: text, Err: err}
			}
			cur.Particles = append(cur.Particles, p)
		default:
			// V, W, A, T, N, C, F records carry nothing the jet finder needs.
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("hepmc3: read failed at line %d: %w", r.line, err)
	}

	r.done = true
	if cur != nil {
		return cur, nil
	}
	return nil, io.EOF
}

func (r *Reader) parseEventLine(text string) (*Event, error) {
	if !r.started {
		return nil, &DecodeError{Line: r.line, Text: text, Err: errMissingHeader}
	}
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, &DecodeError{Line: r.line, Text: text, Err: errShortRecord}
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &DecodeError{Line: r.line, Text: text, Err: err}
	}
	return &Event{Number: n, MomentumUnit: "GEV", LengthUnit: "MM"}, nil
}

// parseParticle decodes "P id parent pid px py pz e m status".
func parseParticle(text string) (Particle, error) {
	fields := strings.Fields(text)
	if len(fields) < 10 {
		return Particle{}, errShortRecord
	}
	var (
		p   Particle
		err error
	)
	ints := []struct {
		dst *int
		s   string
	}{
		{&p.ID, fields[1]},
		{&p.Parent, fields[2]},
		{&p.PID, fields[3]},
		{&p.Status, fields[9]},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(f.s); err != nil {
			return Particle{}, err
		}
	}
	floats := []struct {
		dst *float64
		s   string
	}{
		{&p.Px, fields[4]},
		{&p.Py, fields[5]},
		{&p.Pz, fields[6]},
		{&p.E, fields[7]},
		{&p.M, fields[8]},
	}
	for _, f := range floats {
		if *f.dst, err = strconv.ParseFloat(f.s, 64); err != nil {
			return Particle{}, err
		}
	}
	return p, nil
}
