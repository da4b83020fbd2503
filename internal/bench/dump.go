package bench

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/jetbench/internal/cluster"
)

// DumpSink receives the selected jets of every dumped event.
type DumpSink interface {
	// DumpEvent records event index (0-based) with its selected jets. seq is
	// the clustering the jets came from.
	DumpEvent(index int, jets []cluster.PseudoJet, seq *cluster.Sequence) error
	Close() error
}

// Dumper writes jets in the plain-text format used for cross-checking jet
// finders:
//
//	Jets in processed event 1
//	    0    0.1234567890    1.2345678901   45.6789012345
//
// With history enabled every event is followed by the full list of jets in
// the clustering and its merge history, both numbered from 1.
type Dumper struct {
	w       *bufio.Writer
	closer  io.Closer
	history bool
}

// NewDumper writes to w. Close flushes but does not close w.
func NewDumper(w io.Writer, history bool) *Dumper {
	return &Dumper{w: bufio.NewWriter(w), history: history}
}

// OpenDumpSink opens path for dumping. "-" selects stdout, which is flushed
// but never closed.
func OpenDumpSink(path string, stdout io.Writer, history bool) (*Dumper, error) {
	if path == "-" {
		return NewDumper(stdout, history), nil
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDumpOpen, path, err)
	}
	d := NewDumper(f, history)
	d.closer = f
	return d, nil
}

// DumpEvent implements DumpSink.
func (d *Dumper) DumpEvent(index int, jets []cluster.PseudoJet, seq *cluster.Sequence) error {
	fmt.Fprintf(d.w, "Jets in processed event %d\n", index+1)
	for i, j := range jets {
		fmt.Fprintf(d.w, "%5d %15.10f %15.10f %15.10f\n", i, j.Rap(), j.Phi(), j.Pt())
	}
	if d.history && seq != nil {
		d.dumpSequence(seq)
	}
	// bufio latches the first write error; Write(nil) reports it.
	_, err := d.w.Write(nil)
	return err
}

func (d *Dumper) dumpSequence(seq *cluster.Sequence) {
	for i, j := range seq.Jets() {
		fmt.Fprintf(d.w, "%d: px=%s py=%s pz=%s E=%s\n", i+1, shortFloat(j.Px()), shortFloat(j.Py()), shortFloat(j.Pz()), shortFloat(j.E()))
	}
	for i, h := range seq.History() {
		fmt.Fprintf(d.w, "%d: %d %d %d %s %s\n", i+1, h.Parent1+1, h.Parent2+1, h.Child+1, shortFloat(h.Dij), shortFloat(h.MaxDijSoFar))
	}
}

// Close flushes buffered output and closes the file opened by OpenDumpSink.
func (d *Dumper) Close() error {
	err := d.w.Flush()
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
		d.closer = nil
	}
	return err
}

// shortFloat formats with six significant digits, dropping trailing zeros.
func shortFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
