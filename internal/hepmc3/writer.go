package hepmc3

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Writer encodes events in the HepMC3 ASCII dialect understood by Reader.
type Writer struct {
	w       *bufio.Writer
	header  bool
	closers []func() error
}

// NewWriter returns a Writer encoding to w. Close must be called to write
// the listing footer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create creates path for writing, compressing when the name ends in .gz or
// .zst.
func Create(path string) (*Writer, error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create event file: %w", err)
	}

	var dst io.Writer = f
	closers := []func() error{f.Close}
	switch filepath.Ext(path) {
	case ".gz":
		zw := gzip.NewWriter(f)
		dst = zw
		closers = append([]func() error{zw.Close}, closers...)
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		dst = zw
		closers = append([]func() error{zw.Close}, closers...)
	}

	w := NewWriter(dst)
	w.closers = closers
	return w, nil
}

func (w *Writer) writeHeader() error {
	if w.header {
		return nil
	}
	w.header = true
	_, err := fmt.Fprintf(w.w, "%s 3.02.06\n%s\n", headerVersion, headerStart)
	return err
}

// WriteEvent appends one event. Every particle is attached to a single
// production vertex.
func (w *Writer) WriteEvent(ev *Event) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	mom, length := ev.MomentumUnit, ev.LengthUnit
	if mom == "" {
		mom = "GEV"
	}
	if length == "" {
		length = "MM"
	}
	if _, err := fmt.Fprintf(w.w, "E %d 1 %d\nU %s %s\n", ev.Number, len(ev.Particles), mom, length); err != nil {
		return err
	}
	for i, p := range ev.Particles {
		id := p.ID
		if id == 0 {
			id = i + 1
		}
		if _, err := fmt.Fprintf(w.w, "P %d %d %d %.16e %.16e %.16e %.16e %.16e %d\n",
			id, p.Parent, p.PID, p.Px, p.Py, p.Pz, p.E, p.M, p.Status); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the footer, flushes and closes anything opened by Create.
func (w *Writer) Close() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w.w, footerEnd); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	for _, c := range w.closers {
		if err := c(); err != nil {
			return err
		}
	}
	w.closers = nil
	return nil
}
