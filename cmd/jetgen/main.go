// Command jetgen writes synthetic HepMC3 event files for the jet finder
// benchmarks. Output ending in .gz or .zst is compressed.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/jetbench/internal/evgen"
	"github.com/banshee-data/jetbench/internal/hepmc3"
	"github.com/banshee-data/jetbench/internal/monitoring"
	"github.com/banshee-data/jetbench/internal/version"
)

const program = "jetgen"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	def := evgen.DefaultConfig()

	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		output  = fs.String("o", "events.hepmc3", "output path")
		events  = fs.Int("n", 100, "number of events")
		mode    = fs.String("mode", def.Mode.String(), "collision type: pp or ee")
		ecm     = fs.Float64("ecm", def.ECM, "centre-of-mass energy (GeV)")
		jets    = fs.Int("jets", def.Jets, "jets per event")
		mult    = fs.Int("mult", def.Multiplicity, "mean particles per jet")
		soft    = fs.Int("soft", def.Soft, "soft background particles per event (pp only)")
		seed    = fs.Int64("seed", def.Seed, "random seed")
		showVer = fs.Bool("version", false, "print the version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *showVer {
		fmt.Fprintln(stdout, version.String(program))
		return 0
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "%s: unexpected arguments: %v\n", program, fs.Args())
		return 1
	}
	if *events < 0 {
		fmt.Fprintf(stderr, "%s: number of events must be non-negative, got %d\n", program, *events)
		return 1
	}

	m, err := evgen.ParseMode(*mode)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}
	gen, err := evgen.New(evgen.Config{Mode: m, ECM: *ecm, Jets: *jets, Multiplicity: *mult, Soft: *soft, Seed: *seed})
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}

	w, err := hepmc3.Create(*output)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}
	final, err := gen.Write(w, *events)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		os.Remove(*output)
		return 1
	}
	monitoring.Logf("generated %d %s events with seed %d", *events, m, *seed)
	fmt.Fprintf(stdout, "Wrote %d events (%d final-state particles) to %s\n", *events, final, *output)
	return 0
}
