// Command jetinclusive is the inclusive-jet benchmark: it clusters every event
// of a HepMC3 file with a pt cut, repeating the pass a number of times.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/banshee-data/jetbench/internal/bench"
	"github.com/banshee-data/jetbench/internal/config"
	"github.com/banshee-data/jetbench/internal/hepmc3"
	"github.com/banshee-data/jetbench/internal/monitoring"
)

const (
	program = "jetinclusive"
	usage   = " [-h] [-m max_events] [-n trials] [-s strategy] [-p power] [-R size] [-P pt_min] [-d dump_file] <HepMC3_input_file>"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// algorithmForPower maps the integer power onto a named algorithm. Anything
// other than 0 or 1 runs anti-kt.
func algorithmForPower(power int) string {
	switch power {
	case 0:
		return "CA"
	case 1:
		return "Kt"
	}
	return "AntiKt"
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		maxEvents = fs.Int("m", -1, "maximum events to read (-1 = all events in the file)")
		trials    = fs.Int("n", 8, "number of repeats to do")
		strategy  = fs.String("s", "Best", "valid values are 'Best' (default), 'N2Plain', 'N2Tiled'")
		power     = fs.Int("p", -1, "-1=antikt, 0=cambridge_aachen, 1=inclusive kt")
		radius    = fs.Float64("R", 0.4, "R parameter, cone size")
		ptmin     = fs.Float64("P", 0.5, "minimum pt for inclusive jet output")
		dumpFile  = fs.String("d", "", "output jets are printed to here (use '-' for stdout)")
		help      = fs.Bool("h", false, "print this message")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s%s\n", program, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help {
		fs.SetOutput(stdout)
		fs.Usage()
		return 1
	}
	switch {
	case fs.NArg() == 0:
		fmt.Fprintln(stderr, "No <HepMC3_input_file> argument after options")
		fmt.Fprintf(stderr, "Usage: %s%s\n", program, usage)
		return 1
	case fs.NArg() > 1:
		fmt.Fprintln(stderr, "Unexpected arguments after HepMC3 file (which must be the last argument):")
		fmt.Fprintln(stderr, " "+strings.Join(fs.Args()[1:], " "))
		fmt.Fprintf(stderr, "Usage: %s%s\n", program, usage)
		return 1
	}
	input := fs.Arg(0)

	alg, err := bench.NewAlgorithmConfig(algorithmForPower(*power), float64(*power), *radius, *strategy)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	opts := bench.Options{
		MaxEvents:      *maxEvents,
		Trials:         *trials,
		Algorithm:      alg,
		Selection:      bench.PtMinSelection(*ptmin),
		DumpEveryTrial: true,
		Normalize:      config.NormalizeFull,
	}
	if _, _, err := bench.Prepare(opts); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	reader, err := hepmc3.Open(input)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}
	defer reader.Close()

	out := bufio.NewWriter(stdout)
	defer out.Flush()
	opts.Out = out

	fmt.Fprintf(out, "Strategy: %s; Alg: %d\n", alg.Strategy, *power)

	if *dumpFile != "" {
		sink, err := bench.OpenDumpSink(*dumpFile, out, false)
		if err != nil {
			out.Flush()
			fmt.Fprintf(stderr, "%s: %v\n", program, err)
			return 1
		}
		defer func() {
			if err := sink.Close(); err != nil {
				monitoring.Warnf("closing dump: %v", err)
			}
		}()
		opts.Dump = sink
	}

	res, err := bench.Execute(bench.NewHepMCSource(reader), input, opts)
	if err != nil {
		out.Flush()
		fmt.Fprintf(stderr, "%s: %v\n", program, err)
		return 1
	}
	bench.WriteSummary(out, res.Summary, res.Store.Len())
	return 0
}
