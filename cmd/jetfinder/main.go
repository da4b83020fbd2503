// Command jetfinder times repeated jet clustering over the events of a HepMC3
// file and reports the mean, spread and minimum time per event.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/banshee-data/jetbench/internal/bench"
	"github.com/banshee-data/jetbench/internal/config"
	"github.com/banshee-data/jetbench/internal/hepmc3"
	"github.com/banshee-data/jetbench/internal/monitoring"
	"github.com/banshee-data/jetbench/internal/results"
	"github.com/banshee-data/jetbench/internal/version"
)

const program = "jetfinder"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line. Fields mirror config.BenchConfig.
type options struct {
	maxEvents       int
	skipEvents      int
	trials          int
	strategy        string
	power           float64
	algorithm       string
	radius          float64
	ptmin           float64
	dijmax          float64
	njets           int
	dump            string
	debugClusterSeq bool
	dumpUntimed     bool
	normalize       string
	configPath      string
	resultsDB       string
	help            bool
	version         bool

	set   map[string]bool
	input []string
}

func newFlagSet(o *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(stderr)

	intVar := func(p *int, short, long string, def int, usage string) {
		if short != "" {
			fs.IntVar(p, short, def, usage)
		}
		fs.IntVar(p, long, def, usage)
	}
	floatVar := func(p *float64, short, long string, def float64, usage string) {
		if short != "" {
			fs.Float64Var(p, short, def, usage)
		}
		fs.Float64Var(p, long, def, usage)
	}
	stringVar := func(p *string, short, long, def, usage string) {
		if short != "" {
			fs.StringVar(p, short, def, usage)
		}
		fs.StringVar(p, long, def, usage)
	}
	boolVar := func(p *bool, short, long string, usage string) {
		if short != "" {
			fs.BoolVar(p, short, false, usage)
		}
		fs.BoolVar(p, long, false, usage)
	}

	intVar(&o.maxEvents, "m", "maxevents", -1, "Maximum events in file to process (-1 = all events)")
	intVar(&o.skipEvents, "", "skipevents", 0, "Number of events to skip over (0 = none)")
	intVar(&o.trials, "n", "trials", 1, "Number of repeated trials")
	stringVar(&o.strategy, "s", "strategy", "Best", "Valid values are 'Best' (default), 'N2Plain', 'N2Tiled'")
	floatVar(&o.power, "p", "power", -1, "Algorithm p value: -1=antikt, 0=cambridge_aachen, 1=inclusive kt; otherwise generalised Kt")
	stringVar(&o.algorithm, "A", "algorithm", "", "Algorithm: AntiKt CA Kt GenKt EEKt Durham (overrides power)")
	floatVar(&o.radius, "R", "radius", 0.4, "Algorithm R parameter")
	floatVar(&o.ptmin, "", "ptmin", 0, "pt cut for inclusive jets")
	floatVar(&o.dijmax, "", "dijmax", 0, "dijmax value for exclusive jets")
	intVar(&o.njets, "", "njets", 0, "njets value for exclusive jets")
	stringVar(&o.dump, "d", "dump", "", "Filename to dump jets to ('-' for stdout)")
	boolVar(&o.debugClusterSeq, "c", "debug-clusterseq", "Dump cluster sequence jet and history content")
	boolVar(&o.dumpUntimed, "", "dump-untimed", "Write dump output after each trial's timer stops")
	stringVar(&o.normalize, "", "normalize", config.NormalizeFull, "Per-event normalization: 'full' (all loaded events) or 'processed' (after skipevents)")
	stringVar(&o.configPath, "", "config", "", "JSON or YAML file of defaults; command-line flags override it")
	stringVar(&o.resultsDB, "", "results-db", "", "SQLite database to record the run in")
	boolVar(&o.help, "h", "help", "produce help message")
	boolVar(&o.version, "", "version", "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "%s [options] HEPMC3_INPUT_FILE\n\n", program)
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nNote the only one of ptmin, dijmax or njets can be specified!")
	}
	return fs
}

// canonical maps short flag names onto their long form.
var canonical = map[string]string{
	"m": "maxevents", "n": "trials", "s": "strategy", "p": "power",
	"A": "algorithm", "R": "radius", "d": "dump", "c": "debug-clusterseq",
	"h": "help",
}

// parseArgs parses args, allowing flags before and after the input file.
func parseArgs(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	o := &options{set: map[string]bool{}}
	fs := newFlagSet(o, stderr)
	for {
		if err := fs.Parse(args); err != nil {
			return o, fs, err
		}
		if fs.NArg() == 0 {
			break
		}
		o.input = append(o.input, fs.Arg(0))
		args = fs.Args()[1:]
	}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := canonical[name]; ok {
			name = long
		}
		o.set[name] = true
	})
	return o, fs, nil
}

// resolve merges the defaults file, if any, under the explicit flags.
func (o *options) resolve() error {
	cfg := &config.BenchConfig{}
	if o.configPath != "" {
		loaded, err := config.LoadBenchConfig(o.configPath)
		if err != nil {
			return &bench.ConfigError{Msg: err.Error(), Err: err}
		}
		cfg = loaded
	}

	if !o.set["maxevents"] {
		o.maxEvents = cfg.GetMaxEvents()
	}
	if !o.set["skipevents"] {
		o.skipEvents = cfg.GetSkipEvents()
	}
	if !o.set["trials"] {
		o.trials = cfg.GetTrials()
	}
	if !o.set["strategy"] {
		o.strategy = cfg.GetStrategy()
	}
	if !o.set["algorithm"] {
		o.algorithm = cfg.GetAlgorithm()
	}
	if !o.set["power"] {
		o.power = cfg.GetPower()
	}
	if !o.set["radius"] {
		o.radius = cfg.GetRadius()
	}
	if !o.set["dump"] {
		o.dump = cfg.GetDump()
	}
	if !o.set["debug-clusterseq"] {
		o.debugClusterSeq = cfg.GetDebugClusterSeq()
	}
	if !o.set["dump-untimed"] {
		o.dumpUntimed = cfg.GetDumpUntimed()
	}
	if !o.set["normalize"] {
		o.normalize = cfg.GetNormalize()
	}
	if !o.set["results-db"] {
		o.resultsDB = cfg.GetResultsDB()
	}

	// A selection on the command line replaces the file's selection.
	if !o.set["ptmin"] && !o.set["dijmax"] && !o.set["njets"] {
		if cfg.PtMin != nil {
			o.ptmin, o.set["ptmin"] = *cfg.PtMin, true
		}
		if cfg.DijMax != nil {
			o.dijmax, o.set["dijmax"] = *cfg.DijMax, true
		}
		if cfg.NJets != nil {
			o.njets, o.set["njets"] = *cfg.NJets, true
		}
	}
	return nil
}

func (o *options) selection() (bench.SelectionSpec, error) {
	var (
		ptmin, dijmax *float64
		njets         *int
	)
	if o.set["ptmin"] {
		ptmin = &o.ptmin
	}
	if o.set["dijmax"] {
		dijmax = &o.dijmax
	}
	if o.set["njets"] {
		njets = &o.njets
	}
	return bench.NewSelectionSpec(ptmin, dijmax, njets)
}

func run(args []string, stdout, stderr io.Writer) int {
	o, fs, err := parseArgs(args, stderr)
	if err != nil {
		// flag has already reported the problem and printed usage.
		return 1
	}
	if o.help {
		fs.SetOutput(stdout)
		fs.Usage()
		return 1
	}
	if o.version {
		fmt.Fprintln(stdout, version.String(program))
		return 0
	}

	switch len(o.input) {
	case 1:
	case 0:
		fmt.Fprintln(stderr, "No <HepMC3_input_file> argument after options")
		return 1
	default:
		fmt.Fprintln(stderr, "Only one <HepMC3_input_file> supported")
		return 1
	}
	input := o.input[0]

	if err := o.resolve(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	sel, err := o.selection()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	alg, err := bench.NewAlgorithmConfig(o.algorithm, o.power, o.radius, o.strategy)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	out := bufio.NewWriter(stdout)
	defer out.Flush()

	opts := bench.Options{
		MaxEvents:         o.maxEvents,
		SkipEvents:        o.skipEvents,
		Trials:            o.trials,
		Algorithm:         alg,
		Selection:         sel,
		DumpOutsideTiming: o.dumpUntimed,
		Normalize:         o.normalize,
		Out:               out,
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

	fmt.Fprintf(out, "Strategy: %s; Power: %s; Algorithm %s\n",
		alg.Strategy, strconv.FormatFloat(alg.Power, 'g', 6, 64), alg.Algorithm)

	if o.dump != "" {
		sink, err := bench.OpenDumpSink(o.dump, out, o.debugClusterSeq)
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

	if o.resultsDB != "" {
		if err := record(o.resultsDB, input, o, opts, res); err != nil {
			out.Flush()
			fmt.Fprintf(stderr, "%s: %v\n", program, err)
			return 1
		}
	}
	return 0
}

// record stores the run in the results database at path.
func record(path, input string, o *options, opts bench.Options, res *bench.Result) error {
	store, err := results.OpenAndMigrate(path)
	if err != nil {
		return err
	}
	defer store.Close()

	trialUs := make([]float64, len(res.Stats))
	for i, s := range res.Stats {
		trialUs[i] = s.Micros
	}
	run := &results.Run{
		InputPath:      input,
		Algorithm:      opts.Algorithm.Algorithm.String(),
		Strategy:       opts.Algorithm.Strategy.String(),
		Radius:         opts.Algorithm.R,
		Power:          opts.Algorithm.Power,
		SelectionMode:  opts.Selection.Mode().String(),
		SelectionValue: opts.Selection.Value(),
		Trials:         res.Summary.Trials,
		Events:         res.Store.Len(),
		SkipEvents:     o.skipEvents,
		Normalization:  opts.Normalize,
		NormalizedBy:   res.Summary.EventCount,
		MeanTotalUs:    res.Summary.MeanTotal,
		MeanUs:         res.Summary.Mean,
		StdDevUs:       res.Summary.StdDev,
		MinUs:          res.Summary.Min,
		Version:        version.Version,
		TrialUs:        trialUs,
	}
	if err := store.InsertRun(run); err != nil {
		return err
	}
	monitoring.Logf("Recorded run %s in %s", run.RunID, path)
	return nil
}
