// Command jetbench-report browses, charts and serves benchmark runs recorded
// with jetfinder --results-db.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/jetbench/internal/monitoring"
	"github.com/banshee-data/jetbench/internal/report"
	"github.com/banshee-data/jetbench/internal/results"
	"github.com/banshee-data/jetbench/internal/security"
	"github.com/banshee-data/jetbench/internal/version"
)

const (
	program   = "jetbench-report"
	defaultDB = "jetbench.db"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `%s - inspect recorded jet clustering benchmark runs

Usage: %s <command> [options]

Commands:
  list               List recorded runs, newest first
  show <run-id>      Show one run and its trial timings
  chart [run-id...]  Write an HTML chart comparing runs (default: recent runs)
  plot <run-id>      Write a plot of one run's trial timings
  delete <run-id>    Delete a run and its trial timings
  serve              Serve the runs, charts and a SQL console over HTTP
  migrate <up|down|version>
                     Manage the results database schema
  version            Show the program version
  help               Show this help message

Common Flags:
  -db <path>         Results database (default: %s)

Run ids may be abbreviated to any unique prefix.
`, program, program, defaultDB)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	command, rest := args[0], args[1:]
	var err error
	switch command {
	case "list":
		err = handleList(rest, stdout, stderr)
	case "show":
		err = handleShow(rest, stdout, stderr)
	case "chart":
		err = handleChart(rest, stdout, stderr)
	case "plot":
		err = handlePlot(rest, stdout, stderr)
	case "delete":
		err = handleDelete(rest, stdout, stderr)
	case "serve":
		err = handleServe(rest, stderr)
	case "migrate":
		err = handleMigrate(rest, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.String(program))
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 1
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "%s %s: %v\n", program, command, err)
		}
		return 1
	}
	return 0
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	db := fs.String("db", defaultDB, "results database path")
	return fs, db
}

// openStore opens an existing results database and brings it up to date.
func openStore(path string) (*results.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("results database: %w", err)
	}
	return results.OpenAndMigrate(path)
}

func handleList(args []string, stdout, stderr io.Writer) error {
	fs, db := newFlagSet("list", stderr)
	limit := fs.Int("limit", 20, "maximum runs to list (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	store, err := openStore(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(*limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs recorded.")
		return nil
	}
	return report.WriteRunTable(stdout, runs)
}

func handleShow(args []string, stdout, stderr io.Writer) error {
	fs, db := newFlagSet("show", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one run id is required")
	}
	store, err := openStore(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.GetRun(fs.Arg(0))
	if err != nil {
		return err
	}
	return report.WriteRunDetail(stdout, r)
}

func handleChart(args []string, stdout, stderr io.Writer) error {
	fs, db := newFlagSet("chart", stderr)
	outDir := fs.String("dir", ".", "directory to write the chart into")
	name := fs.String("o", "runs.html", "chart file name")
	limit := fs.Int("limit", report.DefaultChartRuns, "recent runs to chart when no ids are given")
	assets := fs.String("assets", "", "echarts assets host (default: public CDN)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	store, err := openStore(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := report.LoadRuns(store, fs.Args(), *limit)
	if err != nil {
		return err
	}
	path, err := security.OutputPath(*outDir, *name, ".html")
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.RenderChart(f, runs, report.ChartOptions{AssetsHost: *assets}); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s (%d runs)\n", path, len(runs))
	return nil
}

func handlePlot(args []string, stdout, stderr io.Writer) error {
	fs, db := newFlagSet("plot", stderr)
	outDir := fs.String("dir", ".", "directory to write the plot into")
	name := fs.String("o", "", "plot file name; the extension picks the format (default: <run>.png)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one run id is required")
	}
	store, err := openStore(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.GetRun(fs.Arg(0))
	if err != nil {
		return err
	}
	file, ext := *name, ""
	if file == "" {
		file, ext = report.RunLabel(r), ".png"
	}
	path, err := security.OutputPath(*outDir, file, ext)
	if err != nil {
		return err
	}
	if err := report.RenderPlot(path, r); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

func handleDelete(args []string, stdout, stderr io.Writer) error {
	fs, db := newFlagSet("delete", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one run id is required")
	}
	store, err := openStore(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.GetRun(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := store.DeleteRun(r.RunID); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Deleted run %s\n", r.RunID)
	return nil
}

func handleMigrate(args []string, stdout, stderr io.Writer) error {
	fs, db := newFlagSet("migrate", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: migrate <up|down|version>")
	}
	store, err := results.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	switch fs.Arg(0) {
	case "up":
		if err := store.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := store.MigrateDown(); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate action %q", fs.Arg(0))
	}
	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "schema version %d (latest %d, dirty %v)\n", v, results.LatestVersion, dirty)
	return nil
}

func handleServe(args []string, stderr io.Writer) error {
	fs, db := newFlagSet("serve", stderr)
	listen := fs.String("listen", ":8080", "HTTP listen address")
	assets := fs.String("assets", "", "echarts assets host (default: public CDN)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	store, err := openStore(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, store, *listen, report.ChartOptions{AssetsHost: *assets})
}

// serve runs the report server until ctx is cancelled.
func serve(ctx context.Context, store *results.Store, listen string, chart report.ChartOptions) error {
	srv := report.NewServer(store, chart)
	mux := srv.ServeMux()
	if err := srv.AttachAdminRoutes(mux); err != nil {
		return err
	}

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		monitoring.Logf("got request %q", r.URL.Path)
		mux.ServeHTTP(w, r)
	})
	server := &http.Server{
		Addr:              listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	monitoring.Logf("serving %s on %s", store.Path(), listen)
	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	monitoring.Logf("Graceful shutdown complete")
	return nil
}
