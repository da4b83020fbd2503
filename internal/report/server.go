package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/jetbench/internal/monitoring"
	"github.com/banshee-data/jetbench/internal/results"
)

// DefaultChartRuns is how many recent runs a chart shows when none are named.
const DefaultChartRuns = 10

// Server exposes a results database over HTTP.
type Server struct {
	store *results.Store
	chart ChartOptions
}

// NewServer returns a Server reading from store.
func NewServer(store *results.Store, chart ChartOptions) *Server {
	return &Server{store: store, chart: chart}
}

// ServeMux returns the run browsing routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/", s.getRun)
	mux.HandleFunc("/charts/runs", s.chartRuns)
	mux.HandleFunc("/plots/runs/", s.plotRun)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

// AttachAdminRoutes mounts the tsweb debug pages and a tailsql console over
// the results database on mux.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+s.store.Path(), s.store.DB(), &tailsql.DBOptions{
		Label: "jetbench results",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logf("failed to encode json response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// runError maps store lookup failures onto HTTP statuses.
func runError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, results.ErrRunNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, results.ErrAmbiguousRunID):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("jetbench results: /api/runs, /charts/runs, /plots/runs/<id>.png, /debug/\n"))
}

func parseLimit(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	return n, nil
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, err := parseLimit(r, 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		runError(w, err)
		return
	}
	if runs == nil {
		runs = []*results.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if id == "" || strings.Contains(id, "/") {
		writeJSONError(w, http.StatusBadRequest, "missing run id")
		return
	}
	run, err := s.store.GetRun(id)
	if err != nil {
		runError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// LoadRuns fetches the named runs with their trials, or the most recent
// limit runs when ids is empty.
func LoadRuns(store *results.Store, ids []string, limit int) ([]*results.Run, error) {
	if len(ids) == 0 {
		recent, err := store.ListRuns(limit)
		if err != nil {
			return nil, err
		}
		for _, r := range recent {
			ids = append(ids, r.RunID)
		}
	}
	runs := make([]*results.Run, 0, len(ids))
	for _, id := range ids {
		run, err := store.GetRun(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *Server) chartRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, err := parseLimit(r, DefaultChartRuns)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	runs, err := LoadRuns(s.store, r.URL.Query()["id"], limit)
	if err != nil {
		runError(w, err)
		return
	}
	if len(runs) == 0 {
		http.Error(w, ErrNoRuns.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderChart(w, runs, s.chart); err != nil {
		monitoring.Logf("chart render failed: %v", err)
	}
}

func (s *Server) plotRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/plots/runs/"), ".png")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "missing run id", http.StatusBadRequest)
		return
	}
	run, err := s.store.GetRun(id)
	if err != nil {
		runError(w, err)
		return
	}
	if len(run.TrialUs) == 0 {
		http.Error(w, ErrNoRuns.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := WritePNG(w, run); err != nil {
		monitoring.Logf("plot render failed: %v", err)
	}
}
