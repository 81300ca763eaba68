package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gonum.org/v1/gonum/mat"

	"github.com/ChicagoDave/windmfa/internal/store"
	"github.com/ChicagoDave/windmfa/pkg/impact"
	"github.com/ChicagoDave/windmfa/pkg/pipeline"
	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
	"github.com/ChicagoDave/windmfa/pkg/validation"
)

// Server is the local HTTP API over one project directory. The project is
// re-read on every request so edits show up without a restart.
type Server struct {
	projectPath string
	port        int
	opts        pipeline.Options
	archive     string
	log         *slog.Logger
}

// New creates a server for the given project directory.
func New(projectPath string, port int, opts pipeline.Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		projectPath: projectPath,
		port:        port,
		opts:        opts,
		log:         log,
	}
}

// WithArchive serves archived runs from the SQLite archive at path. An
// empty path leaves /api/runs/latest unavailable.
func (s *Server) WithArchive(path string) *Server {
	s.archive = path
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/project", s.handleProject)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("GET /api/capacity", s.withResult(capacityView))
	mux.HandleFunc("GET /api/materials", s.withResult(materialsView))
	mux.HandleFunc("GET /api/eol", s.withResult(eolView))
	mux.HandleFunc("GET /api/impact", s.withResult(impactView))
	mux.HandleFunc("GET /api/runs/latest", s.handleLatestRun)
	mux.HandleFunc("GET /", s.handleIndex)

	return mux
}

// Start launches the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("windmfa server starting", "url", "http://localhost"+addr, "project", s.projectPath)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>windmfa</title></head>
<body style="font-family:system-ui;margin:2rem">
<h1>windmfa</h1>
<p>Endpoints accept <code>scen</code> (Gcam or GNZ) and <code>tp</code> (period index or name).</p>
<ul>
<li><a href="/api/project">/api/project</a></li>
<li><a href="/api/validation">/api/validation</a></li>
<li><a href="/api/capacity">/api/capacity</a></li>
<li><a href="/api/materials">/api/materials</a></li>
<li><a href="/api/eol">/api/eol</a></li>
<li><a href="/api/impact">/api/impact</a></li>
<li><a href="/api/runs/latest">/api/runs/latest</a></li>
</ul>
</body></html>`)
}

func (s *Server) handleProject(w http.ResponseWriter, _ *http.Request) {
	p, err := spec.LoadProject(s.projectPath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleValidation reports schema findings, plus analytical findings for
// the requested key once the schema is clean.
func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	p, err := spec.LoadProject(s.projectPath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	report := validation.ValidateSchema(p)
	if !report.Valid {
		writeJSON(w, http.StatusOK, report)
		return
	}
	key, err := parseKey(p, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := pipeline.Run(p, key, s.opts)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res.Validation)
}

// handleLatestRun reads the newest archived run for the request's key
// without recomputing it.
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	if s.archive == "" {
		s.writeError(w, http.StatusNotFound, errors.New("no results archive configured"))
		return
	}
	p, err := spec.LoadProject(s.projectPath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	key, err := parseKey(p, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	db, err := store.Open(s.archive)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer db.Close()
	snap, err := db.LatestSnapshot(r.Context(), key)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// withResult runs the pipeline for the request's key and renders view.
func (s *Server) withResult(view func(*pipeline.Result) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := spec.LoadProject(s.projectPath)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		key, err := parseKey(p, r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		res, err := pipeline.Run(p, key, s.opts)
		if err != nil {
			s.writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, view(res))
	}
}

func parseKey(p *spec.Project, r *http.Request) (scenario.Key, error) {
	q := r.URL.Query()
	scen, tp := q.Get("scen"), q.Get("tp")
	if scen == "" {
		scen = string(scenario.Gcam)
	}
	if tp == "" {
		tp = "0"
	}
	return scenario.ParseKey(p, scen, tp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scenario.ErrInvalidScenario), errors.Is(err, scenario.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, validation.ErrInvalidProject):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type capacitySeries struct {
	Years               []int     `json:"years"`
	Inflow              []float64 `json:"inflow"`
	Stock               []float64 `json:"stock"`
	Outflow             []float64 `json:"outflow"`
	HistoryLen          int       `json:"history_len"`
	NegativeInflowYears []int     `json:"negative_inflow_years"`
}

func capacityView(r *pipeline.Result) any {
	out := map[string]any{"key": r.Key}
	for _, f := range spec.Fleets {
		fl := r.Capacity.Fleet(f)
		out[string(f)] = capacitySeries{
			Years:               fl.Years,
			Inflow:              fl.Inflow,
			Stock:               fl.Stock,
			Outflow:             fl.Outflow,
			HistoryLen:          fl.HistoryLen,
			NegativeInflowYears: fl.NegativeInflowYears,
		}
	}
	return out
}

type materialTables struct {
	Years       []int       `json:"years"`
	Materials   []string    `json:"materials"`
	Inflow      [][]float64 `json:"inflow_t"`
	Replacement [][]float64 `json:"replacement_t"`
	Total       [][]float64 `json:"total_t"`
}

func materialsView(r *pipeline.Result) any {
	names := make([]string, 0, spec.NumMaterials)
	for _, m := range spec.Materials() {
		names = append(names, m.String())
	}
	out := map[string]any{"key": r.Key}
	for _, f := range spec.Fleets {
		m := r.Fleet(f).Materials
		out[string(f)] = materialTables{
			Years:       m.Total.Years,
			Materials:   names,
			Inflow:      rows(m.Inflow.Mass),
			Replacement: rows(m.Replacement.Mass),
			Total:       rows(m.Total.Mass),
		}
	}
	return out
}

type strategyRoutes struct {
	Years  []int       `json:"years"`
	Routes []string    `json:"routes"`
	Totals [][]float64 `json:"route_totals_t"`
	Virgin [][]float64 `json:"virgin_t,omitempty"`
}

func eolView(r *pipeline.Result) any {
	out := map[string]any{"key": r.Key}
	for _, f := range spec.Fleets {
		end := r.Fleet(f).EoL
		strategies := make(map[string]strategyRoutes, len(end.Strategies))
		for _, name := range end.Names() {
			a := end.Strategies[name].Clamped()
			sr := strategyRoutes{Years: a.Years, Routes: a.Routes, Totals: rows(a.RouteTotals())}
			if v, ok := end.Virgin[name]; ok {
				sr.Virgin = rows(v.Mass)
			}
			strategies[name] = sr
		}
		out[string(f)] = strategies
	}
	return out
}

func impactView(r *pipeline.Result) any {
	scopes := map[string]map[string]*impact.Decades{
		string(spec.Onshore):  {},
		string(spec.Offshore): {},
		"total":               {},
	}
	for _, name := range r.Strategies() {
		scopes[string(spec.Onshore)][name] = r.Onshore.Impact[name].Aggregate(impact.TotalDecades)
		scopes[string(spec.Offshore)][name] = r.Offshore.Impact[name].Aggregate(impact.FleetDecades)
		scopes["total"][name] = r.Total[name].Aggregate(impact.TotalDecades)
	}
	return map[string]any{"key": r.Key, "scopes": scopes}
}

func rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
