// Package store archives pipeline runs in SQLite so results of different
// scenario keys can be compared without recomputing them.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChicagoDave/windmfa/pkg/impact"
	"github.com/ChicagoDave/windmfa/pkg/pipeline"
	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when no run matches a query.
var ErrNotFound = errors.New("run not found")

// Store is a SQLite results archive.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run identifies one archived pipeline run.
type Run struct {
	ID        string       `json:"id"`
	Key       scenario.Key `json:"key"`
	CreatedAt time.Time    `json:"created_at"`
}

// CapacityRow is one year of archived fleet capacity, in MW.
type CapacityRow struct {
	Year    int     `json:"year"`
	Inflow  float64 `json:"inflow"`
	Stock   float64 `json:"stock"`
	Outflow float64 `json:"outflow"`
}

// ImpactRow is one year of archived impact totals.
type ImpactRow struct {
	Year   int                        `json:"year"`
	Values [impact.NumMetrics]float64 `json:"values"`
}

// Snapshot is an archived run read back in full: capacity per fleet and
// total impact per EoL strategy.
type Snapshot struct {
	Run      Run                          `json:"run"`
	Capacity map[spec.Fleet][]CapacityRow `json:"capacity"`
	Impact   map[string][]ImpactRow       `json:"total_impact"`
}

// Open creates or opens the archive at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun archives the capacity flows and impact totals of r under a new
// run ID.
func (s *Store) SaveRun(ctx context.Context, r *pipeline.Result) (Run, error) {
	run := Run{ID: uuid.NewString(), Key: r.Key, CreatedAt: s.now().UTC()}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, period, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Key.Capacity), run.Key.Period, run.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}

	capStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO capacity_flows (run_id, fleet, year, inflow, stock, outflow)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	defer capStmt.Close()
	for _, f := range spec.Fleets {
		flows := r.Capacity.Fleet(f)
		for i, year := range flows.Years {
			if _, err := capStmt.ExecContext(ctx, run.ID, string(f), year,
				flows.Inflow[i], flows.Stock[i], flows.Outflow[i]); err != nil {
				return Run{}, fmt.Errorf("save %s capacity %d: %w", f, year, err)
			}
		}
	}

	impStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO impact_totals
		(run_id, scope, strategy, year, energy_consumption, energy_saved, co2_emission, co2_saved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	defer impStmt.Close()
	for _, name := range r.Strategies() {
		for _, im := range []*impact.Impact{r.Onshore.Impact[name], r.Offshore.Impact[name], r.Total[name]} {
			if im == nil {
				continue
			}
			for i, year := range im.Years {
				if _, err := impStmt.ExecContext(ctx, run.ID, im.Scope, name, year,
					im.Total[impact.EnergyConsumption][i], im.Total[impact.EnergySaved][i],
					im.Total[impact.CO2Emission][i], im.Total[impact.CO2Saved][i]); err != nil {
					return Run{}, fmt.Errorf("save %s impact %d: %w", im.Scope, year, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run archived for key.
func (s *Store) LatestRun(ctx context.Context, key scenario.Key) (Run, error) {
	var (
		run     Run
		scen    string
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, period, created_at FROM runs
		WHERE scenario = ? AND period = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`,
		string(key.Capacity), key.Period,
	).Scan(&run.ID, &scen, &run.Key.Period, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	run.Key.Capacity = scenario.Capacity(scen)
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Run{}, fmt.Errorf("latest run %s: %w", run.ID, err)
	}
	return run, nil
}

// CapacityRows returns the archived capacity of one fleet in year order.
func (s *Store) CapacityRows(ctx context.Context, runID string, fleet spec.Fleet) ([]CapacityRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, inflow, stock, outflow FROM capacity_flows
		WHERE run_id = ? AND fleet = ?
		ORDER BY year`,
		runID, string(fleet))
	if err != nil {
		return nil, fmt.Errorf("capacity rows: %w", err)
	}
	defer rows.Close()

	var out []CapacityRow
	for rows.Next() {
		var r CapacityRow
		if err := rows.Scan(&r.Year, &r.Inflow, &r.Stock, &r.Outflow); err != nil {
			return nil, fmt.Errorf("capacity rows: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("capacity rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %s capacity: %w", runID, fleet, ErrNotFound)
	}
	return out, nil
}

// ImpactRows returns archived impact totals for a scope ("onshore",
// "offshore" or "total") and strategy in year order.
func (s *Store) ImpactRows(ctx context.Context, runID, scope, strategy string) ([]ImpactRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, energy_consumption, energy_saved, co2_emission, co2_saved FROM impact_totals
		WHERE run_id = ? AND scope = ? AND strategy = ?
		ORDER BY year`,
		runID, scope, strategy)
	if err != nil {
		return nil, fmt.Errorf("impact rows: %w", err)
	}
	defer rows.Close()

	var out []ImpactRow
	for rows.Next() {
		var r ImpactRow
		v := &r.Values
		if err := rows.Scan(&r.Year, &v[impact.EnergyConsumption], &v[impact.EnergySaved],
			&v[impact.CO2Emission], &v[impact.CO2Saved]); err != nil {
			return nil, fmt.Errorf("impact rows: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("impact rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %s %s impact: %w", runID, scope, strategy, ErrNotFound)
	}
	return out, nil
}

// Strategies lists the EoL strategies archived for a run.
func (s *Store) Strategies(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT strategy FROM impact_totals WHERE run_id = ? ORDER BY strategy`, runID)
	if err != nil {
		return nil, fmt.Errorf("strategies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("strategies: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// LatestSnapshot reads back the most recent run archived for key.
func (s *Store) LatestSnapshot(ctx context.Context, key scenario.Key) (*Snapshot, error) {
	run, err := s.LatestRun(ctx, key)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Run:      run,
		Capacity: make(map[spec.Fleet][]CapacityRow, len(spec.Fleets)),
		Impact:   make(map[string][]ImpactRow),
	}
	for _, f := range spec.Fleets {
		rows, err := s.CapacityRows(ctx, run.ID, f)
		if err != nil {
			return nil, err
		}
		snap.Capacity[f] = rows
	}
	names, err := s.Strategies(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		rows, err := s.ImpactRows(ctx, run.ID, "total", name)
		if err != nil {
			return nil, err
		}
		snap.Impact[name] = rows
	}
	return snap, nil
}
