package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ChicagoDave/windmfa/internal/store"
	"github.com/ChicagoDave/windmfa/pkg/export"
	"github.com/ChicagoDave/windmfa/pkg/impact"
	"github.com/ChicagoDave/windmfa/pkg/pipeline"
	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
	"github.com/ChicagoDave/windmfa/pkg/validation"
)

// loadAndValidate loads the project, resolves the scenario key and runs
// schema validation.
func (a *app) loadAndValidate(projectPath string) (*spec.Project, scenario.Key, *validation.Report, error) {
	p, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, scenario.Key{}, nil, fmt.Errorf("loading project: %w", err)
	}
	key, err := scenario.ParseKey(p, a.scen, a.tp)
	if err != nil {
		return nil, scenario.Key{}, nil, err
	}
	return p, key, validation.ValidateSchema(p), nil
}

func (a *app) options() (pipeline.Options, error) {
	policy, err := a.cfg.Flow.Policy()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{NegativeInflow: policy, Logger: a.log}, nil
}

func (a *app) writer() *export.Writer {
	return export.New(a.cfg.OutputDir, int32(a.cfg.Export.Precision))
}

func (a *app) runPipeline(projectPath string) (*pipeline.Result, error) {
	p, key, report, err := a.loadAndValidate(projectPath)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		printValidationReport(os.Stderr, report)
		return nil, fmt.Errorf("project has validation errors")
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return pipeline.Run(p, key, opts)
}

func (a *app) runCapacity(w io.Writer, projectPath string) error {
	p, key, report, err := a.loadAndValidate(projectPath)
	if err != nil {
		return err
	}
	if !report.Valid {
		printValidationReport(os.Stderr, report)
		return fmt.Errorf("project has validation errors")
	}
	opts, err := a.options()
	if err != nil {
		return err
	}

	orch := scenario.New(p, scenario.WithLogger(a.log), scenario.WithNegativeInflowPolicy(opts.NegativeInflow))
	flows, err := orch.Run(key)
	if err != nil {
		return err
	}
	files, err := a.writer().Capacity(flows)
	if err != nil {
		return err
	}

	if a.format == "json" {
		return json.NewEncoder(w).Encode(flows)
	}
	printCapacitySummary(w, flows)
	fmt.Fprintln(w)
	printFiles(w, a.cfg.OutputDir, files)

	flowReport := scenario.ValidateFlows(flows)
	if len(flowReport.Warnings) > 0 || len(flowReport.Errors) > 0 {
		fmt.Fprintln(w)
		printValidationReport(w, flowReport)
	}
	return nil
}

func (a *app) runAll(ctx context.Context, w io.Writer, projectPath string) error {
	res, err := a.runPipeline(projectPath)
	if err != nil {
		return err
	}
	files, err := a.writer().All(res)
	if err != nil {
		return err
	}

	var run *store.Run
	if a.cfg.Store.Path != "" {
		s, err := store.Open(a.cfg.Store.Path)
		if err != nil {
			return err
		}
		defer s.Close()
		r, err := s.SaveRun(ctx, res)
		if err != nil {
			return err
		}
		run = &r
		a.log.Info("run archived", "id", r.ID, "db", a.cfg.Store.Path)
	}

	if a.format == "json" {
		out := map[string]any{"key": res.Key, "files": files, "validation": res.Validation}
		if run != nil {
			out["run_id"] = run.ID
		}
		return json.NewEncoder(w).Encode(out)
	}
	printCapacitySummary(w, res.Capacity)
	fmt.Fprintln(w)
	printFiles(w, a.cfg.OutputDir, files)
	if run != nil {
		fmt.Fprintf(w, "Archived run %s in %s\n", run.ID, a.cfg.Store.Path)
	}
	if len(res.Validation.Warnings) > 0 {
		fmt.Fprintln(w)
		printValidationReport(w, res.Validation)
	}
	return nil
}

func (a *app) runValidate(w io.Writer, projectPath string) error {
	p, key, report, err := a.loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	// Flow checks need a clean schema.
	if report.Valid {
		opts, err := a.options()
		if err != nil {
			return err
		}
		orch := scenario.New(p, scenario.WithLogger(a.log), scenario.WithNegativeInflowPolicy(opts.NegativeInflow))
		flows, err := orch.Run(key)
		if err != nil {
			return err
		}
		report.Merge(scenario.ValidateFlows(flows))
	}

	if a.format == "json" {
		if err := json.NewEncoder(w).Encode(report); err != nil {
			return err
		}
	} else {
		printValidationReport(w, report)
	}

	if !report.Valid {
		return fmt.Errorf("%w: %s", validation.ErrInvalidProject, report.Summary)
	}
	return nil
}

func (a *app) runHistory(ctx context.Context, w io.Writer, projectPath string) error {
	if a.cfg.Store.Path == "" {
		return fmt.Errorf("history needs a results archive: set --db or store.path")
	}
	p, err := spec.LoadProject(projectPath)
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}
	key, err := scenario.ParseKey(p, a.scen, a.tp)
	if err != nil {
		return err
	}

	s, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()
	snap, err := s.LatestSnapshot(ctx, key)
	if err != nil {
		return err
	}

	if a.format == "json" {
		return json.NewEncoder(w).Encode(snap)
	}
	printSnapshot(w, snap)
	return nil
}

func (a *app) runImpact(w io.Writer, projectPath, strategy string) error {
	res, err := a.runPipeline(projectPath)
	if err != nil {
		return err
	}
	names := res.Strategies()
	if strategy != "" {
		if _, ok := res.Total[strategy]; !ok {
			return fmt.Errorf("unknown EoL strategy %q (have %v)", strategy, names)
		}
		names = []string{strategy}
	}

	var tables []*impact.Decades
	for _, name := range names {
		tables = append(tables,
			res.Total[name].Aggregate(impact.TotalDecades),
			res.Offshore.Impact[name].Aggregate(impact.FleetDecades),
		)
	}

	if a.format == "json" {
		return json.NewEncoder(w).Encode(tables)
	}
	for i, d := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printDecades(w, d)
	}
	return nil
}
