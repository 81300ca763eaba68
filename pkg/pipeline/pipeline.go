// Package pipeline chains the capacity, material, end-of-life and impact
// stages for one scenario key.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/ChicagoDave/windmfa/pkg/eol"
	"github.com/ChicagoDave/windmfa/pkg/flow"
	"github.com/ChicagoDave/windmfa/pkg/impact"
	"github.com/ChicagoDave/windmfa/pkg/material"
	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
	"github.com/ChicagoDave/windmfa/pkg/validation"
)

// Options configures a run.
type Options struct {
	NegativeInflow flow.NegativeInflowPolicy
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// FleetResult holds every stage output of one fleet.
type FleetResult struct {
	Flows     *scenario.FleetFlows
	Materials *material.Flows
	EoL       *eol.Result
	// Impact is keyed by EoL strategy.
	Impact map[string]*impact.Impact
}

// Result is the output of one pipeline run.
type Result struct {
	Key      scenario.Key
	Capacity *scenario.CapacityFlows
	Onshore  FleetResult
	Offshore FleetResult
	// Total combines onshore and offshore impact per strategy.
	Total map[string]*impact.Impact
	// Validation merges schema and analytical findings.
	Validation *validation.Report
}

// Fleet returns the result of f.
func (r *Result) Fleet(f spec.Fleet) *FleetResult {
	if f == spec.Offshore {
		return &r.Offshore
	}
	return &r.Onshore
}

// Strategies returns the EoL strategy names in order.
func (r *Result) Strategies() []string {
	return r.Onshore.EoL.Names()
}

// Run validates the project and runs all stages for key. A project with
// schema errors is rejected with validation.ErrInvalidProject.
func Run(p *spec.Project, key scenario.Key, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	report := validation.ValidateSchema(p)
	if err := report.Err(); err != nil {
		return nil, err
	}

	orch := scenario.New(p, scenario.WithLogger(log), scenario.WithNegativeInflowPolicy(opts.NegativeInflow))
	capacity, err := orch.Run(key)
	if err != nil {
		return nil, err
	}
	report.Merge(scenario.ValidateFlows(capacity))

	res := &Result{
		Key:        key,
		Capacity:   capacity,
		Total:      make(map[string]*impact.Impact),
		Validation: report,
	}
	for _, f := range spec.Fleets {
		fr, err := runFleet(p, key, capacity.Fleet(f))
		if err != nil {
			return nil, err
		}
		*res.Fleet(f) = *fr
		log.Debug("fleet stages complete", "scenario", key.String(), "fleet", f)
	}

	for _, name := range res.Strategies() {
		total, err := impact.Combine("total", res.Onshore.Impact[name], res.Offshore.Impact[name])
		if err != nil {
			return nil, err
		}
		res.Total[name] = total
	}
	log.Info("pipeline complete", "scenario", key.String(), "strategies", len(res.Total),
		"warnings", len(report.Warnings))
	return res, nil
}

func runFleet(p *spec.Project, key scenario.Key, f *scenario.FleetFlows) (*FleetResult, error) {
	mats, err := material.Compute(p, key.Period, f)
	if err != nil {
		return nil, fmt.Errorf("material stage: %w", err)
	}
	ratios, err := f.RetirementRatios()
	if err != nil {
		return nil, fmt.Errorf("%s retirement ratios: %w", f.Fleet, err)
	}
	end, err := eol.Compute(p, f.Fleet, ratios, mats, f.HistoryLen)
	if err != nil {
		return nil, fmt.Errorf("EoL stage: %w", err)
	}
	impacts := make(map[string]*impact.Impact, len(end.Strategies))
	for _, name := range end.Names() {
		im, err := impact.Compute(p.Impact, mats.Total, end.Strategies[name])
		if err != nil {
			return nil, fmt.Errorf("impact stage: %w", err)
		}
		impacts[name] = im
	}
	return &FleetResult{Flows: f, Materials: mats, EoL: end, Impact: impacts}, nil
}
