package scenario

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/ChicagoDave/windmfa/pkg/flow"
	"github.com/ChicagoDave/windmfa/pkg/lifetime"
	"github.com/ChicagoDave/windmfa/pkg/series"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// FleetFlows are the capacity flows of one fleet in MW.
type FleetFlows struct {
	Fleet   spec.Fleet `json:"fleet"`
	Years   []int      `json:"years"`
	Inflow  []float64  `json:"inflow"`
	Stock   []float64  `json:"stock"`
	Outflow []float64  `json:"outflow"`

	// OutflowContrib is cohorts × years: cell (j, t) is the capacity
	// installed in Years[j] that retires in Years[t].
	OutflowContrib *mat.Dense `json:"-"`
	// StockContrib is cohorts × years: cell (j, t) is the capacity installed
	// in Years[j] still standing at the end of Years[t]. Cells with t < j
	// hold the full cohort inflow.
	StockContrib *mat.Dense `json:"-"`

	// HistoryLen counts the leading years taken from the historical record.
	HistoryLen int `json:"history_len"`
	// NegativeInflowYears lists years whose solved inflow was negative.
	NegativeInflowYears []int `json:"negative_inflow_years,omitempty"`
}

// Len returns the number of years.
func (f *FleetFlows) Len() int { return len(f.Years) }

// RetirementRatios returns the fraction of each cohort retiring per year.
func (f *FleetFlows) RetirementRatios() (*mat.Dense, error) {
	return flow.RetirementRatios(f.OutflowContrib, f.Inflow)
}

// CapacityFlows is the result of one orchestrator run.
type CapacityFlows struct {
	Key      Key        `json:"key"`
	Onshore  FleetFlows `json:"onshore"`
	Offshore FleetFlows `json:"offshore"`
}

// Fleet returns the flows of f.
func (c *CapacityFlows) Fleet(f spec.Fleet) *FleetFlows {
	if f == spec.Offshore {
		return &c.Offshore
	}
	return &c.Onshore
}

// Orchestrator runs capacity scenarios against one project. The project is
// read-only; an orchestrator is safe for concurrent Run calls.
type Orchestrator struct {
	project *spec.Project
	policy  flow.NegativeInflowPolicy
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithNegativeInflowPolicy selects how negative solved inflow is treated.
func WithNegativeInflowPolicy(p flow.NegativeInflowPolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// New creates an orchestrator for project.
func New(project *spec.Project, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		project: project,
		policy:  flow.Propagate,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Project returns the project the orchestrator runs against.
func (o *Orchestrator) Project() *spec.Project { return o.project }

// Run computes onshore and offshore capacity flows for key.
func (o *Orchestrator) Run(key Key) (*CapacityFlows, error) {
	capacity, err := ParseCapacityScenario(string(key.Capacity))
	if err != nil {
		return nil, err
	}
	if err := checkPeriod(o.project.Technology, key.Period); err != nil {
		return nil, err
	}
	log := o.logger.With("scenario", key.String())

	c := o.project.Capacity
	onTarget, err := futureStock(c.Onshore, capacity, spec.Onshore, c.FutureStartYear)
	if err != nil {
		return nil, err
	}
	offTarget, err := futureStock(c.Offshore, capacity, spec.Offshore, 0)
	if err != nil {
		return nil, err
	}
	log.Debug("future stock annualized",
		"onshore_years", onTarget.Len(), "offshore_years", offTarget.Len())

	shape := o.project.Lifetime.Shape
	if shape == 0 {
		shape = lifetime.DefaultShape
	}
	histYears := c.HistoricalYears
	histCurve, err := lifetime.FromMean(o.project.Lifetime.Historical, shape, len(histYears))
	if err != nil {
		return nil, fmt.Errorf("historical onshore survival curve: %w", err)
	}
	onCurve, err := lifetime.FromMean(o.project.Lifetime.Future, shape, onTarget.Len())
	if err != nil {
		return nil, fmt.Errorf("future onshore survival curve: %w", err)
	}
	offCurve, err := lifetime.FromMean(o.project.Lifetime.Future, shape, offTarget.Len())
	if err != nil {
		return nil, fmt.Errorf("future offshore survival curve: %w", err)
	}

	opts := flow.InverseOptions{NegativeInflow: o.policy}

	var hist *flow.Result
	var history *flow.History
	if len(histYears) > 0 {
		hist, err = flow.Forward(c.HistoricalInflow, histCurve)
		if err != nil {
			return nil, fmt.Errorf("historical onshore flows: %w", err)
		}
		history = &flow.History{Inflow: hist.Inflow, Stock: hist.Stock, Curve: histCurve}
	}
	onFuture, err := flow.Inverse(onTarget.Values, history, onCurve, opts)
	if err != nil {
		return nil, fmt.Errorf("future onshore flows: %w", err)
	}
	log.Debug("onshore solved", "history_years", len(histYears), "future_years", onTarget.Len())

	offFuture, err := flow.Inverse(offTarget.Values, &flow.History{Stock: []float64{0}}, offCurve, opts)
	if err != nil {
		return nil, fmt.Errorf("future offshore flows: %w", err)
	}
	log.Debug("offshore solved", "future_years", offTarget.Len())

	onshore, err := stitchOnshore(hist, histYears, onFuture, onTarget.Years)
	if err != nil {
		return nil, err
	}
	offshore, err := fleetFlows(spec.Offshore, offTarget.Years, offFuture, nil, 0)
	if err != nil {
		return nil, err
	}

	for _, f := range []*FleetFlows{onshore, offshore} {
		if len(f.NegativeInflowYears) > 0 {
			log.Warn("negative solved inflow",
				"fleet", f.Fleet, "years", f.NegativeInflowYears, "policy", o.policy.String())
		}
	}

	return &CapacityFlows{Key: key, Onshore: *onshore, Offshore: *offshore}, nil
}

// futureStock returns the annual target stock of a fleet. Gcam milestones
// are interpolated from start (or the first milestone when start is 0) to
// the last milestone; GNZ must already be annual and begin at start when
// start is set.
func futureStock(table spec.FutureCapacity, capacity Capacity, fleet spec.Fleet, start int) (series.Series, error) {
	path, ok := table[string(capacity)]
	if !ok {
		return series.Series{}, fmt.Errorf("%w: project has no %s %s stock path", ErrInvalidScenario, fleet, capacity)
	}
	s, err := series.New(path.Years, path.Stock)
	if err != nil {
		return series.Series{}, fmt.Errorf("%s %s stock path: %w", fleet, capacity, err)
	}
	if s.Len() == 0 {
		return series.Series{}, fmt.Errorf("%s %s stock path: %w", fleet, capacity, series.ErrInvalidSeries)
	}

	switch capacity {
	case GNZ:
		if err := s.RequireAnnual(); err != nil {
			return series.Series{}, fmt.Errorf("%s %s stock path: %w", fleet, capacity, err)
		}
		if start != 0 && s.First() != start {
			return series.Series{}, fmt.Errorf("%w: %s %s stock path starts in %d, want %d",
				ErrInvalidScenario, fleet, capacity, s.First(), start)
		}
		return s, nil
	default:
		if start == 0 {
			start = s.First()
		}
		out, err := s.Annualize(start, s.Last())
		if err != nil {
			return series.Series{}, fmt.Errorf("%s %s stock path: %w", fleet, capacity, err)
		}
		return out, nil
	}
}

func stitchOnshore(hist *flow.Result, histYears []int, future *flow.Result, futureYears []int) (*FleetFlows, error) {
	if hist == nil {
		return fleetFlows(spec.Onshore, futureYears, future, nil, 0)
	}
	stock, err := series.Concat(
		series.Series{Years: histYears, Values: hist.Stock},
		series.Series{Years: futureYears, Values: future.Stock},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: joining onshore history and future: %w", ErrInvalidScenario, err)
	}
	contrib, err := flow.Stitch(hist.Contrib, future.Contrib)
	if err != nil {
		return nil, fmt.Errorf("stitching onshore contributions: %w", err)
	}
	combined := &flow.Result{
		Inflow:         concat(hist.Inflow, future.Inflow),
		Outflow:        concat(hist.Outflow, future.Outflow),
		Stock:          stock.Values,
		Contrib:        contrib,
		NegativeInflow: future.NegativeInflow,
	}
	return fleetFlows(spec.Onshore, stock.Years, combined, futureYears, len(histYears))
}

// fleetFlows attributes stock contributions. Negative inflow indices refer
// to negYears, or to years when negYears is nil.
func fleetFlows(fleet spec.Fleet, years []int, r *flow.Result, negYears []int, historyLen int) (*FleetFlows, error) {
	stockContrib, err := flow.StockContributions(r.Contrib, r.Inflow)
	if err != nil {
		return nil, fmt.Errorf("%s stock contributions: %w", fleet, err)
	}
	if negYears == nil {
		negYears = years
	}
	var negative []int
	for _, i := range r.NegativeInflow {
		negative = append(negative, negYears[i])
	}
	return &FleetFlows{
		Fleet:               fleet,
		Years:               years,
		Inflow:              r.Inflow,
		Stock:               r.Stock,
		Outflow:             r.Outflow,
		OutflowContrib:      r.Contrib,
		StockContrib:        stockContrib,
		HistoryLen:          historyLen,
		NegativeInflowYears: negative,
	}, nil
}

func concat(a, b []float64) []float64 {
	return append(append(make([]float64, 0, len(a)+len(b)), a...), b...)
}
