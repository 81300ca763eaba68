// Package eol allocates end-of-life material outflows to processing routes
// and derives the virgin material demand left after closed-loop recycling.
package eol

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ChicagoDave/windmfa/pkg/flow"
	"github.com/ChicagoDave/windmfa/pkg/material"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

var (
	// ErrUnknownStrategy is returned for a strategy name the project lacks.
	ErrUnknownStrategy = errors.New("unknown EoL strategy")
	// ErrRouteMismatch is returned when route fractions do not match the
	// project's routes.
	ErrRouteMismatch = errors.New("route fractions do not match routes")
)

// Outflow returns the material leaving the fleet each year: cohort
// material inflow retired by the capacity retirement ratios, plus the
// replaced components. ratios is cohorts × years.
func Outflow(ratios *mat.Dense, inflow, replacement *material.Table) (*material.Table, error) {
	r, c := ratios.Dims()
	if r != inflow.Len() || c != inflow.Len() || replacement.Len() != inflow.Len() {
		return nil, fmt.Errorf("material outflow: ratios %dx%d, inflow %d years, replacement %d years: %w",
			r, c, inflow.Len(), replacement.Len(), flow.ErrShapeMismatch)
	}
	out, err := material.NewTable(inflow.Years)
	if err != nil {
		return nil, err
	}
	out.Mass.Mul(ratios.T(), inflow.Mass)
	out.Mass.Add(out.Mass, replacement.Mass)
	return out, nil
}

// Allocation is the outflow of one fleet under one strategy, split by
// material and route. Each matrix is years × routes in tonnes.
type Allocation struct {
	Strategy   string
	Fleet      spec.Fleet
	Years      []int
	Routes     []string
	ByMaterial [spec.NumMaterials]*mat.Dense
}

// Apply splits every material's outflow over the routes. The first
// historyLen years use baseline, later years use strategy.
func Apply(name string, fleet spec.Fleet, outflow *material.Table, routes []string, strategy, baseline spec.RouteTable, historyLen int) (*Allocation, error) {
	a := &Allocation{
		Strategy: name,
		Fleet:    fleet,
		Years:    append([]int(nil), outflow.Years...),
		Routes:   append([]string(nil), routes...),
	}
	for _, m := range spec.Materials() {
		future, err := fractions(strategy, m, len(routes))
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", name, fleet, err)
		}
		past := future
		if historyLen > 0 {
			if past, err = fractions(baseline, m, len(routes)); err != nil {
				return nil, fmt.Errorf("baseline %s: %w", fleet, err)
			}
		}
		col := outflow.Column(m)
		alloc := mat.NewDense(len(col), len(routes), nil)
		for i, v := range col {
			f := future
			if i < historyLen {
				f = past
			}
			for k, share := range f {
				alloc.Set(i, k, v*share)
			}
		}
		a.ByMaterial[m] = alloc
	}
	return a, nil
}

func fractions(t spec.RouteTable, m spec.Material, routes int) ([]float64, error) {
	f, ok := t[m]
	if !ok {
		return nil, fmt.Errorf("%w: no fractions for %s", ErrRouteMismatch, m)
	}
	if len(f) != routes {
		return nil, fmt.Errorf("%w: %s has %d fractions for %d routes", ErrRouteMismatch, m, len(f), routes)
	}
	return f, nil
}

// RouteTotals sums all materials per year and route.
func (a *Allocation) RouteTotals() *mat.Dense {
	out := mat.NewDense(len(a.Years), len(a.Routes), nil)
	for _, m := range a.ByMaterial {
		out.Add(out, m)
	}
	return out
}

// Recycled returns the closed-loop recycling mass of m per year.
func (a *Allocation) Recycled(m spec.Material) []float64 {
	return mat.Col(nil, 0, a.ByMaterial[m])
}

// Clamped returns a copy with negative cells set to zero. Negative cells
// come from negative solved inflow.
func (a *Allocation) Clamped() *Allocation {
	out := *a
	for i, m := range a.ByMaterial {
		c := mat.DenseCopyOf(m)
		c.Apply(func(_, _ int, v float64) float64 {
			if v < 0 {
				return 0
			}
			return v
		}, c)
		out.ByMaterial[i] = c
	}
	return &out
}

// Virgin returns the primary material demand of the years from index from
// on: inflow including replacement minus closed-loop recycling.
func Virgin(total *material.Table, a *Allocation, from int) (*material.Table, error) {
	if total.Len() != len(a.Years) || from < 0 || from >= total.Len() {
		return nil, fmt.Errorf("virgin material: %d years, allocation %d, from %d: %w",
			total.Len(), len(a.Years), from, flow.ErrShapeMismatch)
	}
	out, err := material.NewTable(total.Years[from:])
	if err != nil {
		return nil, err
	}
	for _, m := range spec.Materials() {
		recycled := a.Recycled(m)
		for i := from; i < total.Len(); i++ {
			out.Mass.Set(i-from, int(m), total.Mass.At(i, int(m))-recycled[i])
		}
	}
	return out, nil
}

// Result holds every strategy of one fleet.
type Result struct {
	Fleet   spec.Fleet
	Outflow *material.Table
	// Strategies are keyed by strategy name.
	Strategies map[string]*Allocation
	// Virgin covers the years after the historical record.
	Virgin map[string]*material.Table
}

// Names returns the strategy names in order.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Strategies))
	for n := range r.Strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compute runs every strategy of the project over one fleet. ratios are the
// fleet's capacity retirement ratios; historyLen years use the baseline.
func Compute(p *spec.Project, fleet spec.Fleet, ratios *mat.Dense, m *material.Flows, historyLen int) (*Result, error) {
	outflow, err := Outflow(ratios, m.Inflow, m.Replacement)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fleet, err)
	}
	baseline, err := routeTable(p.EoL, p.EoL.Baseline, fleet)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Fleet:      fleet,
		Outflow:    outflow,
		Strategies: make(map[string]*Allocation, len(p.EoL.Strategies)),
		Virgin:     make(map[string]*material.Table, len(p.EoL.Strategies)),
	}
	for name := range p.EoL.Strategies {
		table, err := routeTable(p.EoL, name, fleet)
		if err != nil {
			return nil, err
		}
		a, err := Apply(name, fleet, outflow, p.EoL.Routes, table, baseline, historyLen)
		if err != nil {
			return nil, err
		}
		res.Strategies[name] = a
		if historyLen < outflow.Len() {
			v, err := Virgin(m.Total, a, historyLen)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", name, fleet, err)
			}
			res.Virgin[name] = v
		}
	}
	return res, nil
}

func routeTable(e spec.EoL, name string, fleet spec.Fleet) (spec.RouteTable, error) {
	s, ok := e.Strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	t, ok := s[fleet]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no %s table", ErrUnknownStrategy, name, fleet)
	}
	return t, nil
}
