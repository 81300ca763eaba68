// Package impact estimates the energy use and CO2 emission of producing the
// material inflow, and the savings from closed-loop recycling.
package impact

import (
	"errors"
	"fmt"
	"math"

	"github.com/ChicagoDave/windmfa/pkg/eol"
	"github.com/ChicagoDave/windmfa/pkg/flow"
	"github.com/ChicagoDave/windmfa/pkg/material"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// ErrStrategyMismatch is returned when combining impacts of different
// strategies.
var ErrStrategyMismatch = errors.New("strategy mismatch")

// Metric is one impact indicator.
type Metric int

const (
	EnergyConsumption Metric = iota
	EnergySaved
	CO2Emission
	CO2Saved
	NumMetrics
)

var metricNames = [NumMetrics]string{"Energy consumption", "Energy saved", "CO2 emission", "CO2 saved"}

// Metrics lists all metrics in column order.
var Metrics = []Metric{EnergyConsumption, EnergySaved, CO2Emission, CO2Saved}

func (m Metric) String() string {
	if m < 0 || m >= NumMetrics {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

// Unit returns PJ for energy metrics and Mt for CO2 metrics.
func (m Metric) Unit() string {
	if m == EnergyConsumption || m == EnergySaved {
		return "PJ"
	}
	return "Mt"
}

// Values holds one series per metric.
type Values [NumMetrics][]float64

func newValues(n int) Values {
	var v Values
	for i := range v {
		v[i] = make([]float64, n)
	}
	return v
}

// Impact is the yearly impact of one fleet (or fleet total) under one EoL
// strategy.
type Impact struct {
	Strategy string
	Scope    string
	Years    []int
	Total    Values
	// ByGroup excludes EE, which only counts toward Total.
	ByGroup map[spec.Group]Values
}

// Net returns consumption minus savings for energy (PJ) or CO2 (Mt).
func (im *Impact) Net(energy bool) []float64 { return net(im.Total, energy) }

func net(v Values, energy bool) []float64 {
	use, saved := v[CO2Emission], v[CO2Saved]
	if energy {
		use, saved = v[EnergyConsumption], v[EnergySaved]
	}
	out := make([]float64, len(use))
	for i := range use {
		out[i] = use[i] - saved[i]
	}
	return out
}

// tonnesToMega converts t × (MJ/kg) to PJ and t × (kg/kg) to Mt.
const tonnesToMega = 1e-6

// Compute derives the impact of a fleet from its material inflow including
// replacement and the closed-loop recycling of one strategy. Recycled mass
// is capped at the inflow of the same year. Groups without factors count
// as zero.
func Compute(factors spec.Impact, inflow *material.Table, a *eol.Allocation) (*Impact, error) {
	n := inflow.Len()
	if len(a.Years) != n {
		return nil, fmt.Errorf("impact of %s: %d inflow years, %d allocation years: %w",
			a.Strategy, n, len(a.Years), flow.ErrShapeMismatch)
	}
	im := &Impact{
		Strategy: a.Strategy,
		Scope:    string(a.Fleet),
		Years:    append([]int(nil), inflow.Years...),
		Total:    newValues(n),
		ByGroup:  make(map[spec.Group]Values),
	}
	for _, m := range spec.Materials() {
		g, ok := m.Group()
		if !ok {
			continue
		}
		f := factors[g]
		mass := inflow.Column(m)
		recycled := a.Recycled(m)

		var byGroup Values
		if g != spec.GroupEE {
			byGroup, ok = im.ByGroup[g]
			if !ok {
				byGroup = newValues(n)
				im.ByGroup[g] = byGroup
			}
		}
		for i := 0; i < n; i++ {
			r := math.Min(recycled[i], mass[i])
			row := [NumMetrics]float64{
				EnergyConsumption: mass[i] * f.EnergyConsumption * tonnesToMega,
				EnergySaved:       r * f.EnergySaved * tonnesToMega,
				CO2Emission:       mass[i] * f.CO2Emission * tonnesToMega,
				CO2Saved:          r * f.CO2Reduction * tonnesToMega,
			}
			for k, v := range row {
				im.Total[k][i] += v
				if byGroup[k] != nil {
					byGroup[k][i] += v
				}
			}
		}
	}
	return im, nil
}

// Groups returns the groups present in ByGroup in spec.Groups order.
func (im *Impact) Groups() []spec.Group {
	var out []spec.Group
	for _, g := range spec.Groups {
		if _, ok := im.ByGroup[g]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Combine sums two impacts of the same strategy year by year over the union
// of their years.
func Combine(scope string, a, b *Impact) (*Impact, error) {
	if a.Strategy != b.Strategy {
		return nil, fmt.Errorf("combining %q and %q: %w", a.Strategy, b.Strategy, ErrStrategyMismatch)
	}
	first, last := min(a.Years[0], b.Years[0]), max(a.Years[len(a.Years)-1], b.Years[len(b.Years)-1])
	n := last - first + 1
	out := &Impact{
		Strategy: a.Strategy,
		Scope:    scope,
		Years:    make([]int, n),
		Total:    newValues(n),
		ByGroup:  make(map[spec.Group]Values),
	}
	for i := range out.Years {
		out.Years[i] = first + i
	}
	for _, src := range []*Impact{a, b} {
		addValues(out.Total, src.Total, src.Years, first)
		for g, v := range src.ByGroup {
			dst, ok := out.ByGroup[g]
			if !ok {
				dst = newValues(n)
				out.ByGroup[g] = dst
			}
			addValues(dst, v, src.Years, first)
		}
	}
	return out, nil
}

func addValues(dst, src Values, years []int, first int) {
	for k := range src {
		for i, y := range years {
			dst[k][y-first] += src[k][i]
		}
	}
}
