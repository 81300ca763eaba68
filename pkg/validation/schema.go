package validation

import (
	"fmt"
	"math"

	"github.com/ChicagoDave/windmfa/pkg/lifetime"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// Scenario names every future capacity table must define.
var capacityScenarios = []string{"Gcam", "GNZ"}

const shareTolerance = 0.02

// ValidateSchema performs schema validation on a parsed Project.
// It checks structural correctness before any computation.
func ValidateSchema(p *spec.Project) *Report {
	r := NewReport()

	validateCapacity(p, r)
	validateLifetime(p, r)
	validateTechnology(p, r)
	validateTurbines(p, r)
	validateComposition(p, r)
	validateEoL(p, r)
	validateImpact(p, r)
	validateRegister(p, r)

	return r
}

func validateCapacity(p *spec.Project, r *Report) {
	c := p.Capacity
	if len(c.HistoricalYears) == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "capacity.historical_years must contain at least one year",
			Path:     "capacity.historical_years",
			Expected: "at least 1 year",
		})
	}
	if len(c.HistoricalYears) != len(c.HistoricalInflow) {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("historical_inflow has %d values for %d years", len(c.HistoricalInflow), len(c.HistoricalYears)),
			Path:        "capacity.historical_inflow",
			ActualValue: len(c.HistoricalInflow),
			Expected:    fmt.Sprintf("%d values", len(c.HistoricalYears)),
		})
	}
	checkAnnual(c.HistoricalYears, "capacity.historical_years", r)
	for i, v := range c.HistoricalInflow {
		if v < 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     "historical inflow must be non-negative",
				Path:        fmt.Sprintf("capacity.historical_inflow[%d]", i),
				Year:        yearAt(c.HistoricalYears, i),
				ActualValue: v,
				Expected:    ">= 0",
			})
		}
	}

	if n := len(c.HistoricalYears); n > 0 && c.FutureStartYear != c.HistoricalYears[n-1]+1 {
		r.AddWarning(Result{
			Level:        LevelSchema,
			Message:      fmt.Sprintf("future_start_year %d does not follow the last historical year %d", c.FutureStartYear, c.HistoricalYears[n-1]),
			Path:         "capacity.future_start_year",
			ActualValue:  c.FutureStartYear,
			Expected:     fmt.Sprintf("%d", c.HistoricalYears[n-1]+1),
			ConflictWith: "capacity.historical_years",
		})
	}

	for _, fleet := range spec.Fleets {
		table := c.Onshore
		if fleet == spec.Offshore {
			table = c.Offshore
		}
		for _, scen := range capacityScenarios {
			path := fmt.Sprintf("capacity.%s.%s", fleet, scen)
			sp, ok := table[scen]
			if !ok {
				r.AddError(Result{
					Level:    LevelSchema,
					Message:  fmt.Sprintf("missing %s stock path for scenario %s", fleet, scen),
					Path:     path,
					Expected: "years and stock",
				})
				continue
			}
			validateStockPath(sp, path, scen == "GNZ", r)
		}
	}

	if gnz, ok := c.Onshore["GNZ"]; ok && len(gnz.Years) > 0 && gnz.Years[0] != c.FutureStartYear {
		r.AddError(Result{
			Level:        LevelSchema,
			Message:      fmt.Sprintf("onshore GNZ path starts in %d, not at future_start_year %d", gnz.Years[0], c.FutureStartYear),
			Path:         "capacity.onshore.GNZ.years[0]",
			ActualValue:  gnz.Years[0],
			Expected:     fmt.Sprintf("%d", c.FutureStartYear),
			ConflictWith: "capacity.future_start_year",
			Suggestions:  []string{"Start the GNZ onshore path in the first year after the historical record"},
		})
	}

	if gcam, ok := c.Onshore["Gcam"]; ok && len(gcam.Years) > 0 {
		if last := gcam.Years[len(gcam.Years)-1]; last < c.FutureStartYear {
			r.AddError(Result{
				Level:        LevelSchema,
				Message:      fmt.Sprintf("last onshore milestone %d precedes future_start_year %d", last, c.FutureStartYear),
				Path:         "capacity.onshore.Gcam.years",
				ActualValue:  last,
				ConflictWith: "capacity.future_start_year",
			})
		}
	}
}

func validateStockPath(sp spec.StockPath, path string, annual bool, r *Report) {
	if len(sp.Years) == 0 || len(sp.Years) != len(sp.Stock) {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("stock path has %d years and %d values", len(sp.Years), len(sp.Stock)),
			Path:        path,
			ActualValue: len(sp.Stock),
			Expected:    "one stock value per year, at least one year",
		})
		return
	}
	if annual {
		checkAnnual(sp.Years, path+".years", r)
	} else {
		checkIncreasing(sp.Years, path+".years", r)
	}
	for i, v := range sp.Stock {
		if v < 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     "target stock must be non-negative",
				Path:        fmt.Sprintf("%s.stock[%d]", path, i),
				Year:        sp.Years[i],
				ActualValue: v,
				Expected:    ">= 0",
			})
		}
	}
}

func validateLifetime(p *spec.Project, r *Report) {
	l := p.Lifetime
	for _, f := range []struct {
		name string
		v    float64
	}{{"historical", l.Historical}, {"future", l.Future}} {
		if f.v <= 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s mean lifetime must be > 0", f.name),
				Path:        "lifetime." + f.name,
				ActualValue: f.v,
				Expected:    "> 0",
			})
		}
	}
	if l.Shape < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "Weibull shape must be positive (omit for the default)",
			Path:        "lifetime.shape",
			ActualValue: l.Shape,
			Expected:    "> 0",
		})
	}
	if l.Shape > 0 && l.Shape != lifetime.DefaultShape {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("Weibull shape %g overrides the model constant %g for every fleet", l.Shape, lifetime.DefaultShape),
			Path:        "lifetime.shape",
			ActualValue: l.Shape,
			Expected:    fmt.Sprintf("%g", lifetime.DefaultShape),
			Suggestions: []string{"Omit lifetime.shape unless running a sensitivity study"},
		})
	}
}

func validateTechnology(p *spec.Project, r *Report) {
	t := p.Technology
	periods := len(t.Periods)
	if periods == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "technology.periods must name at least one period",
			Path:     "technology.periods",
			Expected: "at least 1 period",
		})
	}

	years := p.Capacity.HistoricalYears
	for _, tech := range spec.NacelleTechs {
		if got := len(t.HistoricalNacelleShare[tech]); got != len(years) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("historical %s share has %d values for %d historical years", tech, got, len(years)),
				Path:        fmt.Sprintf("technology.historical_nacelle_share.%s", tech),
				ActualValue: got,
				Expected:    fmt.Sprintf("%d values", len(years)),
			})
		}
	}
	for i := range years {
		sum := 0.0
		for _, tech := range spec.NacelleTechs {
			sum += t.HistoricalShare(tech, i)
		}
		if math.Abs(sum-1) > shareTolerance {
			r.AddWarning(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("historical nacelle shares sum to %.4f", sum),
				Path:        "technology.historical_nacelle_share",
				Year:        years[i],
				ActualValue: sum,
				Expected:    fmt.Sprintf("1.0 (±%.2f)", shareTolerance),
			})
		}
	}

	for _, fleet := range spec.Fleets {
		mixes := t.FutureNacelleShare[fleet]
		if len(mixes) != periods {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s future nacelle share has %d mixes for %d periods", fleet, len(mixes), periods),
				Path:        fmt.Sprintf("technology.future_nacelle_share.%s", fleet),
				ActualValue: len(mixes),
				Expected:    fmt.Sprintf("%d mixes", periods),
			})
		}
		for i, mix := range mixes {
			sum := 0.0
			for tech, v := range mix {
				if _, err := spec.ParseNacelleTech(string(tech)); err != nil {
					r.AddError(Result{
						Level:   LevelSchema,
						Message: err.Error(),
						Path:    fmt.Sprintf("technology.future_nacelle_share.%s[%d]", fleet, i),
					})
				}
				sum += v
			}
			checkShareSum(sum, fmt.Sprintf("technology.future_nacelle_share.%s[%d]", fleet, i), r)
		}
	}

	towerSum := 0.0
	for tt, v := range t.TowerShare {
		if _, err := spec.ParseTowerType(string(tt)); err != nil {
			r.AddError(Result{Level: LevelSchema, Message: err.Error(), Path: "technology.tower_share"})
		}
		towerSum += v
	}
	checkShareSum(towerSum, "technology.tower_share", r)

	rep := t.Replacement
	for name, rates := range map[string][]float64{
		"historical_nacelle": rep.HistoricalNacelle,
		"historical_rotor":   rep.HistoricalRotor,
		"future_nacelle":     rep.FutureNacelle,
		"future_rotor":       rep.FutureRotor,
	} {
		path := "technology.replacement." + name
		if len(rates) != periods {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s has %d rates for %d periods", name, len(rates), periods),
				Path:        path,
				ActualValue: len(rates),
				Expected:    fmt.Sprintf("%d rates", periods),
			})
		}
		for i, v := range rates {
			if v < 0 || v > 1 {
				r.AddError(Result{
					Level:       LevelSchema,
					Message:     "replacement rate must be between 0 and 1",
					Path:        fmt.Sprintf("%s[%d]", path, i),
					ActualValue: v,
					Expected:    "0 <= rate <= 1",
				})
			}
		}
	}
}

func validateTurbines(p *spec.Project, r *Report) {
	h := p.Turbines.Historical
	n := len(p.Capacity.HistoricalYears)
	for name, vals := range map[string][]float64{
		"turbine_kw": h.TurbineKW,
		"nacelle_t":  h.NacelleT,
		"rotor_t":    h.RotorT,
	} {
		if len(vals) != n {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("historical %s has %d values for %d historical years", name, len(vals), n),
				Path:        "turbines.historical." + name,
				ActualValue: len(vals),
				Expected:    fmt.Sprintf("%d values", n),
			})
		}
	}
	for i, kw := range h.TurbineKW {
		if i < len(p.Capacity.HistoricalInflow) && p.Capacity.HistoricalInflow[i] > 0 && kw <= 0 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     "average turbine rating must be > 0 in a year with installations",
				Path:        fmt.Sprintf("turbines.historical.turbine_kw[%d]", i),
				Year:        yearAt(p.Capacity.HistoricalYears, i),
				ActualValue: kw,
				Expected:    "> 0",
			})
		}
	}

	for _, fleet := range spec.Fleets {
		path := fmt.Sprintf("turbines.future.%s", fleet)
		outlook, ok := p.Turbines.Future[fleet]
		if !ok {
			r.AddError(Result{Level: LevelSchema, Message: fmt.Sprintf("missing %s turbine outlook", fleet), Path: path})
			continue
		}
		first, last, ok := futureSpan(p, fleet)
		if !ok {
			continue
		}
		for y := first; y <= last; y++ {
			if _, ok := outlook.BandFor(y); !ok {
				r.AddError(Result{
					Level:    LevelSchema,
					Message:  "no average turbine band covers this year",
					Path:     path + ".averages",
					Year:     y,
					Expected: fmt.Sprintf("bands covering %d-%d", first, last),
				})
			}
			kw, ok := outlook.PerTurbineFor(y)
			if !ok || kw <= 0 {
				r.AddError(Result{
					Level:       LevelSchema,
					Message:     "no positive per-turbine rating covers this year",
					Path:        path + ".per_turbine_kw",
					Year:        y,
					ActualValue: kw,
					Expected:    "> 0",
				})
			}
		}
	}
}

func validateComposition(p *spec.Project, r *Report) {
	for _, fleet := range spec.Fleets {
		required := make([]spec.Component, 0, len(spec.NacelleTechs)+4)
		for _, t := range spec.NacelleTechs {
			required = append(required, spec.Component(t))
		}
		for _, t := range spec.TowerTypes {
			required = append(required, spec.Component(t))
		}
		required = append(required, spec.Rotor, p.Composition.FoundationComponent(fleet))

		for _, c := range required {
			path := fmt.Sprintf("composition.%s.%s", fleet, c)
			comp, ok := p.Composition.Lookup(fleet, c)
			if !ok {
				r.AddError(Result{
					Level:    LevelSchema,
					Message:  fmt.Sprintf("missing %s composition for %s", fleet, c),
					Path:     path,
					Expected: "material fractions",
				})
				continue
			}
			for i, v := range comp {
				if v < 0 {
					r.AddError(Result{
						Level:       LevelSchema,
						Message:     fmt.Sprintf("%s content must be non-negative", spec.Material(i)),
						Path:        path,
						ActualValue: v,
						Expected:    ">= 0",
					})
				}
			}
			if f := comp.MassFraction(); f > 1+1e-6 {
				r.AddError(Result{
					Level:       LevelSchema,
					Message:     fmt.Sprintf("mass fractions sum to %.4f", f),
					Path:        path,
					ActualValue: f,
					Expected:    "<= 1",
				})
			}
		}
	}
}

func validateEoL(p *spec.Project, r *Report) {
	e := p.EoL
	routes := len(e.Routes)
	if routes == 0 {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "eol.routes must name at least one processing route",
			Path:     "eol.routes",
			Expected: "at least 1 route",
		})
	}
	if _, ok := e.Strategies[e.Baseline]; !ok {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("baseline strategy %q is not defined", e.Baseline),
			Path:        "eol.baseline",
			ActualValue: e.Baseline,
			Suggestions: []string{"Set eol.baseline to one of the keys under eol.strategies"},
		})
	}
	for name, strat := range e.Strategies {
		for _, fleet := range spec.Fleets {
			table, ok := strat[fleet]
			if !ok {
				r.AddError(Result{
					Level:   LevelSchema,
					Message: fmt.Sprintf("strategy %s has no %s table", name, fleet),
					Path:    fmt.Sprintf("eol.strategies.%s.%s", name, fleet),
				})
				continue
			}
			for _, m := range spec.Materials() {
				path := fmt.Sprintf("eol.strategies.%s.%s.%s", name, fleet, m)
				fr, ok := table[m]
				if !ok || len(fr) != routes {
					r.AddError(Result{
						Level:       LevelSchema,
						Message:     fmt.Sprintf("%s needs one fraction per route", m),
						Path:        path,
						ActualValue: len(fr),
						Expected:    fmt.Sprintf("%d fractions", routes),
					})
					continue
				}
				sum := 0.0
				for _, v := range fr {
					if v < 0 {
						r.AddError(Result{
							Level:       LevelSchema,
							Message:     "route fraction must be non-negative",
							Path:        path,
							ActualValue: v,
							Expected:    ">= 0",
						})
					}
					sum += v
				}
				checkShareSum(sum, path, r)
			}
		}
	}
}

func validateImpact(p *spec.Project, r *Report) {
	for _, g := range spec.Groups {
		if _, ok := p.Impact[g]; !ok {
			r.AddWarning(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("no impact factors for %s; its impact is reported as zero", g),
				Path:        fmt.Sprintf("impact.%s", g),
				Suggestions: []string{"Add energy and CO2 factors for the group"},
			})
		}
	}
}

func validateRegister(p *spec.Project, r *Report) {
	if p.Historical.TurbineRegister == "" {
		r.AddInfo(Result{
			Level:   LevelSchema,
			Message: "no turbine register; historical material inflow is zero",
			Path:    "historical.turbine_register",
		})
		return
	}
	years := p.Capacity.HistoricalYears
	byYear := make(map[int]float64)
	for i, rec := range p.Register {
		path := fmt.Sprintf("%s[%d]", p.Historical.TurbineRegister, i)
		if len(years) > 0 && (rec.Year < years[0] || rec.Year > years[len(years)-1]) {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     "register row is outside the historical years",
				Path:        path,
				Year:        rec.Year,
				ActualValue: rec.Year,
				Expected:    fmt.Sprintf("%d-%d", years[0], years[len(years)-1]),
			})
		}
		if rec.Units <= 0 || rec.CapacityKW <= 0 || rec.DiameterM <= 0 || rec.HubHeightM <= 0 {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  "units, capacity, diameter and hub height must be > 0",
				Path:     path,
				Year:     rec.Year,
				Expected: "> 0",
			})
		}
		byYear[rec.Year] += rec.CapacityMW()
	}
	for i, y := range years {
		if i >= len(p.Capacity.HistoricalInflow) {
			break
		}
		want := p.Capacity.HistoricalInflow[i]
		got := byYear[y]
		if math.Abs(got-want) > 0.1*math.Max(want, 1) {
			r.AddWarning(Result{
				Level:        LevelSchema,
				Message:      fmt.Sprintf("register capacity %.1f MW differs from historical inflow %.1f MW", got, want),
				Path:         p.Historical.TurbineRegister,
				Year:         y,
				ActualValue:  got,
				ConflictWith: fmt.Sprintf("capacity.historical_inflow[%d]", i),
			})
		}
	}
}

// futureSpan returns the annual year range a fleet is solved over.
func futureSpan(p *spec.Project, fleet spec.Fleet) (first, last int, ok bool) {
	lo, hi := 0, 0
	found := false
	table := p.Capacity.Onshore
	if fleet == spec.Offshore {
		table = p.Capacity.Offshore
	}
	for _, sp := range table {
		if len(sp.Years) == 0 {
			continue
		}
		a, b := sp.Years[0], sp.Years[len(sp.Years)-1]
		if fleet == spec.Onshore {
			a = p.Capacity.FutureStartYear
		}
		if !found || a < lo {
			lo = a
		}
		if !found || b > hi {
			hi = b
		}
		found = true
	}
	return lo, hi, found && lo <= hi
}

func checkShareSum(sum float64, path string, r *Report) {
	if math.Abs(sum-1) > shareTolerance {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("shares must sum to 1.0 (got %.4f)", sum),
			Path:        path,
			ActualValue: sum,
			Expected:    fmt.Sprintf("1.0 (±%.2f)", shareTolerance),
		})
	}
}

func checkIncreasing(years []int, path string, r *Report) {
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("years must be strictly increasing (%d after %d)", years[i], years[i-1]),
				Path:        fmt.Sprintf("%s[%d]", path, i),
				Year:        years[i],
				ActualValue: years[i],
				Expected:    fmt.Sprintf("> %d", years[i-1]),
			})
		}
	}
}

func checkAnnual(years []int, path string, r *Report) {
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("years must be consecutive (%d after %d)", years[i], years[i-1]),
				Path:        fmt.Sprintf("%s[%d]", path, i),
				Year:        years[i],
				ActualValue: years[i],
				Expected:    fmt.Sprintf("%d", years[i-1]+1),
			})
		}
	}
}

func yearAt(years []int, i int) int {
	if i < 0 || i >= len(years) {
		return 0
	}
	return years[i]
}
