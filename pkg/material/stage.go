package material

import (
	"fmt"

	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// Flows is the material balance of one fleet. All tables share the fleet's
// years.
type Flows struct {
	Fleet spec.Fleet
	// Inflow is the material in newly installed turbines.
	Inflow *Table
	// Replacement is the material in replaced nacelles and rotors.
	Replacement *Table
	// Total is Inflow plus Replacement.
	Total *Table
}

// Compute derives the material flows of one fleet for a technology period.
// Historical onshore years come from the turbine register when the project
// has one and from historical averages otherwise.
func Compute(p *spec.Project, period int, f *scenario.FleetFlows) (*Flows, error) {
	h := f.HistoryLen
	var inflow *Table

	if h > 0 {
		hist, err := historicalInflow(p, f)
		if err != nil {
			return nil, fmt.Errorf("historical %s materials: %w", f.Fleet, err)
		}
		inflow = hist
	}
	if h < f.Len() {
		mix, err := futureNacelleMix(p.Technology, f.Fleet, period)
		if err != nil {
			return nil, err
		}
		ratings, err := futureRatings(p.Turbines.Future[f.Fleet], f.Fleet, f.Years[h:])
		if err != nil {
			return nil, err
		}
		future, err := FutureInflow(f.Fleet, f.Years[h:], f.Inflow[h:], ratings, mix, p.Technology.TowerShare, p.Composition)
		if err != nil {
			return nil, fmt.Errorf("future %s materials: %w", f.Fleet, err)
		}
		if inflow == nil {
			inflow = future
		} else if inflow, err = Concat(inflow, future); err != nil {
			return nil, err
		}
	}

	cohorts, err := Cohorts(p, period, f)
	if err != nil {
		return nil, fmt.Errorf("%s cohorts: %w", f.Fleet, err)
	}
	rep, err := Replacement(f, cohorts, p.Composition)
	if err != nil {
		return nil, err
	}
	total, err := Sum(inflow, rep)
	if err != nil {
		return nil, err
	}
	return &Flows{Fleet: f.Fleet, Inflow: inflow, Replacement: rep, Total: total}, nil
}

func historicalInflow(p *spec.Project, f *scenario.FleetFlows) (*Table, error) {
	years := f.Years[:f.HistoryLen]
	if len(p.Register) > 0 {
		return HistoricalInflow(p.Register, years, p.Composition)
	}
	hist := p.Turbines.Historical
	if len(hist.TurbineKW) < len(years) {
		return nil, fmt.Errorf("%w: no turbine register and %d historical averages for %d years",
			ErrMissingTurbineData, len(hist.TurbineKW), len(years))
	}
	designs := make([]Design, len(years))
	for j := range years {
		mix := make(spec.NacelleMix, len(spec.NacelleTechs))
		for _, t := range spec.NacelleTechs {
			mix[t] = p.Technology.HistoricalShare(t, j)
		}
		designs[j] = Design{KW: hist.TurbineKW[j], Nacelle: mix, Tower: p.Technology.TowerShare}
	}
	inflow := f.Inflow[:f.HistoryLen]
	// Years without installations may carry no average size.
	for j := range designs {
		if inflow[j] == 0 && designs[j].KW <= 0 {
			designs[j].KW = 1
		}
	}
	return FleetInflow(f.Fleet, years, inflow, designs, p.Composition)
}

// futureRatings returns the per-turbine rating of each year.
func futureRatings(outlook spec.FleetTurbineOutlook, fleet spec.Fleet, years []int) ([]float64, error) {
	kw := make([]float64, len(years))
	for i, year := range years {
		v, ok := outlook.PerTurbineFor(year)
		if !ok {
			return nil, fmt.Errorf("%w: no %s per-turbine rating covers %d", ErrMissingTurbineData, fleet, year)
		}
		kw[i] = v
	}
	return kw, nil
}
