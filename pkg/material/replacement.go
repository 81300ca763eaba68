package material

import (
	"fmt"

	"github.com/ChicagoDave/windmfa/pkg/flow"
	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// Rates are the fractions of standing nacelles and rotors replaced per year.
type Rates struct {
	Nacelle float64 `json:"nacelle"`
	Rotor   float64 `json:"rotor"`
}

// Cohort is the average turbine of one installation year.
type Cohort struct {
	TurbineKW float64
	NacelleT  float64
	RotorT    float64
	Nacelle   spec.NacelleMix
	Rates     Rates
}

// Replacement returns the nacelle and rotor mass replaced each year. Cohort
// j contributes to every year t >= j in which it still stands, with
// stock[j,t]·1000/kW standing units.
func Replacement(f *scenario.FleetFlows, cohorts []Cohort, comps spec.Compositions) (*Table, error) {
	n := f.Len()
	if len(cohorts) != n {
		return nil, fmt.Errorf("%s replacement: %d cohorts for %d years: %w",
			f.Fleet, len(cohorts), n, flow.ErrShapeMismatch)
	}
	t, err := NewTable(f.Years)
	if err != nil {
		return nil, err
	}
	rotor, err := lookup(comps, f.Fleet, spec.Rotor)
	if err != nil {
		return nil, err
	}

	for j, c := range cohorts {
		nacelle, err := blend(comps, f.Fleet, spec.NacelleTechs, c.Nacelle)
		if err != nil {
			return nil, fmt.Errorf("%s cohort %d: %w", f.Fleet, f.Years[j], err)
		}
		// Per standing unit per year.
		var perUnit Vector
		for _, m := range spec.Materials() {
			if m.IsREE() {
				perUnit[m] = c.TurbineKW * kgPerMWToTonnesPerKW *
					(c.Rates.Nacelle*nacelle[m] + c.Rates.Rotor*rotor[m])
				continue
			}
			perUnit[m] = c.Rates.Nacelle*c.NacelleT*nacelle[m] + c.Rates.Rotor*c.RotorT*rotor[m]
		}

		for yr := j; yr < n; yr++ {
			units := f.StockContrib.At(j, yr) * 1000 / (c.TurbineKW + flow.Epsilon)
			if units == 0 {
				continue
			}
			row := t.Mass.RawRowView(yr)
			for m := range perUnit {
				row[m] += units * perUnit[m]
			}
		}
	}
	return t, nil
}

// Cohorts builds the average turbine of every cohort of f. Cohorts from the
// historical record use historical averages, shares and replacement rates;
// later cohorts use the fleet outlook and the rates of period.
func Cohorts(p *spec.Project, period int, f *scenario.FleetFlows) ([]Cohort, error) {
	tech := p.Technology
	rep := tech.Replacement
	hist := p.Turbines.Historical
	outlook := p.Turbines.Future[f.Fleet]

	if f.HistoryLen > 0 {
		if len(hist.TurbineKW) < f.HistoryLen || len(hist.NacelleT) < f.HistoryLen || len(hist.RotorT) < f.HistoryLen {
			return nil, fmt.Errorf("%w: historical averages cover %d of %d years",
				ErrMissingTurbineData, len(hist.TurbineKW), f.HistoryLen)
		}
	}
	histRates, err := periodRates(rep.HistoricalNacelle, rep.HistoricalRotor, period, f.HistoryLen > 0)
	if err != nil {
		return nil, err
	}
	futureRates, err := periodRates(rep.FutureNacelle, rep.FutureRotor, period, true)
	if err != nil {
		return nil, err
	}
	futureMix, err := futureNacelleMix(tech, f.Fleet, period)
	if err != nil {
		return nil, err
	}

	cohorts := make([]Cohort, f.Len())
	for j, year := range f.Years {
		if j < f.HistoryLen {
			mix := make(spec.NacelleMix, len(spec.NacelleTechs))
			for _, t := range spec.NacelleTechs {
				mix[t] = tech.HistoricalShare(t, j)
			}
			cohorts[j] = Cohort{
				TurbineKW: hist.TurbineKW[j],
				NacelleT:  hist.NacelleT[j],
				RotorT:    hist.RotorT[j],
				Nacelle:   mix,
				Rates:     histRates,
			}
			continue
		}
		band, ok := outlook.BandFor(year)
		if !ok {
			return nil, fmt.Errorf("%w: no %s average band covers %d", ErrMissingTurbineData, f.Fleet, year)
		}
		cohorts[j] = Cohort{
			TurbineKW: band.TurbineKW,
			NacelleT:  band.NacelleT,
			RotorT:    band.RotorT,
			Nacelle:   futureMix,
			Rates:     futureRates,
		}
	}
	return cohorts, nil
}

func periodRates(nacelle, rotor []float64, period int, required bool) (Rates, error) {
	if period < len(nacelle) && period < len(rotor) {
		return Rates{Nacelle: nacelle[period], Rotor: rotor[period]}, nil
	}
	if !required {
		return Rates{}, nil
	}
	return Rates{}, fmt.Errorf("%w: no replacement rate for period %d", scenario.ErrInvalidPeriod, period)
}

func futureNacelleMix(tech spec.Technology, fleet spec.Fleet, period int) (spec.NacelleMix, error) {
	mixes := tech.FutureNacelleShare[fleet]
	if period < 0 || period >= len(mixes) {
		return nil, fmt.Errorf("%w: no %s nacelle share for period %d", scenario.ErrInvalidPeriod, fleet, period)
	}
	return mixes[period], nil
}
