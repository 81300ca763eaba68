package material

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ChicagoDave/windmfa/pkg/spec"
)

var (
	// ErrYearOutOfRange is returned for a register row outside the table years.
	ErrYearOutOfRange = errors.New("year out of range")
	// ErrMissingTurbineData is returned when average or per-turbine sizes
	// do not cover a year.
	ErrMissingTurbineData = errors.New("missing turbine data")
)

// HistoricalInflow aggregates the onshore turbine register by installation
// year. Years without installations stay zero.
func HistoricalInflow(register []spec.TurbineRecord, years []int, comps spec.Compositions) (*Table, error) {
	t, err := NewTable(years)
	if err != nil {
		return nil, err
	}
	for i, r := range register {
		row := t.Index(r.Year)
		if row < 0 {
			return nil, fmt.Errorf("turbine register row %d: %w: %d not in %d..%d",
				i+1, ErrYearOutOfRange, r.Year, years[0], years[len(years)-1])
		}
		v, err := TurbineMaterials(Turbine{
			Fleet:      spec.Onshore,
			Year:       r.Year,
			CapacityKW: r.CapacityKW,
			DiameterM:  r.DiameterM,
			HubHeightM: r.HubHeightM,
			Nacelle:    spec.NacelleMix{r.Nacelle: 1},
			Tower:      spec.TowerMix{r.Tower: 1},
		}, comps)
		if err != nil {
			return nil, fmt.Errorf("turbine register row %d: %w", i+1, err)
		}
		floats.AddScaled(t.Mass.RawRowView(row), float64(r.Units), v[:])
	}
	return t, nil
}

// Design describes the turbine installed in one year of a fleet-level
// inflow: its rating and the technology mix.
type Design struct {
	KW      float64
	Nacelle spec.NacelleMix
	Tower   spec.TowerMix
}

// FleetInflow converts capacity inflow (MW) into material inflow. Each
// year installs inflow·1000/KW turbines of that year's design, with diameter
// and hub height from the fleet regressions. Negative inflow yields
// negative mass.
func FleetInflow(fleet spec.Fleet, years []int, inflowMW []float64, designs []Design, comps spec.Compositions) (*Table, error) {
	if len(inflowMW) != len(years) || len(designs) != len(years) {
		return nil, fmt.Errorf("%s material inflow: %d years, %d inflows, %d designs: %w",
			fleet, len(years), len(inflowMW), len(designs), ErrMissingTurbineData)
	}
	t, err := NewTable(years)
	if err != nil {
		return nil, err
	}
	for i, year := range years {
		d := designs[i]
		if d.KW <= 0 {
			return nil, fmt.Errorf("%s %d: %w: turbine rating %v kW", fleet, year, ErrMissingTurbineData, d.KW)
		}
		units := inflowMW[i] * 1000 / d.KW
		v, err := TurbineMaterials(Turbine{
			Fleet:      fleet,
			Year:       year,
			CapacityKW: d.KW,
			DiameterM:  Diameter(fleet, d.KW),
			HubHeightM: HubHeight(fleet, d.KW),
			Nacelle:    d.Nacelle,
			Tower:      d.Tower,
		}, comps)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", fleet, year, err)
		}
		floats.AddScaled(t.Mass.RawRowView(i), units, v[:])
	}
	return t, nil
}

// FutureInflow is FleetInflow with one nacelle and tower mix for all years.
func FutureInflow(fleet spec.Fleet, years []int, inflowMW, perTurbineKW []float64, mix spec.NacelleMix, towers spec.TowerMix, comps spec.Compositions) (*Table, error) {
	if len(perTurbineKW) != len(years) {
		return nil, fmt.Errorf("%s material inflow: %d years, %d ratings: %w",
			fleet, len(years), len(perTurbineKW), ErrMissingTurbineData)
	}
	designs := make([]Design, len(years))
	for i, kw := range perTurbineKW {
		designs[i] = Design{KW: kw, Nacelle: mix, Tower: towers}
	}
	return FleetInflow(fleet, years, inflowMW, designs, comps)
}
