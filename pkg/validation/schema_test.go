package validation

import (
	"strings"
	"testing"

	"github.com/ChicagoDave/windmfa/pkg/spec"
)

func flatComposition(steel float64) spec.Composition {
	var c spec.Composition
	c[spec.Steel] = steel
	c[spec.Others] = 1 - steel
	return c
}

func evenRoutes() spec.RouteTable {
	t := spec.RouteTable{}
	for _, m := range spec.Materials() {
		t[m] = []float64{0.5, 0.5}
	}
	return t
}

func validProject() *spec.Project {
	comp := map[spec.Component]spec.Composition{}
	for _, t := range spec.NacelleTechs {
		comp[spec.Component(t)] = flatComposition(0.7)
	}
	for _, t := range spec.TowerTypes {
		comp[spec.Component(t)] = flatComposition(0.9)
	}
	comp[spec.Rotor] = flatComposition(0.1)
	offshore := map[spec.Component]spec.Composition{}
	for k, v := range comp {
		offshore[k] = v
	}
	comp[spec.Foundation] = flatComposition(0.05)
	offshore[spec.Monopile] = flatComposition(0.95)

	share := map[spec.NacelleTech][]float64{}
	for _, t := range spec.NacelleTechs {
		share[t] = []float64{0, 0, 0}
	}
	share[spec.DFIGSCIG] = []float64{1, 1, 1}

	mix := spec.NacelleMix{spec.DFIGSCIG: 0.5, spec.PMSGDD: 0.5}
	outlook := spec.FleetTurbineOutlook{
		Averages:     []spec.AverageBand{{From: 2020, To: 2030, TurbineKW: 3000, NacelleT: 90, RotorT: 60}},
		PerTurbineKW: []spec.CapacityBand{{From: 2020, To: 2030, KW: 3500}},
	}
	impact := spec.Impact{}
	for _, g := range spec.Groups {
		impact[g] = spec.ImpactFactors{EnergyConsumption: 10, EnergySaved: 5, CO2Emission: 1, CO2Reduction: 0.5}
	}

	return &spec.Project{
		SpecVersion: "0.1.0",
		Capacity: spec.Capacity{
			HistoricalYears:  []int{2017, 2018, 2019},
			HistoricalInflow: []float64{10, 0, 20},
			FutureStartYear:  2020,
			Onshore: spec.FutureCapacity{
				"Gcam": {Years: []int{2020, 2030}, Stock: []float64{40, 80}},
				"GNZ":  {Years: []int{2020, 2021, 2022}, Stock: []float64{40, 50, 60}},
			},
			Offshore: spec.FutureCapacity{
				"Gcam": {Years: []int{2025, 2030}, Stock: []float64{0, 10}},
				"GNZ":  {Years: []int{2025, 2026}, Stock: []float64{0, 5}},
			},
		},
		Lifetime: spec.Lifetime{Historical: 20, Future: 25},
		Technology: spec.Technology{
			Periods:                []string{"CT"},
			HistoricalNacelleShare: share,
			FutureNacelleShare:     map[spec.Fleet][]spec.NacelleMix{spec.Onshore: {mix}, spec.Offshore: {mix}},
			TowerShare:             spec.TowerMix{spec.SteelTower: 1},
			Replacement: spec.Replacement{
				HistoricalNacelle: []float64{0.1}, HistoricalRotor: []float64{0.1},
				FutureNacelle: []float64{0.05}, FutureRotor: []float64{0.05},
			},
		},
		Turbines: spec.Turbines{
			Historical: spec.TurbineAverages{
				TurbineKW: []float64{1500, 0, 2000},
				NacelleT:  []float64{50, 0, 60},
				RotorT:    []float64{30, 0, 35},
			},
			Future: map[spec.Fleet]spec.FleetTurbineOutlook{spec.Onshore: outlook, spec.Offshore: outlook},
		},
		Composition: spec.Compositions{spec.Onshore: comp, spec.Offshore: offshore},
		EoL: spec.EoL{
			Routes:   []string{"recycling", "landfill"},
			Baseline: "EoL_C",
			Strategies: map[string]spec.Strategy{
				"EoL_C": {spec.Onshore: evenRoutes(), spec.Offshore: evenRoutes()},
			},
		},
		Impact: impact,
	}
}

func TestValidateSchemaValid(t *testing.T) {
	r := ValidateSchema(validProject())
	if !r.Valid {
		t.Errorf("expected valid report, got %d errors: %v", len(r.Errors), r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", r.Warnings)
	}
	if len(r.Info) != 1 {
		t.Errorf("expected missing-register info, got %v", r.Info)
	}
}

func TestValidateSchemaExampleProject(t *testing.T) {
	p, err := spec.LoadProject("../../examples/canada-wind")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	r := ValidateSchema(p)
	if !r.Valid {
		t.Errorf("example project should be valid, got %v", r.Errors)
	}
}

func hasError(r *Report, path string) bool {
	for _, e := range r.Errors {
		if strings.HasPrefix(e.Path, path) {
			return true
		}
	}
	return false
}

func TestValidateSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *spec.Project)
		path   string
	}{
		{"inflow length", func(p *spec.Project) { p.Capacity.HistoricalInflow = []float64{1} }, "capacity.historical_inflow"},
		{"negative inflow", func(p *spec.Project) { p.Capacity.HistoricalInflow[0] = -1 }, "capacity.historical_inflow[0]"},
		{"gap in history", func(p *spec.Project) { p.Capacity.HistoricalYears[2] = 2021 }, "capacity.historical_years[2]"},
		{"missing GNZ", func(p *spec.Project) { delete(p.Capacity.Offshore, "GNZ") }, "capacity.offshore.GNZ"},
		{"GNZ not annual", func(p *spec.Project) {
			p.Capacity.Onshore["GNZ"] = spec.StockPath{Years: []int{2020, 2025}, Stock: []float64{1, 2}}
		}, "capacity.onshore.GNZ.years"},
		{"milestones out of order", func(p *spec.Project) {
			p.Capacity.Onshore["Gcam"] = spec.StockPath{Years: []int{2030, 2020}, Stock: []float64{1, 2}}
		}, "capacity.onshore.Gcam.years"},
		{"negative target", func(p *spec.Project) {
			p.Capacity.Offshore["Gcam"] = spec.StockPath{Years: []int{2025, 2030}, Stock: []float64{0, -3}}
		}, "capacity.offshore.Gcam.stock[1]"},
		{"GNZ starts late", func(p *spec.Project) {
			p.Capacity.Onshore["GNZ"] = spec.StockPath{Years: []int{2022, 2023}, Stock: []float64{50, 60}}
		}, "capacity.onshore.GNZ.years[0]"},
		{"GNZ overlaps history", func(p *spec.Project) {
			p.Capacity.Onshore["GNZ"] = spec.StockPath{Years: []int{2019, 2020}, Stock: []float64{30, 40}}
		}, "capacity.onshore.GNZ.years[0]"},
		{"zero lifetime", func(p *spec.Project) { p.Lifetime.Future = 0 }, "lifetime.future"},
		{"negative shape", func(p *spec.Project) { p.Lifetime.Shape = -1 }, "lifetime.shape"},
		{"no periods", func(p *spec.Project) { p.Technology.Periods = nil }, "technology.periods"},
		{"mix sum", func(p *spec.Project) {
			p.Technology.FutureNacelleShare[spec.Offshore] = []spec.NacelleMix{{spec.PMSGDD: 0.4}}
		}, "technology.future_nacelle_share.offshore[0]"},
		{"replacement rate", func(p *spec.Project) { p.Technology.Replacement.FutureRotor = []float64{1.5} }, "technology.replacement.future_rotor[0]"},
		{"historical kW", func(p *spec.Project) { p.Turbines.Historical.TurbineKW[0] = 0 }, "turbines.historical.turbine_kw[0]"},
		{"band coverage", func(p *spec.Project) {
			o := p.Turbines.Future[spec.Onshore]
			o.Averages = []spec.AverageBand{{From: 2020, To: 2025, TurbineKW: 1}}
			p.Turbines.Future[spec.Onshore] = o
		}, "turbines.future.onshore.averages"},
		{"missing composition", func(p *spec.Project) { delete(p.Composition[spec.Onshore], spec.Rotor) }, "composition.onshore.Rotor"},
		{"overfull composition", func(p *spec.Project) {
			c := p.Composition[spec.Offshore][spec.Monopile]
			c[spec.Concrete] = 0.5
			p.Composition[spec.Offshore][spec.Monopile] = c
		}, "composition.offshore.Monopile"},
		{"unknown baseline", func(p *spec.Project) { p.EoL.Baseline = "EoL_X" }, "eol.baseline"},
		{"route count", func(p *spec.Project) {
			p.EoL.Strategies["EoL_C"][spec.Onshore][spec.Cu] = []float64{1}
		}, "eol.strategies.EoL_C.onshore.Cu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProject()
			tt.mutate(p)
			r := ValidateSchema(p)
			if r.Valid {
				t.Fatal("expected invalid report")
			}
			if !hasError(r, tt.path) {
				t.Errorf("no error at %s, got %v", tt.path, r.Errors)
			}
		})
	}
}

func TestValidateSchemaWarnings(t *testing.T) {
	p := validProject()
	p.Capacity.FutureStartYear = 2021
	p.Capacity.Onshore["GNZ"] = spec.StockPath{Years: []int{2021, 2022}, Stock: []float64{50, 60}}
	delete(p.Impact, spec.GroupEE)
	r := ValidateSchema(p)
	if len(r.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", r.Warnings)
	}
}

func TestValidateRegisterMismatch(t *testing.T) {
	p := validProject()
	p.Historical.TurbineRegister = "turbines.csv"
	p.Register = []spec.TurbineRecord{
		{Year: 2017, Units: 5, CapacityKW: 2000, DiameterM: 80, HubHeightM: 80, Nacelle: spec.DFIGSCIG, Tower: spec.SteelTower},
		{Year: 2019, Units: 2, CapacityKW: 2000, DiameterM: 80, HubHeightM: 80, Nacelle: spec.DFIGSCIG, Tower: spec.SteelTower},
		{Year: 2030, Units: 1, CapacityKW: 2000, DiameterM: 80, HubHeightM: 80, Nacelle: spec.DFIGSCIG, Tower: spec.SteelTower},
	}
	r := ValidateSchema(p)
	if !hasError(r, "turbines.csv[2]") {
		t.Errorf("expected out-of-range row error, got %v", r.Errors)
	}
	// 2019 has 4 MW against 20 MW of inflow.
	found := false
	for _, w := range r.Warnings {
		if w.Year == 2019 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 2019 capacity mismatch warning, got %v", r.Warnings)
	}
}

func TestValidateShapeOverride(t *testing.T) {
	p := validProject()
	p.Lifetime.Shape = 3.5
	r := ValidateSchema(p)
	if !r.Valid {
		t.Fatalf("shape override should not be an error, got %v", r.Errors)
	}
	found := false
	for _, w := range r.Warnings {
		if w.Path == "lifetime.shape" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected lifetime.shape warning, got %v", r.Warnings)
	}

	p.Lifetime.Shape = 4.07
	if r := ValidateSchema(p); len(r.Warnings) != 0 {
		t.Errorf("default shape should not warn, got %v", r.Warnings)
	}
}
