package spec

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProject(t *testing.T) {
	p, err := LoadProject("../../examples/canada-wind")
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	if p.SpecVersion != "0.1.0" {
		t.Errorf("spec_version = %q, want %q", p.SpecVersion, "0.1.0")
	}
	if p.Name != "canada-wind" {
		t.Errorf("name = %q, want canada-wind", p.Name)
	}

	// Capacity
	c := p.Capacity
	if len(c.HistoricalYears) != 27 || len(c.HistoricalInflow) != 27 {
		t.Fatalf("historical lengths = %d/%d, want 27/27", len(c.HistoricalYears), len(c.HistoricalInflow))
	}
	if c.HistoricalYears[0] != 1993 || c.HistoricalYears[26] != 2019 {
		t.Errorf("historical years = %d..%d, want 1993..2019", c.HistoricalYears[0], c.HistoricalYears[26])
	}
	if c.HistoricalInflow[1] != 0 || c.HistoricalInflow[3] != 0 {
		t.Errorf("1994/1996 inflow = %v/%v, want 0/0", c.HistoricalInflow[1], c.HistoricalInflow[3])
	}
	if c.FutureStartYear != 2020 {
		t.Errorf("future_start_year = %d, want 2020", c.FutureStartYear)
	}
	gcam, ok := c.Onshore["Gcam"]
	if !ok {
		t.Fatal("missing onshore Gcam path")
	}
	if len(gcam.Years) != len(gcam.Stock) {
		t.Errorf("onshore Gcam years/stock = %d/%d", len(gcam.Years), len(gcam.Stock))
	}
	if gnz := c.Onshore["GNZ"]; len(gnz.Years) != 31 {
		t.Errorf("onshore GNZ years = %d, want 31", len(gnz.Years))
	}
	if off := c.Offshore["Gcam"]; len(off.Years) == 0 || off.Years[0] != 2025 {
		t.Errorf("offshore Gcam first year = %v, want 2025", off.Years)
	}

	// Lifetime
	if p.Lifetime.Historical != 20 || p.Lifetime.Future != 25 {
		t.Errorf("lifetime = %v/%v, want 20/25", p.Lifetime.Historical, p.Lifetime.Future)
	}

	// Technology
	if len(p.Technology.Periods) != 3 {
		t.Errorf("periods = %v, want 3", p.Technology.Periods)
	}
	if got := len(p.Technology.HistoricalNacelleShare[DFIGSCIG]); got != 27 {
		t.Errorf("DFIG/SCIG history = %d values, want 27", got)
	}
	for _, f := range Fleets {
		mixes := p.Technology.FutureNacelleShare[f]
		if len(mixes) != 3 {
			t.Errorf("%s future mixes = %d, want 3", f, len(mixes))
			continue
		}
		sum := 0.0
		for _, v := range mixes[0] {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("%s CT mix sums to %v, want 1", f, sum)
		}
	}
	if p.Technology.TowerShare[SteelTower] != 0.9 {
		t.Errorf("steel tower share = %v, want 0.9", p.Technology.TowerShare[SteelTower])
	}

	// Turbines
	on := p.Turbines.Future[Onshore]
	kw, ok := on.PerTurbineFor(2035)
	if !ok || kw != 4500 {
		t.Errorf("onshore per-turbine kW in 2035 = %v (%v), want 4500", kw, ok)
	}
	if b, ok := p.Turbines.Future[Offshore].BandFor(2050); !ok || b.TurbineKW != 12000 {
		t.Errorf("offshore band 2050 = %+v (%v)", b, ok)
	}

	// Composition
	pm, ok := p.Composition.Lookup(Onshore, Component(PMSGDD))
	if !ok {
		t.Fatal("missing onshore PMSGDD composition")
	}
	if pm[Nd] != 180 || pm[Dy] != 24 {
		t.Errorf("PMSGDD Nd/Dy = %v/%v, want 180/24", pm[Nd], pm[Dy])
	}
	if pm[CastIron] != 0.17 {
		t.Errorf("PMSGDD cast iron = %v, want 0.17", pm[CastIron])
	}
	if got := p.Composition.FoundationComponent(Onshore); got != Foundation {
		t.Errorf("onshore foundation = %q, want Foundation", got)
	}
	if got := p.Composition.FoundationComponent(Offshore); got != Monopile {
		t.Errorf("offshore foundation = %q, want Monopile", got)
	}

	// EoL
	if len(p.EoL.Routes) != 5 {
		t.Errorf("routes = %v, want 5", p.EoL.Routes)
	}
	if p.EoL.Baseline != "EoL_C" {
		t.Errorf("baseline = %q, want EoL_C", p.EoL.Baseline)
	}
	steel := p.EoL.Strategies["EoL_O"][Offshore][Steel]
	if len(steel) != 5 || steel[0] != 0.95 {
		t.Errorf("EoL_O offshore steel = %v", steel)
	}

	// Impact
	if f := p.Impact[GroupREEs]; f.EnergyConsumption != 400 {
		t.Errorf("REEs energy consumption = %v, want 400", f.EnergyConsumption)
	}

	// Register
	if len(p.Register) == 0 {
		t.Fatal("turbine register not loaded")
	}
	if r := p.Register[0]; r.Year != 1993 || r.Nacelle != DFIGSCIG || r.Tower != SteelTower {
		t.Errorf("first register row = %+v", r)
	}
}

func TestLoadProjectMissing(t *testing.T) {
	_, err := LoadProject("/nonexistent/path")
	if err == nil {
		t.Error("expected error for missing project directory")
	}
}

func TestLoadUnknownMaterial(t *testing.T) {
	dir := t.TempDir()
	body := "composition:\n  onshore:\n    Rotor: {Steel: 0.5, Unobtainium: 0.5}\n"
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadProject(dir)
	if err == nil || !strings.Contains(err.Error(), "Unobtainium") {
		t.Errorf("error = %v, want unknown material", err)
	}
}

func TestLoadRegisterHeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turbines.csv")
	body := "year,capacity_kw\n2001,600\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegister(path); err == nil || !strings.Contains(err.Error(), "header mismatch") {
		t.Errorf("error = %v, want header mismatch", err)
	}
}

func TestLoadRegisterBadRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turbines.csv")
	body := "year,units,capacity_kw,diameter_m,hub_height_m,nacelle,tower\n" +
		"2001,2,600,50,55,DFIG,Steel\n" +
		"2002,1,650,52,57,Magic,Steel\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadRegister(path)
	if err == nil || !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error = %v, want row 3 failure", err)
	}
}

func TestTurbineRecordCapacity(t *testing.T) {
	r := TurbineRecord{Units: 4, CapacityKW: 2500}
	if got := r.CapacityMW(); got != 10 {
		t.Errorf("CapacityMW = %v, want 10", got)
	}
}

func TestMaterialGroups(t *testing.T) {
	cases := map[Material]Group{
		Steel: GroupSteelIron, CastIron: GroupSteelIron,
		Nd: GroupREEs, Dy: GroupREEs,
		Composites: GroupComposites, EE: GroupEE,
	}
	for m, want := range cases {
		if got, ok := m.Group(); !ok || got != want {
			t.Errorf("%s group = %q (%v), want %q", m, got, ok, want)
		}
	}
	if _, ok := Others.Group(); ok {
		t.Error("Others should have no impact group")
	}
}

func TestParseNacelleTechAliases(t *testing.T) {
	for _, s := range []string{"DFIG", "SCIG", "DFIG/SCIG"} {
		got, err := ParseNacelleTech(s)
		if err != nil || got != DFIGSCIG {
			t.Errorf("ParseNacelleTech(%q) = %q, %v", s, got, err)
		}
	}
}
