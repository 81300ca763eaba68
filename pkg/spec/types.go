package spec

// Project is the complete input of a wind material-flow study.
type Project struct {
	SpecVersion string       `yaml:"spec_version" json:"spec_version"`
	Name        string       `yaml:"name" json:"name"`
	Capacity    Capacity     `yaml:"capacity" json:"capacity"`
	Lifetime    Lifetime     `yaml:"lifetime" json:"lifetime"`
	Technology  Technology   `yaml:"technology" json:"technology"`
	Turbines    Turbines     `yaml:"turbines" json:"turbines"`
	Composition Compositions `yaml:"composition" json:"composition"`
	EoL         EoL          `yaml:"eol" json:"eol"`
	Impact      Impact       `yaml:"impact" json:"impact"`
	Historical  Historical   `yaml:"historical" json:"historical"`

	// Register is filled from Historical.TurbineRegister by LoadProject.
	Register []TurbineRecord `yaml:"-" json:"-"`
}

// Capacity holds the installed-capacity inputs in MW.
type Capacity struct {
	HistoricalYears  []int     `yaml:"historical_years" json:"historical_years"`
	HistoricalInflow []float64 `yaml:"historical_inflow" json:"historical_inflow"`
	// FutureStartYear is the first annual onshore projection year.
	FutureStartYear int            `yaml:"future_start_year" json:"future_start_year"`
	Onshore         FutureCapacity `yaml:"onshore" json:"onshore"`
	Offshore        FutureCapacity `yaml:"offshore" json:"offshore"`
}

// FutureCapacity maps a capacity scenario name (Gcam, GNZ) to its target
// stock trajectory.
type FutureCapacity map[string]StockPath

// StockPath is a stock target at milestone years. GNZ paths are annual.
type StockPath struct {
	Years []int     `yaml:"years" json:"years"`
	Stock []float64 `yaml:"stock" json:"stock"`
}

// Lifetime holds mean service lives in years. Shape defaults to the model
// constant when zero.
type Lifetime struct {
	Historical float64 `yaml:"historical" json:"historical"`
	Future     float64 `yaml:"future" json:"future"`
	Shape      float64 `yaml:"shape,omitempty" json:"shape,omitempty"`
}

// NacelleMix is the market share of each drivetrain technology.
type NacelleMix map[NacelleTech]float64

// TowerMix is the market share of each tower construction.
type TowerMix map[TowerType]float64

// Technology holds the technology-development tables. Period-indexed slices
// are selected by the technology period of a run.
type Technology struct {
	Periods []string `yaml:"periods" json:"periods"`
	// HistoricalNacelleShare has one value per historical year for each
	// technology.
	HistoricalNacelleShare map[NacelleTech][]float64 `yaml:"historical_nacelle_share" json:"historical_nacelle_share"`
	// FutureNacelleShare has one mix per period for each fleet.
	FutureNacelleShare map[Fleet][]NacelleMix `yaml:"future_nacelle_share" json:"future_nacelle_share"`
	TowerShare         TowerMix               `yaml:"tower_share" json:"tower_share"`
	Replacement        Replacement            `yaml:"replacement" json:"replacement"`
}

// Replacement holds per-period component replacement rates.
type Replacement struct {
	HistoricalNacelle []float64 `yaml:"historical_nacelle" json:"historical_nacelle"`
	HistoricalRotor   []float64 `yaml:"historical_rotor" json:"historical_rotor"`
	FutureNacelle     []float64 `yaml:"future_nacelle" json:"future_nacelle"`
	FutureRotor       []float64 `yaml:"future_rotor" json:"future_rotor"`
}

// Turbines holds average turbine characteristics by cohort.
type Turbines struct {
	Historical TurbineAverages               `yaml:"historical" json:"historical"`
	Future     map[Fleet]FleetTurbineOutlook `yaml:"future" json:"future"`
}

// TurbineAverages has one value per historical year.
type TurbineAverages struct {
	TurbineKW []float64 `yaml:"turbine_kw" json:"turbine_kw"`
	NacelleT  []float64 `yaml:"nacelle_t" json:"nacelle_t"`
	RotorT    []float64 `yaml:"rotor_t" json:"rotor_t"`
}

// FleetTurbineOutlook describes future cohorts of one fleet in year bands.
type FleetTurbineOutlook struct {
	Averages []AverageBand `yaml:"averages" json:"averages"`
	// PerTurbineKW is the rated capacity of a newly installed turbine.
	PerTurbineKW []CapacityBand `yaml:"per_turbine_kw" json:"per_turbine_kw"`
}

// AverageBand applies to installation years From..To inclusive.
type AverageBand struct {
	From      int     `yaml:"from" json:"from"`
	To        int     `yaml:"to" json:"to"`
	TurbineKW float64 `yaml:"turbine_kw" json:"turbine_kw"`
	NacelleT  float64 `yaml:"nacelle_t" json:"nacelle_t"`
	RotorT    float64 `yaml:"rotor_t" json:"rotor_t"`
}

// CapacityBand applies to installation years From..To inclusive.
type CapacityBand struct {
	From int     `yaml:"from" json:"from"`
	To   int     `yaml:"to" json:"to"`
	KW   float64 `yaml:"kw" json:"kw"`
}

// Compositions maps each fleet to its per-component material make-up.
type Compositions map[Fleet]map[Component]Composition

// Lookup returns the composition of component c in fleet f.
func (cs Compositions) Lookup(f Fleet, c Component) (Composition, bool) {
	v, ok := cs[f][c]
	return v, ok
}

// FoundationComponent returns the foundation key used by a fleet's table:
// Monopile when present, Foundation otherwise.
func (cs Compositions) FoundationComponent(f Fleet) Component {
	if _, ok := cs[f][Monopile]; ok {
		return Monopile
	}
	return Foundation
}

// EoL describes end-of-life processing.
type EoL struct {
	// Routes names the processing routes. The first route is closed-loop
	// recycling.
	Routes []string `yaml:"routes" json:"routes"`
	// Baseline is the strategy applied to historical onshore years.
	Baseline   string              `yaml:"baseline" json:"baseline"`
	Strategies map[string]Strategy `yaml:"strategies" json:"strategies"`
}

// Strategy maps each fleet to per-material route fractions.
type Strategy map[Fleet]RouteTable

// RouteTable holds one fraction per route for each material.
type RouteTable map[Material][]float64

// Impact maps each group to its production and recycling factors.
type Impact map[Group]ImpactFactors

// ImpactFactors are per-kg coefficients.
type ImpactFactors struct {
	EnergyConsumption float64 `yaml:"energy_consumption" json:"energy_consumption"` // MJ/kg
	EnergySaved       float64 `yaml:"energy_saved" json:"energy_saved"`             // MJ/kg
	CO2Emission       float64 `yaml:"co2_emission" json:"co2_emission"`             // kg/kg
	CO2Reduction      float64 `yaml:"co2_reduction" json:"co2_reduction"`           // kg/kg
}

// Historical points at the per-turbine register of installed units.
type Historical struct {
	TurbineRegister string `yaml:"turbine_register" json:"turbine_register"`
}

// TurbineRecord is a batch of identical historically installed turbines.
type TurbineRecord struct {
	Year       int         `json:"year"`
	Units      int         `json:"units"`
	CapacityKW float64     `json:"capacity_kw"`
	DiameterM  float64     `json:"diameter_m"`
	HubHeightM float64     `json:"hub_height_m"`
	Nacelle    NacelleTech `json:"nacelle"`
	Tower      TowerType   `json:"tower"`
}

// CapacityMW returns the rated capacity of the whole batch.
func (r TurbineRecord) CapacityMW() float64 {
	return float64(r.Units) * r.CapacityKW / 1000
}

// PeriodIndex returns the index of a named technology period.
func (t Technology) PeriodIndex(name string) (int, bool) {
	for i, p := range t.Periods {
		if p == name {
			return i, true
		}
	}
	return 0, false
}

// HistoricalShare returns the market share of tech in historical year index i.
func (t Technology) HistoricalShare(tech NacelleTech, i int) float64 {
	s := t.HistoricalNacelleShare[tech]
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

// BandFor returns the average band covering year.
func (o FleetTurbineOutlook) BandFor(year int) (AverageBand, bool) {
	for _, b := range o.Averages {
		if year >= b.From && year <= b.To {
			return b, true
		}
	}
	return AverageBand{}, false
}

// PerTurbineFor returns the per-turbine rating covering year.
func (o FleetTurbineOutlook) PerTurbineFor(year int) (float64, bool) {
	for _, b := range o.PerTurbineKW {
		if year >= b.From && year <= b.To {
			return b.KW, true
		}
	}
	return 0, false
}
