package material

import (
	"math"

	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// powerLaw is y = A·x^B.
type powerLaw struct{ A, B float64 }

func (p powerLaw) eval(x float64) float64 { return p.A * math.Pow(x, p.B) }

// Rotor diameter (m) and hub height (m) from rated capacity (kW), fitted
// on the Canadian fleet.
var (
	diameterFit = map[spec.Fleet]powerLaw{
		spec.Onshore:  {2.1464, 0.4913},
		spec.Offshore: {0.9466, 0.5872},
	}
	hubHeightFit = map[spec.Fleet]powerLaw{
		spec.Onshore:  {4.1099, 0.3974},
		spec.Offshore: {5.0679, 0.3373},
	}
)

// Component masses (t) from diameter d and hub height h.
var (
	nacelleFit = powerLaw{0.0091, 2.0456} // of d
	towerFit   = powerLaw{0.0176, 0.6839} // of d²·h
	rotorFit   = powerLaw{0.0035, 2.1412} // of d
)

// Foundation mass as a multiple of nacelle + tower + rotor.
const (
	OnshoreFoundationRatio      = 3.5
	OffshoreFoundationRatio     = 2.2 // commissioned up to OffshoreFoundationBreakYear
	OffshoreLateFoundationRatio = 2.8
	OffshoreFoundationBreakYear = 2035
)

// FoundationRatio returns the foundation multiplier for a turbine of fleet
// commissioned in year.
func FoundationRatio(fleet spec.Fleet, year int) float64 {
	if fleet == spec.Offshore {
		if year <= OffshoreFoundationBreakYear {
			return OffshoreFoundationRatio
		}
		return OffshoreLateFoundationRatio
	}
	return OnshoreFoundationRatio
}

// Diameter returns the fitted rotor diameter (m) for a rating in kW.
func Diameter(fleet spec.Fleet, kw float64) float64 { return diameterFit[fleet].eval(kw) }

// HubHeight returns the fitted hub height (m) for a rating in kW.
func HubHeight(fleet spec.Fleet, kw float64) float64 { return hubHeightFit[fleet].eval(kw) }

// kgPerMWToTonnesPerKW converts kg/MW compositions applied to kW ratings.
const kgPerMWToTonnesPerKW = 1e-6
