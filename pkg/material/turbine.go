// Package material converts capacity flows into material mass flows: the
// materials in newly installed turbines and in replaced nacelles and rotors.
package material

import (
	"errors"
	"fmt"

	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// ErrMissingComposition is returned when a component with a non-zero share
// has no composition for the fleet.
var ErrMissingComposition = errors.New("missing composition")

// Vector holds one value per spec.Material.
type Vector [spec.NumMaterials]float64

// Components are the masses (t) of the structural parts of one turbine.
type Components struct {
	Nacelle    float64 `json:"nacelle"`
	Tower      float64 `json:"tower"`
	Rotor      float64 `json:"rotor"`
	Foundation float64 `json:"foundation"`
}

// ComponentMasses estimates part masses from rotor diameter d and hub
// height h. The foundation scales with the other parts.
func ComponentMasses(fleet spec.Fleet, year int, d, h float64) Components {
	c := Components{
		Nacelle: nacelleFit.eval(d),
		Tower:   towerFit.eval(d * d * h),
		Rotor:   rotorFit.eval(d),
	}
	c.Foundation = FoundationRatio(fleet, year) * (c.Nacelle + c.Tower + c.Rotor)
	return c
}

// Total returns the mass of the whole turbine.
func (c Components) Total() float64 {
	return c.Nacelle + c.Tower + c.Rotor + c.Foundation
}

// Turbine is one turbine design, possibly a share-weighted blend of nacelle
// technologies and tower types.
type Turbine struct {
	Fleet      spec.Fleet
	Year       int
	CapacityKW float64
	DiameterM  float64
	HubHeightM float64
	Nacelle    spec.NacelleMix
	Tower      spec.TowerMix
}

// TurbineMaterials returns the material content (t) of one turbine. Non-REE
// materials are component mass times mass fraction; Nd and Dy scale with
// rated capacity.
func TurbineMaterials(t Turbine, comps spec.Compositions) (Vector, error) {
	var v Vector
	nacelle, err := blend(comps, t.Fleet, spec.NacelleTechs, t.Nacelle)
	if err != nil {
		return v, err
	}
	tower, err := blend(comps, t.Fleet, spec.TowerTypes, t.Tower)
	if err != nil {
		return v, err
	}
	rotor, err := lookup(comps, t.Fleet, spec.Rotor)
	if err != nil {
		return v, err
	}
	foundation, err := lookup(comps, t.Fleet, comps.FoundationComponent(t.Fleet))
	if err != nil {
		return v, err
	}

	cm := ComponentMasses(t.Fleet, t.Year, t.DiameterM, t.HubHeightM)
	for _, m := range spec.Materials() {
		if m.IsREE() {
			v[m] = t.CapacityKW * kgPerMWToTonnesPerKW *
				(nacelle[m] + tower[m] + rotor[m] + foundation[m])
			continue
		}
		v[m] = cm.Nacelle*nacelle[m] + cm.Tower*tower[m] + cm.Rotor*rotor[m] + cm.Foundation*foundation[m]
	}
	return v, nil
}

// blend returns the share-weighted composition of a mix. Keys are visited in
// order so results are reproducible to the last bit.
func blend[K ~string](comps spec.Compositions, fleet spec.Fleet, keys []K, mix map[K]float64) (spec.Composition, error) {
	var out spec.Composition
	for _, k := range keys {
		share := mix[k]
		if share == 0 {
			continue
		}
		c, err := lookup(comps, fleet, spec.Component(k))
		if err != nil {
			return out, err
		}
		for i := range out {
			out[i] += share * c[i]
		}
	}
	return out, nil
}

func lookup(comps spec.Compositions, fleet spec.Fleet, c spec.Component) (spec.Composition, error) {
	v, ok := comps.Lookup(fleet, c)
	if !ok {
		return v, fmt.Errorf("%w: %s %s", ErrMissingComposition, fleet, c)
	}
	return v, nil
}
