package spec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Fleet distinguishes the two independently modelled turbine populations.
type Fleet string

const (
	Onshore  Fleet = "onshore"
	Offshore Fleet = "offshore"
)

// Fleets lists every fleet in output order.
var Fleets = []Fleet{Onshore, Offshore}

// ParseFleet parses "onshore" or "offshore".
func ParseFleet(s string) (Fleet, error) {
	switch Fleet(s) {
	case Onshore, Offshore:
		return Fleet(s), nil
	}
	return "", fmt.Errorf("unknown fleet %q", s)
}

// Material is a tracked material. The numeric order is the column order of
// every years × materials table.
type Material int

const (
	Steel Material = iota
	CastIron
	Cu
	Al
	Concrete
	Composites
	EE
	Others
	Nd
	Dy

	NumMaterials = int(Dy) + 1
)

var materialNames = [NumMaterials]string{
	"Steel", "Cast Iron", "Cu", "Al", "Concrete", "Composites", "EE", "Others", "Nd", "Dy",
}

// Materials lists every material in column order.
func Materials() []Material {
	out := make([]Material, NumMaterials)
	for i := range out {
		out[i] = Material(i)
	}
	return out
}

func (m Material) String() string {
	if m < 0 || int(m) >= NumMaterials {
		return fmt.Sprintf("Material(%d)", int(m))
	}
	return materialNames[m]
}

// IsREE reports whether the material is a rare-earth element. REE content
// scales with rated capacity instead of component mass.
func (m Material) IsREE() bool {
	return m == Nd || m == Dy
}

// ParseMaterial parses a material name as written in the project file.
func ParseMaterial(s string) (Material, error) {
	for i, name := range materialNames {
		if name == s {
			return Material(i), nil
		}
	}
	return 0, fmt.Errorf("unknown material %q", s)
}

func (m Material) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Material) UnmarshalText(text []byte) error {
	v, err := ParseMaterial(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Group is the impact-factor category a material is reported under.
type Group string

const (
	GroupSteelIron  Group = "Steel and iron"
	GroupCu         Group = "Cu"
	GroupAl         Group = "Al"
	GroupConcrete   Group = "Concrete"
	GroupComposites Group = "Composites"
	GroupREEs       Group = "REEs"
	GroupEE         Group = "EE"
)

// Groups lists the impact groups in report order.
var Groups = []Group{GroupSteelIron, GroupCu, GroupAl, GroupConcrete, GroupComposites, GroupREEs, GroupEE}

// Group returns the impact group of m. Others has no group and returns
// false.
func (m Material) Group() (Group, bool) {
	switch m {
	case Steel, CastIron:
		return GroupSteelIron, true
	case Cu:
		return GroupCu, true
	case Al:
		return GroupAl, true
	case Concrete:
		return GroupConcrete, true
	case Composites:
		return GroupComposites, true
	case Nd, Dy:
		return GroupREEs, true
	case EE:
		return GroupEE, true
	}
	return "", false
}

// NacelleTech is a drivetrain technology.
type NacelleTech string

const (
	DFIGSCIG NacelleTech = "DFIG/SCIG"
	EESGDD   NacelleTech = "EESGDD"
	PMSGDD   NacelleTech = "PMSGDD"
	PMSGGB   NacelleTech = "PMSGGB"
	PDD      NacelleTech = "PDD"
	SDD      NacelleTech = "SDD"
)

// NacelleTechs lists the drivetrain technologies in table order.
var NacelleTechs = []NacelleTech{DFIGSCIG, EESGDD, PMSGDD, PMSGGB, PDD, SDD}

// ParseNacelleTech accepts the canonical names plus the raw register
// spellings "DFIG" and "SCIG", which share one composition.
func ParseNacelleTech(s string) (NacelleTech, error) {
	switch s {
	case "DFIG", "SCIG":
		return DFIGSCIG, nil
	}
	for _, t := range NacelleTechs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown nacelle technology %q", s)
}

// TowerType is a tower construction.
type TowerType string

const (
	SteelTower  TowerType = "Steel"
	HybridTower TowerType = "Hybrid"
)

// TowerTypes lists tower constructions in table order.
var TowerTypes = []TowerType{SteelTower, HybridTower}

func ParseTowerType(s string) (TowerType, error) {
	for _, t := range TowerTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tower type %q", s)
}

// Component is a composition table key: a nacelle technology, a tower type,
// or one of the fixed parts below.
type Component string

const (
	Rotor      Component = "Rotor"
	Foundation Component = "Foundation"
	Monopile   Component = "Monopile"
)

// Composition is the material make-up of one component. Non-REE entries are
// mass fractions of the component mass; Nd and Dy are kg per MW of rated
// capacity.
type Composition [NumMaterials]float64

func (c *Composition) UnmarshalYAML(node *yaml.Node) error {
	var raw map[Material]float64
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = Composition{}
	for m, v := range raw {
		c[m] = v
	}
	return nil
}

func (c Composition) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, NumMaterials)
	for i, v := range c {
		out[materialNames[i]] = v
	}
	return json.Marshal(out)
}

// MassFraction sums the non-REE fractions, which should not exceed 1.
func (c Composition) MassFraction() float64 {
	total := 0.0
	for i, v := range c {
		if !Material(i).IsREE() {
			total += v
		}
	}
	return total
}
