package export

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/ChicagoDave/windmfa/pkg/impact"
	"github.com/ChicagoDave/windmfa/pkg/pipeline"
	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// Writer lays out the tables of a pipeline result under one directory.
type Writer struct {
	Dir    string
	Places int32
}

// New returns a writer for dir at the given precision.
func New(dir string, places int32) *Writer {
	return &Writer{Dir: dir, Places: places}
}

// CapacityFile names the capacity table of a fleet.
func CapacityFile(f spec.Fleet, scen string, tp int) string {
	return fmt.Sprintf("%s_%s_%d.csv", f, scen, tp)
}

// MaterialFile names the material inflow table of a fleet.
func MaterialFile(f spec.Fleet, scen string, tp int) string {
	return fmt.Sprintf("material_%s_mass_by_year_%d_%s.csv", f, tp, scen)
}

// RouteSumFile names the route totals of a fleet under a strategy.
func RouteSumFile(f spec.Fleet, strategy, scen string, tp int) string {
	return filepath.Join(fmt.Sprintf("%s_EoL", f), fmt.Sprintf("%s_%s_sum_%d_%s.csv", f, strategy, tp, scen))
}

// RouteMaterialFile names the route table of one material.
func RouteMaterialFile(f spec.Fleet, strategy string, m spec.Material, scen string, tp int) string {
	return filepath.Join(fmt.Sprintf("%s_EoL", f), fmt.Sprintf("%s_%s_%s_%d_%s.csv", f, strategy, m, tp, scen))
}

// VirginFile names the virgin material table of a fleet under a strategy.
func VirginFile(f spec.Fleet, strategy, scen string, tp int) string {
	return filepath.Join(fmt.Sprintf("%s_virgin", f), fmt.Sprintf("%s_%s_%d_%s.csv", f, strategy, tp, scen))
}

// ImpactFile names the yearly impact table of a scope ("onshore",
// "offshore" or "total").
func ImpactFile(scope, strategy, scen string, tp int) string {
	return fmt.Sprintf("%s_env_impact_%s_%d_%s.csv", scope, strategy, tp, scen)
}

// DecadeFile names the decade impact table of a scope.
func DecadeFile(scope, strategy, scen string, tp int) string {
	return fmt.Sprintf("%s_env_impact_decades_%s_%d_%s.csv", scope, strategy, tp, scen)
}

// Capacity writes the capacity tables of both fleets.
func (w *Writer) Capacity(c *scenario.CapacityFlows) ([]string, error) {
	scen, tp := string(c.Key.Capacity), c.Key.Period
	var written []string
	for _, f := range spec.Fleets {
		flows := c.Fleet(f)
		name := CapacityFile(f, scen, tp)
		if err := w.write(name, func(out io.Writer) error { return WriteCapacity(out, flows, w.Places) }); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}

// All writes every table of r and returns the relative paths written.
func (w *Writer) All(r *pipeline.Result) ([]string, error) {
	written, err := w.Capacity(r.Capacity)
	if err != nil {
		return written, err
	}
	scen, tp := string(r.Key.Capacity), r.Key.Period
	add := func(name string, fn func(io.Writer) error) error {
		if err := w.write(name, fn); err != nil {
			return err
		}
		written = append(written, name)
		return nil
	}

	for _, f := range spec.Fleets {
		fr := r.Fleet(f)
		if err := add(MaterialFile(f, scen, tp), func(out io.Writer) error {
			return WriteMaterials(out, fr.Materials.Total, w.Places)
		}); err != nil {
			return written, err
		}
		for _, name := range fr.EoL.Names() {
			a := fr.EoL.Strategies[name]
			if err := add(RouteSumFile(f, name, scen, tp), func(out io.Writer) error {
				return WriteRoutes(out, a.Years, a.Routes, a.RouteTotals(), w.Places)
			}); err != nil {
				return written, err
			}
			for _, m := range spec.Materials() {
				if err := add(RouteMaterialFile(f, name, m, scen, tp), func(out io.Writer) error {
					return WriteRoutes(out, a.Years, a.Routes, a.ByMaterial[m], w.Places)
				}); err != nil {
					return written, err
				}
			}
			if v, ok := fr.EoL.Virgin[name]; ok {
				if err := add(VirginFile(f, name, scen, tp), func(out io.Writer) error {
					return WriteMaterials(out, v, w.Places)
				}); err != nil {
					return written, err
				}
			}
			im := fr.Impact[name]
			if err := add(ImpactFile(string(f), name, scen, tp), func(out io.Writer) error {
				return WriteImpact(out, im, w.Places)
			}); err != nil {
				return written, err
			}
		}
	}

	for _, name := range r.Strategies() {
		total := r.Total[name]
		if err := add(ImpactFile("total", name, scen, tp), func(out io.Writer) error {
			return WriteImpact(out, total, w.Places)
		}); err != nil {
			return written, err
		}
		if err := add(DecadeFile("offshore", name, scen, tp), func(out io.Writer) error {
			return WriteDecades(out, r.Offshore.Impact[name].Aggregate(impact.FleetDecades), w.Places)
		}); err != nil {
			return written, err
		}
		if err := add(DecadeFile("total", name, scen, tp), func(out io.Writer) error {
			return WriteDecades(out, total.Aggregate(impact.TotalDecades), w.Places)
		}); err != nil {
			return written, err
		}
	}
	return written, nil
}

func (w *Writer) write(name string, fn func(io.Writer) error) error {
	return writeFile(filepath.Join(w.Dir, name), fn)
}
