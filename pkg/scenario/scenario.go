// Package scenario wires the survival model and flow recurrences into the
// onshore and offshore capacity flows of one scenario.
package scenario

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ChicagoDave/windmfa/pkg/spec"
)

var (
	// ErrInvalidScenario is returned for an unknown capacity scenario name.
	ErrInvalidScenario = errors.New("invalid capacity scenario")
	// ErrInvalidPeriod is returned when a technology period does not index
	// the project's technology tables.
	ErrInvalidPeriod = errors.New("invalid technology period")
)

// Capacity is a future capacity scenario.
type Capacity string

const (
	// Gcam milestones are interpolated linearly to annual resolution.
	Gcam Capacity = "Gcam"
	// GNZ series are annual as given.
	GNZ Capacity = "GNZ"
)

// Capacities lists the supported capacity scenarios.
var Capacities = []Capacity{Gcam, GNZ}

// ParseCapacityScenario parses "Gcam" or "GNZ".
func ParseCapacityScenario(s string) (Capacity, error) {
	for _, c := range Capacities {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want Gcam or GNZ)", ErrInvalidScenario, s)
}

// Key identifies one model run: a capacity scenario and a technology
// period index.
type Key struct {
	Capacity Capacity `json:"capacity"`
	Period   int      `json:"period"`
}

// String renders the key as used in output file names, e.g. "Gcam_0".
func (k Key) String() string {
	return fmt.Sprintf("%s_%d", k.Capacity, k.Period)
}

// ParseKey builds a key from a scenario name and a period given either as
// an index or as a period name from the project.
func ParseKey(p *spec.Project, capacity, period string) (Key, error) {
	c, err := ParseCapacityScenario(capacity)
	if err != nil {
		return Key{}, err
	}
	tp, err := ResolvePeriod(p.Technology, period)
	if err != nil {
		return Key{}, err
	}
	return Key{Capacity: c, Period: tp}, nil
}

// ResolvePeriod accepts "0", "1", ... or a period name such as "CT".
func ResolvePeriod(t spec.Technology, s string) (int, error) {
	if i, ok := t.PeriodIndex(s); ok {
		return i, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is neither an index nor one of %v", ErrInvalidPeriod, s, t.Periods)
	}
	if err := checkPeriod(t, i); err != nil {
		return 0, err
	}
	return i, nil
}

func checkPeriod(t spec.Technology, tp int) error {
	if tp < 0 || tp >= len(t.Periods) {
		return fmt.Errorf("%w: %d (project defines %d periods)", ErrInvalidPeriod, tp, len(t.Periods))
	}
	return nil
}
