// Package flow implements the survival-curve driven transformation between
// installation inflow, in-service stock and retirement outflow.
//
// Forward solves stock and outflow from a known inflow. Inverse solves the
// inflow implied by a target stock trajectory, given the cohorts that are
// already installed. Both record a cohort contribution matrix whose cell
// (j, i) is the outflow in year i attributable to units installed in year j.
package flow

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Epsilon guards divisions by cohort inflow and average turbine sizes.
// It suppresses division by zero for empty cohorts rather than reporting it.
const Epsilon = 1e-100

var (
	// ErrEmptySeries is returned when a recurrence is given no years.
	ErrEmptySeries = errors.New("empty series")
	// ErrShapeMismatch is returned when inputs have inconsistent lengths.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Result holds the output of one recurrence.
type Result struct {
	Inflow  []float64
	Outflow []float64
	Stock   []float64

	// Contrib has one row per cohort and one column per solved year.
	// Forward produces an n×n matrix. Inverse produces (h+m)×m where the
	// first h rows are historical cohorts.
	Contrib *mat.Dense

	// NegativeInflow lists the year indices where Inverse solved a negative
	// inflow before any policy was applied.
	NegativeInflow []int
}

// History is the installed base preceding an inverse solve.
type History struct {
	Inflow []float64
	Stock  []float64
	Curve  []float64
}

// Len returns the number of historical cohorts.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Inflow)
}

// lastStock returns S[-1] for the first inverse year.
func (h *History) lastStock() float64 {
	if h == nil || len(h.Stock) == 0 {
		return 0
	}
	return h.Stock[len(h.Stock)-1]
}

func curveAt(curve []float64, age int) (float64, bool) {
	if age < 0 || age >= len(curve) {
		return 0, false
	}
	return curve[age], true
}
