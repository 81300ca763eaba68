package flow

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// StockContributions converts a cohort outflow contribution matrix into a
// stock contribution matrix: cell (j, t) is inflow[j] minus everything cohort
// j has retired up to and including year t.
//
// Columns before a cohort's installation year hold the full cohort inflow,
// since nothing has been retired yet. Callers that need "standing" semantics
// must mask t < j themselves.
func StockContributions(contrib *mat.Dense, inflow []float64) (*mat.Dense, error) {
	rows, cols := contrib.Dims()
	if rows != len(inflow) {
		return nil, fmt.Errorf("stock contributions: %d cohorts but %d inflow values: %w", rows, len(inflow), ErrShapeMismatch)
	}
	out := mat.NewDense(rows, cols, nil)
	cum := make([]float64, cols)
	for j := 0; j < rows; j++ {
		floats.CumSum(cum, contrib.RawRowView(j))
		row := out.RawRowView(j)
		for t := range row {
			row[t] = inflow[j] - cum[t]
		}
	}
	return out, nil
}

// RetirementRatios divides each cohort row by the cohort's inflow, giving the
// fraction of cohort j retired in year t. Empty cohorts are guarded by
// Epsilon.
func RetirementRatios(contrib *mat.Dense, inflow []float64) (*mat.Dense, error) {
	rows, cols := contrib.Dims()
	if rows != len(inflow) {
		return nil, fmt.Errorf("retirement ratios: %d cohorts but %d inflow values: %w", rows, len(inflow), ErrShapeMismatch)
	}
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < rows; j++ {
		floats.ScaleTo(out.RawRowView(j), 1/(inflow[j]+Epsilon), contrib.RawRowView(j))
	}
	return out, nil
}

// Stitch assembles the combined contribution matrix of a fleet with a
// historical forward pass (h×h) followed by an inverse pass ((h+m)×m).
// A nil history yields a copy of future.
func Stitch(history, future *mat.Dense) (*mat.Dense, error) {
	if history == nil {
		return mat.DenseCopyOf(future), nil
	}
	h, hc := history.Dims()
	fr, m := future.Dims()
	if h != hc || fr != h+m {
		return nil, fmt.Errorf("stitch: history %dx%d, future %dx%d: %w", h, hc, fr, m, ErrShapeMismatch)
	}
	n := h + m
	out := mat.NewDense(n, n, nil)
	out.Slice(0, h, 0, h).(*mat.Dense).Copy(history)
	out.Slice(0, n, h, n).(*mat.Dense).Copy(future)
	return out, nil
}
