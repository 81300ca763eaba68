package flow

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Forward computes outflow, stock and the cohort contribution matrix from an
// inflow series. Cohort j contributes inflow[j]*curve[i-j] to the outflow of
// every later year i whose age i-j is inside the curve's support.
//
// Stock is not clamped at zero.
func Forward(inflow, curve []float64) (*Result, error) {
	n := len(inflow)
	if n == 0 {
		return nil, fmt.Errorf("forward recurrence: %w", ErrEmptySeries)
	}

	outflow := make([]float64, n)
	stock := make([]float64, n)
	contrib := mat.NewDense(n, n, nil)

	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			w, ok := curveAt(curve, i-j)
			if !ok {
				continue
			}
			out := inflow[j] * w
			outflow[i] += out
			contrib.Set(j, i, out)
		}
		stock[i] = inflow[i] - outflow[i]
		if i > 0 {
			stock[i] += stock[i-1]
		}
	}

	return &Result{
		Inflow:  append([]float64(nil), inflow...),
		Outflow: outflow,
		Stock:   stock,
		Contrib: contrib,
	}, nil
}
