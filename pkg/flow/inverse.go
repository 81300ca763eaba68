package flow

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NegativeInflowPolicy decides what Inverse does when the target stock
// shrinks faster than attrition explains and the solved inflow is negative.
type NegativeInflowPolicy int

const (
	// Propagate keeps the negative inflow. The realised stock equals the
	// target exactly; a negative value represents net decommissioning
	// without replacement.
	Propagate NegativeInflowPolicy = iota
	// ClampToZero forces the inflow to zero. The realised stock then stays
	// above the target and later years solve against the realised stock.
	ClampToZero
)

// String returns the config name of the policy.
func (p NegativeInflowPolicy) String() string {
	switch p {
	case Propagate:
		return "propagate"
	case ClampToZero:
		return "clamp"
	}
	return fmt.Sprintf("NegativeInflowPolicy(%d)", int(p))
}

// ParsePolicy parses "propagate" or "clamp".
func ParsePolicy(s string) (NegativeInflowPolicy, error) {
	switch s {
	case "", "propagate":
		return Propagate, nil
	case "clamp", "clamp-to-zero":
		return ClampToZero, nil
	}
	return Propagate, fmt.Errorf("unknown negative inflow policy %q (want propagate or clamp)", s)
}

// InverseOptions configures Inverse.
type InverseOptions struct {
	NegativeInflow NegativeInflowPolicy
}

// Inverse solves the inflow implied by a target stock trajectory.
//
// Each year's outflow comes from cohorts that are already fixed: every
// historical cohort, plus future cohorts solved in earlier iterations. The
// inflow then follows in closed form from the stock balance
//
//	inflow[i] = target[i] - stock[i-1] + outflow[i]
//
// where stock[-1] is the last historical stock (0 without history).
// A nil hist means no prior cohorts.
func Inverse(target []float64, hist *History, curve []float64, opts InverseOptions) (*Result, error) {
	m := len(target)
	if m == 0 {
		return nil, fmt.Errorf("inverse recurrence: %w", ErrEmptySeries)
	}
	h := hist.Len()
	if h > 0 && len(hist.Curve) == 0 {
		return nil, fmt.Errorf("inverse recurrence: %d historical cohorts without a survival curve: %w", h, ErrShapeMismatch)
	}

	inflow := make([]float64, m)
	outflow := make([]float64, m)
	stock := make([]float64, m)
	contrib := mat.NewDense(h+m, m, nil)
	var negative []int

	prev := hist.lastStock()
	for i := 0; i < m; i++ {
		pre := 0.0
		for j := 0; j < h; j++ {
			w, ok := curveAt(hist.Curve, i+h-j)
			if !ok {
				continue
			}
			out := hist.Inflow[j] * w
			pre += out
			contrib.Set(j, i, out)
		}
		for j := 0; j < i; j++ {
			w, ok := curveAt(curve, i-j)
			if !ok {
				continue
			}
			out := inflow[j] * w
			pre += out
			contrib.Set(j+h, i, out)
		}

		inflow[i] = solveInflow(prev, target[i], pre)
		if inflow[i] < 0 {
			negative = append(negative, i)
			if opts.NegativeInflow == ClampToZero {
				inflow[i] = 0
			}
		}
		outflow[i] = pre
		stock[i] = prev + inflow[i] - pre
		if opts.NegativeInflow == Propagate {
			// Keep the target bit-for-bit; the balance above only differs by rounding.
			stock[i] = target[i]
		}
		prev = stock[i]
	}

	return &Result{
		Inflow:         inflow,
		Outflow:        outflow,
		Stock:          stock,
		Contrib:        contrib,
		NegativeInflow: negative,
	}, nil
}

// solveInflow is the stock balance solved for inflow.
func solveInflow(stockPrev, stockCurr, outflow float64) float64 {
	return stockCurr - stockPrev + outflow
}
