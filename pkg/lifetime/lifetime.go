// Package lifetime turns a turbine service-life assumption into a discrete
// annual failure-density curve.
package lifetime

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultShape is the Weibull shape used for every fleet regime
// (historical onshore, future onshore, future offshore). Only the scale
// differs between regimes, derived from the mean lifetime.
const DefaultShape = 4.07

// ErrInvalidParameter is returned for non-positive shape, mean or scale values.
var ErrInvalidParameter = errors.New("invalid lifetime parameter")

// Curve is a failure-density curve indexed by age in years. Curve[a] is the
// probability density that a unit installed at age 0 fails at age a.
type Curve []float64

// At returns the density at the given age. Ages outside the sampled support
// have zero density.
func (c Curve) At(age int) float64 {
	if age < 0 || age >= len(c) {
		return 0
	}
	return c[age]
}

// Len returns the number of sampled ages.
func (c Curve) Len() int { return len(c) }

// ScaleFromMean converts a mean lifetime into a Weibull scale parameter.
// mean = scale * Γ(1 + 1/shape).
func ScaleFromMean(mean, shape float64) (float64, error) {
	if shape <= 0 {
		return 0, fmt.Errorf("%w: shape must be > 0 (got %v)", ErrInvalidParameter, shape)
	}
	if mean <= 0 {
		return 0, fmt.Errorf("%w: mean lifetime must be > 0 (got %v)", ErrInvalidParameter, mean)
	}
	return mean / math.Gamma(1+1/shape), nil
}

// MeanFromScale is the inverse of ScaleFromMean.
func MeanFromScale(scale, shape float64) float64 {
	return scale * math.Gamma(1+1/shape)
}

// NewCurve samples the Weibull density at ages 0..length-1.
func NewCurve(shape, scale float64, length int) (Curve, error) {
	if shape <= 0 || scale <= 0 {
		return nil, fmt.Errorf("%w: shape=%v scale=%v", ErrInvalidParameter, shape, scale)
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: curve length must be >= 0 (got %d)", ErrInvalidParameter, length)
	}
	dist := distuv.Weibull{K: shape, Lambda: scale}
	curve := make(Curve, length)
	for age := range curve {
		if age == 0 {
			curve[age] = densityAtZero(shape, scale)
			continue
		}
		curve[age] = dist.Prob(float64(age))
	}
	return curve, nil
}

// FromMean is a convenience for NewCurve(shape, ScaleFromMean(mean, shape), length).
func FromMean(mean, shape float64, length int) (Curve, error) {
	scale, err := ScaleFromMean(mean, shape)
	if err != nil {
		return nil, err
	}
	return NewCurve(shape, scale, length)
}

// densityAtZero handles x = 0 explicitly: the log-density form used by distuv
// yields NaN for shape == 1 there.
func densityAtZero(shape, scale float64) float64 {
	switch {
	case shape < 1:
		return math.Inf(1)
	case shape == 1:
		return 1 / scale
	default:
		return 0
	}
}
