// Package series holds annual time series of capacities or masses.
package series

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
)

var (
	// ErrInvalidSeries is returned when years and values disagree or years
	// are not strictly increasing.
	ErrInvalidSeries = errors.New("invalid series")
	// ErrNotAnnual is returned when a series has gaps between years.
	ErrNotAnnual = errors.New("series is not annual")
)

// Series is an ordered sequence of (year, value) pairs.
type Series struct {
	Years  []int     `json:"years"`
	Values []float64 `json:"values"`
}

// New builds a series, copying the inputs, and validates it.
func New(years []int, values []float64) (Series, error) {
	s := Series{
		Years:  append([]int(nil), years...),
		Values: append([]float64(nil), values...),
	}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Years) }

// Validate checks that years and values line up and years strictly increase.
func (s Series) Validate() error {
	if len(s.Years) != len(s.Values) {
		return fmt.Errorf("%w: %d years but %d values", ErrInvalidSeries, len(s.Years), len(s.Values))
	}
	for i := 1; i < len(s.Years); i++ {
		if s.Years[i] <= s.Years[i-1] {
			return fmt.Errorf("%w: year %d does not follow %d", ErrInvalidSeries, s.Years[i], s.Years[i-1])
		}
	}
	return nil
}

// IsAnnual reports whether consecutive years differ by exactly one.
func (s Series) IsAnnual() bool {
	for i := 1; i < len(s.Years); i++ {
		if s.Years[i]-s.Years[i-1] != 1 {
			return false
		}
	}
	return true
}

// First returns the first year, or 0 for an empty series.
func (s Series) First() int {
	if len(s.Years) == 0 {
		return 0
	}
	return s.Years[0]
}

// Last returns the last year, or 0 for an empty series.
func (s Series) Last() int {
	if len(s.Years) == 0 {
		return 0
	}
	return s.Years[len(s.Years)-1]
}

// Index returns the position of year, or -1 if absent.
func (s Series) Index(year int) int {
	for i, y := range s.Years {
		if y == year {
			return i
		}
	}
	return -1
}

// Annualize interpolates the series onto every year in [first, last].
// Years before the first point or after the last take the nearest end value.
func (s Series) Annualize(first, last int) (Series, error) {
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	if len(s.Years) == 0 {
		return Series{}, fmt.Errorf("%w: cannot interpolate an empty series", ErrInvalidSeries)
	}
	if last < first {
		return Series{}, fmt.Errorf("%w: range %d-%d is empty", ErrInvalidSeries, first, last)
	}

	years := Range(first, last)
	values := make([]float64, len(years))

	if len(s.Years) == 1 {
		for i := range values {
			values[i] = s.Values[0]
		}
		return Series{Years: years, Values: values}, nil
	}

	xs := make([]float64, len(s.Years))
	for i, y := range s.Years {
		xs[i] = float64(y)
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, s.Values); err != nil {
		return Series{}, fmt.Errorf("fitting interpolant: %w", err)
	}
	for i, y := range years {
		values[i] = predictClamped(&pl, xs, s.Values, float64(y))
	}
	return Series{Years: years, Values: values}, nil
}

// RequireAnnual returns ErrNotAnnual if the series has gaps.
func (s Series) RequireAnnual() error {
	if !s.IsAnnual() {
		return fmt.Errorf("%w: %d-%d has %d points", ErrNotAnnual, s.First(), s.Last(), s.Len())
	}
	return nil
}

// Concat appends other after s. other must start after s ends.
func Concat(s, other Series) (Series, error) {
	if s.Len() > 0 && other.Len() > 0 && other.First() <= s.Last() {
		return Series{}, fmt.Errorf("%w: %d overlaps %d", ErrInvalidSeries, other.First(), s.Last())
	}
	return Series{
		Years:  append(append([]int(nil), s.Years...), other.Years...),
		Values: append(append([]float64(nil), s.Values...), other.Values...),
	}, nil
}

// Range returns the years first..last inclusive.
func Range(first, last int) []int {
	if last < first {
		return nil
	}
	years := make([]int, last-first+1)
	for i := range years {
		years[i] = first + i
	}
	return years
}

func predictClamped(pl *interp.PiecewiseLinear, xs, ys []float64, x float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[len(xs)-1] {
		return ys[len(ys)-1]
	}
	return pl.Predict(x)
}
