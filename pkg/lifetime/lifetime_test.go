package lifetime

import (
	"errors"
	"math"
	"testing"
)

func TestScaleFromMeanRoundTrip(t *testing.T) {
	for _, mean := range []float64{15, 20, 25, 30.5} {
		scale, err := ScaleFromMean(mean, DefaultShape)
		if err != nil {
			t.Fatalf("ScaleFromMean(%v) failed: %v", mean, err)
		}
		got := MeanFromScale(scale, DefaultShape)
		if math.Abs(got-mean) > 1e-9 {
			t.Errorf("mean round trip = %v, want %v", got, mean)
		}
	}
}

func TestScaleFromMeanRejectsNonPositive(t *testing.T) {
	cases := []struct {
		mean, shape float64
	}{
		{20, 0},
		{20, -1},
		{0, 4.07},
		{-5, 4.07},
	}
	for _, c := range cases {
		if _, err := ScaleFromMean(c.mean, c.shape); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("ScaleFromMean(%v, %v) error = %v, want ErrInvalidParameter", c.mean, c.shape, err)
		}
	}
}

func TestNewCurveMatchesWeibullDensity(t *testing.T) {
	shape, scale := DefaultShape, 22.0
	curve, err := NewCurve(shape, scale, 40)
	if err != nil {
		t.Fatalf("NewCurve failed: %v", err)
	}
	if curve.Len() != 40 {
		t.Fatalf("len = %d, want 40", curve.Len())
	}
	if curve[0] != 0 {
		t.Errorf("density at age 0 = %v, want 0", curve[0])
	}
	for age := 1; age < 40; age++ {
		x := float64(age)
		want := shape / scale * math.Pow(x/scale, shape-1) * math.Exp(-math.Pow(x/scale, shape))
		if math.Abs(curve[age]-want) > 1e-12 {
			t.Errorf("density at age %d = %v, want %v", age, curve[age], want)
		}
	}
}

func TestCurveSumsToAboutOneOverLongHorizon(t *testing.T) {
	curve, err := FromMean(20, DefaultShape, 80)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, v := range curve {
		sum += v
	}
	if math.Abs(sum-1) > 0.01 {
		t.Errorf("curve mass = %v, want ~1", sum)
	}
}

func TestCurveAtOutsideSupport(t *testing.T) {
	c := Curve{0, 0.5, 0.5}
	if c.At(-1) != 0 || c.At(3) != 0 || c.At(10) != 0 {
		t.Error("At outside support should be 0")
	}
	if c.At(1) != 0.5 {
		t.Errorf("At(1) = %v, want 0.5", c.At(1))
	}
}

func TestDensityAtZeroForExponential(t *testing.T) {
	curve, err := NewCurve(1, 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(curve[0]-0.1) > 1e-12 {
		t.Errorf("exponential density at 0 = %v, want 0.1", curve[0])
	}
}
