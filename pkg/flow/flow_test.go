package flow

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func approxEqual(a, b, tol float64) bool {
	if math.Abs(a-b) <= tol {
		return true
	}
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}

func assertSlice(t *testing.T, name string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if !approxEqual(got[i], want[i], tol) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

// testCurve is a Weibull-like density with long enough support for the tests.
var testCurve = []float64{0, 0.02, 0.05, 0.1, 0.15, 0.2, 0.18, 0.12, 0.08, 0.05, 0.03, 0.02}

func TestForwardSingleCohort(t *testing.T) {
	res, err := Forward([]float64{100, 0, 0, 0, 0}, []float64{0, 0.5, 0.3, 0.2, 0})
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	assertSlice(t, "outflow", res.Outflow, []float64{0, 50, 30, 20, 0}, 1e-9)
	assertSlice(t, "stock", res.Stock, []float64{100, 50, 20, 0, 0}, 1e-9)

	if got := res.Contrib.At(0, 2); !approxEqual(got, 30, 1e-9) {
		t.Errorf("contrib[0][2] = %v, want 30", got)
	}
}

func TestForwardRetireAtAgeOne(t *testing.T) {
	inflow := []float64{10, 25, 5, 40, 0, 7}
	res, err := Forward(inflow, []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	assertSlice(t, "stock", res.Stock, inflow, 1e-12)
}

func TestForwardAgeBeyondSupportContributesNothing(t *testing.T) {
	res, err := Forward([]float64{100, 0, 0, 0, 0, 0}, []float64{0, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	assertSlice(t, "outflow", res.Outflow, []float64{0, 50, 0, 0, 0, 0}, 1e-12)
	assertSlice(t, "stock", res.Stock, []float64{100, 50, 50, 50, 50, 50}, 1e-12)
}

func TestForwardNoLookAhead(t *testing.T) {
	base := []float64{30, 12, 50, 8, 22, 41, 3, 19}
	ref, err := Forward(base, testCurve)
	if err != nil {
		t.Fatal(err)
	}
	for k := range base {
		perturbed := append([]float64(nil), base...)
		perturbed[k] += 1000
		res, err := Forward(perturbed, testCurve)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i <= k; i++ {
			if res.Outflow[i] != ref.Outflow[i] {
				t.Errorf("changing inflow[%d] changed outflow[%d]: %v -> %v", k, i, ref.Outflow[i], res.Outflow[i])
			}
		}
	}
}

func TestForwardOutflowIgnoresAgeZero(t *testing.T) {
	curve := append([]float64(nil), testCurve...)
	curve[0] = 0.9
	a, _ := Forward([]float64{5, 10, 15}, testCurve)
	b, _ := Forward([]float64{5, 10, 15}, curve)
	assertSlice(t, "outflow", b.Outflow, a.Outflow, 0)
}

func TestForwardContributionUpperTriangular(t *testing.T) {
	res, err := Forward([]float64{30, 12, 50, 8, 22}, testCurve)
	if err != nil {
		t.Fatal(err)
	}
	n, _ := res.Contrib.Dims()
	for j := 0; j < n; j++ {
		for i := 0; i <= j; i++ {
			if res.Contrib.At(j, i) != 0 {
				t.Errorf("contrib[%d][%d] = %v, want 0", j, i, res.Contrib.At(j, i))
			}
		}
	}
}

func TestForwardEmpty(t *testing.T) {
	if _, err := Forward(nil, testCurve); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("error = %v, want ErrEmptySeries", err)
	}
}

func TestConservation(t *testing.T) {
	inflow := []float64{30, 12, 50, 8, 22, 41, 3, 19, 60, 5, 0, 14, 9, 27, 33}
	res, err := Forward(inflow, testCurve)
	if err != nil {
		t.Fatal(err)
	}
	for j, in := range inflow {
		total := mat.Sum(res.Contrib.RowView(j))
		if total > in*(1+1e-12) {
			t.Errorf("cohort %d retired %v > inflow %v", j, total, in)
		}
	}
}

func TestInverseNoHistory(t *testing.T) {
	res, err := Inverse([]float64{100, 90}, nil, []float64{0, 0.1}, InverseOptions{})
	if err != nil {
		t.Fatalf("Inverse failed: %v", err)
	}
	assertSlice(t, "inflow", res.Inflow, []float64{100, 0}, 1e-9)
	assertSlice(t, "outflow", res.Outflow, []float64{0, 10}, 1e-9)
	if len(res.NegativeInflow) != 0 {
		t.Errorf("negative inflow years = %v, want none", res.NegativeInflow)
	}
}

func TestRoundTripWithoutHistory(t *testing.T) {
	inflow := []float64{30, 12, 50, 8, 22, 41, 3, 19, 60, 5, 0, 14}
	fwd, err := Forward(inflow, testCurve)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := Inverse(fwd.Stock, nil, testCurve, InverseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assertSlice(t, "inflow", inv.Inflow, inflow, 1e-9)
	assertSlice(t, "outflow", inv.Outflow, fwd.Outflow, 1e-9)
	if !mat.EqualApprox(inv.Contrib, fwd.Contrib, 1e-9) {
		t.Error("inverse contribution matrix differs from forward")
	}
}

func TestRoundTripWithHistory(t *testing.T) {
	inflow := []float64{30, 12, 50, 8, 22, 41, 3, 19, 60, 5, 0, 14, 9, 27}
	fwd, err := Forward(inflow, testCurve)
	if err != nil {
		t.Fatal(err)
	}

	const h = 6
	hist, err := Forward(inflow[:h], testCurve)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := Inverse(fwd.Stock[h:], &History{
		Inflow: inflow[:h],
		Stock:  hist.Stock,
		Curve:  testCurve,
	}, testCurve, InverseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assertSlice(t, "inflow", inv.Inflow, inflow[h:], 1e-9)
	assertSlice(t, "outflow", inv.Outflow, fwd.Outflow[h:], 1e-9)

	rows, cols := inv.Contrib.Dims()
	if rows != len(inflow) || cols != len(inflow)-h {
		t.Fatalf("contrib dims = %dx%d, want %dx%d", rows, cols, len(inflow), len(inflow)-h)
	}

	combined, err := Stitch(hist.Contrib, inv.Contrib)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(combined, fwd.Contrib, 1e-9) {
		t.Error("stitched contribution matrix differs from a single forward pass")
	}
}

func TestInverseNegativeInflowPropagates(t *testing.T) {
	res, err := Inverse([]float64{100, 40}, nil, []float64{0, 0.1}, InverseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assertSlice(t, "inflow", res.Inflow, []float64{100, -50}, 1e-9)
	assertSlice(t, "stock", res.Stock, []float64{100, 40}, 0)
	if len(res.NegativeInflow) != 1 || res.NegativeInflow[0] != 1 {
		t.Errorf("negative inflow years = %v, want [1]", res.NegativeInflow)
	}
}

func TestInverseNegativeInflowClamped(t *testing.T) {
	res, err := Inverse([]float64{100, 40, 60}, nil, []float64{0, 0.1}, InverseOptions{NegativeInflow: ClampToZero})
	if err != nil {
		t.Fatal(err)
	}
	// Year 1: 40-100+10 = -50 -> 0, realised stock 90.
	// Year 2: outflow 100*0 + 0*0.1 = 0; inflow = 60-90+0 = -30 -> 0, stock 90.
	assertSlice(t, "inflow", res.Inflow, []float64{100, 0, 0}, 1e-9)
	assertSlice(t, "stock", res.Stock, []float64{100, 90, 90}, 1e-9)
	if len(res.NegativeInflow) != 2 {
		t.Errorf("negative inflow years = %v, want [1 2]", res.NegativeInflow)
	}
}

func TestInverseHistoryWithoutCurve(t *testing.T) {
	_, err := Inverse([]float64{1}, &History{Inflow: []float64{1}, Stock: []float64{1}}, testCurve, InverseOptions{})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("error = %v, want ErrShapeMismatch", err)
	}
}

func TestInverseStockOnlyHistory(t *testing.T) {
	res, err := Inverse([]float64{50, 80}, &History{Stock: []float64{20}}, []float64{0, 0.1}, InverseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assertSlice(t, "inflow", res.Inflow, []float64{30, 33}, 1e-9)
}

func TestStockContributionsFinalYear(t *testing.T) {
	inflow := []float64{30, 12, 50, 8, 22, 41}
	res, err := Forward(inflow, testCurve)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := StockContributions(res.Contrib, inflow)
	if err != nil {
		t.Fatal(err)
	}
	n := len(inflow)
	standing := 0.0
	for j, in := range inflow {
		retired := mat.Sum(res.Contrib.RowView(j))
		if got := sc.At(j, n-1); !approxEqual(got, in-retired, 1e-12) {
			t.Errorf("cohort %d final stock = %v, want %v", j, got, in-retired)
		}
		standing += sc.At(j, n-1)
	}
	if !approxEqual(standing, res.Stock[n-1], 1e-9) {
		t.Errorf("sum of standing cohorts = %v, want stock %v", standing, res.Stock[n-1])
	}
}

func TestStockContributionsShapeMismatch(t *testing.T) {
	if _, err := StockContributions(mat.NewDense(2, 2, nil), []float64{1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("error = %v, want ErrShapeMismatch", err)
	}
}

func TestRetirementRatios(t *testing.T) {
	res, _ := Forward([]float64{100, 0, 0}, []float64{0, 0.5, 0.5})
	r, err := RetirementRatios(res.Contrib, res.Inflow)
	if err != nil {
		t.Fatal(err)
	}
	if !approxEqual(r.At(0, 1), 0.5, 1e-12) || !approxEqual(r.At(0, 2), 0.5, 1e-12) {
		t.Errorf("ratios row 0 = %v", mat.Formatted(r.RowView(0).T()))
	}
	if r.At(1, 2) != 0 {
		t.Errorf("empty cohort ratio = %v, want 0", r.At(1, 2))
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]NegativeInflowPolicy{"": Propagate, "propagate": Propagate, "clamp": ClampToZero} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParsePolicy("ignore"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
