package material

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ChicagoDave/windmfa/pkg/flow"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// Table holds material mass by year: one row per year, one column per
// spec.Material, in tonnes unless scaled.
type Table struct {
	Years []int
	Mass  *mat.Dense
}

// NewTable returns a zero table for years.
func NewTable(years []int) (*Table, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("material table: %w", flow.ErrEmptySeries)
	}
	return &Table{
		Years: append([]int(nil), years...),
		Mass:  mat.NewDense(len(years), int(spec.NumMaterials), nil),
	}, nil
}

// Len returns the number of years.
func (t *Table) Len() int { return len(t.Years) }

// Index returns the row of year, or -1.
func (t *Table) Index(year int) int {
	for i, y := range t.Years {
		if y == year {
			return i
		}
	}
	return -1
}

// At returns the mass of m in year, or 0 when the year is absent.
func (t *Table) At(year int, m spec.Material) float64 {
	i := t.Index(year)
	if i < 0 {
		return 0
	}
	return t.Mass.At(i, int(m))
}

// Column returns the series of m across all years.
func (t *Table) Column(m spec.Material) []float64 {
	return mat.Col(nil, int(m), t.Mass)
}

// RowTotal sums all materials in row i.
func (t *Table) RowTotal(i int) float64 {
	return mat.Sum(t.Mass.RowView(i))
}

// Sum adds two tables over the same years.
func Sum(a, b *Table) (*Table, error) {
	if !sameYears(a.Years, b.Years) {
		return nil, fmt.Errorf("adding material tables %d..%d and %d..%d: %w",
			a.Years[0], a.Years[a.Len()-1], b.Years[0], b.Years[b.Len()-1], flow.ErrShapeMismatch)
	}
	out := &Table{Years: append([]int(nil), a.Years...), Mass: mat.NewDense(a.Len(), int(spec.NumMaterials), nil)}
	out.Mass.Add(a.Mass, b.Mass)
	return out, nil
}

// Concat stacks b below a. b must start after a ends.
func Concat(a, b *Table) (*Table, error) {
	if a.Years[a.Len()-1] >= b.Years[0] {
		return nil, fmt.Errorf("concatenating material tables: %d does not follow %d: %w",
			b.Years[0], a.Years[a.Len()-1], flow.ErrShapeMismatch)
	}
	out := &Table{
		Years: append(append([]int(nil), a.Years...), b.Years...),
		Mass:  mat.NewDense(a.Len()+b.Len(), int(spec.NumMaterials), nil),
	}
	out.Mass.Stack(a.Mass, b.Mass)
	return out, nil
}

func sameYears(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
