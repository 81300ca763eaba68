// Package export writes pipeline results as CSV tables with fixed-precision
// numbers so repeated runs produce identical files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"

	"github.com/ChicagoDave/windmfa/pkg/impact"
	"github.com/ChicagoDave/windmfa/pkg/material"
	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// DefaultPrecision is the number of decimal places written.
const DefaultPrecision = 6

// tonnesPerMt converts material tables from t to Mt.
const tonnesPerMt = 1e6

// formatter renders floats at a fixed precision.
type formatter struct{ places int32 }

func (f formatter) format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(f.places)
}

func (f formatter) row(year int, values ...float64) []string {
	out := make([]string, 0, len(values)+1)
	out = append(out, strconv.Itoa(year))
	for _, v := range values {
		out = append(out, f.format(v))
	}
	return out
}

func writeRecords(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteCapacity writes Year, Inflow, Stock and Outflow in MW.
func WriteCapacity(w io.Writer, f *scenario.FleetFlows, places int32) error {
	fm := formatter{places}
	rows := make([][]string, 0, f.Len())
	for i, year := range f.Years {
		rows = append(rows, fm.row(year, f.Inflow[i], f.Stock[i], f.Outflow[i]))
	}
	return writeRecords(w, []string{"Year", "Inflow (MW)", "Stock (MW)", "Outflow (MW)"}, rows)
}

// WriteMaterials writes a material table in Mt, one column per material.
func WriteMaterials(w io.Writer, t *material.Table, places int32) error {
	fm := formatter{places}
	header := []string{"Year"}
	for _, m := range spec.Materials() {
		header = append(header, m.String())
	}
	rows := make([][]string, 0, t.Len())
	for i, year := range t.Years {
		vals := mat.Row(nil, i, t.Mass)
		for k := range vals {
			vals[k] /= tonnesPerMt
		}
		rows = append(rows, fm.row(year, vals...))
	}
	return writeRecords(w, header, rows)
}

// WriteRoutes writes a years × routes matrix in Mt. Negative cells are
// written as zero.
func WriteRoutes(w io.Writer, years []int, routes []string, m *mat.Dense, places int32) error {
	fm := formatter{places}
	header := append([]string{"Year"}, routes...)
	rows := make([][]string, 0, len(years))
	for i, year := range years {
		vals := mat.Row(nil, i, m)
		for k, v := range vals {
			vals[k] = math.Max(v, 0) / tonnesPerMt
		}
		rows = append(rows, fm.row(year, vals...))
	}
	return writeRecords(w, header, rows)
}

// WriteImpact writes yearly totals followed by per-group columns named
// "<group>_<metric>".
func WriteImpact(w io.Writer, im *impact.Impact, places int32) error {
	fm := formatter{places}
	header := []string{"Year"}
	for _, k := range impact.Metrics {
		header = append(header, k.String())
	}
	groups := im.Groups()
	for _, g := range groups {
		for _, k := range impact.Metrics {
			header = append(header, fmt.Sprintf("%s_%s", g, k))
		}
	}
	rows := make([][]string, 0, len(im.Years))
	for i, year := range im.Years {
		vals := make([]float64, 0, len(header)-1)
		for _, k := range impact.Metrics {
			vals = append(vals, im.Total[k][i])
		}
		for _, g := range groups {
			v := im.ByGroup[g]
			for _, k := range impact.Metrics {
				vals = append(vals, v[k][i])
			}
		}
		rows = append(rows, fm.row(year, vals...))
	}
	return writeRecords(w, header, rows)
}

// WriteDecades writes binned totals and net values, one row per bin.
func WriteDecades(w io.Writer, d *impact.Decades, places int32) error {
	fm := formatter{places}
	header := []string{"Period"}
	for _, k := range impact.Metrics {
		header = append(header, fmt.Sprintf("%s (%s)", k, k.Unit()))
	}
	header = append(header, "Net energy (PJ)", "Net CO2 (Mt)")
	netE, netC := d.Net(true), d.Net(false)
	rows := make([][]string, 0, len(d.Labels))
	for i, label := range d.Labels {
		row := []string{label}
		for _, k := range impact.Metrics {
			row = append(row, fm.format(d.Total[k][i]))
		}
		row = append(row, fm.format(netE[i]), fm.format(netC[i]))
		rows = append(rows, row)
	}
	return writeRecords(w, header, rows)
}

// writeFile creates path and its directory and fills it with fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
