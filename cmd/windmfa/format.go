package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ChicagoDave/windmfa/internal/store"
	"github.com/ChicagoDave/windmfa/pkg/impact"
	"github.com/ChicagoDave/windmfa/pkg/scenario"
	"github.com/ChicagoDave/windmfa/pkg/spec"
	"github.com/ChicagoDave/windmfa/pkg/validation"
)

var printer = message.NewPrinter(language.English)

func printValidationReport(w io.Writer, r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  [%s] %s\n", e.Level, e.Message)
			if e.Path != "" {
				fmt.Fprintf(w, "    -> %s = %v\n", e.Path, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Fprintf(w, "    expected: %s\n", e.Expected)
			}
			if e.ConflictWith != "" {
				fmt.Fprintf(w, "    conflicts with: %s\n", e.ConflictWith)
			}
			for _, s := range e.Suggestions {
				fmt.Fprintf(w, "    * %s\n", s)
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "WARNINGS (%d):\n", len(r.Warnings))
		for _, x := range r.Warnings {
			fmt.Fprintf(w, "  [%s] %s\n", x.Level, x.Message)
			if x.Path != "" {
				fmt.Fprintf(w, "    -> %s = %v\n", x.Path, x.ActualValue)
			}
			if x.Expected != "" {
				fmt.Fprintf(w, "    expected: %s\n", x.Expected)
			}
			for _, s := range x.Suggestions {
				fmt.Fprintf(w, "    * %s\n", s)
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.Info) > 0 {
		fmt.Fprintf(w, "INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Fprintf(w, "  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printCapacitySummary(w io.Writer, c *scenario.CapacityFlows) {
	title := fmt.Sprintf("Capacity flows (%s)", c.Key)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
	fmt.Fprintf(w, "%-10s %11s %14s %14s %14s %9s\n",
		"Fleet", "Years", "Inflow (MW)", "Outflow (MW)", "Final stock", "Neg. yrs")
	for _, f := range spec.Fleets {
		fl := c.Fleet(f)
		if fl.Len() == 0 {
			continue
		}
		var in, out float64
		for i := range fl.Years {
			in += fl.Inflow[i]
			out += fl.Outflow[i]
		}
		fmt.Fprintf(w, "%-10s %11s %14s %14s %14s %9d\n",
			f,
			fmt.Sprintf("%d-%d", fl.Years[0], fl.Years[fl.Len()-1]),
			printer.Sprintf("%.0f", in),
			printer.Sprintf("%.0f", out),
			printer.Sprintf("%.0f", fl.Stock[fl.Len()-1]),
			len(fl.NegativeInflowYears))
	}
}

func printDecades(w io.Writer, d *impact.Decades) {
	title := fmt.Sprintf("Environmental impact: %s, %s", d.Scope, d.Strategy)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))

	fmt.Fprintf(w, "%-11s", "Period")
	for _, k := range impact.Metrics {
		fmt.Fprintf(w, " %24s", fmt.Sprintf("%s (%s)", k, k.Unit()))
	}
	fmt.Fprintf(w, " %16s %14s\n", "Net energy (PJ)", "Net CO2 (Mt)")

	netE, netC := d.Net(true), d.Net(false)
	for i, label := range d.Labels {
		fmt.Fprintf(w, "%-11s", label)
		for _, k := range impact.Metrics {
			fmt.Fprintf(w, " %24s", printer.Sprintf("%.2f", d.Total[k][i]))
		}
		fmt.Fprintf(w, " %16s %14s\n", printer.Sprintf("%.2f", netE[i]), printer.Sprintf("%.2f", netC[i]))
	}
}

func printFiles(w io.Writer, dir string, files []string) {
	fmt.Fprintf(w, "Wrote %d files to %s\n", len(files), dir)
	for _, f := range files {
		fmt.Fprintf(w, "  %s\n", filepath.Join(dir, f))
	}
}

func printSnapshot(w io.Writer, snap *store.Snapshot) {
	title := fmt.Sprintf("Run %s (%s)", snap.Run.ID, snap.Run.Key)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
	fmt.Fprintf(w, "Archived %s\n\n", snap.Run.CreatedAt.Format(time.RFC3339))

	fmt.Fprintf(w, "%-10s %11s %14s\n", "Fleet", "Years", "Final stock")
	for _, f := range spec.Fleets {
		rows := snap.Capacity[f]
		if len(rows) == 0 {
			continue
		}
		last := rows[len(rows)-1]
		fmt.Fprintf(w, "%-10s %11s %14s\n", f,
			fmt.Sprintf("%d-%d", rows[0].Year, last.Year),
			printer.Sprintf("%.0f", last.Stock))
	}

	names := make([]string, 0, len(snap.Impact))
	for name := range snap.Impact {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s", "Strategy")
	for _, k := range impact.Metrics {
		fmt.Fprintf(w, " %24s", fmt.Sprintf("%s (%s)", k, k.Unit()))
	}
	fmt.Fprintln(w)
	for _, name := range names {
		var sum [impact.NumMetrics]float64
		for _, r := range snap.Impact[name] {
			for k := range sum {
				sum[k] += r.Values[k]
			}
		}
		fmt.Fprintf(w, "%-10s", name)
		for _, k := range impact.Metrics {
			fmt.Fprintf(w, " %24s", printer.Sprintf("%.2f", sum[k]))
		}
		fmt.Fprintln(w)
	}
}
