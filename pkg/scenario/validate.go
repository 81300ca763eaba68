package scenario

import (
	"fmt"
	"math"

	"github.com/ChicagoDave/windmfa/pkg/validation"
)

// stockTolerance is the relative stock mismatch reported as an error.
const stockTolerance = 1e-6

// ValidateFlows runs analytical checks over solved capacity flows.
func ValidateFlows(c *CapacityFlows) *validation.Report {
	report := validation.NewReport()
	for _, f := range []*FleetFlows{&c.Onshore, &c.Offshore} {
		validateNegativeInflow(f, report)
		validateNegativeStock(f, report)
		validateBalance(f, report)
	}
	return report
}

func validateNegativeInflow(f *FleetFlows, report *validation.Report) {
	for _, year := range f.NegativeInflowYears {
		i := indexOf(f.Years, year)
		var v float64
		if i >= 0 {
			v = f.Inflow[i]
		}
		report.AddWarning(validation.Result{
			Level:       validation.LevelAnalytical,
			Message:     fmt.Sprintf("%s: solved inflow in %d is negative (%.1f MW)", f.Fleet, year, v),
			Path:        fmt.Sprintf("capacity.%s", f.Fleet),
			Year:        year,
			ActualValue: v,
			Expected:    ">= 0 MW",
			ConflictWith: "retirements of earlier cohorts exceed the drop in target stock",
			Suggestions: []string{
				"Smooth the target stock path around this year",
				"Run with --negative-inflow clamp to floor inflow at zero",
			},
		})
	}
}

func validateNegativeStock(f *FleetFlows, report *validation.Report) {
	for i, s := range f.Stock {
		if s >= 0 {
			continue
		}
		report.AddWarning(validation.Result{
			Level:       validation.LevelAnalytical,
			Message:     fmt.Sprintf("%s: stock in %d is negative (%.1f MW)", f.Fleet, f.Years[i], s),
			Path:        fmt.Sprintf("capacity.%s", f.Fleet),
			Year:        f.Years[i],
			ActualValue: s,
			Expected:    ">= 0 MW",
		})
	}
}

// validateBalance checks stock[t] = stock[t-1] + inflow[t] - outflow[t].
func validateBalance(f *FleetFlows, report *validation.Report) {
	prev := 0.0
	for i := range f.Years {
		want := prev + f.Inflow[i] - f.Outflow[i]
		got := f.Stock[i]
		scale := math.Max(1, math.Abs(want))
		if math.Abs(got-want)/scale > stockTolerance {
			report.AddError(validation.Result{
				Level:       validation.LevelAnalytical,
				Message:     fmt.Sprintf("%s: stock balance broken in %d", f.Fleet, f.Years[i]),
				Path:        fmt.Sprintf("capacity.%s", f.Fleet),
				Year:        f.Years[i],
				ActualValue: got,
				Expected:    fmt.Sprintf("%.3f MW", want),
			})
		}
		prev = got
	}
}

func indexOf(years []int, year int) int {
	for i, y := range years {
		if y == year {
			return i
		}
	}
	return -1
}
