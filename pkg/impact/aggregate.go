package impact

import (
	"fmt"

	"github.com/ChicagoDave/windmfa/pkg/spec"
)

// Bin edges for decade tables. Years before the second edge fall in the
// first bin and years from the last-but-one edge on fall in the last.
var (
	FleetDecades = []int{2020, 2030, 2040, 2050}
	TotalDecades = []int{1993, 2000, 2010, 2020, 2030, 2040, 2050}
)

// Aggregate sums values into len(edges)-1 bins.
func Aggregate(values []float64, years []int, edges []int) []float64 {
	bins := len(edges) - 1
	if bins < 1 {
		return nil
	}
	out := make([]float64, bins)
	for i, y := range years {
		b := 0
		for b < bins-1 && y >= edges[b+1] {
			b++
		}
		out[b] += values[i]
	}
	return out
}

// BinLabels names the bins of edges, e.g. "2020-2030".
func BinLabels(edges []int) []string {
	var out []string
	for i := 0; i+1 < len(edges); i++ {
		out = append(out, fmt.Sprintf("%d-%d", edges[i], edges[i+1]))
	}
	return out
}

// Decades is an Impact summed into bins.
type Decades struct {
	Strategy string                `json:"strategy"`
	Scope    string                `json:"scope"`
	Labels   []string              `json:"labels"`
	Total    Values                `json:"total"`
	ByGroup  map[spec.Group]Values `json:"by_group"`
}

// Aggregate bins every series of im.
func (im *Impact) Aggregate(edges []int) *Decades {
	d := &Decades{
		Strategy: im.Strategy,
		Scope:    im.Scope,
		Labels:   BinLabels(edges),
		ByGroup:  make(map[spec.Group]Values, len(im.ByGroup)),
	}
	for k := range im.Total {
		d.Total[k] = Aggregate(im.Total[k], im.Years, edges)
	}
	for g, v := range im.ByGroup {
		var agg Values
		for k := range v {
			agg[k] = Aggregate(v[k], im.Years, edges)
		}
		d.ByGroup[g] = agg
	}
	return d
}

// Net returns binned consumption minus savings.
func (d *Decades) Net(energy bool) []float64 { return net(d.Total, energy) }
