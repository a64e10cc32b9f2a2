package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/stat"

	sim "github.com/nucsim/nucsim/sim"
)

var voigtLabels = [6]string{"xx", "yy", "zz", "yz", "xz", "xy"}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

// WriteRunReport prints the run summary, the slip-system histogram and the
// plastic accumulators of one replica.
func WriteRunReport(w io.Writer, res *RunResult) {
	acc := res.State.Accumulators

	summary := newTable()
	summary.SetTitle("Nucleation Summary")
	summary.AppendRows([]table.Row{
		{"run id", res.Trace.RunID},
		{"seed", res.Seed},
		{"sites", res.Sites},
		{"nucleations", acc.Nucleations},
		{"boundary nucleations", res.Summary.BoundaryNucleations},
		{"unique sites", res.Summary.UniqueSites},
		{"network rings", res.Loops},
		{"plastic twist", fmt.Sprintf("%.6e", acc.PlasticTwist)},
		{"wall time", res.Duration.Round(time.Millisecond).String()},
	})
	if res.Summary.TotalSteps > 0 {
		summary.AppendRow(table.Row{"mean aggregate probability", fmt.Sprintf("%.4e", res.Summary.MeanTotalProbability)})
		summary.AppendRow(table.Row{"max aggregate probability", fmt.Sprintf("%.4e", res.Summary.MaxTotalProbability)})
	}
	fmt.Fprintln(w, summary.Render())

	slip := newTable()
	slip.SetTitle("Slip Systems")
	slip.AppendHeader(table.Row{"system", "loops"})
	for i := 0; i < sim.NumSlipSystems; i++ {
		slip.AppendRow(table.Row{i, acc.SlipSystemUsage[i]})
	}
	fmt.Fprintln(w, slip.Render())

	plastic := newTable()
	plastic.SetTitle("Plastic Accumulators")
	plastic.AppendHeader(table.Row{"component", "strain", "spin"})
	for k, label := range voigtLabels {
		plastic.AppendRow(table.Row{label, fmt.Sprintf("%.6e", acc.PlasticStrain[k]), fmt.Sprintf("%.6e", acc.PlasticSpin[k])})
	}
	fmt.Fprintln(w, plastic.Render())
}

// WriteSweepReport prints one row per replica, ordered by seed, with the
// mean nucleation count in the footer.
func WriteSweepReport(w io.Writer, results []*RunResult) {
	sorted := make([]*RunResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seed < sorted[j].Seed })

	t := newTable()
	t.SetTitle("Replica Sweep")
	t.AppendHeader(table.Row{"seed", "nucleations", "boundary", "unique sites", "strain zz", "plastic twist"})
	counts := make([]float64, len(sorted))
	for i, r := range sorted {
		acc := r.State.Accumulators
		counts[i] = float64(acc.Nucleations)
		t.AppendRow(table.Row{
			r.Seed,
			acc.Nucleations,
			r.Summary.BoundaryNucleations,
			r.Summary.UniqueSites,
			fmt.Sprintf("%.6e", acc.PlasticStrain[sim.ZZ]),
			fmt.Sprintf("%.6e", acc.PlasticTwist),
		})
	}
	if len(counts) > 0 {
		t.AppendFooter(table.Row{"mean", fmt.Sprintf("%.2f", stat.Mean(counts, nil)), "", "", "", ""})
	}
	fmt.Fprintln(w, t.Render())
}
