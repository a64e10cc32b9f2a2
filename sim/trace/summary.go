package trace

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalSteps           int
	TotalNucleations     int
	BoundaryNucleations  int
	UniqueSites          int
	MeanTotalProbability float64
	MaxTotalProbability  float64
	SlipDistribution     map[int]int // slip system index → loops nucleated
	SiteDistribution     map[int]int // site ID → loops nucleated
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		SlipDistribution: make(map[int]int),
		SiteDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalSteps = len(st.Steps)
	if len(st.Steps) > 0 {
		totals := make([]float64, len(st.Steps))
		for i, s := range st.Steps {
			totals[i] = s.TotalProbability
		}
		summary.MeanTotalProbability = stat.Mean(totals, nil)
		summary.MaxTotalProbability = floats.Max(totals)
	}

	summary.TotalNucleations = len(st.Nucleations)
	for _, n := range st.Nucleations {
		if n.OnBoundary {
			summary.BoundaryNucleations++
		}
		summary.SlipDistribution[n.SlipSystem]++
		summary.SiteDistribution[n.SiteID]++
	}
	summary.UniqueSites = len(summary.SiteDistribution)

	return summary
}
