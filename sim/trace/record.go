// Package trace provides nucleation-event recording for post-run analysis.
// It stores pure data types and has no dependency on package sim.
package trace

// NucleationRecord captures one inserted dislocation loop.
type NucleationRecord struct {
	Step         int64
	SiteID       int
	OnBoundary   bool
	Center       [3]float64
	Burgers      [3]float64
	Normal       [3]float64
	SlipSystem   int
	NumNodes     int
	SweptArea    float64
	EffectiveRSS float64 // resolved shear stress × site SCF, Pa
}

// SiteSnapshot captures a site's per-step state.
type SiteSnapshot struct {
	SiteID      int
	SCF         float64
	Probability float64
	Cumulative  float64
	Flagged     bool
	Count       int
}

// StepRecord captures a single KMC step.
type StepRecord struct {
	Step             int64
	Draw             float64
	TotalProbability float64 // pre-normalization aggregate probability
	FlaggedSite      int     // -1 when no site was flagged
	Sites            []SiteSnapshot
}
