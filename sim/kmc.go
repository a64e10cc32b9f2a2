package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// KMCSelector performs the single-draw lottery over the cumulative
// distribution. Its stream persists across steps and advances once per Draw.
type KMCSelector struct {
	rng *rand.Rand
}

// NewKMCSelector creates a selector drawing from rng.
func NewKMCSelector(rng *rand.Rand) *KMCSelector {
	return &KMCSelector{rng: rng}
}

// SelectSite returns the site flagged by draw u, or -1.
//
// Site i+1 is chosen when cum[i] < u < cum[i+1]. The interval below cum[0]
// has no owner, so site 0 is never selected, and a draw landing exactly on a
// boundary selects nothing.
func SelectSite(cum []float64, u float64) int {
	for i := 0; i+1 < len(cum); i++ {
		if u > cum[i] && u < cum[i+1] {
			return i + 1
		}
	}
	return -1
}

// Draw clears all flags, draws u ∈ [0,1) and flags at most one site.
// It returns the draw and the flagged index (-1 for none).
func (k *KMCSelector) Draw(sites *SiteSet) (float64, int) {
	u := k.rng.Float64()
	cum := make([]float64, sites.Len())
	for i := range sites.Sites {
		sites.Sites[i].Flagged = false
		cum[i] = sites.Sites[i].Cumulative
	}
	idx := SelectSite(cum, u)
	if idx >= 0 {
		sites.Sites[idx].Flagged = true
	}
	logrus.Debugf("kmc draw u=%.6f flagged=%d", u, idx)
	return u, idx
}
