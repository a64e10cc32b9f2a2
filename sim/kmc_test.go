package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSite(t *testing.T) {
	cum := []float64{0.25, 0.5, 0.75, 1.0}
	tests := []struct {
		name string
		u    float64
		want int
	}{
		{"below first boundary selects nothing (site 0 unreachable)", 0.1, -1},
		{"zero draw", 0, -1},
		{"first interval selects site 1", 0.3, 1},
		{"second interval selects site 2", 0.6, 2},
		{"last interval selects site 3", 0.99, 3},
		{"draw on boundary R[0] selects nothing", 0.25, -1},
		{"draw on boundary R[1] selects nothing", 0.5, -1},
		{"draw on boundary R[2] selects nothing", 0.75, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectSite(cum, tt.u))
		})
	}
}

func TestSelectSite_FlatSegmentSelectsNothing(t *testing.T) {
	// Equal neighbors leave an empty open interval.
	cum := []float64{0.2, 0.4, 0.4, 0.9}
	assert.Equal(t, -1, SelectSite(cum, 0.4))
	assert.Equal(t, 3, SelectSite(cum, 0.5))
}

func TestSelectSite_DegenerateArrays(t *testing.T) {
	assert.Equal(t, -1, SelectSite(nil, 0.5))
	assert.Equal(t, -1, SelectSite([]float64{1.0}, 0.5))
}

func newUniformSites(n int) *SiteSet {
	set := &SiteSet{Sites: make([]NucleationSite, n), SurfaceCount: n}
	for i := range set.Sites {
		set.Sites[i].ID = i
		set.Sites[i].Cumulative = float64(i+1) / float64(n)
	}
	return set
}

func TestKMCSelector_Draw_AtMostOneFlagAndNeverSiteZero(t *testing.T) {
	set := newUniformSites(10)
	kmc := NewKMCSelector(rand.New(rand.NewSource(testSeed)))

	hits := 0
	for step := 0; step < 2000; step++ {
		_, idx := kmc.Draw(set)
		flagged := 0
		for i, s := range set.Sites {
			if s.Flagged {
				flagged++
				assert.Equal(t, idx, i)
			}
		}
		require.LessOrEqual(t, flagged, 1, "step %d", step)
		require.False(t, set.Sites[0].Flagged, "site 0 flagged at step %d", step)
		if idx >= 0 {
			hits++
		}
	}
	// Draws below R[0] = 0.1 select nothing; the rest select a site.
	assert.Greater(t, hits, 1500)
}

func TestKMCSelector_Draw_ClearsPreviousFlags(t *testing.T) {
	set := newUniformSites(5)
	for i := range set.Sites {
		set.Sites[i].Flagged = true
	}
	// Nothing is selectable once every cumulative value is zero.
	for i := range set.Sites {
		set.Sites[i].Cumulative = 0
	}

	_, idx := NewKMCSelector(rand.New(rand.NewSource(1))).Draw(set)

	assert.Equal(t, -1, idx)
	for _, s := range set.Sites {
		assert.False(t, s.Flagged)
	}
}

func TestKMCSelector_Draw_DeterministicAndOneDrawPerStep(t *testing.T) {
	a := NewKMCSelector(rand.New(rand.NewSource(testSeed)))
	b := NewKMCSelector(rand.New(rand.NewSource(testSeed)))
	ref := rand.New(rand.NewSource(testSeed))
	setA, setB := newUniformSites(8), newUniformSites(8)

	for step := 0; step < 50; step++ {
		ua, ia := a.Draw(setA)
		ub, ib := b.Draw(setB)
		assert.Equal(t, ua, ub)
		assert.Equal(t, ia, ib)
		// The stream advances exactly once per draw.
		assert.Equal(t, ref.Float64(), ua)
	}
}
