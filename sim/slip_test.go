package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nucsim/nucsim/sim/internal/testutil"
)

func TestFCCSlipSystems_UnitAndOrthogonal(t *testing.T) {
	for i, sys := range FCCSlipSystems() {
		testutil.AssertFloat64Equal(t, "|n|", 1, r3.Norm(sys.Normal), 1e-12)
		testutil.AssertFloat64Equal(t, "|b|", 1, r3.Norm(sys.Burgers), 1e-12)
		assert.InDelta(t, 0, r3.Dot(sys.Normal, sys.Burgers), 1e-12, "system %d: b not in plane", i)
	}
}

func TestOrientationMatrix_Orthonormal(t *testing.T) {
	for _, o := range []Orientation{OrientationIdentity, Orientation110, Orientation111} {
		t.Run(string(o), func(t *testing.T) {
			m := OrientationMatrix(o)
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					var dot float64
					for k := 0; k < 3; k++ {
						dot += m.At(i, k) * m.At(j, k)
					}
					want := 0.0
					if i == j {
						want = 1
					}
					assert.InDelta(t, want, dot, 1e-12, "rows %d,%d", i, j)
				}
			}
		})
	}
}

func TestOrientationMatrix_111MapsAxisToZ(t *testing.T) {
	a := 1 / math.Sqrt(3)
	got := OrientationMatrix(Orientation111).MulVec(r3.Vec{X: a, Y: a, Z: a})
	testutil.AssertVecNear(t, "[111]", r3.Vec{Z: 1}, got, 1e-12)
}

func TestSlipTable_RotationPreservesGeometry(t *testing.T) {
	for _, o := range []Orientation{Orientation110, Orientation111} {
		for i, sys := range SlipTable(o) {
			assert.InDelta(t, 1, r3.Norm(sys.Normal), 1e-12, "%s system %d", o, i)
			assert.InDelta(t, 1, r3.Norm(sys.Burgers), 1e-12, "%s system %d", o, i)
			assert.InDelta(t, 0, r3.Dot(sys.Normal, sys.Burgers), 1e-12, "%s system %d", o, i)
		}
	}
}

func TestSlipTable_EmptyOrientationIsIdentity(t *testing.T) {
	assert.Equal(t, FCCSlipSystems(), SlipTable(""))
}

func TestSlipPermutation_IsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(testSeed))
	for trial := 0; trial < 100; trial++ {
		order := slipPermutation(rng)
		seen := make(map[int]bool, NumSlipSystems)
		for _, i := range order {
			require.True(t, i >= 0 && i < NumSlipSystems)
			seen[i] = true
		}
		assert.Len(t, seen, NumSlipSystems)
	}
}

func TestMaxInOrder_TieReturnsLastVisited(t *testing.T) {
	var rss [NumSlipSystems]float64
	for i := range rss {
		rss[i] = 7
	}
	order := [NumSlipSystems]int{4, 2, 9, 0, 1, 3, 5, 6, 7, 8, 10, 11}
	assert.Equal(t, 11, maxInOrder(rss, order))

	order[11], order[3] = order[3], order[11]
	assert.Equal(t, 0, maxInOrder(rss, order))
}

func TestMaxInOrder_AllNegativeStillSelects(t *testing.T) {
	var rss [NumSlipSystems]float64
	for i := range rss {
		rss[i] = -float64(i + 1)
	}
	var order [NumSlipSystems]int
	for i := range order {
		order[i] = i
	}
	assert.Equal(t, 0, maxInOrder(rss, order))
}

func TestResolveSlipSystem_PicksMaximum(t *testing.T) {
	table := SlipTable(OrientationIdentity)
	stress := StressTensor([6]float64{1e8, -2e8, 3e8, 5e7, -4e7, 2e7})
	rss := ResolvedShearStresses(&table, stress)

	sys, idx := ResolveSlipSystem(&table, stress, rand.New(rand.NewSource(testSeed)))

	assert.Equal(t, table[idx], sys)
	for i, v := range rss {
		assert.GreaterOrEqual(t, rss[idx], v, "system %d exceeds selected %d", i, idx)
	}
}

func TestResolveSlipSystem_UniaxialTieFollowsPermutation(t *testing.T) {
	// GIVEN uniaxial z stress: systems 3, 5, 6 and 7 share the maximum
	table := SlipTable(OrientationIdentity)
	stress := StressTensor([6]float64{ZZ: 1e9})
	tied := map[int]bool{3: true, 5: true, 6: true, 7: true}

	// WHEN resolving with a known stream
	_, idx := ResolveSlipSystem(&table, stress, rand.New(rand.NewSource(testSeed)))

	// THEN the winner is the last tied system in that stream's visiting order
	order := slipPermutation(rand.New(rand.NewSource(testSeed)))
	want := -1
	for _, i := range order {
		if tied[i] {
			want = i
		}
	}
	assert.Equal(t, want, idx)
}
