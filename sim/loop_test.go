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

func TestLoopNodeCount(t *testing.T) {
	tests := []struct {
		name    string
		radius  float64
		segment float64
		want    int
	}{
		{"default loop rounds 9.42 down", 30, 20, 9},
		{"tiny loop clamps to minimum", 1, 20, MinLoopNodes},
		{"huge loop clamps to maximum", 1000, 1, MaxLoopNodes},
		{"rounds 7.56 to nearest", 7 * 20 / (2 * math.Pi) * 1.08, 20, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LoopNodeCount(tt.radius, tt.segment))
		})
	}
}

func TestLoopNodePositions_OnCircleInGlidePlane(t *testing.T) {
	center := r3.Vec{X: 75, Y: 10, Z: -40}
	b := r3.Vec{X: 1}
	n := r3.Vec{Z: 1}

	pos := LoopNodePositions(center, b, n, 30, 9)

	require.Len(t, pos, 9)
	testutil.AssertVecNear(t, "node 0", r3.Add(center, r3.Vec{X: 30}), pos[0], 1e-9)
	for i, p := range pos {
		d := r3.Sub(p, center)
		assert.InDelta(t, 30, r3.Norm(d), 1e-9, "node %d radius", i)
		assert.InDelta(t, 0, r3.Dot(d, n), 1e-9, "node %d off plane", i)
	}
}

func TestSweptArea_SingleSector(t *testing.T) {
	// GIVEN a 9-node ring of radius 30
	center := r3.Vec{X: 1, Y: 2, Z: 3}
	pos := LoopNodePositions(center, r3.Vec{X: 1}, r3.Vec{Z: 1}, 30, 9)

	// WHEN the swept area is measured from the first and last nodes
	got := SweptArea(center, pos, 30)

	// THEN it is one sector of angle 2π/9, not the enclosed disc
	testutil.AssertFloat64Equal(t, "area", 0.5*30*30*2*math.Pi/9, got, 1e-9)
	assert.Less(t, got, math.Pi*30*30)
}

func TestPlasticIncrements_SimpleShear(t *testing.T) {
	strain, spin := PlasticIncrements(r3.Vec{Z: 1}, r3.Vec{X: 1}, 2, 4)

	want := [6]float64{XZ: 0.25}
	assert.Equal(t, want, strain)
	assert.Equal(t, [6]float64{XZ: -0.25}, spin)
}

func TestPlasticIncrements_StrainSymmetricSpinAntisymmetric(t *testing.T) {
	n := r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1})
	b := r3.Unit(r3.Vec{X: 1, Y: -1})
	s1, w1 := PlasticIncrements(n, b, 3, 7)
	s2, w2 := PlasticIncrements(b, n, 3, 7)
	for k := range s1 {
		assert.InDelta(t, s1[k], s2[k], 1e-15)
		assert.InDelta(t, -w1[k], w2[k], 1e-15)
	}
	// Diagonal spin components vanish.
	assert.Zero(t, w1[XX])
	assert.Zero(t, w1[YY])
	assert.Zero(t, w1[ZZ])
}

func TestPlasticIncrements_MatchesDyadComponents(t *testing.T) {
	n := r3.Unit(r3.Vec{X: -1, Y: 1, Z: 1})
	b := r3.Unit(r3.Vec{X: 1, Z: 1})
	nv := [3]float64{n.X, n.Y, n.Z}
	bv := [3]float64{b.X, b.Y, b.Z}
	scale := 5.0 / (2 * 11)

	strain, spin := PlasticIncrements(n, b, 5, 11)

	for k, p := range voigtPairs {
		i, j := p[0], p[1]
		assert.InDelta(t, (nv[i]*bv[j]+nv[j]*bv[i])*scale, strain[k], 1e-15, "strain[%d]", k)
		assert.InDelta(t, (nv[i]*bv[j]-nv[j]*bv[i])*scale, spin[k], 1e-15, "spin[%d]", k)
	}
}

func TestLoopMaterializer_Materialize_InsertsClosedRing(t *testing.T) {
	cfg := testConfig()
	net := newFakeNetwork()
	st := highStressState()
	m := NewLoopMaterializer(cfg, net, rand.New(rand.NewSource(testSeed)))
	site := &NucleationSite{ID: 4, Position: r3.Vec{X: 75, Z: 120}, SCF: 1.2}

	loop := m.Materialize(site, st)

	n := LoopNodeCount(cfg.Nucleation.LoopRadius, cfg.Nucleation.SegmentLength)
	require.Len(t, loop.Nodes, n)
	require.Len(t, net.nodes, n)
	assert.Len(t, net.cleared, n)
	minusB := r3.Scale(-1, loop.Burgers)
	for i, node := range loop.Nodes {
		assert.True(t, node.Native)
		assert.Equal(t, Unconstrained, node.Constraint)
		assert.InDelta(t, cfg.Nucleation.LoopRadius, r3.Norm(r3.Sub(node.Position, site.Position)), 1e-9)

		arms := net.arms[node.Tag]
		require.Len(t, arms, 2, "node %d", i)
		assert.Equal(t, loop.Nodes[(i+1)%n].Tag, arms[0].to)
		assert.Equal(t, loop.Burgers, arms[0].burgers)
		assert.Equal(t, loop.Nodes[(i+n-1)%n].Tag, arms[1].to)
		assert.Equal(t, minusB, arms[1].burgers)
		assert.Equal(t, loop.Normal, arms[0].normal)
	}
}

func TestLoopMaterializer_Materialize_UpdatesAccumulators(t *testing.T) {
	cfg := testConfig()
	st := highStressState()
	m := NewLoopMaterializer(cfg, newFakeNetwork(), rand.New(rand.NewSource(testSeed)))
	site := &NucleationSite{ID: 2, Position: r3.Vec{Y: -75}, SCF: 0.9}

	loop := m.Materialize(site, st)

	assert.Equal(t, 1, site.Count)
	assert.Equal(t, 1, st.Accumulators.Nucleations)
	assert.Equal(t, 1, st.Accumulators.SlipSystemUsage[loop.SlipSystem])
	assert.Zero(t, st.Accumulators.PlasticTwist, "no twist under tension")
	assert.Zero(t, loop.TwistIncrement)

	wantStrain, wantSpin := PlasticIncrements(loop.Normal, loop.Burgers, loop.SweptArea, cfg.Geometry.SimVolume())
	assert.Equal(t, wantStrain, st.Accumulators.PlasticStrain)
	assert.Equal(t, wantSpin, st.Accumulators.PlasticSpin)

	table := SlipTable(cfg.Nucleation.Orientation)
	assert.Equal(t, table[loop.SlipSystem].Burgers, loop.Burgers)
	testutil.AssertFloat64Equal(t, "rss*scf",
		project(StressTensor(st.AppliedStress), loop.Normal, loop.Burgers)*0.9, loop.EffectiveRSS, 1e-12)
}

func TestLoopMaterializer_Materialize_TensionSelectsMaxRSS(t *testing.T) {
	cfg := testConfig()
	st := highStressState()
	m := NewLoopMaterializer(cfg, newFakeNetwork(), rand.New(rand.NewSource(testSeed)))

	loop := m.Materialize(&NucleationSite{Position: r3.Vec{X: 75}, SCF: 1}, st)

	// Uniaxial z stress ties systems 3, 5, 6 and 7.
	assert.Contains(t, []int{3, 5, 6, 7}, loop.SlipSystem)
}

func torsionSites(t *testing.T, cfg Config) *SiteSet {
	t.Helper()
	sites, err := GenerateSites(cfg, rand.New(rand.NewSource(testSeed)))
	require.NoError(t, err)
	return sites
}

func TestLoopMaterializer_Torsion_TwistFollowsSign(t *testing.T) {
	for _, sign := range []float64{1, -1} {
		cfg := testConfig()
		cfg.Loading = NewLoadingConfig(LoadingTorsion, r3.Vec{Z: 1}, sign)
		st := NewState(300)
		st.AppliedTwist = 2
		m := NewLoopMaterializer(cfg, newFakeNetwork(), rand.New(rand.NewSource(testSeed)))
		table := SlipTable(cfg.Nucleation.Orientation)

		var sum float64
		sites := torsionSites(t, cfg)
		for i := range sites.Sites {
			loop := m.Materialize(&sites.Sites[i], st)
			assert.GreaterOrEqual(t, loop.TwistIncrement*sign, 0.0, "site %d sign %v", i, sign)
			sys := table[loop.SlipSystem]
			if loop.Burgers != sys.Burgers {
				assert.Equal(t, r3.Scale(-1, sys.Burgers), loop.Burgers, "flip only negates b")
			}
			sum += loop.TwistIncrement
		}
		testutil.AssertFloat64Equal(t, "plastic twist", sum, st.Accumulators.PlasticTwist, 1e-12)
	}
}

func TestLoopMaterializer_TensionAfterTorsion_NeverFlips(t *testing.T) {
	cfg := testConfig()
	cfg.Loading = NewLoadingConfig(LoadingTensionAfterTorsion, r3.Vec{Z: 1}, -1)
	st := NewState(300)
	st.AppliedTwist = 2
	st.AppliedStress[ZZ] = 5e9
	m := NewLoopMaterializer(cfg, newFakeNetwork(), rand.New(rand.NewSource(testSeed)))
	table := SlipTable(cfg.Nucleation.Orientation)

	var sum float64
	sites := torsionSites(t, cfg)
	for i := range sites.Sites {
		loop := m.Materialize(&sites.Sites[i], st)
		assert.Equal(t, table[loop.SlipSystem].Burgers, loop.Burgers, "site %d", i)
		sum += loop.TwistIncrement
	}
	testutil.AssertFloat64Equal(t, "plastic twist", sum, st.Accumulators.PlasticTwist, 1e-12)
}
