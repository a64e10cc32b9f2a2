package sim

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// Loop node count bounds.
const (
	MinLoopNodes = 5
	MaxLoopNodes = 20
)

// voigtPairs maps Voigt components to tensor indices.
var voigtPairs = [6][2]int{{0, 0}, {1, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1}}

// Loop describes a loop inserted into the network.
type Loop struct {
	SiteID         int
	Center         r3.Vec
	Nodes          []*Node
	Burgers        r3.Vec // after any twist-sign flip
	Normal         r3.Vec
	SlipSystem     int
	SweptArea      float64
	TwistIncrement float64
	EffectiveRSS   float64 // n·S·b × raw site SCF
}

// LoopMaterializer builds loops for flagged sites and inserts them into the
// network, updating the plastic accumulators.
type LoopMaterializer struct {
	cfg   Config
	table [NumSlipSystems]SlipSystem
	rng   *rand.Rand
	net   Network
}

// NewLoopMaterializer creates a LoopMaterializer. rng drives the slip-system
// tie-break order.
func NewLoopMaterializer(cfg Config, net Network, rng *rand.Rand) *LoopMaterializer {
	return &LoopMaterializer{
		cfg:   cfg,
		table: SlipTable(cfg.Nucleation.Orientation),
		rng:   rng,
		net:   net,
	}
}

// LoopNodeCount returns round(2πR/segment) clamped to [MinLoopNodes, MaxLoopNodes].
func LoopNodeCount(loopRadius, segment float64) int {
	n := int(math.Round(2 * math.Pi * loopRadius / segment))
	if n < MinLoopNodes {
		n = MinLoopNodes
	}
	if n > MaxLoopNodes {
		n = MaxLoopNodes
	}
	return n
}

// LoopNodePositions places n nodes evenly on a circle of the given radius in
// the plane spanned by e1 = b and e2 = b × normal.
func LoopNodePositions(center, burgers, normal r3.Vec, radius float64, n int) []r3.Vec {
	e1 := burgers
	e2 := r3.Cross(burgers, normal)
	pos := make([]r3.Vec, n)
	for i := range pos {
		theta := 2 * math.Pi / float64(n) * float64(i)
		dir := r3.Add(r3.Scale(math.Cos(theta), e1), r3.Scale(math.Sin(theta), e2))
		pos[i] = r3.Add(center, r3.Scale(radius, dir))
	}
	return pos
}

// SweptArea returns ½R²α where α is the angle subtended at the centre by the
// first and last nodes. This is the area of a single sector, not of the
// polygon, and so shrinks as the node count grows.
func SweptArea(center r3.Vec, nodes []r3.Vec, radius float64) float64 {
	a := r3.Sub(nodes[0], center)
	b := r3.Sub(nodes[len(nodes)-1], center)
	alpha := math.Acos(r3.Dot(a, b) / (r3.Norm(a) * r3.Norm(b)))
	return 0.5 * radius * radius * alpha
}

// PlasticIncrements returns the symmetric and antisymmetric parts of n⊗b
// scaled by area/volume, in Voigt order.
func PlasticIncrements(normal, burgers r3.Vec, area, volume float64) (strain, spin [6]float64) {
	dyad := r3.NewMat(nil)
	dyad.Outer(area/(2*volume), normal, burgers)
	sym := r3.NewMat(nil)
	sym.Add(dyad, dyad.T())
	skew := r3.NewMat(nil)
	skew.Sub(dyad, dyad.T())
	for k, p := range voigtPairs {
		strain[k] = sym.At(p[0], p[1])
		spin[k] = skew.At(p[0], p[1])
	}
	return strain, spin
}

// twistIncrement returns the plastic twist carried by a loop at center,
// using the slip components in cylindrical coordinates and the mean radial
// distance of a surface loop.
func (m *LoopMaterializer) twistIncrement(center, burgers, normal r3.Vec, area float64) float64 {
	radius := m.cfg.Geometry.Radius
	l0 := gaugeLengthFactor * radius
	avgDistance := 0.5 * (radius + (radius - m.cfg.Nucleation.LoopRadius))
	polarMoment := 0.5 * math.Pi * math.Pow(radius, 4)

	cosq := center.X / radius
	sinq := center.Y / radius
	bq := -burgers.X*sinq + burgers.Y*cosq
	nq := -normal.X*sinq + normal.Y*cosq

	return avgDistance / (l0 * polarMoment) * (burgers.Z*nq + bq*normal.Z) * area
}

// Materialize nucleates a loop at site and inserts it into the network.
func (m *LoopMaterializer) Materialize(site *NucleationSite, st *State) Loop {
	cfg := m.cfg
	center := site.Position

	stress := LocalStress(st, cfg.Material, cfg.Loading.Mode, center)
	sys, idx := ResolveSlipSystem(&m.table, stress, m.rng)
	burgers, normal := sys.Burgers, sys.Normal

	n := LoopNodeCount(cfg.Nucleation.LoopRadius, cfg.Nucleation.SegmentLength)
	positions := LoopNodePositions(center, burgers, normal, cfg.Nucleation.LoopRadius, n)
	area := SweptArea(center, positions, cfg.Nucleation.LoopRadius)

	var dTwist float64
	if cfg.Loading.Mode.HasTorsion() {
		dTwist = m.twistIncrement(center, burgers, normal, area)
		if dTwist*cfg.Loading.TwistSign < 0 && cfg.Loading.Mode != LoadingTensionAfterTorsion {
			burgers = r3.Scale(-1, burgers)
			dTwist = -dTwist
		}
		st.Accumulators.PlasticTwist += dTwist
	}

	strain, spin := PlasticIncrements(normal, burgers, area, cfg.Geometry.SimVolume())
	for k := range strain {
		st.Accumulators.PlasticStrain[k] += strain[k]
		st.Accumulators.PlasticSpin[k] += spin[k]
	}

	nodes := m.insertRing(positions, burgers, normal)

	st.Accumulators.Nucleations++
	st.Accumulators.SlipSystemUsage[idx]++
	site.Count++

	loop := Loop{
		SiteID:         site.ID,
		Center:         center,
		Nodes:          nodes,
		Burgers:        burgers,
		Normal:         normal,
		SlipSystem:     idx,
		SweptArea:      area,
		TwistIncrement: dTwist,
		EffectiveRSS:   project(stress, normal, burgers) * site.SCF,
	}
	logrus.Infof("nucleation #%d at site %d (boundary=%t): c=[%.3f %.3f %.3f] b=[%.4f %.4f %.4f] n=[%.4f %.4f %.4f] rss*scf=%e",
		st.Accumulators.Nucleations, site.ID, site.OnBoundary,
		center.X, center.Y, center.Z,
		burgers.X, burgers.Y, burgers.Z,
		normal.X, normal.Y, normal.Z,
		loop.EffectiveRSS)
	return loop
}

// insertRing allocates one node per position and links each node to its
// successor with +b and to its predecessor with -b, closing the ring.
func (m *LoopMaterializer) insertRing(positions []r3.Vec, burgers, normal r3.Vec) []*Node {
	n := len(positions)
	nodes := make([]*Node, n)
	for i, p := range positions {
		node := m.net.AllocateNode()
		m.net.ClearArms(node)
		node.Native = true
		node.Constraint = Unconstrained
		node.Velocity = r3.Vec{}
		node.Position = p
		nodes[i] = node
	}
	minusB := r3.Scale(-1, burgers)
	for i, node := range nodes {
		next := nodes[(i+1)%n]
		prev := nodes[(i+n-1)%n]
		m.net.InsertArm(node, next.Tag, burgers, normal)
		m.net.InsertArm(node, prev.Tag, minusB, normal)
	}
	return nodes
}
