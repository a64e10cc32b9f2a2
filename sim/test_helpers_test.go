package sim

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// fakeArm is an arm captured by fakeNetwork.
type fakeArm struct {
	to      NodeTag
	burgers r3.Vec
	normal  r3.Vec
}

// fakeNetwork records every call made by the loop materializer.
// sim/network cannot be imported here without an import cycle.
type fakeNetwork struct {
	nodes   []*Node
	arms    map[NodeTag][]fakeArm
	cleared []NodeTag
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{arms: make(map[NodeTag][]fakeArm)}
}

func (f *fakeNetwork) AllocateNode() *Node {
	n := &Node{Tag: NodeTag{Index: len(f.nodes)}}
	f.nodes = append(f.nodes, n)
	return n
}

func (f *fakeNetwork) ClearArms(n *Node) {
	f.cleared = append(f.cleared, n.Tag)
	delete(f.arms, n.Tag)
}

func (f *fakeNetwork) InsertArm(from *Node, to NodeTag, burgers, normal r3.Vec) {
	f.arms[from.Tag] = append(f.arms[from.Tag], fakeArm{to: to, burgers: burgers, normal: normal})
}

// testConfig returns the 150 nm default pillar shrunk to the 19-site
// scenario: radius 75 at b = 2.5e-10.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Geometry = NewGeometryConfig(75, -500, 500)
	return cfg
}

// highStressState returns a state whose per-site probabilities saturate,
// forcing the cumulative distribution to be normalized.
func highStressState() *State {
	st := NewState(300)
	st.AppliedStress[ZZ] = 1e11
	return st
}

// testSeed is the seed of the reference regression runs.
const testSeed = 8917346
