// Package network provides an in-memory dislocation network that satisfies
// sim.Network. It stores nodes and directed arms for one domain and offers
// the topology checks used by tests and the CLI.
package network

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nucsim/nucsim/sim"
)

// Arm is a directed segment from its owning node to To.
type Arm struct {
	To      sim.NodeTag
	Burgers r3.Vec
	Normal  r3.Vec
}

// Graph is a single-domain dislocation network.
// Thread-safety: NOT thread-safe.
type Graph struct {
	Domain int
	nodes  []*sim.Node
	arms   map[sim.NodeTag][]Arm
}

// NewGraph creates an empty network owned by domain.
func NewGraph(domain int) *Graph {
	return &Graph{
		Domain: domain,
		arms:   make(map[sim.NodeTag][]Arm),
	}
}

// AllocateNode appends a fresh native node and returns it.
func (g *Graph) AllocateNode() *sim.Node {
	n := &sim.Node{
		Tag:    sim.NodeTag{Domain: g.Domain, Index: len(g.nodes)},
		Native: true,
	}
	g.nodes = append(g.nodes, n)
	return n
}

// ClearArms drops every arm owned by n.
func (g *Graph) ClearArms(n *sim.Node) {
	delete(g.arms, n.Tag)
}

// InsertArm adds a directed arm from -> to. Arms to unknown nodes are
// kept, since the target may live in another domain, but are logged.
func (g *Graph) InsertArm(from *sim.Node, to sim.NodeTag, burgers, normal r3.Vec) {
	if _, ok := g.Node(to); !ok {
		logrus.Warnf("arm %v -> %v targets a node outside domain %d", from.Tag, to, g.Domain)
	}
	g.arms[from.Tag] = append(g.arms[from.Tag], Arm{To: to, Burgers: burgers, Normal: normal})
}

// Node looks up a node by tag.
func (g *Graph) Node(tag sim.NodeTag) (*sim.Node, bool) {
	if tag.Domain != g.Domain || tag.Index < 0 || tag.Index >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[tag.Index], true
}

// Arms returns the arms owned by the node with the given tag.
func (g *Graph) Arms(tag sim.NodeTag) []Arm {
	return g.arms[tag]
}

// NumNodes returns the number of allocated nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumArms returns the number of directed arms.
func (g *Graph) NumArms() int {
	total := 0
	for _, a := range g.arms {
		total += len(a)
	}
	return total
}

// CheckBurgersConservation verifies that every arm has a reverse arm with
// the opposite Burgers vector and that the Burgers vectors leaving each node
// sum to zero within tol.
func (g *Graph) CheckBurgersConservation(tol float64) error {
	for _, n := range g.nodes {
		var sum r3.Vec
		for _, a := range g.arms[n.Tag] {
			sum = r3.Add(sum, a.Burgers)
			if !g.hasReverse(n.Tag, a, tol) {
				return fmt.Errorf("arm %v -> %v has no matching reverse arm", n.Tag, a.To)
			}
		}
		if r3.Norm(sum) > tol {
			return fmt.Errorf("node %v: net Burgers vector %v is not zero", n.Tag, sum)
		}
	}
	return nil
}

func (g *Graph) hasReverse(from sim.NodeTag, a Arm, tol float64) bool {
	for _, back := range g.arms[a.To] {
		if back.To == from && r3.Norm(r3.Add(back.Burgers, a.Burgers)) <= tol {
			return true
		}
	}
	return false
}

// Loops decomposes the network into closed rings, each listed in traversal
// order starting from its lowest-index node. Every node must have exactly
// two arms.
func (g *Graph) Loops() ([][]sim.NodeTag, error) {
	visited := make(map[sim.NodeTag]bool, len(g.nodes))
	var loops [][]sim.NodeTag
	for _, n := range g.nodes {
		if visited[n.Tag] {
			continue
		}
		ring, err := g.walk(n.Tag, visited)
		if err != nil {
			return nil, err
		}
		loops = append(loops, ring)
	}
	sort.SliceStable(loops, func(i, j int) bool { return loops[i][0].Index < loops[j][0].Index })
	return loops, nil
}

func (g *Graph) walk(start sim.NodeTag, visited map[sim.NodeTag]bool) ([]sim.NodeTag, error) {
	ring := []sim.NodeTag{start}
	visited[start] = true
	prev, cur := start, start
	for {
		arms := g.arms[cur]
		if len(arms) != 2 {
			return nil, fmt.Errorf("node %v has %d arms, want 2", cur, len(arms))
		}
		next := arms[0].To
		if next == prev && cur != start {
			next = arms[1].To
		}
		if next == start {
			return ring, nil
		}
		if visited[next] {
			return nil, fmt.Errorf("node %v revisited before ring closed", next)
		}
		visited[next] = true
		ring = append(ring, next)
		prev, cur = cur, next
	}
}
