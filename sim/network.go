package sim

import "gonum.org/v1/gonum/spatial/r3"

// NodeTag identifies a node across domains.
type NodeTag struct {
	Domain int
	Index  int
}

// Unconstrained is the Node.Constraint value of a freely moving node.
const Unconstrained = 0

// Node is a discretization node of the dislocation network. Nodes are
// allocated by the Network and owned by it once arms are inserted.
type Node struct {
	Tag        NodeTag
	Position   r3.Vec
	Velocity   r3.Vec
	Constraint int
	Native     bool
}

// Network is the narrow mutation surface of the external dislocation
// network that loop insertion needs.
type Network interface {
	// AllocateNode returns a fresh node owned by the calling domain.
	AllocateNode() *Node
	// ClearArms removes all connectivity from n.
	ClearArms(n *Node)
	// InsertArm adds a directed arm from -> to carrying the given Burgers
	// vector and glide-plane normal. The reverse arm is inserted separately
	// with the Burgers vector negated.
	InsertArm(from *Node, to NodeTag, burgers, normal r3.Vec)
}
