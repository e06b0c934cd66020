package graph

import "fmt"

// Node is a pattern-graph node. Edges are kept as ordered endpoint lists:
// the position in an op node's Upstreams is that operand's indexed role,
// while the mirrored entry in the value node's Downstreams carries no index.
type Node struct {
	id         int
	Cstr       NodeCstr
	Ignored    bool
	upstream   []*Node
	downstream []*Node
}

func (n *Node) ID() int { return n.id }

func (n *Node) String() string {
	return fmt.Sprintf("node%d(%s)", n.id, n.Cstr)
}

// Upstreams returns the ordered producer endpoints.
func (n *Node) Upstreams() []*Node { return n.upstream }

// Downstreams returns the consumer endpoints.
func (n *Node) Downstreams() []*Node { return n.downstream }

// NodeArena allocates pattern nodes with stable ids. Nodes from different
// arenas must never be connected.
type NodeArena struct {
	nodes []*Node
}

func NewNodeArena() *NodeArena { return &NodeArena{} }

// NewNode allocates a node carrying cstr.
func (a *NodeArena) NewNode(cstr NodeCstr) *Node {
	n := &Node{id: len(a.nodes), Cstr: cstr}
	a.nodes = append(a.nodes, n)
	return n
}

// NewIgnoredNode allocates a node the matcher passes through without
// consuming a host node.
func (a *NodeArena) NewIgnoredNode(cstr NodeCstr) *Node {
	n := a.NewNode(cstr)
	n.Ignored = true
	return n
}

// Nodes lists every allocated node in id order.
func (a *NodeArena) Nodes() []*Node { return a.nodes }

// Connect installs the directed edge src → dst. The edge's indexed role is
// its position in dst's upstream list.
func Connect(src, dst *Node) {
	src.downstream = append(src.downstream, dst)
	dst.upstream = append(dst.upstream, src)
}

// ArenaDescriptor views a NodeArena through the Descriptor interface.
type ArenaDescriptor struct{}

func (ArenaDescriptor) VisitUpstream(n *Node, visit Visitor[*Node]) error {
	for _, up := range n.upstream {
		if err := visit(up); err != nil {
			return err
		}
	}
	return nil
}

func (ArenaDescriptor) VisitDownstream(n *Node, visit Visitor[*Node]) error {
	for _, down := range n.downstream {
		if err := visit(down); err != nil {
			return err
		}
	}
	return nil
}

func (ArenaDescriptor) NodeConstraint(n *Node) (NodeCstr, error) { return n.Cstr, nil }

func (ArenaDescriptor) Satisfies(n *Node, cstr NodeCstr) (bool, error) {
	return n.Cstr == cstr, nil
}

func (ArenaDescriptor) IsIgnored(n *Node) (bool, error) { return n.Ignored, nil }
