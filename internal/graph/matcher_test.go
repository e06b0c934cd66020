package graph

import (
	"testing"

	"github.com/sunholo/apexpr/internal/errors"
)

// hostNode and hostGraph form a minimal host-side fixture implementing the
// descriptor interface.
type hostNode struct {
	name    string
	cstr    NodeCstr
	ignored bool
}

type hostGraph struct {
	up   map[*hostNode][]*hostNode
	down map[*hostNode][]*hostNode
}

func newHostGraph() *hostGraph {
	return &hostGraph{up: map[*hostNode][]*hostNode{}, down: map[*hostNode][]*hostNode{}}
}

func (g *hostGraph) edge(src, dst *hostNode) {
	g.down[src] = append(g.down[src], dst)
	g.up[dst] = append(g.up[dst], src)
}

func (g *hostGraph) VisitUpstream(n *hostNode, visit Visitor[*hostNode]) error {
	for _, up := range g.up[n] {
		if err := visit(up); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGraph) VisitDownstream(n *hostNode, visit Visitor[*hostNode]) error {
	for _, down := range g.down[n] {
		if err := visit(down); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGraph) NodeConstraint(n *hostNode) (NodeCstr, error) { return n.cstr, nil }

func (g *hostGraph) Satisfies(n *hostNode, cstr NodeCstr) (bool, error) {
	return n.cstr == cstr, nil
}

func (g *hostGraph) IsIgnored(n *hostNode) (bool, error) { return n.ignored, nil }

// buildChainPattern makes the pattern op(a) -> value -> op(b).
func buildChainPattern() (*NodeArena, *Node, *Node, *Node) {
	arena := NewNodeArena()
	opA := arena.NewNode("op:a")
	val := arena.NewNode("value")
	opB := arena.NewNode("op:b")
	Connect(opA, val)
	Connect(val, opB)
	return arena, opA, val, opB
}

func TestMatchChain(t *testing.T) {
	_, opA, val, opB := buildChainPattern()

	host := newHostGraph()
	hA := &hostNode{name: "hA", cstr: "op:a"}
	hV := &hostNode{name: "hV", cstr: "value"}
	hB := &hostNode{name: "hB", cstr: "op:b"}
	host.edge(hA, hV)
	host.edge(hV, hB)

	ctx, err := NewMatcher[*hostNode](host).MatchFromAnchor(opA, hA)
	if err != nil {
		t.Fatalf("MatchFromAnchor error: %v", err)
	}
	for _, pair := range []struct {
		p    *Node
		want *hostNode
	}{{opA, hA}, {val, hV}, {opB, hB}} {
		got, err := ctx.HostOf(pair.p)
		if err != nil {
			t.Fatalf("HostOf(%s) error: %v", pair.p, err)
		}
		if got != pair.want {
			t.Errorf("HostOf(%s) = %s, want %s", pair.p, got.name, pair.want.name)
		}
	}
}

// Match soundness: every matched host node satisfies its pattern node's
// constraint.
func TestMatchSoundness(t *testing.T) {
	_, opA, val, opB := buildChainPattern()

	host := newHostGraph()
	hA := &hostNode{name: "hA", cstr: "op:a"}
	hV := &hostNode{name: "hV", cstr: "value"}
	hB := &hostNode{name: "hB", cstr: "op:b"}
	host.edge(hA, hV)
	host.edge(hV, hB)

	ctx, err := NewMatcher[*hostNode](host).MatchFromAnchor(opB, hB)
	if err != nil {
		t.Fatalf("MatchFromAnchor error: %v", err)
	}
	for _, p := range []*Node{opA, val, opB} {
		h, err := ctx.HostOf(p)
		if err != nil {
			t.Fatalf("HostOf(%s) error: %v", p, err)
		}
		ok, err := host.Satisfies(h, p.Cstr)
		if err != nil || !ok {
			t.Errorf("matched host %s does not satisfy %s", h.name, p.Cstr)
		}
	}
}

func TestMatchAnchorMismatch(t *testing.T) {
	_, opA, _, _ := buildChainPattern()
	host := newHostGraph()
	wrong := &hostNode{name: "w", cstr: "op:other"}

	_, err := NewMatcher[*hostNode](host).MatchFromAnchor(opA, wrong)
	if err == nil || !errors.IsMismatch(err) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestMatchMissingNeighborMismatch(t *testing.T) {
	_, opA, _, _ := buildChainPattern()

	// Host has the anchor but the chain stops there.
	host := newHostGraph()
	hA := &hostNode{name: "hA", cstr: "op:a"}

	_, err := NewMatcher[*hostNode](host).MatchFromAnchor(opA, hA)
	if err == nil || !errors.IsMismatch(err) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

// A neighbor constraint disambiguates between several anchor-adjacent
// candidates (deferred tie-break).
func TestMatchNeighborDisambiguates(t *testing.T) {
	arena := NewNodeArena()
	op := arena.NewNode("op:a")
	val := arena.NewNode("value")
	sink := arena.NewNode("op:sink")
	Connect(op, val)
	Connect(val, sink)

	host := newHostGraph()
	hOp := &hostNode{name: "hOp", cstr: "op:a"}
	v1 := &hostNode{name: "v1", cstr: "value"}
	v2 := &hostNode{name: "v2", cstr: "value"}
	hSink := &hostNode{name: "hSink", cstr: "op:sink"}
	host.edge(hOp, v1)
	host.edge(hOp, v2)
	host.edge(v2, hSink)

	ctx, err := NewMatcher[*hostNode](host).MatchFromAnchor(op, hOp)
	if err != nil {
		t.Fatalf("MatchFromAnchor error: %v", err)
	}
	got, err := ctx.HostOf(val)
	if err != nil {
		t.Fatalf("HostOf(val) error: %v", err)
	}
	if got != v2 {
		t.Errorf("HostOf(val) = %s, want v2", got.name)
	}
}

// Ambiguity that no neighbor resolves fails the whole match.
func TestMatchAmbiguityFails(t *testing.T) {
	arena := NewNodeArena()
	op := arena.NewNode("op:a")
	val := arena.NewNode("value")
	Connect(op, val)

	host := newHostGraph()
	hOp := &hostNode{name: "hOp", cstr: "op:a"}
	v1 := &hostNode{name: "v1", cstr: "value"}
	v2 := &hostNode{name: "v2", cstr: "value"}
	host.edge(hOp, v1)
	host.edge(hOp, v2)

	_, err := NewMatcher[*hostNode](host).MatchFromAnchor(op, hOp)
	if err == nil || !errors.IsMismatch(err) {
		t.Fatalf("expected mismatch on ambiguity, got %v", err)
	}
}

// Ignored host nodes are stepped through without consuming a pattern
// position.
func TestMatchStepsThroughIgnoredHostNodes(t *testing.T) {
	arena := NewNodeArena()
	op := arena.NewNode("op:a")
	val := arena.NewNode("value")
	Connect(op, val)

	host := newHostGraph()
	hOp := &hostNode{name: "hOp", cstr: "op:a"}
	bridge := &hostNode{name: "bridge", cstr: "bridge", ignored: true}
	hV := &hostNode{name: "hV", cstr: "value"}
	host.edge(hOp, bridge)
	host.edge(bridge, hV)

	ctx, err := NewMatcher[*hostNode](host).MatchFromAnchor(op, hOp)
	if err != nil {
		t.Fatalf("MatchFromAnchor error: %v", err)
	}
	got, err := ctx.HostOf(val)
	if err != nil {
		t.Fatalf("HostOf(val) error: %v", err)
	}
	if got != hV {
		t.Errorf("HostOf(val) = %s, want hV", got.name)
	}
}

// Ignored pattern nodes need no host assignment.
func TestMatchIgnoredPatternNodes(t *testing.T) {
	arena := NewNodeArena()
	packed := arena.NewIgnoredNode("packed_value")
	op := arena.NewNode("op:a")
	out := arena.NewNode("value")
	Connect(packed, op)
	Connect(op, out)

	host := newHostGraph()
	hOp := &hostNode{name: "hOp", cstr: "op:a"}
	hOut := &hostNode{name: "hOut", cstr: "value"}
	host.edge(hOp, hOut)

	ctx, err := NewMatcher[*hostNode](host).MatchFromAnchor(op, hOp)
	if err != nil {
		t.Fatalf("MatchFromAnchor error: %v", err)
	}
	if _, err := ctx.HostOf(op); err != nil {
		t.Errorf("HostOf(op) error: %v", err)
	}
	if _, err := ctx.HostOf(packed); err == nil {
		t.Errorf("ignored pattern node unexpectedly matched")
	}
}

func TestCenter(t *testing.T) {
	arena := NewNodeArena()
	a := arena.NewNode("op:a")
	v1 := arena.NewNode("value")
	b := arena.NewNode("op:b")
	v2 := arena.NewNode("value")
	c := arena.NewNode("op:c")
	Connect(a, v1)
	Connect(v1, b)
	Connect(b, v2)
	Connect(v2, c)

	center, err := Center(a, func(n *Node) bool {
		return n == a || n == b || n == c
	})
	if err != nil {
		t.Fatalf("Center error: %v", err)
	}
	if center != b {
		t.Errorf("Center = %s, want the middle op", center)
	}
}
