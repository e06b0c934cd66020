package graph

import (
	"sort"

	"github.com/sunholo/apexpr/internal/errors"
)

// MatchCtx records, for every pattern node, the host nodes still able to
// stand in for it. On success every non-ignored pattern node maps to
// exactly one host node.
type MatchCtx[HN comparable] struct {
	candidates map[*Node]map[HN]struct{}
}

func newMatchCtx[HN comparable]() *MatchCtx[HN] {
	return &MatchCtx[HN]{candidates: map[*Node]map[HN]struct{}{}}
}

// HostOf returns the single host node matched to p.
func (ctx *MatchCtx[HN]) HostOf(p *Node) (HN, error) {
	var zero HN
	set, ok := ctx.candidates[p]
	if !ok {
		return zero, errors.Mismatchf("pattern %s has no host candidate", p)
	}
	if len(set) != 1 {
		return zero, errors.Mismatchf("pattern %s has %d host candidates", p, len(set))
	}
	for h := range set {
		return h, nil
	}
	return zero, nil
}

// Matcher aligns a pattern arena with a host graph. Both sides are reached
// only through their descriptors.
type Matcher[HN comparable] struct {
	ptn  Descriptor[*Node]
	host Descriptor[HN]
}

func NewMatcher[HN comparable](host Descriptor[HN]) *Matcher[HN] {
	return &Matcher[HN]{ptn: ArenaDescriptor{}, host: host}
}

type direction int

const (
	upstream direction = iota
	downstream
)

// MatchFromAnchor matches the pattern reachable from anchor against the
// host graph, aligning anchor with hostAnchor. Failure to align is reported
// as a mismatch error, the signal to try the next host anchor.
func (m *Matcher[HN]) MatchFromAnchor(anchor *Node, hostAnchor HN) (*MatchCtx[HN], error) {
	cstr, err := m.ptn.NodeConstraint(anchor)
	if err != nil {
		return nil, err
	}
	ok, err := m.host.Satisfies(hostAnchor, cstr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Mismatchf("host anchor does not satisfy %s", anchor)
	}

	ctx := newMatchCtx[HN]()
	ctx.candidates[anchor] = map[HN]struct{}{hostAnchor: {}}

	// Constraint propagation from the anchor outward. Candidate sets only
	// shrink once assigned, so the worklist converges; ambiguous nodes are
	// revisited as their neighbors tighten (deferred tie-breaking).
	worklist := []*Node{anchor}
	inList := map[*Node]bool{anchor: true}
	for len(worklist) > 0 {
		p := worklist[0]
		worklist = worklist[1:]
		inList[p] = false
		changed, err := m.propagate(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, q := range changed {
			if !inList[q] {
				inList[q] = true
				worklist = append(worklist, q)
			}
		}
	}

	if err := m.validate(ctx, anchor); err != nil {
		return nil, err
	}
	return ctx, nil
}

// propagate tightens the candidate sets of p's neighbors from p's own set,
// returning the neighbors whose sets changed.
func (m *Matcher[HN]) propagate(ctx *MatchCtx[HN], p *Node) ([]*Node, error) {
	var changed []*Node
	for _, dir := range []direction{upstream, downstream} {
		neighbors, err := m.patternNeighbors(p, dir)
		if err != nil {
			return nil, err
		}
		for _, q := range neighbors {
			if q.Ignored {
				continue
			}
			tightened, err := m.tighten(ctx, p, q, dir)
			if err != nil {
				return nil, err
			}
			if tightened {
				changed = append(changed, q)
			}
		}
	}
	return changed, nil
}

// tighten computes q's feasible hosts as seen from p across dir and
// intersects them into q's candidate set.
func (m *Matcher[HN]) tighten(ctx *MatchCtx[HN], p, q *Node, dir direction) (bool, error) {
	qCstr, err := m.ptn.NodeConstraint(q)
	if err != nil {
		return false, err
	}
	feasible := map[HN]struct{}{}
	for h := range ctx.candidates[p] {
		err := m.visitHostNeighbors(h, dir, func(hn HN) error {
			ok, err := m.host.Satisfies(hn, qCstr)
			if err != nil {
				return err
			}
			if ok {
				feasible[hn] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return false, err
		}
	}

	current, assigned := ctx.candidates[q]
	if !assigned {
		if len(feasible) == 0 {
			return false, errors.Mismatchf("no host candidate for pattern %s", q)
		}
		ctx.candidates[q] = feasible
		return true, nil
	}
	shrunk := false
	for h := range current {
		if _, ok := feasible[h]; !ok {
			delete(current, h)
			shrunk = true
		}
	}
	if len(current) == 0 {
		return false, errors.Mismatchf("host candidates for pattern %s exhausted", q)
	}
	return shrunk, nil
}

// visitHostNeighbors traverses one step on the host side, transparently
// stepping through ignored host nodes so they never consume a pattern
// position.
func (m *Matcher[HN]) visitHostNeighbors(h HN, dir direction, visit Visitor[HN]) error {
	step := func(n HN, v Visitor[HN]) error {
		if dir == upstream {
			return m.host.VisitUpstream(n, v)
		}
		return m.host.VisitDownstream(n, v)
	}
	var walk Visitor[HN]
	seen := map[HN]struct{}{}
	walk = func(n HN) error {
		ignored, err := m.host.IsIgnored(n)
		if err != nil {
			return err
		}
		if !ignored {
			return visit(n)
		}
		if _, dup := seen[n]; dup {
			return nil
		}
		seen[n] = struct{}{}
		return step(n, walk)
	}
	return step(h, walk)
}

func (m *Matcher[HN]) patternNeighbors(p *Node, dir direction) ([]*Node, error) {
	var neighbors []*Node
	collect := func(n *Node) error {
		neighbors = append(neighbors, n)
		return nil
	}
	var err error
	if dir == upstream {
		err = m.ptn.VisitUpstream(p, collect)
	} else {
		err = m.ptn.VisitDownstream(p, collect)
	}
	return neighbors, err
}

// validate enforces the completion invariant: every non-ignored pattern
// node reachable from the anchor holds exactly one candidate. Remaining
// ambiguity fails the whole match.
func (m *Matcher[HN]) validate(ctx *MatchCtx[HN], anchor *Node) error {
	for _, p := range reachable(anchor) {
		if p.Ignored {
			continue
		}
		set, ok := ctx.candidates[p]
		if !ok || len(set) == 0 {
			return errors.Mismatchf("pattern %s left unmatched", p)
		}
		if len(set) > 1 {
			return errors.Mismatchf("pattern %s is ambiguous: %d host candidates remain", p, len(set))
		}
	}
	return nil
}

// reachable lists the nodes connected to start (both directions), in id
// order for determinism.
func reachable(start *Node) []*Node {
	seen := map[*Node]bool{start: true}
	stack := []*Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, nb := range append(append([]*Node{}, n.upstream...), n.downstream...) {
			if !seen[nb] {
				seen[nb] = true
				stack = append(stack, nb)
			}
		}
	}
	nodes := make([]*Node, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].id < nodes[j].id })
	return nodes
}
