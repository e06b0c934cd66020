// Package graph provides the generic node/edge model shared by pattern
// graphs and host IR views, and the anchor-rooted subgraph matcher driven by
// node constraints.
//
// The matcher is written solely against the Descriptor interface, so any
// graph — the pattern arena in this package, a host compiler's IR, or a test
// fixture — participates by implementing the five descriptor operations.
package graph

// NodeCstr is the opaque comparable tag the matcher uses to test whether a
// host node can stand in for a pattern node.
type NodeCstr string

// Visitor receives one neighbor per call. Returning an error aborts the
// traversal and propagates.
type Visitor[N comparable] func(N) error

// Descriptor is the view a graph exposes to the matcher.
type Descriptor[N comparable] interface {
	// VisitUpstream visits nodes feeding n, in operand order where the
	// graph has one.
	VisitUpstream(n N, visit Visitor[N]) error
	// VisitDownstream visits nodes consuming n.
	VisitDownstream(n N, visit Visitor[N]) error
	// NodeConstraint reports n's own constraint tag.
	NodeConstraint(n N) (NodeCstr, error)
	// Satisfies reports whether n can stand in for a node constrained by
	// cstr.
	Satisfies(n N, cstr NodeCstr) (bool, error)
	// IsIgnored marks nodes the matcher steps over without consuming.
	IsIgnored(n N) (bool, error)
}
