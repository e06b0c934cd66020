// Package drr implements the pattern-construction DSL: the context value a
// declarative-rewrite-rule program receives, the namespaces it builds
// patterns through, and the glue that drives the generic matcher with the
// finished source pattern.
package drr

import (
	"strings"

	"github.com/sunholo/apexpr/internal/graph"
)

// OpKind distinguishes the operator template variants a pattern can bind.
type OpKind int

const (
	// NativeOp matches exactly one host op with the given op name.
	NativeOp OpKind = iota
	// TrivialFusionOp matches one host fusion container as a single unit.
	TrivialFusionOp
	// PatternFusionOp is the fusion container a result pattern emits.
	PatternFusionOp
)

func (k OpKind) String() string {
	switch k {
	case NativeOp:
		return "ap_native_op"
	case TrivialFusionOp:
		return "ap_trivial_fusion_op"
	case PatternFusionOp:
		return "ap_pattern_fusion_op"
	default:
		return "unknown_op"
	}
}

// Node-constraint builders. Host graph descriptors must produce the same
// tags for their nodes to be matchable.

func NativeOpCstr(opName string) graph.NodeCstr {
	return graph.NodeCstr("native_op:" + opName)
}

func PackedOpCstr(kind string) graph.NodeCstr {
	return graph.NodeCstr("packed_op:" + kind)
}

func NativeValueCstr() graph.NodeCstr { return "native_value" }

func PackedValueCstr() graph.NodeCstr { return "packed_value" }

// IsOpCstr reports whether a constraint tags an op node (native or packed),
// as opposed to a value node. Anchor selection only considers op nodes.
func IsOpCstr(cstr graph.NodeCstr) bool {
	s := string(cstr)
	return strings.HasPrefix(s, "native_op:") || strings.HasPrefix(s, "packed_op:")
}
