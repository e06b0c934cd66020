package drr

import (
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/graph"
)

// TensorUse is one position in an op call's input or output list. Packed
// uses come from starred tensor references and mean "zero or more values
// collapsed into a unit".
type TensorUse struct {
	Name   string
	Packed bool
}

// patternRecorder is what the o/t namespaces write into. The source pattern
// materializes a graph; the result pattern records a recipe.
type patternRecorder interface {
	// BindOp binds an op template to a namespace name, once.
	BindOp(name string, kind OpKind, opName string) error
	// HasOp reports whether name is bound.
	HasOp(name string) bool
	// Connect installs the edges of one op call.
	Connect(opName string, inputs, outputs []TensorUse) error
}

// SourcePattern is the graph template built by interpreting the
// source-pattern builder function.
type SourcePattern struct {
	Arena   *graph.NodeArena
	ops     map[string]*graph.Node
	tensors *tensorScope
}

func newSourcePattern(tensors *tensorScope) *SourcePattern {
	return &SourcePattern{
		Arena:   graph.NewNodeArena(),
		ops:     map[string]*graph.Node{},
		tensors: tensors,
	}
}

func (p *SourcePattern) BindOp(name string, kind OpKind, opName string) error {
	if _, dup := p.ops[name]; dup {
		return errors.Valuef("op '%s' is already bound in this pattern", name)
	}
	var node *graph.Node
	switch kind {
	case NativeOp:
		node = p.Arena.NewNode(NativeOpCstr(opName))
	case TrivialFusionOp:
		node = p.Arena.NewNode(PackedOpCstr(kind.String()))
	default:
		return errors.Valuef("op kind %s is not allowed in a source pattern", kind)
	}
	p.ops[name] = node
	return nil
}

func (p *SourcePattern) HasOp(name string) bool {
	_, ok := p.ops[name]
	return ok
}

func (p *SourcePattern) Connect(opName string, inputs, outputs []TensorUse) error {
	op, ok := p.ops[opName]
	if !ok {
		return errors.Namef("op '%s' is not bound in this pattern", opName)
	}
	for _, use := range inputs {
		value, err := p.tensorNode(use)
		if err != nil {
			return err
		}
		graph.Connect(value, op)
	}
	for _, use := range outputs {
		value, err := p.tensorNode(use)
		if err != nil {
			return err
		}
		graph.Connect(op, value)
	}
	return nil
}

// tensorNode fetches or materializes the value node for a tensor name.
// Every name maps to one node per pattern; packed names allocate ignored
// nodes the matcher steps over.
func (p *SourcePattern) tensorNode(use TensorUse) (*graph.Node, error) {
	if node, ok := p.tensors.sourceNode(use.Name); ok {
		return node, nil
	}
	var node *graph.Node
	if use.Packed {
		node = p.Arena.NewIgnoredNode(PackedValueCstr())
	} else {
		node = p.Arena.NewNode(NativeValueCstr())
	}
	p.tensors.bindSource(use.Name, node, use.Packed)
	return node, nil
}

// OpNode looks up the graph node bound to an op name.
func (p *SourcePattern) OpNode(name string) (*graph.Node, bool) {
	node, ok := p.ops[name]
	return node, ok
}

// OpNames lists the bound op names.
func (p *SourcePattern) OpNames() []string {
	names := make([]string, 0, len(p.ops))
	for name := range p.ops {
		names = append(names, name)
	}
	return names
}

// TensorNode looks up the value node bound to a tensor name.
func (p *SourcePattern) TensorNode(name string) (*graph.Node, bool) {
	return p.tensors.sourceNode(name)
}

// Anchor picks the pattern's match anchor: the graph-center op node.
func (p *SourcePattern) Anchor() (*graph.Node, error) {
	var start *graph.Node
	for _, node := range p.Arena.Nodes() {
		start = node
		break
	}
	if start == nil {
		return nil, errors.Valuef("source pattern is empty")
	}
	return graph.Center(start, func(n *graph.Node) bool {
		return IsOpCstr(n.Cstr)
	})
}

// ResultOpCall is one op application recorded by the result-pattern
// builder.
type ResultOpCall struct {
	Op      string
	Kind    OpKind
	OpName  string
	Inputs  []TensorUse
	Outputs []TensorUse
}

// ResultPattern is the replacement recipe recorded by interpreting the
// result-pattern builder function. It shares the tensor scope with the
// source pattern, so names resolve to the same tensors on both sides.
type ResultPattern struct {
	ops     map[string]OpKind
	opNames map[string]string
	Calls   []ResultOpCall
	tensors *tensorScope
}

func newResultPattern(tensors *tensorScope) *ResultPattern {
	return &ResultPattern{
		ops:     map[string]OpKind{},
		opNames: map[string]string{},
		tensors: tensors,
	}
}

func (p *ResultPattern) BindOp(name string, kind OpKind, opName string) error {
	if _, dup := p.ops[name]; dup {
		return errors.Valuef("op '%s' is already bound in this pattern", name)
	}
	if kind == TrivialFusionOp {
		return errors.Valuef("op kind %s is not allowed in a result pattern", kind)
	}
	p.ops[name] = kind
	p.opNames[name] = opName
	return nil
}

func (p *ResultPattern) HasOp(name string) bool {
	_, ok := p.ops[name]
	return ok
}

func (p *ResultPattern) Connect(opName string, inputs, outputs []TensorUse) error {
	kind, ok := p.ops[opName]
	if !ok {
		return errors.Namef("op '%s' is not bound in this pattern", opName)
	}
	p.Calls = append(p.Calls, ResultOpCall{
		Op:      opName,
		Kind:    kind,
		OpName:  p.opNames[opName],
		Inputs:  inputs,
		Outputs: outputs,
	})
	return nil
}

// tensorScope is the namespace shared by the source and result patterns.
type tensorScope struct {
	nodes  map[string]*graph.Node
	packed map[string]bool
}

func newTensorScope() *tensorScope {
	return &tensorScope{nodes: map[string]*graph.Node{}, packed: map[string]bool{}}
}

func (s *tensorScope) sourceNode(name string) (*graph.Node, bool) {
	node, ok := s.nodes[name]
	return node, ok
}

func (s *tensorScope) bindSource(name string, node *graph.Node, packed bool) {
	s.nodes[name] = node
	s.packed[name] = packed
}

// IsPackedTensor reports whether a tensor name was introduced through a
// starred reference.
func (p *SourcePattern) IsPackedTensor(name string) bool {
	return p.tensors.packed[name]
}
