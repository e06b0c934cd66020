package drr

import (
	"sort"

	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/graph"
)

// MatchResult binds a completed match: every named op and tensor of the
// source pattern is mapped to its host node.
type MatchResult[HN comparable] struct {
	Ctx     *Ctx
	matched *graph.MatchCtx[HN]
}

// Match aligns the context's source pattern anchor with hostAnchor. A
// mismatch error means "try the next host location".
func Match[HN comparable](ctx *Ctx, host graph.Descriptor[HN], hostAnchor HN) (*MatchResult[HN], error) {
	if ctx.Source == nil {
		return nil, errors.Valuef("DRR context has no source pattern")
	}
	anchor, err := ctx.Source.Anchor()
	if err != nil {
		return nil, err
	}
	matched, err := graph.NewMatcher[HN](host).MatchFromAnchor(anchor, hostAnchor)
	if err != nil {
		return nil, err
	}
	return &MatchResult[HN]{Ctx: ctx, matched: matched}, nil
}

// MatchFirst tries the anchors in order and returns the first match.
// Mismatches are consumed as control flow; any other error aborts.
func MatchFirst[HN comparable](ctx *Ctx, host graph.Descriptor[HN], anchors []HN) (*MatchResult[HN], error) {
	for _, anchor := range anchors {
		res, err := Match(ctx, host, anchor)
		if err == nil {
			return res, nil
		}
		if !errors.IsMismatch(err) {
			return nil, err
		}
	}
	return nil, errors.Mismatchf("no host anchor matches the source pattern")
}

// OpHost returns the host node matched to a named source op.
func (r *MatchResult[HN]) OpHost(name string) (HN, error) {
	var zero HN
	node, ok := r.Ctx.Source.OpNode(name)
	if !ok {
		return zero, errors.Namef("op '%s' is not bound in the source pattern", name)
	}
	return r.matched.HostOf(node)
}

// TensorHost returns the host node matched to a named tensor. Packed
// tensors have no single host binding and report a value error.
func (r *MatchResult[HN]) TensorHost(name string) (HN, error) {
	var zero HN
	node, ok := r.Ctx.Source.TensorNode(name)
	if !ok {
		return zero, errors.Namef("tensor '%s' is not bound in the source pattern", name)
	}
	if node.Ignored {
		return zero, errors.Valuef("tensor '%s' is packed and has no single host binding", name)
	}
	return r.matched.HostOf(node)
}

// TensorBinding resolves one tensor use for the rewriter. Packed uses and
// names introduced by the result pattern carry no host node.
type TensorBinding[HN comparable] struct {
	Name   string
	Packed bool
	Host   HN
	Bound  bool
}

// Rewriter is the host-side collaborator that applies a result pattern.
// The match layer never mutates host IR itself.
type Rewriter[HN comparable] interface {
	// CreateOp materializes one result-pattern op over the given tensor
	// bindings and returns the created host op.
	CreateOp(call ResultOpCall, inputs, outputs []TensorBinding[HN]) (HN, error)
	// EraseOp removes a matched source op from the host graph.
	EraseOp(op HN) error
}

// ApplyResult replays the result-pattern recipe through the rewriter, then
// erases the matched source ops in deterministic (name) order.
func ApplyResult[HN comparable](r *MatchResult[HN], rw Rewriter[HN]) error {
	if r.Ctx.Result == nil {
		return errors.Valuef("DRR context has no result pattern")
	}
	for _, call := range r.Ctx.Result.Calls {
		inputs, err := bindTensors(r, call.Inputs)
		if err != nil {
			return err
		}
		outputs, err := bindTensors(r, call.Outputs)
		if err != nil {
			return err
		}
		if _, err := rw.CreateOp(call, inputs, outputs); err != nil {
			return err
		}
	}
	names := r.Ctx.Source.OpNames()
	sort.Strings(names)
	for _, name := range names {
		host, err := r.OpHost(name)
		if err != nil {
			return err
		}
		if err := rw.EraseOp(host); err != nil {
			return err
		}
	}
	return nil
}

func bindTensors[HN comparable](r *MatchResult[HN], uses []TensorUse) ([]TensorBinding[HN], error) {
	bindings := make([]TensorBinding[HN], 0, len(uses))
	for _, use := range uses {
		binding := TensorBinding[HN]{Name: use.Name, Packed: use.Packed}
		if node, ok := r.Ctx.Source.TensorNode(use.Name); ok && !node.Ignored && !use.Packed {
			host, err := r.matched.HostOf(node)
			if err != nil {
				return nil, err
			}
			binding.Host = host
			binding.Bound = true
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}
