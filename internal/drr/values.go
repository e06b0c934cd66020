package drr

import (
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
	"github.com/sunholo/apexpr/internal/eval"
)

// Ctx is the top-level value a DRR program receives. Programs set pass_name
// and register a source pattern and a result pattern through the two
// decorator attributes.
type Ctx struct {
	PassName string
	Source   *SourcePattern
	Result   *ResultPattern
	tensors  *tensorScope
}

func NewCtx() *Ctx {
	return &Ctx{tensors: newTensorScope()}
}

func (c *Ctx) Type() string   { return "DrrCtx" }
func (c *Ctx) String() string { return "<DrrCtx " + c.PassName + ">" }

// opNamespace is the o value handed to builder functions: writing binds op
// templates, reading returns bound ops, and the ap_* attributes make
// templates.
type opNamespace struct {
	rec patternRecorder
}

func (o *opNamespace) Type() string   { return "OpNamespace" }
func (o *opNamespace) String() string { return "<o>" }

// tensorNamespace is the t value: every attribute read names a tensor in
// the pattern's shared tensor scope.
type tensorNamespace struct{}

func (t *tensorNamespace) Type() string   { return "TensorNamespace" }
func (t *tensorNamespace) String() string { return "<t>" }

// opTemplate is an unbound operator template made by o.ap_native_op(...)
// and friends.
type opTemplate struct {
	Kind   OpKind
	OpName string
}

func (o *opTemplate) Type() string   { return "OpTemplate" }
func (o *opTemplate) String() string { return "<op " + o.Kind.String() + " " + o.OpName + ">" }

// boundOp is an op bound into a pattern namespace; calling it with input
// and output lists installs edges.
type boundOp struct {
	Name string
	rec  patternRecorder
}

func (b *boundOp) Type() string   { return "BoundOp" }
func (b *boundOp) String() string { return "<op " + b.Name + ">" }

// tensorRef names one tensor in the shared scope.
type tensorRef struct {
	Name string
}

func (t *tensorRef) Type() string   { return "TensorRef" }
func (t *tensorRef) String() string { return "<tensor " + t.Name + ">" }

// packedTensorRef is a starred tensor reference: zero or more tensors
// collapsed into a unit for matching.
type packedTensorRef struct {
	Name string
}

func (t *packedTensorRef) Type() string   { return "PackedTensorRef" }
func (t *packedTensorRef) String() string { return "<*tensor " + t.Name + ">" }

func init() {
	eval.RegisterMethodClass("DrrCtx", ctxMethodClass())
	eval.RegisterMethodClass("OpNamespace", opNamespaceMethodClass())
	eval.RegisterMethodClass("TensorNamespace", tensorNamespaceMethodClass())
	eval.RegisterMethodClass("BoundOp", boundOpMethodClass())
	eval.RegisterMethodClass("TensorRef", tensorRefMethodClass())
}

func ctxMethodClass() *eval.MethodClass {
	return &eval.MethodClass{
		Binary: map[core.BuiltinSym]eval.BinaryFn{
			core.SymGetAttr: func(l, r eval.Value) (eval.Value, error) {
				ctx := l.(*Ctx)
				name, err := eval.AsStr(r)
				if err != nil {
					return nil, err
				}
				switch name {
				case "pass_name":
					return &eval.Str{Value: ctx.PassName}, nil
				case "source_pattern":
					return &eval.Method{Obj: ctx, Fn: sourcePatternDecorator}, nil
				case "result_pattern":
					return &eval.Method{Obj: ctx, Fn: resultPatternDecorator}, nil
				default:
					return nil, errors.Attributef("'DrrCtx' object has no attribute '%s'", name)
				}
			},
			core.SymSetAttr: func(l, r eval.Value) (eval.Value, error) {
				if _, err := eval.AsStr(r); err != nil {
					return nil, err
				}
				return &eval.Method{Obj: l, Fn: ctxSetAttrFn}, nil
			},
		},
	}
}

var ctxSetAttrFn = &eval.BuiltinFunc{
	Name: "DrrCtx.setattr",
	Fn: func(obj eval.Value, args []eval.Value) (eval.Value, error) {
		if len(args) != 2 {
			return nil, errors.Typef("DrrCtx.setattr takes 2 arguments but %d were given", len(args))
		}
		name, err := eval.AsStr(args[0])
		if err != nil {
			return nil, err
		}
		if name != "pass_name" {
			return nil, errors.Attributef("'DrrCtx' attribute '%s' is not assignable", name)
		}
		passName, err := eval.AsStr(args[1])
		if err != nil {
			return nil, errors.Typef("pass_name must be a str, got '%s'", args[1].Type())
		}
		obj.(*Ctx).PassName = passName
		return eval.UnitVal, nil
	},
}

// sourcePatternDecorator immediately invokes the builder function with
// fresh o and t namespaces recording into a new source pattern.
var sourcePatternDecorator = &eval.HigherOrderFunc{
	Name: "DrrCtx.source_pattern",
	Fn: func(apply eval.ApplyFn, obj eval.Value, args []eval.Value) (eval.Value, error) {
		ctx := obj.(*Ctx)
		if len(args) != 1 {
			return nil, errors.Typef("source_pattern takes 1 argument but %d were given", len(args))
		}
		if ctx.Source != nil {
			return nil, errors.Valuef("source_pattern is already defined")
		}
		pattern := newSourcePattern(ctx.tensors)
		if _, err := apply(args[0], []eval.Value{
			&opNamespace{rec: pattern},
			&tensorNamespace{},
		}); err != nil {
			return nil, err
		}
		ctx.Source = pattern
		return args[0], nil
	},
}

// resultPatternDecorator records the replacement recipe over the same
// tensor scope as the source pattern.
var resultPatternDecorator = &eval.HigherOrderFunc{
	Name: "DrrCtx.result_pattern",
	Fn: func(apply eval.ApplyFn, obj eval.Value, args []eval.Value) (eval.Value, error) {
		ctx := obj.(*Ctx)
		if len(args) != 1 {
			return nil, errors.Typef("result_pattern takes 1 argument but %d were given", len(args))
		}
		if ctx.Source == nil {
			return nil, errors.Valuef("result_pattern requires a source_pattern")
		}
		if ctx.Result != nil {
			return nil, errors.Valuef("result_pattern is already defined")
		}
		pattern := newResultPattern(ctx.tensors)
		if _, err := apply(args[0], []eval.Value{
			&opNamespace{rec: pattern},
			&tensorNamespace{},
		}); err != nil {
			return nil, err
		}
		ctx.Result = pattern
		return args[0], nil
	},
}

func opNamespaceMethodClass() *eval.MethodClass {
	return &eval.MethodClass{
		Binary: map[core.BuiltinSym]eval.BinaryFn{
			core.SymGetAttr: func(l, r eval.Value) (eval.Value, error) {
				o := l.(*opNamespace)
				name, err := eval.AsStr(r)
				if err != nil {
					return nil, err
				}
				switch name {
				case "ap_native_op":
					return makeNativeOpFn, nil
				case "ap_trivial_fusion_op":
					return makeTrivialFusionOpFn, nil
				case "ap_pattern_fusion_op":
					return makePatternFusionOpFn, nil
				}
				if o.rec.HasOp(name) {
					return &boundOp{Name: name, rec: o.rec}, nil
				}
				return nil, errors.Attributef("op '%s' is not bound in this pattern", name)
			},
			core.SymSetAttr: func(l, r eval.Value) (eval.Value, error) {
				if _, err := eval.AsStr(r); err != nil {
					return nil, err
				}
				return &eval.Method{Obj: l, Fn: opNamespaceSetAttrFn}, nil
			},
		},
	}
}

var opNamespaceSetAttrFn = &eval.BuiltinFunc{
	Name: "OpNamespace.setattr",
	Fn: func(obj eval.Value, args []eval.Value) (eval.Value, error) {
		if len(args) != 2 {
			return nil, errors.Typef("OpNamespace.setattr takes 2 arguments but %d were given", len(args))
		}
		name, err := eval.AsStr(args[0])
		if err != nil {
			return nil, err
		}
		template, ok := args[1].(*opTemplate)
		if !ok {
			return nil, errors.Typef("op bindings must be op templates, got '%s'", args[1].Type())
		}
		if err := obj.(*opNamespace).rec.BindOp(name, template.Kind, template.OpName); err != nil {
			return nil, err
		}
		return eval.UnitVal, nil
	},
}

var makeNativeOpFn = &eval.BuiltinFunc{
	Name: "ap_native_op",
	Fn: func(_ eval.Value, args []eval.Value) (eval.Value, error) {
		if len(args) != 1 {
			return nil, errors.Typef("ap_native_op takes 1 argument but %d were given", len(args))
		}
		opName, err := eval.AsStr(args[0])
		if err != nil {
			return nil, errors.Typef("ap_native_op expects an op name string, got '%s'", args[0].Type())
		}
		return &opTemplate{Kind: NativeOp, OpName: opName}, nil
	},
}

var makeTrivialFusionOpFn = &eval.BuiltinFunc{
	Name: "ap_trivial_fusion_op",
	Fn: func(_ eval.Value, args []eval.Value) (eval.Value, error) {
		if len(args) != 0 {
			return nil, errors.Typef("ap_trivial_fusion_op takes no arguments but %d were given", len(args))
		}
		return &opTemplate{Kind: TrivialFusionOp}, nil
	},
}

var makePatternFusionOpFn = &eval.BuiltinFunc{
	Name: "ap_pattern_fusion_op",
	Fn: func(_ eval.Value, args []eval.Value) (eval.Value, error) {
		if len(args) != 0 {
			return nil, errors.Typef("ap_pattern_fusion_op takes no arguments but %d were given", len(args))
		}
		return &opTemplate{Kind: PatternFusionOp}, nil
	},
}

func tensorNamespaceMethodClass() *eval.MethodClass {
	return &eval.MethodClass{
		Binary: map[core.BuiltinSym]eval.BinaryFn{
			core.SymGetAttr: func(l, r eval.Value) (eval.Value, error) {
				name, err := eval.AsStr(r)
				if err != nil {
					return nil, err
				}
				return &tensorRef{Name: name}, nil
			},
		},
	}
}

func tensorRefMethodClass() *eval.MethodClass {
	return &eval.MethodClass{
		Unary: map[core.BuiltinSym]eval.UnaryFn{
			core.SymStarred: func(v eval.Value) (eval.Value, error) {
				return &packedTensorRef{Name: v.(*tensorRef).Name}, nil
			},
		},
	}
}

func boundOpMethodClass() *eval.MethodClass {
	return &eval.MethodClass{
		Unary: map[core.BuiltinSym]eval.UnaryFn{
			core.SymCall: func(v eval.Value) (eval.Value, error) {
				return &eval.Method{Obj: v, Fn: connectOpFn}, nil
			},
		},
	}
}

// connectOpFn installs the edges of one op call: op([inputs], [outputs]).
var connectOpFn = &eval.BuiltinFunc{
	Name: "BoundOp.call",
	Fn: func(obj eval.Value, args []eval.Value) (eval.Value, error) {
		op := obj.(*boundOp)
		if len(args) != 2 {
			return nil, errors.Typef("op '%s' takes an input list and an output list but %d arguments were given",
				op.Name, len(args))
		}
		inputs, err := tensorUses(args[0])
		if err != nil {
			return nil, err
		}
		outputs, err := tensorUses(args[1])
		if err != nil {
			return nil, err
		}
		if err := op.rec.Connect(op.Name, inputs, outputs); err != nil {
			return nil, err
		}
		return eval.UnitVal, nil
	},
}

func tensorUses(v eval.Value) ([]TensorUse, error) {
	list, err := eval.AsList(v)
	if err != nil {
		return nil, errors.Typef("op inputs and outputs must be lists, got '%s'", v.Type())
	}
	uses := make([]TensorUse, 0, len(list.Elems))
	for _, elem := range list.Elems {
		switch ref := elem.(type) {
		case *tensorRef:
			uses = append(uses, TensorUse{Name: ref.Name})
		case *packedTensorRef:
			uses = append(uses, TensorUse{Name: ref.Name, Packed: true})
		default:
			return nil, errors.Typef("op lists may only hold tensors, got '%s'", elem.Type())
		}
	}
	return uses, nil
}
