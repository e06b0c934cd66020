package ast

import "fmt"

// Constructor helpers. These keep test and tool code terse and make the
// atomicity invariants visible at the call site.

func NewVar(name string) *Var          { return &Var{Name: name} }
func NewBool(v bool) *Bool             { return &Bool{Value: v} }
func NewInt(v int64) *Int              { return &Int{Value: v} }
func NewFloat(v float64) *Float        { return &Float{Value: v} }
func NewStr(v string) *Str             { return &Str{Value: v} }

func NewLambda(params []string, body AnfExpr) *Lambda {
	vars := make([]Var, len(params))
	for i, p := range params {
		vars[i] = Var{Name: p}
	}
	return &Lambda{Params: vars, Body: body}
}

func NewCall(fn Atomic, args ...Atomic) *Call {
	return &Call{Func: fn, Args: args}
}

func NewIf(cond Atomic, then, els AnfExpr) *If {
	return &If{Cond: cond, Then: then, Else: els}
}

func NewBind(name string, val Combined) Bind {
	return Bind{Var: Var{Name: name}, Val: val}
}

func NewLet(bindings []Bind, body AnfExpr) *Let {
	return &Let{Bindings: bindings, Body: body}
}

// LambdaBuilder accumulates let bindings with generated temporary names.
// Builder functions that produce DRR and kernel programs use it to assemble
// the deep let-chains the JSON form requires without naming every step.
type LambdaBuilder struct {
	seq      int
	bindings []Bind
}

// Fresh returns a unique temporary variable name.
func (b *LambdaBuilder) Fresh() string {
	name := fmt.Sprintf("__lambda_expr_tmp%d", b.seq)
	b.seq++
	return name
}

// Bind appends a binding of val to a fresh temporary and returns the
// temporary as an atomic reference.
func (b *LambdaBuilder) Bind(val Combined) *Var {
	name := b.Fresh()
	b.bindings = append(b.bindings, NewBind(name, val))
	return NewVar(name)
}

// BindNamed appends a binding under an explicit name.
func (b *LambdaBuilder) BindNamed(name string, val Combined) *Var {
	b.bindings = append(b.bindings, NewBind(name, val))
	return NewVar(name)
}

// Call binds fn(args...) to a fresh temporary.
func (b *LambdaBuilder) Call(fn Atomic, args ...Atomic) *Var {
	return b.Bind(NewCall(fn, args...))
}

// GetAttr binds obj.attr to a fresh temporary.
func (b *LambdaBuilder) GetAttr(obj Atomic, attr string) *Var {
	return b.Call(NewVar("__builtin_getattr__"), obj, NewStr(attr))
}

// SetAttr binds obj.attr = val (two steps: fetch the setter, invoke it).
func (b *LambdaBuilder) SetAttr(obj Atomic, attr string, val Atomic) *Var {
	setter := b.Call(NewVar("__builtin_setattr__"), obj, NewStr(attr))
	return b.Call(setter, NewStr(attr), val)
}

// List binds __builtin_list__(elems...) to a fresh temporary.
func (b *LambdaBuilder) List(elems ...Atomic) *Var {
	return b.Call(NewVar("__builtin_list__"), elems...)
}

// Starred binds __builtin_starred__(v) to a fresh temporary.
func (b *LambdaBuilder) Starred(v Atomic) *Var {
	return b.Call(NewVar("__builtin_starred__"), v)
}

// Body closes the builder over a final atomic result, yielding the let
// expression (or the bare result when no bindings were made).
func (b *LambdaBuilder) Body(result Atomic) AnfExpr {
	if len(b.bindings) == 0 {
		return result
	}
	ret := NewCall(NewVar("__builtin_identity__"), result)
	return NewLet(b.bindings, ret)
}

// Lambda closes the builder into a lambda with the given parameters.
func (b *LambdaBuilder) Lambda(params []string, result Atomic) *Lambda {
	return NewLambda(params, b.Body(result))
}
