package eval

import (
	"fmt"
	"io"
	"os"

	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
)

// ComposedCall is the interpreter's whole mutable state: the pending call
// outer(inner(args...)). Each step inspects Inner's variant and rewrites the
// record; the loop stops when Inner is the halt sentinel, at which point
// Args[0] is the result.
type ComposedCall struct {
	Outer Value
	Inner Value
	Args  []Value
}

// Halt marks termination. It is recognized by pointer identity and must
// never actually run.
var Halt = &BuiltinFunc{
	Name: "halt",
	Fn: func(Value, []Value) (Value, error) {
		return nil, errors.Runtimef("dead code: halt function should never be invoked")
	},
}

func isHalt(v Value) bool {
	bf, ok := v.(*BuiltinFunc)
	return ok && bf == Halt
}

const maxTraceFrames = 64

// Interpreter executes core expressions. It is single-threaded; one
// interpreter must not be shared across goroutines.
type Interpreter struct {
	envMgr     *EnvMgr
	builtinEnv *Environment
	out        io.Writer
	trace      []string
}

// New creates an interpreter over the default builtin frame.
func New() *Interpreter {
	return NewWithFrame(nil)
}

// NewWithFrame creates an interpreter whose builtin frame is the default
// one extended with extra bindings. Domain packages use extra to expose
// their context values and type descriptors.
func NewWithFrame(extra Frame) *Interpreter {
	in := &Interpreter{
		envMgr: NewEnvMgr(),
		out:    os.Stdout,
	}
	frame := in.builtinFrame()
	for name, v := range extra {
		frame[name] = v
	}
	in.builtinEnv = in.envMgr.NewInitEnv(frame)
	return in
}

// SetOutput redirects print output, primarily for tests.
func (in *Interpreter) SetOutput(w io.Writer) { in.out = w }

// EnvMgr exposes the environment manager so callers abandoning a run can
// release frames.
func (in *Interpreter) EnvMgr() *EnvMgr { return in.envMgr }

// Trace returns the most recent closure-entry descriptions, outermost
// first. It is only meaningful right after a failed interpretation.
func (in *Interpreter) Trace() []string { return in.trace }

// Interpret applies a core lambda to arguments and runs to completion.
func (in *Interpreter) Interpret(lambda *core.Lambda, args []Value) (Value, error) {
	closure := &Closure{Lambda: lambda, Env: in.envMgr.New(in.builtinEnv)}
	return in.Apply(closure, args)
}

// Apply applies any callable value to arguments and runs to completion. It
// is also handed to higher-order builtins as their callback.
func (in *Interpreter) Apply(fn Value, args []Value) (Value, error) {
	call := &ComposedCall{Outer: Halt, Inner: fn, Args: args}
	for !isHalt(call.Inner) {
		if err := in.step(call); err != nil {
			return nil, err
		}
	}
	if len(call.Args) != 1 {
		return nil, errors.Runtimef("halt takes 1 argument but %d were given", len(call.Args))
	}
	return call.Args[0], nil
}

// step performs one reduction of the call record.
func (in *Interpreter) step(call *ComposedCall) error {
	switch inner := call.Inner.(type) {
	case *TypeValue:
		ctor, err := DispatchUnary(core.SymCall, inner)
		if err != nil {
			return errors.Typef("no constructor for type '%s'", inner.Name)
		}
		call.Inner = ctor
		return nil
	case *BuiltinFunc:
		return in.plainCall(inner.Fn, UnitVal, call)
	case *HigherOrderFunc:
		return in.higherOrderCall(inner.Fn, UnitVal, call)
	case *CPSFunc:
		return inner.Fn(in, call)
	case *Method:
		switch fn := inner.Fn.(type) {
		case *BuiltinFunc:
			return in.plainCall(fn.Fn, inner.Obj, call)
		case *HigherOrderFunc:
			return in.higherOrderCall(fn.Fn, inner.Obj, call)
		default:
			args := make([]Value, 0, len(call.Args)+1)
			args = append(args, inner.Obj)
			args = append(args, call.Args...)
			call.Inner = inner.Fn
			call.Args = args
			return nil
		}
	case *Closure:
		return in.enterClosure(call.Outer, inner, call.Args, call)
	case *Sym:
		return in.stepSymbol(inner.Sym, call)
	default:
		callee, err := in.resolveCallable(inner)
		if err != nil {
			return err
		}
		call.Inner = callee
		return nil
	}
}

// resolveCallable turns an arbitrary value into a callable via its
// __builtin_call__ unary entry.
func (in *Interpreter) resolveCallable(v Value) (Value, error) {
	fn, ok := MethodClassOf(v).Unary[core.SymCall]
	if !ok {
		return nil, errors.Typef("'%s' object is not callable", v.Type())
	}
	return fn(v)
}

// routeResult hands a synchronously computed value to the continuation. A
// closure continuation is entered directly, binding the result into its
// captured frame — this keeps the lexical __builtin_return__ chain intact
// for the rest of the binding chain. Any other continuation becomes the
// next inner function under a halt outer.
func (in *Interpreter) routeResult(ret Value, outer Value, call *ComposedCall) error {
	if cl, ok := outer.(*Closure); ok {
		return in.lambdaCall(cl.Env, Halt, cl.Lambda, []Value{ret}, call)
	}
	call.Outer = Halt
	call.Inner = outer
	call.Args = []Value{ret}
	return nil
}

// plainCall runs a plain builtin synchronously and routes the result to the
// continuation.
func (in *Interpreter) plainCall(fn BuiltinFn, obj Value, call *ComposedCall) error {
	outer := call.Outer
	ret, err := fn(obj, call.Args)
	if err != nil {
		return err
	}
	return in.routeResult(ret, outer, call)
}

func (in *Interpreter) higherOrderCall(
	fn func(ApplyFn, Value, []Value) (Value, error),
	obj Value,
	call *ComposedCall,
) error {
	outer := call.Outer
	ret, err := fn(in.Apply, obj, call.Args)
	if err != nil {
		return err
	}
	return in.routeResult(ret, outer, call)
}

// stepSymbol translates a builtin symbol in call position. if and apply are
// continuation-level, identity and list plain; operator symbols dispatch
// through the method classes and shuffle the result to the continuation.
func (in *Interpreter) stepSymbol(sym core.BuiltinSym, call *ComposedCall) error {
	switch sym {
	case core.SymIf:
		call.Inner = cpsIfFn
		return nil
	case core.SymApply:
		call.Inner = cpsApplyFn
		return nil
	case core.SymIdentity:
		call.Inner = identityFn
		return nil
	case core.SymList:
		call.Inner = listFn
		return nil
	}
	switch {
	case sym.IsUnaryOp():
		if len(call.Args) != 1 {
			return errors.Typef("'%s' takes 1 argument but %d were given", sym, len(call.Args))
		}
		ret, err := DispatchUnary(sym, call.Args[0])
		if err != nil {
			return err
		}
		return in.routeResult(ret, call.Outer, call)
	case sym.IsBinaryOp():
		if len(call.Args) != 2 {
			return errors.Typef("'%s' takes 2 arguments but %d were given", sym, len(call.Args))
		}
		ret, err := DispatchBinary(sym, call.Args[0], call.Args[1])
		if err != nil {
			return err
		}
		return in.routeResult(ret, call.Outer, call)
	default:
		return errors.Runtimef("builtin symbol '%s' is not callable", sym)
	}
}

// enterClosure allocates the closure's call scope, binds the continuation
// under __builtin_return__, and executes the lambda body.
func (in *Interpreter) enterClosure(continuation Value, cl *Closure, args []Value, call *ComposedCall) error {
	env := in.envMgr.New(cl.Env)
	env.Set(core.KBuiltinReturn, continuation)
	in.pushTrace(cl.Lambda)
	return in.lambdaCall(env, continuation, cl.Lambda, args, call)
}

// lambdaCall binds parameters into env and loads the body into the record.
func (in *Interpreter) lambdaCall(env *Environment, outer Value, lambda *core.Lambda, args []Value, call *ComposedCall) error {
	if len(args) != len(lambda.Params) {
		return errors.Typef("<lambda>() takes %d positional arguments but %d were given",
			len(lambda.Params), len(args))
	}
	for i, param := range lambda.Params {
		if !env.Set(param.Name, args[i]) {
			return errors.Syntaxf("duplicate argument '%s' in function definition", param.Name)
		}
	}
	switch body := lambda.Body.(type) {
	case *core.ComposedCall:
		return in.loadComposedCall(env, body, call)
	case core.Atomic:
		val, err := in.evalAtomic(env, body)
		if err != nil {
			return err
		}
		call.Outer = outer
		call.Inner = identityFn
		call.Args = []Value{val}
		return nil
	default:
		return errors.Runtimef("malformed lambda body %T", lambda.Body)
	}
}

func (in *Interpreter) loadComposedCall(env *Environment, cc *core.ComposedCall, call *ComposedCall) error {
	outer, err := in.evalAtomic(env, cc.Outer)
	if err != nil {
		return err
	}
	inner, err := in.evalAtomic(env, cc.Inner)
	if err != nil {
		return err
	}
	args := make([]Value, len(cc.Args))
	for i, arg := range cc.Args {
		args[i], err = in.evalAtomic(env, arg)
		if err != nil {
			return err
		}
	}
	call.Outer = outer
	call.Inner = inner
	call.Args = args
	return nil
}

// evalAtomic evaluates an atomic core expression in env. Unresolved names
// fall back to the builtin symbol vocabulary before failing.
func (in *Interpreter) evalAtomic(env *Environment, atom core.Atomic) (Value, error) {
	switch a := atom.(type) {
	case *core.Var:
		v, err := env.Get(a.Name)
		if err != nil {
			if sym, ok := core.SymbolFromName(a.Name); ok {
				return &Sym{Sym: sym}, nil
			}
			return nil, err
		}
		return v, nil
	case *core.Lambda:
		return &Closure{Lambda: a, Env: env}, nil
	case *core.Sym:
		return &Sym{Sym: a.Sym}, nil
	case *core.Unit:
		return UnitVal, nil
	case *core.Bool:
		return &Bool{Value: a.Value}, nil
	case *core.Int:
		return &Int{Value: a.Value}, nil
	case *core.Float:
		return &Float{Value: a.Value}, nil
	case *core.Str:
		return &Str{Value: a.Value}, nil
	default:
		return nil, errors.Runtimef("unknown atomic expression %T", atom)
	}
}

func (in *Interpreter) pushTrace(lambda *core.Lambda) {
	desc := "<lambda>"
	if len(lambda.Params) > 0 {
		names := make([]string, len(lambda.Params))
		for i, p := range lambda.Params {
			names[i] = p.Name
		}
		desc = fmt.Sprintf("<lambda %v>", names)
	}
	if len(in.trace) >= maxTraceFrames {
		in.trace = in.trace[1:]
	}
	in.trace = append(in.trace, desc)
}
