// Package elaborate lowers surface expressions into the continuation-passing
// core form.
//
// The lowering is continuation-threading: every combined sub-expression
// becomes a function from "the rest of the computation" (an atomic
// continuation) to a composed call. Let chains fold right-to-left into
// single-parameter outer lambdas, and the final value of a body reaches the
// enclosing scope through the distinguished __builtin_return__ continuation
// variable.
package elaborate

import (
	"fmt"

	"github.com/sunholo/apexpr/internal/ast"
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
)

// lazyCore is a core expression still waiting for its continuation.
type lazyCore func(continuation core.Atomic) *core.ComposedCall

// maybeLazy is either a finished atomic core expression or a lazyCore.
type maybeLazy struct {
	atom core.Atomic
	lazy lazyCore
}

func coreVal(atom core.Atomic) maybeLazy { return maybeLazy{atom: atom} }
func lazyVal(lazy lazyCore) maybeLazy    { return maybeLazy{lazy: lazy} }

// Lower converts a surface expression to its core form.
func Lower(expr ast.AnfExpr) (core.CoreExpr, error) {
	val, err := convert(expr)
	if err != nil {
		return nil, err
	}
	lazy, err := forceLazy(val)
	if err != nil {
		return nil, err
	}
	ret := lazy(core.NewVar(core.KBuiltinReturn))
	return stripReturnIdentity(ret), nil
}

// stripReturnIdentity unwraps the trailing
// __builtin_return__(__builtin_identity__(x)) a bare atomic lowers into.
func stripReturnIdentity(cc *core.ComposedCall) core.CoreExpr {
	outer, ok := cc.Outer.(*core.Var)
	if !ok || outer.Name != core.KBuiltinReturn {
		return cc
	}
	inner, ok := cc.Inner.(*core.Sym)
	if !ok || inner.Sym != core.SymIdentity {
		return cc
	}
	if len(cc.Args) != 1 {
		return cc
	}
	return cc.Args[0]
}

func convert(expr ast.AnfExpr) (maybeLazy, error) {
	switch e := expr.(type) {
	case ast.Atomic:
		return convertAtomic(e)
	case *ast.Call:
		return convertCall(e)
	case *ast.If:
		return convertIf(e)
	case *ast.Let:
		return convertLet(e)
	default:
		return maybeLazy{}, errors.InvalidArgf("unknown surface expression %T", expr)
	}
}

// forceLazy wraps an already-atomic value into the canonical
// continuation(identity(atom)) shape.
func forceLazy(val maybeLazy) (lazyCore, error) {
	if val.lazy != nil {
		return val.lazy, nil
	}
	atom := val.atom
	if atom == nil {
		return nil, errors.InvalidArgf("lowering produced neither an atomic nor a lazy core expression")
	}
	return func(continuation core.Atomic) *core.ComposedCall {
		return core.NewComposedCall(continuation, core.NewSym(core.SymIdentity), []core.Atomic{atom})
	}, nil
}

func convertAtomic(expr ast.Atomic) (maybeLazy, error) {
	switch e := expr.(type) {
	case *ast.Var:
		if sym, ok := core.SymbolFromName(e.Name); ok {
			return coreVal(core.NewSym(sym)), nil
		}
		return coreVal(core.NewVar(e.Name)), nil
	case *ast.Bool:
		return coreVal(core.NewBool(e.Value)), nil
	case *ast.Int:
		return coreVal(core.NewInt(e.Value)), nil
	case *ast.Float:
		return coreVal(core.NewFloat(e.Value)), nil
	case *ast.Str:
		return coreVal(core.NewStr(e.Value)), nil
	case *ast.Lambda:
		return convertLambda(e)
	default:
		return maybeLazy{}, errors.InvalidArgf("unknown atomic expression %T", expr)
	}
}

func convertLambda(l *ast.Lambda) (maybeLazy, error) {
	bodyVal, err := convert(l.Body)
	if err != nil {
		return maybeLazy{}, err
	}
	bodyLazy, err := forceLazy(bodyVal)
	if err != nil {
		return maybeLazy{}, err
	}
	body := stripReturnIdentity(bodyLazy(core.NewVar(core.KBuiltinReturn)))
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.Name
	}
	return coreVal(core.NewLambda(params, body)), nil
}

func convertAtomicToAtomic(expr ast.Atomic) (core.Atomic, error) {
	val, err := convertAtomic(expr)
	if err != nil {
		return nil, err
	}
	if val.atom == nil {
		return nil, errors.InvalidArgf("atomic expression lowered to a non-atomic form: %s", expr)
	}
	return val.atom, nil
}

func convertCall(c *ast.Call) (maybeLazy, error) {
	inner, err := convertAtomicToAtomic(c.Func)
	if err != nil {
		return maybeLazy{}, err
	}
	args := make([]core.Atomic, len(c.Args))
	for i, a := range c.Args {
		arg, err := convertAtomicToAtomic(a)
		if err != nil {
			return maybeLazy{}, err
		}
		args[i] = arg
	}
	return lazyVal(func(continuation core.Atomic) *core.ComposedCall {
		return core.NewComposedCall(continuation, inner, args)
	}), nil
}

// convertIf lowers a conditional into a composed call of the if symbol over
// the condition and two zero-argument branch thunks.
func convertIf(i *ast.If) (maybeLazy, error) {
	cond, err := convertAtomicToAtomic(i.Cond)
	if err != nil {
		return maybeLazy{}, err
	}
	thenThunk, err := convertAtomicToAtomic(ast.NewLambda(nil, i.Then))
	if err != nil {
		return maybeLazy{}, err
	}
	elseThunk, err := convertAtomicToAtomic(ast.NewLambda(nil, i.Else))
	if err != nil {
		return maybeLazy{}, err
	}
	return lazyVal(func(continuation core.Atomic) *core.ComposedCall {
		return core.NewComposedCall(continuation, core.NewSym(core.SymIf),
			[]core.Atomic{cond, thenThunk, elseThunk})
	}), nil
}

func convertLet(l *ast.Let) (maybeLazy, error) {
	names := make([]string, 0, len(l.Bindings))
	lazies := make([]lazyCore, 0, len(l.Bindings)+1)
	for _, binding := range l.Bindings {
		val, err := convert(binding.Val)
		if err != nil {
			return maybeLazy{}, err
		}
		if val.lazy == nil {
			return maybeLazy{}, errors.InvalidArgf("let binding value lowered to a non-combined form: %s", binding.Val)
		}
		names = append(names, binding.Var.Name)
		lazies = append(lazies, val.lazy)
	}
	bodyVal, err := convert(l.Body)
	if err != nil {
		return maybeLazy{}, err
	}
	bodyLazy, err := forceLazy(bodyVal)
	if err != nil {
		return maybeLazy{}, err
	}
	lazies = append(lazies, bodyLazy)
	return lazyVal(func(continuation core.Atomic) *core.ComposedCall {
		// Fold right-to-left: each binding's continuation is a lambda
		// binding that name over the remainder of the chain.
		for i := len(lazies) - 1; i > 0; i-- {
			body := lazies[i](continuation)
			continuation = core.NewLambda([]string{names[i-1]}, body)
		}
		return lazies[0](continuation)
	}), nil
}

// FreshNamer returns a generator of unique variable names with the given
// prefix, for use with core.ReplaceLambdaArgName.
func FreshNamer(prefix string) func() string {
	seq := 0
	return func() string {
		name := fmt.Sprintf("%s%d", prefix, seq)
		seq++
		return name
	}
}
