package core

// replaceVar substitutes free occurrences of pattern with replacement.
// Lambdas that rebind pattern are left untouched.
func replaceVar(expr CoreExpr, pattern, replacement string) CoreExpr {
	switch e := expr.(type) {
	case *Lambda:
		for _, arg := range e.Params {
			if arg.Name == pattern {
				return e
			}
		}
		return NewLambda(paramNames(e.Params), replaceVar(e.Body, pattern, replacement))
	case *Var:
		if e.Name == pattern {
			return NewVar(replacement)
		}
		return e
	case *ComposedCall:
		outer := replaceVarAtomic(e.Outer, pattern, replacement)
		inner := replaceVarAtomic(e.Inner, pattern, replacement)
		args := make([]Atomic, len(e.Args))
		for i, arg := range e.Args {
			args[i] = replaceVarAtomic(arg, pattern, replacement)
		}
		return NewComposedCall(outer, inner, args)
	default:
		return expr
	}
}

func replaceVarAtomic(atom Atomic, pattern, replacement string) Atomic {
	return replaceVar(atom, pattern, replacement).(Atomic)
}

func paramNames(params []Var) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// ReplaceLambdaArgName α-renames every lambda parameter named name to a
// fresh name drawn from fresh, rewriting the occurrences in the lambda
// body. It is a public capture-avoidance helper; Lower does not call it.
func ReplaceLambdaArgName(expr CoreExpr, name string, fresh func() string) CoreExpr {
	switch e := expr.(type) {
	case *Lambda:
		body := ReplaceLambdaArgName(e.Body, name, fresh)
		if !lambdaBinds(e, name) {
			return NewLambda(paramNames(e.Params), body)
		}
		replacement := fresh()
		params := make([]string, len(e.Params))
		for i, p := range e.Params {
			if p.Name == name {
				params[i] = replacement
			} else {
				params[i] = p.Name
			}
		}
		return NewLambda(params, replaceVar(body, name, replacement))
	case *ComposedCall:
		outer := ReplaceLambdaArgName(e.Outer, name, fresh).(Atomic)
		inner := ReplaceLambdaArgName(e.Inner, name, fresh).(Atomic)
		args := make([]Atomic, len(e.Args))
		for i, arg := range e.Args {
			args[i] = ReplaceLambdaArgName(arg, name, fresh).(Atomic)
		}
		return NewComposedCall(outer, inner, args)
	default:
		return expr
	}
}

func lambdaBinds(l *Lambda, name string) bool {
	for _, p := range l.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Inline collapses identity calls and single-use continuation parameters so
// dumped core forms stay readable. Semantics are preserved; the interpreter
// accepts both shapes.
func Inline(expr CoreExpr) CoreExpr {
	switch e := expr.(type) {
	case *Lambda:
		return NewLambda(paramNames(e.Params), Inline(e.Body))
	case *ComposedCall:
		cc := inlineChildren(e)
		if ret, ok := tryInlineIdentity(cc); ok {
			return ret
		}
		if ret, ok := tryInlineInnerLambda(cc); ok {
			return ret
		}
		return cc
	default:
		return expr
	}
}

func inlineAtomic(atom Atomic) Atomic {
	return Inline(atom).(Atomic)
}

func inlineChildren(cc *ComposedCall) *ComposedCall {
	args := make([]Atomic, len(cc.Args))
	for i, arg := range cc.Args {
		args[i] = inlineAtomic(arg)
	}
	return NewComposedCall(inlineAtomic(cc.Outer), inlineAtomic(cc.Inner), args)
}

// tryInlineIdentity rewrites (λx. body)(identity(v)) into body[x := v] when
// v is a variable.
func tryInlineIdentity(cc *ComposedCall) (CoreExpr, bool) {
	outer, ok := cc.Outer.(*Lambda)
	if !ok || len(outer.Params) != 1 {
		return nil, false
	}
	if sym, ok := cc.Inner.(*Sym); !ok || sym.Sym != SymIdentity {
		return nil, false
	}
	if len(cc.Args) != 1 {
		return nil, false
	}
	arg, ok := cc.Args[0].(*Var)
	if !ok {
		return nil, false
	}
	return replaceVar(outer.Body, outer.Params[0].Name, arg.Name), true
}

// tryInlineInnerLambda substitutes variable arguments of an inner lambda
// directly into its body, shrinking the parameter list.
func tryInlineInnerLambda(cc *ComposedCall) (CoreExpr, bool) {
	inner, ok := cc.Inner.(*Lambda)
	if !ok || len(inner.Params) != len(cc.Args) {
		return nil, false
	}
	if varArgIndex(cc) < 0 {
		return nil, false
	}
	ret := cc
	for {
		idx := varArgIndex(ret)
		if idx < 0 {
			break
		}
		ret = inlineInnerLambdaArg(ret, idx)
	}
	return ret, true
}

func varArgIndex(cc *ComposedCall) int {
	for i, arg := range cc.Args {
		if _, ok := arg.(*Var); ok {
			return i
		}
	}
	return -1
}

func inlineInnerLambdaArg(cc *ComposedCall, idx int) *ComposedCall {
	inner := cc.Inner.(*Lambda)
	params := make([]string, 0, len(inner.Params)-1)
	for i, p := range inner.Params {
		if i != idx {
			params = append(params, p.Name)
		}
	}
	args := make([]Atomic, 0, len(cc.Args)-1)
	for i, a := range cc.Args {
		if i != idx {
			args = append(args, a)
		}
	}
	body := replaceVar(inner.Body, inner.Params[idx].Name, cc.Args[idx].(*Var).Name)
	return NewComposedCall(cc.Outer, NewLambda(params, body), args)
}
