package eval

import (
	"fmt"
	"strings"

	"github.com/sunholo/apexpr/internal/errors"
)

// The four symbol-backed builtins. if and apply operate on the call record
// itself; identity and list are plain functions.

var identityFn = &BuiltinFunc{
	Name: "__builtin_identity__",
	Fn: func(_ Value, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errors.Typef("__builtin_identity__ takes 1 argument but %d were given", len(args))
		}
		return args[0], nil
	},
}

var listFn = &BuiltinFunc{
	Name: "__builtin_list__",
	Fn: func(_ Value, args []Value) (Value, error) {
		elems := make([]Value, 0, len(args))
		for _, arg := range args {
			if starred, ok := arg.(*Starred); ok {
				sub, err := AsList(starred.Obj)
				if err != nil {
					return nil, errors.Typef("starred argument must wrap a list, got '%s'", starred.Obj.Type())
				}
				elems = append(elems, sub.Elems...)
				continue
			}
			elems = append(elems, arg)
		}
		return &List{Elems: elems}, nil
	},
}

// cpsIfFn selects a branch thunk strictly by the condition's truthiness and
// enters it with no arguments, routing the branch result through the
// current outer continuation.
var cpsIfFn = &CPSFunc{
	Name: "__builtin_if__",
	Fn: func(in *Interpreter, call *ComposedCall) error {
		if len(call.Args) != 3 {
			return errors.Typef("'if' takes 3 arguments but %d were given", len(call.Args))
		}
		branch := call.Args[2]
		if Truthy(call.Args[0]) {
			branch = call.Args[1]
		}
		cl, err := AsClosure(branch)
		if err != nil {
			return err
		}
		return in.enterClosure(call.Outer, cl, nil, call)
	},
}

// cpsApplyFn spreads a list of arguments onto a callee, leaving the outer
// continuation in place.
var cpsApplyFn = &CPSFunc{
	Name: "__builtin_apply__",
	Fn: func(_ *Interpreter, call *ComposedCall) error {
		if len(call.Args) != 2 {
			return errors.Typef("__builtin_apply__ takes 2 arguments but %d were given", len(call.Args))
		}
		list, ok := call.Args[1].(*List)
		if !ok {
			return errors.Typef("the second argument of __builtin_apply__ must be a list, '%s' was given",
				call.Args[1].Type())
		}
		args := make([]Value, len(list.Elems))
		copy(args, list.Elems)
		call.Inner = call.Args[0]
		call.Args = args
		return nil
	},
}

// builtinFrame seeds the root environment: exported type descriptors plus
// print.
func (in *Interpreter) builtinFrame() Frame {
	return Frame{
		"print":  &BuiltinFunc{Name: "print", Fn: in.printFn},
		"list":   &TypeValue{Name: "list"},
		"object": &TypeValue{Name: "object"},
	}
}

func (in *Interpreter) printFn(_ Value, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		s, err := ToStringValue(arg)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	fmt.Fprintln(in.out, strings.Join(parts, " "))
	return UnitVal, nil
}
