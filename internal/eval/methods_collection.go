package eval

import (
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
)

func init() {
	RegisterMethodClass("list", listMethodClass())
	RegisterMethodClass("object", objectMethodClass())

	RegisterTypeClass("list", &MethodClass{
		Unary: map[core.BuiltinSym]UnaryFn{
			core.SymCall: func(Value) (Value, error) {
				return &BuiltinFunc{Name: "list", Fn: constructList}, nil
			},
		},
	})
	RegisterTypeClass("object", &MethodClass{
		Unary: map[core.BuiltinSym]UnaryFn{
			core.SymCall: func(Value) (Value, error) {
				return &BuiltinFunc{Name: "object", Fn: constructObject}, nil
			},
		},
	})
}

func listMethodClass() *MethodClass {
	return &MethodClass{
		ToString: func(v Value) (Value, error) { return &Str{Value: v.String()}, nil },
		Unary: map[core.BuiltinSym]UnaryFn{
			core.SymStarred: func(v Value) (Value, error) {
				return &Starred{Obj: v}, nil
			},
		},
		Binary: map[core.BuiltinSym]BinaryFn{
			core.SymEQ: func(l, r Value) (Value, error) { return &Bool{Value: Equal(l, r)}, nil },
			core.SymNE: func(l, r Value) (Value, error) { return &Bool{Value: !Equal(l, r)}, nil },
			core.SymGetItem: func(l, r Value) (Value, error) {
				list := l.(*List)
				idx, err := AsInt(r)
				if err != nil {
					return nil, errors.Typef("list indices must be integers, not '%s'", r.Type())
				}
				if idx < 0 {
					idx += int64(len(list.Elems))
				}
				if idx < 0 || idx >= int64(len(list.Elems)) {
					return nil, errors.Indexf("list index out of range")
				}
				return list.Elems[idx], nil
			},
		},
	}
}

func objectMethodClass() *MethodClass {
	return &MethodClass{
		ToString: func(v Value) (Value, error) { return &Str{Value: v.String()}, nil },
		Binary: map[core.BuiltinSym]BinaryFn{
			core.SymEQ: func(l, r Value) (Value, error) { return &Bool{Value: Equal(l, r)}, nil },
			core.SymNE: func(l, r Value) (Value, error) { return &Bool{Value: !Equal(l, r)}, nil },
			core.SymGetAttr: func(l, r Value) (Value, error) {
				name, err := AsStr(r)
				if err != nil {
					return nil, err
				}
				v, ok := l.(*Object).Get(name)
				if !ok {
					return nil, errors.Attributef("object has no attribute '%s'", name)
				}
				return v, nil
			},
			core.SymSetAttr: func(l, r Value) (Value, error) {
				if _, err := AsStr(r); err != nil {
					return nil, err
				}
				return &Method{Obj: l, Fn: &BuiltinFunc{Name: "object.setattr", Fn: objectSetAttr}}, nil
			},
			core.SymGetItem: func(l, r Value) (Value, error) {
				name, err := AsStr(r)
				if err != nil {
					return nil, errors.Typef("object keys must be strings, not '%s'", r.Type())
				}
				v, ok := l.(*Object).Get(name)
				if !ok {
					return nil, errors.Indexf("object has no key '%s'", name)
				}
				return v, nil
			},
		},
	}
}

// objectSetAttr is the setter returned by __builtin_setattr__; it receives
// the attribute name and the value to store.
func objectSetAttr(obj Value, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, errors.Typef("object.setattr takes 2 arguments but %d were given", len(args))
	}
	name, err := AsStr(args[0])
	if err != nil {
		return nil, err
	}
	obj.(*Object).Set(name, args[1])
	return UnitVal, nil
}

func constructList(_ Value, args []Value) (Value, error) {
	switch len(args) {
	case 0:
		return &List{}, nil
	case 1:
		src, err := AsList(args[0])
		if err != nil {
			return nil, err
		}
		elems := make([]Value, len(src.Elems))
		copy(elems, src.Elems)
		return &List{Elems: elems}, nil
	default:
		return nil, errors.Typef("list() takes at most 1 argument but %d were given", len(args))
	}
}

func constructObject(_ Value, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, errors.Typef("object() takes no arguments but %d were given", len(args))
	}
	return NewObject(), nil
}
