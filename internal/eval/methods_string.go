package eval

import (
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
)

func init() {
	RegisterMethodClass("str", strMethodClass())
}

func strMethodClass() *MethodClass {
	cmp := func(test func(int) bool) BinaryFn {
		return func(l, r Value) (Value, error) {
			rs, err := AsStr(r)
			if err != nil {
				return nil, err
			}
			ls := l.(*Str).Value
			order := 0
			switch {
			case ls < rs:
				order = -1
			case ls > rs:
				order = 1
			}
			return &Bool{Value: test(order)}, nil
		}
	}
	return &MethodClass{
		ToString: func(v Value) (Value, error) { return v, nil },
		Binary: map[core.BuiltinSym]BinaryFn{
			core.SymAdd: func(l, r Value) (Value, error) {
				rs, err := AsStr(r)
				if err != nil {
					return nil, errors.Typef("can only concatenate str to str, not '%s'", r.Type())
				}
				return &Str{Value: l.(*Str).Value + rs}, nil
			},
			core.SymEQ: func(l, r Value) (Value, error) { return &Bool{Value: Equal(l, r)}, nil },
			core.SymNE: func(l, r Value) (Value, error) { return &Bool{Value: !Equal(l, r)}, nil },
			core.SymLT: cmp(func(o int) bool { return o < 0 }),
			core.SymLE: cmp(func(o int) bool { return o <= 0 }),
			core.SymGT: cmp(func(o int) bool { return o > 0 }),
			core.SymGE: cmp(func(o int) bool { return o >= 0 }),
			core.SymGetItem: func(l, r Value) (Value, error) {
				idx, err := AsInt(r)
				if err != nil {
					return nil, errors.Typef("string indices must be integers, not '%s'", r.Type())
				}
				runes := []rune(l.(*Str).Value)
				if idx < 0 {
					idx += int64(len(runes))
				}
				if idx < 0 || idx >= int64(len(runes)) {
					return nil, errors.Indexf("string index out of range")
				}
				return &Str{Value: string(runes[idx])}, nil
			},
		},
	}
}
