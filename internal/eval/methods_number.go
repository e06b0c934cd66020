package eval

import (
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
)

// Numeric dispatch follows the left operand: int op int stays integral,
// any float operand promotes to float, comparisons yield bool. Division
// and modulo by zero are value errors.

func init() {
	RegisterMethodClass("int", intMethodClass())
	RegisterMethodClass("float", floatMethodClass())
	RegisterMethodClass("bool", boolMethodClass())
}

func intMethodClass() *MethodClass {
	binary := map[core.BuiltinSym]BinaryFn{}
	for _, sym := range []core.BuiltinSym{
		core.SymAdd, core.SymSub, core.SymMul, core.SymDiv, core.SymMod,
		core.SymEQ, core.SymNE, core.SymGT, core.SymGE, core.SymLT, core.SymLE,
	} {
		sym := sym
		binary[sym] = func(l, r Value) (Value, error) {
			return numericBinary(sym, l, r)
		}
	}
	return &MethodClass{
		ToString: func(v Value) (Value, error) { return &Str{Value: v.String()}, nil },
		Unary: map[core.BuiltinSym]UnaryFn{
			core.SymNeg: func(v Value) (Value, error) {
				return &Int{Value: -v.(*Int).Value}, nil
			},
			core.SymNot: func(v Value) (Value, error) {
				return &Bool{Value: v.(*Int).Value == 0}, nil
			},
		},
		Binary: binary,
	}
}

func floatMethodClass() *MethodClass {
	binary := map[core.BuiltinSym]BinaryFn{}
	for _, sym := range []core.BuiltinSym{
		core.SymAdd, core.SymSub, core.SymMul, core.SymDiv,
		core.SymEQ, core.SymNE, core.SymGT, core.SymGE, core.SymLT, core.SymLE,
	} {
		sym := sym
		binary[sym] = func(l, r Value) (Value, error) {
			return numericBinary(sym, l, r)
		}
	}
	return &MethodClass{
		ToString: func(v Value) (Value, error) { return &Str{Value: v.String()}, nil },
		Unary: map[core.BuiltinSym]UnaryFn{
			core.SymNeg: func(v Value) (Value, error) {
				return &Float{Value: -v.(*Float).Value}, nil
			},
			core.SymNot: func(v Value) (Value, error) {
				return &Bool{Value: v.(*Float).Value == 0}, nil
			},
		},
		Binary: binary,
	}
}

func boolMethodClass() *MethodClass {
	return &MethodClass{
		ToString: func(v Value) (Value, error) { return &Str{Value: v.String()}, nil },
		Unary: map[core.BuiltinSym]UnaryFn{
			core.SymNot: func(v Value) (Value, error) {
				return &Bool{Value: !v.(*Bool).Value}, nil
			},
		},
		Binary: map[core.BuiltinSym]BinaryFn{
			core.SymEQ: func(l, r Value) (Value, error) { return &Bool{Value: Equal(l, r)}, nil },
			core.SymNE: func(l, r Value) (Value, error) { return &Bool{Value: !Equal(l, r)}, nil },
		},
	}
}

// asNumeric views a value as (integer, floating, isFloat).
func asNumeric(v Value) (int64, float64, bool, error) {
	switch v := v.(type) {
	case *Int:
		return v.Value, float64(v.Value), false, nil
	case *Float:
		return 0, v.Value, true, nil
	default:
		return 0, 0, false, errors.Typef("expected a number, got '%s'", v.Type())
	}
}

func numericBinary(sym core.BuiltinSym, l, r Value) (Value, error) {
	li, lf, lIsFloat, err := asNumeric(l)
	if err != nil {
		return nil, err
	}
	ri, rf, rIsFloat, err := asNumeric(r)
	if err != nil {
		return nil, errors.Typef("unsupported operand types for %s: '%s' and '%s'",
			sym.OpName(), l.Type(), r.Type())
	}
	if lIsFloat || rIsFloat {
		return floatBinary(sym, lf, rf)
	}
	return intBinary(sym, li, ri)
}

func intBinary(sym core.BuiltinSym, l, r int64) (Value, error) {
	switch sym {
	case core.SymAdd:
		return &Int{Value: l + r}, nil
	case core.SymSub:
		return &Int{Value: l - r}, nil
	case core.SymMul:
		return &Int{Value: l * r}, nil
	case core.SymDiv:
		if r == 0 {
			return nil, errors.Valuef("integer division by zero")
		}
		return &Int{Value: l / r}, nil
	case core.SymMod:
		if r == 0 {
			return nil, errors.Valuef("integer modulo by zero")
		}
		return &Int{Value: l % r}, nil
	case core.SymEQ:
		return &Bool{Value: l == r}, nil
	case core.SymNE:
		return &Bool{Value: l != r}, nil
	case core.SymGT:
		return &Bool{Value: l > r}, nil
	case core.SymGE:
		return &Bool{Value: l >= r}, nil
	case core.SymLT:
		return &Bool{Value: l < r}, nil
	case core.SymLE:
		return &Bool{Value: l <= r}, nil
	default:
		return nil, errors.Typef("unsupported integer operation %s", sym.OpName())
	}
}

func floatBinary(sym core.BuiltinSym, l, r float64) (Value, error) {
	switch sym {
	case core.SymAdd:
		return &Float{Value: l + r}, nil
	case core.SymSub:
		return &Float{Value: l - r}, nil
	case core.SymMul:
		return &Float{Value: l * r}, nil
	case core.SymDiv:
		if r == 0 {
			return nil, errors.Valuef("float division by zero")
		}
		return &Float{Value: l / r}, nil
	case core.SymMod:
		return nil, errors.Typef("unsupported operand type for %%: 'float'")
	case core.SymEQ:
		return &Bool{Value: l == r}, nil
	case core.SymNE:
		return &Bool{Value: l != r}, nil
	case core.SymGT:
		return &Bool{Value: l > r}, nil
	case core.SymGE:
		return &Bool{Value: l >= r}, nil
	case core.SymLT:
		return &Bool{Value: l < r}, nil
	case core.SymLE:
		return &Bool{Value: l <= r}, nil
	default:
		return nil, errors.Typef("unsupported float operation %s", sym.OpName())
	}
}
