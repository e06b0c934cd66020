package eval

import (
	"github.com/sunholo/apexpr/internal/core"
	"github.com/sunholo/apexpr/internal/errors"
)

// UnaryFn implements a unary symbol for one variant.
type UnaryFn func(v Value) (Value, error)

// BinaryFn implements a binary symbol for the variant of the left operand.
// It receives both operands; dispatch is single, on the left.
type BinaryFn func(l, r Value) (Value, error)

// MethodClass is the operation table one variant exposes to the
// interpreter. Absent entries mean the operation is a type error for that
// variant.
type MethodClass struct {
	ToString func(v Value) (Value, error)
	Unary    map[core.BuiltinSym]UnaryFn
	Binary   map[core.BuiltinSym]BinaryFn
}

var (
	methodClasses = map[string]*MethodClass{}
	typeClasses   = map[string]*MethodClass{}
	emptyClass    = &MethodClass{}
)

// RegisterMethodClass installs the operation table for the variant with the
// given type name. Domain packages call this from init.
func RegisterMethodClass(typeName string, mc *MethodClass) {
	methodClasses[typeName] = mc
}

// RegisterTypeClass installs the operation table for the type descriptor of
// the named variant; its __builtin_call__ entry is the constructor.
func RegisterTypeClass(typeName string, mc *MethodClass) {
	typeClasses[typeName] = mc
}

// MethodClassOf finds the operation table for a value's variant.
func MethodClassOf(v Value) *MethodClass {
	if tv, ok := v.(*TypeValue); ok {
		if mc, ok := typeClasses[tv.Name]; ok {
			return mc
		}
	}
	if mc, ok := methodClasses[v.Type()]; ok {
		return mc
	}
	return emptyClass
}

// DispatchUnary applies a unary symbol to an operand through its method
// class. String coercion uses the class's ToString entry when the unary
// table has none for it.
func DispatchUnary(sym core.BuiltinSym, v Value) (Value, error) {
	mc := MethodClassOf(v)
	fn, ok := mc.Unary[sym]
	if !ok && sym == core.SymToString && mc.ToString != nil {
		fn, ok = mc.ToString, true
	}
	if !ok {
		return nil, errors.Typef("unsupported operand type for %s: '%s'", sym.OpName(), v.Type())
	}
	return fn(v)
}

// DispatchBinary applies a binary symbol, dispatching on the left operand.
func DispatchBinary(sym core.BuiltinSym, l, r Value) (Value, error) {
	fn, ok := MethodClassOf(l).Binary[sym]
	if !ok {
		return nil, errors.Typef("unsupported operand type for %s: '%s'", sym.OpName(), l.Type())
	}
	return fn(l, r)
}

// ToStringValue renders a value through its method class, falling back to
// the native String form.
func ToStringValue(v Value) (string, error) {
	mc := MethodClassOf(v)
	if mc.ToString == nil {
		return v.String(), nil
	}
	sv, err := mc.ToString(v)
	if err != nil {
		return "", err
	}
	s, ok := sv.(*Str)
	if !ok {
		return "", errors.Typef("'%s'.__builtin_ToString__ should return a 'str' but '%s' was returned",
			v.Type(), sv.Type())
	}
	return s.Value, nil
}

// AsStr extracts a string payload or reports a type error.
func AsStr(v Value) (string, error) {
	s, ok := v.(*Str)
	if !ok {
		return "", errors.Typef("expected a 'str', got '%s'", v.Type())
	}
	return s.Value, nil
}

// AsInt extracts an integer payload or reports a type error.
func AsInt(v Value) (int64, error) {
	i, ok := v.(*Int)
	if !ok {
		return 0, errors.Typef("expected an 'int', got '%s'", v.Type())
	}
	return i.Value, nil
}

// AsList extracts a list or reports a type error.
func AsList(v Value) (*List, error) {
	l, ok := v.(*List)
	if !ok {
		return nil, errors.Typef("expected a 'list', got '%s'", v.Type())
	}
	return l, nil
}

// AsObject extracts an object or reports a type error.
func AsObject(v Value) (*Object, error) {
	o, ok := v.(*Object)
	if !ok {
		return nil, errors.Typef("expected an 'object', got '%s'", v.Type())
	}
	return o, nil
}

// AsClosure extracts a closure or reports a type error.
func AsClosure(v Value) (*Closure, error) {
	c, ok := v.(*Closure)
	if !ok {
		return nil, errors.Typef("expected a 'closure', got '%s'", v.Type())
	}
	return c, nil
}
